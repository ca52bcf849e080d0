package loader

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func loadImageFile(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, err
	}
	defer f.Close()
	return DecodeImage(f)
}

// DecodeImage decodes any registered image format from r into RGBA8.
// PNG, JPEG and GIF come from the standard library; BMP, TIFF and WebP from golang.org/x/image.
//
// Parameters:
//   - r: the encoded image
//
// Returns:
//   - Image: the decoded pixels
//   - error: error if the data is not a decodable image
func DecodeImage(r io.Reader) (Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return Image{}, fmt.Errorf("%s image has zero extent", format)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return Image{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: rgba.Pix,
	}, nil
}
