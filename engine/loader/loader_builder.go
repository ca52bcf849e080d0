package loader

import "go.uber.org/zap"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithRoot is an option builder that sets the directory relative asset paths are resolved against.
//
// Parameters:
//   - dir: the asset root directory
//
// Returns:
//   - LoaderBuilderOption: a function that applies the root option to a loader
func WithRoot(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.root = dir
	}
}

// WithCache is an option builder that enables or disables caching of decoded assets.
// Caching is enabled by default.
//
// Parameters:
//   - enabled: whether decoded assets are kept after the first load
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithCache(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.cache = enabled
	}
}

// WithPrefetcher is an option builder that makes the loader consume results decoded ahead
// of time by p.
//
// Parameters:
//   - p: the prefetcher
//
// Returns:
//   - LoaderBuilderOption: a function that applies the prefetcher option to a loader
func WithPrefetcher(p *Prefetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.prefetch = p
	}
}

// WithLogger is an option builder that sets the logger.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(log *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if log != nil {
			l.log = log
		}
	}
}
