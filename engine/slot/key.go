// package slot provides a generation-checked slot store. Keys issued by a Store stay valid
// while their value lives, independent of where the value is stored, and never alias a
// value inserted after the original was erased.
package slot

import (
	"math"
	"strconv"
)

// Key identifies a value in a Store by slot index and generation.
type Key struct {
	Index      uint32
	Generation uint32
}

// NullKey is the sentinel key that never refers to a value.
var NullKey = Key{Index: math.MaxUint32, Generation: math.MaxUint32}

// IsNull reports whether k is the NullKey sentinel.
func (k Key) IsNull() bool {
	return k == NullKey
}

func (k Key) String() string {
	if k.IsNull() {
		return "Key(null)"
	}
	return "Key(" + strconv.FormatUint(uint64(k.Index), 10) + ":" + strconv.FormatUint(uint64(k.Generation), 10) + ")"
}
