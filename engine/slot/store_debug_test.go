//go:build oxydebug

package slot

import "testing"

func TestAtPanicsOnStaleKey(t *testing.T) {
	s := NewStore[int](0)
	k := s.PushBack(1)
	s.Erase(k)

	defer func() {
		if recover() == nil {
			t.Fatal("At with a stale key did not panic")
		}
	}()
	s.At(k)
}
