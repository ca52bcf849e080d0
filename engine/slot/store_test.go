package slot

import (
	"math"
	"math/rand"
	"testing"
)

func TestPushBackFind(t *testing.T) {
	s := NewStore[string](0)
	a := s.PushBack("a")
	b := s.PushBack("b")

	if a == b {
		t.Fatalf("expected distinct keys, got %v twice", a)
	}
	if i, ok := s.Find(a); !ok || s.values[i] != "a" {
		t.Fatalf("Find(a) = %d, %v", i, ok)
	}
	if got := *s.At(b); got != "b" {
		t.Fatalf("At(b) = %q, want b", got)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestEraseInvalidatesOnlyThatKey(t *testing.T) {
	s := NewStore[int](4)
	keys := []Key{s.PushBack(10), s.PushBack(20), s.PushBack(30)}

	if !s.Erase(keys[0]) {
		t.Fatal("Erase returned false for a live key")
	}
	if _, ok := s.Find(keys[0]); ok {
		t.Fatal("erased key still found")
	}
	if s.Erase(keys[0]) {
		t.Fatal("second Erase of the same key succeeded")
	}
	for i, want := range []int{20, 30} {
		k := keys[i+1]
		if _, ok := s.Find(k); !ok {
			t.Fatalf("key %v lost after unrelated erase", k)
		}
		if got := *s.At(k); got != want {
			t.Fatalf("At(%v) = %d, want %d", k, got, want)
		}
	}
}

func TestReuseBumpsGeneration(t *testing.T) {
	s := NewStore[int](0)
	old := s.PushBack(1)
	s.Erase(old)
	fresh := s.PushBack(2)

	if fresh.Index != old.Index {
		t.Fatalf("expected index %d to be recycled, got %d", old.Index, fresh.Index)
	}
	if fresh.Generation == old.Generation {
		t.Fatalf("recycled slot kept generation %d", old.Generation)
	}
	if _, ok := s.Find(old); ok {
		t.Fatal("stale key matches the recycled slot")
	}
	if got := *s.At(fresh); got != 2 {
		t.Fatalf("At(fresh) = %d, want 2", got)
	}
}

func TestNullKeyNeverFound(t *testing.T) {
	s := NewStore[int](0)
	s.PushBack(1)
	if _, ok := s.Find(NullKey); ok {
		t.Fatal("NullKey resolved to a value")
	}
	if _, ok := s.Find(Key{Index: 7}); ok {
		t.Fatal("never-issued key resolved to a value")
	}
	if !NullKey.IsNull() || (Key{}).IsNull() {
		t.Fatal("IsNull misreports")
	}
}

func TestExhaustedGenerationRetiresSlot(t *testing.T) {
	s := NewStore[int](0)
	k := s.PushBack(1)
	s.slots[k.Index].generation = math.MaxUint32 - 1
	s.keys[0].Generation = math.MaxUint32 - 1
	k.Generation = math.MaxUint32 - 1

	s.Erase(k)
	if len(s.free) != 0 {
		t.Fatalf("retired slot returned to the free list: %v", s.free)
	}
	next := s.PushBack(2)
	if next.Index == k.Index {
		t.Fatal("retired slot was reused")
	}
}

// Random push/erase sequences checked against a map model.
func TestRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		s := NewStore[int](0)
		live := map[Key]int{}
		var dead []Key

		for step := 0; step < 400; step++ {
			if len(live) == 0 || rng.Intn(3) > 0 {
				v := rng.Int()
				k := s.PushBack(v)
				if _, dup := live[k]; dup {
					t.Fatalf("PushBack returned live key %v", k)
				}
				live[k] = v
				continue
			}
			for k := range live {
				s.Erase(k)
				delete(live, k)
				dead = append(dead, k)
				if _, ok := s.Find(k); ok {
					t.Fatalf("key %v found right after erase", k)
				}
				break
			}
		}

		if s.Len() != len(live) {
			t.Fatalf("Len = %d, model has %d", s.Len(), len(live))
		}
		for k, want := range live {
			i, ok := s.Find(k)
			if !ok {
				t.Fatalf("live key %v not found", k)
			}
			if s.values[i] != want || s.KeyAt(i) != k {
				t.Fatalf("key %v resolves to %d (key %v), want %d", k, s.values[i], s.KeyAt(i), want)
			}
		}
		for _, k := range dead {
			if _, ok := s.Find(k); ok {
				t.Fatalf("dead key %v aliases a live value", k)
			}
		}
	}
}

func TestEachVisitsLiveValues(t *testing.T) {
	s := NewStore[int](0)
	a := s.PushBack(1)
	s.PushBack(2)
	s.PushBack(3)
	s.Erase(a)

	sum := 0
	s.Each(func(k Key, v *int) {
		if _, ok := s.Find(k); !ok {
			t.Fatalf("Each yielded dead key %v", k)
		}
		sum += *v
	})
	if sum != 5 {
		t.Fatalf("sum = %d, want 5", sum)
	}
	if len(s.Keys()) != 2 {
		t.Fatalf("Keys() = %v", s.Keys())
	}
}
