// Package core provides the foundational data structures shared by every
// later stage of the pipeline: an interned string pool, a generic slotted
// object store, a name-indexed variant of that store, and four-valued bit
// vectors with their operator semantics.
package core

import "fmt"

// Index is a handle into a Store[T]. The phantom type parameter keeps
// handles of different element types from being interchangeable even
// though they are all backed by a plain uint32.
type Index[T any] struct {
	idx uint32
}

// nullIndexVal is the sentinel behind NullIndex and IsNull; slots are
// numbered upward from 0, so no real slot is expected to reach
// 0xFFFFFFFF.
const nullIndexVal = 0xFFFFFFFF

// NullIndex returns the reserved "no handle" value for T.
func NullIndex[T any]() Index[T] {
	return Index[T]{idx: nullIndexVal}
}

// IsNull reports whether idx is the reserved sentinel.
func (idx Index[T]) IsNull() bool {
	return idx.idx == nullIndexVal
}

// Raw returns the zero-based slot number backing idx.
func (idx Index[T]) Raw() uint32 {
	return idx.idx
}

func (idx Index[T]) String() string {
	var zero T
	return fmt.Sprintf("Index<%T>(%d)", zero, idx.idx)
}

type slot[T any] struct {
	data     *T
	nextFree uint32
}

// Store is a slotted vector: every inserted element is given a handle
// that stays valid for the element's lifetime in the store. Removal frees
// the slot for reuse via a free-list threaded through nextFree.
type Store[T any] struct {
	slots       []slot[T]
	nextFree    uint32
	activeCount int
}

// NewStore creates an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{}
}

// Add inserts obj and returns its handle.
func (s *Store[T]) Add(obj T) Index[T] {
	idx := s.nextFree
	if int(s.nextFree) == len(s.slots) {
		s.slots = append(s.slots, slot[T]{data: &obj, nextFree: idx + 1})
		s.nextFree++
	} else {
		sl := &s.slots[s.nextFree]
		sl.data = &obj
		s.nextFree = sl.nextFree
	}
	s.activeCount++
	return Index[T]{idx: idx}
}

// Get returns a pointer to the element at idx. It panics if idx is stale
// or out of range — callers are expected to hold valid handles, exactly
// as in the Rust original this store is ported from.
func (s *Store[T]) Get(idx Index[T]) *T {
	d := s.slots[idx.idx].data
	if d == nil {
		panic(fmt.Sprintf("core.Store: use of removed handle %d", idx.idx))
	}
	return d
}

// TryGet is the non-panicking counterpart of Get.
func (s *Store[T]) TryGet(idx Index[T]) (*T, bool) {
	if int(idx.idx) >= len(s.slots) {
		return nil, false
	}
	d := s.slots[idx.idx].data
	if d == nil {
		return nil, false
	}
	return d, true
}

// Remove frees idx's slot for reuse.
func (s *Store[T]) Remove(idx Index[T]) {
	sl := &s.slots[idx.idx]
	sl.data = nil
	sl.nextFree = s.nextFree
	s.nextFree = idx.idx
	s.activeCount--
}

// Count returns the number of live elements.
func (s *Store[T]) Count() int { return s.activeCount }

// Size returns the total number of slots ever allocated (including freed
// ones); i.e. one past the highest handle that was ever valid.
func (s *Store[T]) Size() int { return len(s.slots) }

// All iterates every live (handle, element) pair in slot order.
func (s *Store[T]) All(fn func(Index[T], *T) bool) {
	for i := range s.slots {
		if s.slots[i].data == nil {
			continue
		}
		if !fn(Index[T]{idx: uint32(i)}, s.slots[i].data) {
			return
		}
	}
}
