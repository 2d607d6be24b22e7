package core

import "fmt"

// Named is implemented by (a pointer to) anything a NamedStore can hold:
// it must carry its own name and be willing to remember the index it was
// assigned on insertion (mirrors the teacher's NamedItem trait). T is the
// stored value type; the constraint is satisfied by *T, plumbed through
// NamedStore's second type parameter.
type Named[T any] interface {
	Name() Name
	SetName(Name)
	SetIndex(Index[T])
}

// NamedStore augments Store with a name -> handle map, so objects can be
// looked up by their own interned name as well as by handle. Duplicate
// names are rejected at insertion.
//
// T is the element type stored by value (e.g. Node); PT is its pointer
// type, constrained to implement Named[T]. This two-parameter shape is
// the standard way to ask Go generics for "methods defined on *T".
type NamedStore[T any, PT interface {
	*T
	Named[T]
}] struct {
	objects *Store[T]
	byName  map[Name]Index[T]
}

// NewNamedStore returns an empty named store.
func NewNamedStore[T any, PT interface {
	*T
	Named[T]
}]() *NamedStore[T, PT] {
	return &NamedStore[T, PT]{
		objects: NewStore[T](),
		byName:  make(map[Name]Index[T]),
	}
}

// Add inserts obj, keyed by its Name(). Fails if that name is already in
// use.
func (ns *NamedStore[T, PT]) Add(obj T) (Index[T], error) {
	name := PT(&obj).Name()
	if _, exists := ns.byName[name]; exists {
		return Index[T]{}, fmt.Errorf("object named %s already exists", name)
	}
	idx := ns.objects.Add(obj)
	PT(ns.objects.Get(idx)).SetIndex(idx)
	ns.byName[name] = idx
	return idx, nil
}

// Get returns a pointer to the object at idx.
func (ns *NamedStore[T, PT]) Get(idx Index[T]) *T {
	return ns.objects.Get(idx)
}

// TryGet is the non-panicking counterpart of Get.
func (ns *NamedStore[T, PT]) TryGet(idx Index[T]) (*T, bool) {
	return ns.objects.TryGet(idx)
}

// Named looks an object up by name.
func (ns *NamedStore[T, PT]) Named(name Name) (*T, bool) {
	idx, ok := ns.byName[name]
	if !ok {
		return nil, false
	}
	return ns.objects.Get(idx), true
}

// IndexOf returns the handle registered for name, if any.
func (ns *NamedStore[T, PT]) IndexOf(name Name) (Index[T], bool) {
	idx, ok := ns.byName[name]
	return idx, ok
}

// Rename re-keys the name map and updates the stored object's name.
func (ns *NamedStore[T, PT]) Rename(oldName, newName Name) error {
	idx, ok := ns.byName[oldName]
	if !ok {
		return fmt.Errorf("no object named %s", oldName)
	}
	if _, exists := ns.byName[newName]; exists {
		return fmt.Errorf("object named %s already exists", newName)
	}
	PT(ns.Get(idx)).SetName(newName)
	delete(ns.byName, oldName)
	ns.byName[newName] = idx
	return nil
}

// Remove drops the object at idx from both the object store and the name
// map.
func (ns *NamedStore[T, PT]) Remove(idx Index[T]) {
	name := PT(ns.objects.Get(idx)).Name()
	ns.objects.Remove(idx)
	delete(ns.byName, name)
}

// Count returns the number of live objects.
func (ns *NamedStore[T, PT]) Count() int { return ns.objects.Count() }

// Size returns the number of slots ever allocated.
func (ns *NamedStore[T, PT]) Size() int { return ns.objects.Size() }

// All iterates every live (handle, object) pair.
func (ns *NamedStore[T, PT]) All(fn func(Index[T], *T) bool) {
	ns.objects.All(fn)
}
