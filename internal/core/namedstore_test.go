package core

import "testing"

type testObject struct {
	name  Name
	index Index[testObject]
	value uint32
}

func (o *testObject) Name() Name                    { return o.name }
func (o *testObject) SetName(n Name)                { o.name = n }
func (o *testObject) SetIndex(i Index[testObject])  { o.index = i }

func TestNamedStoreAddGet(t *testing.T) {
	in := NewInterner()
	idFoo := in.ID("foo")
	idBar := in.ID("bar")

	store := NewNamedStore[testObject, *testObject]()
	idxFoo, err := store.Add(testObject{name: idFoo, value: 1})
	if err != nil {
		t.Fatal(err)
	}
	idxBar, err := store.Add(testObject{name: idBar, value: 2})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Add(testObject{name: idBar, value: 3}); err == nil {
		t.Fatal("expected duplicate name to fail")
	}

	if store.Get(idxFoo).index != idxFoo {
		t.Fatalf("stored index mismatch")
	}
	if store.Get(idxFoo).value != 1 {
		t.Fatalf("Get(idxFoo).value = %d, want 1", store.Get(idxFoo).value)
	}
	if store.Get(idxBar).value != 2 {
		t.Fatalf("Get(idxBar).value = %d, want 2", store.Get(idxBar).value)
	}
}

func TestNamedStoreNamed(t *testing.T) {
	in := NewInterner()
	idFoo := in.ID("foo")
	idBar := in.ID("bar")
	idXyz := in.ID("xyz")

	store := NewNamedStore[testObject, *testObject]()
	store.Add(testObject{name: idFoo, value: 1})
	store.Add(testObject{name: idBar, value: 2})

	if obj, ok := store.Named(idFoo); !ok || obj.value != 1 {
		t.Fatalf("Named(foo) = (%v, %v), want (1, true)", obj, ok)
	}
	if obj, ok := store.Named(idBar); !ok || obj.value != 2 {
		t.Fatalf("Named(bar) = (%v, %v), want (2, true)", obj, ok)
	}
	if _, ok := store.Named(idXyz); ok {
		t.Fatal("Named(xyz) should not be found")
	}
}

func TestNamedStoreRename(t *testing.T) {
	in := NewInterner()
	idFoo := in.ID("foo")
	idBar := in.ID("bar")

	store := NewNamedStore[testObject, *testObject]()
	store.Add(testObject{name: idFoo, value: 1})
	if err := store.Rename(idFoo, idBar); err != nil {
		t.Fatal(err)
	}
	if obj, ok := store.Named(idBar); !ok || obj.value != 1 {
		t.Fatalf("Named(bar) after rename = (%v, %v), want (1, true)", obj, ok)
	}
	if _, ok := store.Named(idFoo); ok {
		t.Fatal("old name should no longer resolve")
	}
}
