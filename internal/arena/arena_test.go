package arena

import "testing"

func TestAllocGetSet(t *testing.T) {
	a := New[string]()
	h := a.Alloc("hello")
	if a.Get(h) != "hello" {
		t.Fatalf("got %q", a.Get(h))
	}
	a.Set(h, "world")
	if a.Get(h) != "world" {
		t.Fatalf("got %q", a.Get(h))
	}
}

func TestFreeReusesSlot(t *testing.T) {
	a := New[int]()
	h1 := a.Alloc(1)
	a.Free(h1)
	h2 := a.Alloc(2)
	if h1 != h2 {
		t.Fatalf("expected freed slot to be reused, got h1=%d h2=%d", h1, h2)
	}
	if a.Len() != 1 {
		t.Fatalf("expected 1 live slot, got %d", a.Len())
	}
}

func TestReset(t *testing.T) {
	a := New[int]()
	a.Alloc(1)
	a.Alloc(2)
	a.Reset()
	if a.Len() != 0 {
		t.Fatalf("expected empty arena after reset, got %d", a.Len())
	}
	h := a.Alloc(9)
	if a.Get(h) != 9 {
		t.Fatalf("got %d", a.Get(h))
	}
}
