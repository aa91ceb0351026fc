package cmp

import "testing"

func TestEqual(t *testing.T) {
	less := Ordered[int]()
	if !Equal(less, 3, 3) {
		t.Errorf("expected 3 == 3")
	}
	if Equal(less, 3, 4) {
		t.Errorf("expected 3 != 4")
	}
}

func TestReverse(t *testing.T) {
	less := Ordered[int]()
	rev := Reverse(less)
	if !rev(4, 3) {
		t.Errorf("reverse comparator should order 4 before 3")
	}
	if rev(3, 4) {
		t.Errorf("reverse comparator should not order 3 before 4")
	}
}
