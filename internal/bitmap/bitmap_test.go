package bitmap_test

import (
	"testing"

	"crossyarena/server/internal/bitmap"
)

func TestSetGet(t *testing.T) {
	var b bitmap.BitMap
	b = b.SetBit(3)
	b = b.SetBit(10)

	for i := 0; i < 64; i++ {
		want := i == 3 || i == 10
		if got := b.Get(i); got != want {
			t.Errorf("Get(%d) = %v, want %v", i, got, want)
		}
	}

	if b.PopCount() != 2 {
		t.Errorf("PopCount() = %d, want 2", b.PopCount())
	}

	b = b.UnsetBit(3)
	if b.Get(3) {
		t.Errorf("expected bit 3 cleared")
	}
	if b.PopCount() != 1 {
		t.Errorf("PopCount() = %d, want 1", b.PopCount())
	}
}

func TestOutOfRangeIsNoop(t *testing.T) {
	var b bitmap.BitMap
	b = b.SetBit(64)
	b = b.SetBit(-1)
	if b != 0 {
		t.Errorf("expected out-of-range SetBit to be a no-op, got %v", b)
	}
	if b.Get(64) || b.Get(-1) {
		t.Errorf("expected out-of-range Get to return false")
	}
}
