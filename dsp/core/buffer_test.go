package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestEnsureLen32Grows(t *testing.T) {
	buf := make([]float32, 2)

	out := EnsureLen32(buf, 5)
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
}

func TestDeinterleave(t *testing.T) {
	src := []float32{1, 10, 2, 20, 3, 30}
	dst := make([]float64, 3)

	n := Deinterleave(dst, src, 2, 1)
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}

	if dst[0] != 10 || dst[1] != 20 || dst[2] != 30 {
		t.Fatalf("unexpected dst: %#v", dst)
	}

	if Deinterleave(dst, src, 2, 2) != 0 {
		t.Fatal("expected 0 frames for out-of-range channel")
	}
}
