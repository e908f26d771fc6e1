package types

import (
	"math"
	"testing"
)

func TestTransformCompose(t *testing.T) {
	m := Translate4(Vec3{1, 2, 3}).Mul4(RotateY4(math.Pi / 2))

	// A quarter turn around Y maps +X to -Z; the translation applies after.
	got := m.TransformPoint(Vec3{1, 0, 0})
	want := Vec3{1, 2, 2}
	if got.Sub(want).Len() > 1e-6 {
		t.Fatalf("expected transformed point %v; got %v", want, got)
	}

	// Directions must ignore the translation part.
	got = m.TransformDirection(Vec3{1, 0, 0})
	want = Vec3{0, 0, -1}
	if got.Sub(want).Len() > 1e-6 {
		t.Fatalf("expected transformed direction %v; got %v", want, got)
	}
}

func TestInv(t *testing.T) {
	m := Translate4(Vec3{-4, 1, 9}).Mul4(RotateY4(0.7))
	id := m.Mul4(m.Inv())

	want := Ident4()
	for i := range id {
		if float32(math.Abs(float64(id[i]-want[i]))) > 1e-5 {
			t.Fatalf("expected m * m^-1 to be the identity; element %d is %f", i, id[i])
		}
	}
}
