package types

import "testing"

func TestReflect(t *testing.T) {
	in := Vec3{1, -1, 0}.Normalize()
	out := Reflect(in, Vec3{0, 1, 0})
	want := Vec3{1, 1, 0}.Normalize()
	if out.Sub(want).Len() > 1e-6 {
		t.Fatalf("expected reflection %v; got %v", want, out)
	}
}

func TestRefract(t *testing.T) {
	normal := Vec3{0, 1, 0}

	// Equal media must pass the direction through unchanged.
	in := Vec3{1, -1, 0}.Normalize()
	out, ok := Refract(in, normal, 1)
	if !ok {
		t.Fatalf("expected refraction for matched media")
	}
	if out.Sub(in).Len() > 1e-6 {
		t.Fatalf("expected an undeflected direction; got %v", out)
	}

	// A grazing exit from the denser medium must report total internal
	// reflection.
	grazing := Vec3{1, -0.1, 0}.Normalize()
	if _, ok := Refract(grazing, normal, 1.52); ok {
		t.Fatalf("expected total internal reflection at a grazing angle")
	}
}
