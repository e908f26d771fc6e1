package scene

import (
	"testing"

	"github.com/achilleasa/lumen/types"
)

func TestTextureMipChain(t *testing.T) {
	data := make([]uint8, 8*4*4)
	tex, err := NewTexture(8, 4, data, false)
	if err != nil {
		t.Fatal(err)
	}

	// 8x4 -> 4x2 -> 2x1 -> 1x1
	if tex.Levels() != 4 {
		t.Fatalf("expected 4 mip levels; got %d", tex.Levels())
	}
	last := tex.levels[tex.Levels()-1]
	if last.width != 1 || last.height != 1 {
		t.Fatalf("expected the mip chain to end at 1x1; got %dx%d", last.width, last.height)
	}
}

func TestTextureRejectsShortData(t *testing.T) {
	if _, err := NewTexture(4, 4, make([]uint8, 7), false); err == nil {
		t.Fatalf("expected an error for truncated texel data")
	}
}

func TestTextureSampleLOD(t *testing.T) {
	// A 2x2 texture with one white and three black texels.
	data := make([]uint8, 2*2*4)
	data[0], data[1], data[2], data[3] = 255, 255, 255, 255

	tex, err := NewTexture(2, 2, data, false)
	if err != nil {
		t.Fatal(err)
	}

	if got := tex.SampleLOD(0.25, 0.25, 0); got != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected the top-left texel to be white; got %v", got)
	}
	if got := tex.SampleLOD(0.75, 0.25, 0); got != (types.Vec3{0, 0, 0}) {
		t.Fatalf("expected the top-right texel to be black; got %v", got)
	}

	// uv coordinates wrap.
	if got := tex.SampleLOD(1.25, -0.75, 0); got != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected wrapped uvs to hit the white texel; got %v", got)
	}

	// An oversized lod clamps to the 1x1 tail where the box filter has
	// averaged the white texel down.
	avg := tex.SampleLOD(0.5, 0.5, 10)
	if avg[0] == 0 || avg[0] == 1 {
		t.Fatalf("expected the 1x1 mip to hold the average; got %v", avg)
	}
}

func TestTextureSRGB(t *testing.T) {
	data := []uint8{128, 128, 128, 255}
	linear, _ := NewTexture(1, 1, data, false)
	srgb, _ := NewTexture(1, 1, data, true)

	if got := linear.SampleLOD(0, 0, 0)[0]; got != float32(128)/255 {
		t.Fatalf("expected linear fetch to pass through; got %f", got)
	}
	if got := srgb.SampleLOD(0, 0, 0)[0]; got >= float32(128)/255 {
		t.Fatalf("expected srgb decode to darken mid grey; got %f", got)
	}
}

func TestTextureSampleGrad(t *testing.T) {
	data := make([]uint8, 4*4*4)
	for i := range data {
		data[i] = 255
	}
	tex, err := NewTexture(4, 4, data, false)
	if err != nil {
		t.Fatal(err)
	}

	// Tiny gradients stay on the base level; gradients spanning the whole
	// texture must not blow up.
	if got := tex.SampleGrad(0.5, 0.5, 1e-6, 0, 0, 1e-6); got != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected base level fetch; got %v", got)
	}
	if got := tex.SampleGrad(0.5, 0.5, 1, 1, 1, 1); got != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected clamped tail fetch; got %v", got)
	}
}

func TestSkySample(t *testing.T) {
	uniform := NewUniformSky(types.Vec3{1, 2, 3})
	if got := uniform.Sample(types.Vec3{0, 1, 0}); got != (types.Vec3{1, 2, 3}) {
		t.Fatalf("expected uniform sky radiance; got %v", got)
	}

	if _, err := NewSky(4, make([]types.Vec3, 15)); err == nil {
		t.Fatalf("expected an error for truncated sky data")
	}

	// A 2x2 panorama: the top row is bright, the bottom row dark. Rays
	// pointing up must land in the top row.
	data := []types.Vec3{{1, 1, 1}, {1, 1, 1}, {0, 0, 0}, {0, 0, 0}}
	sky, err := NewSky(2, data)
	if err != nil {
		t.Fatal(err)
	}
	if got := sky.Sample(types.Vec3{0, 1, 0}); got != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected an up ray to sample the top row; got %v", got)
	}
	if got := sky.Sample(types.Vec3{0, -1, 0}); got != (types.Vec3{0, 0, 0}) {
		t.Fatalf("expected a down ray to sample the bottom row; got %v", got)
	}
}

func TestCameraUpdate(t *testing.T) {
	cam := NewCamera(0.5)
	cam.Position = types.Vec3{0, 0, 0}
	cam.LookAt = types.Vec3{0, 0, -1}
	cam.Update(640, 480)

	if cam.PixelSpreadAngle <= 0 {
		t.Fatalf("expected a positive pixel spread angle; got %f", cam.PixelSpreadAngle)
	}

	// The frustum center ray must point down the view axis.
	center := cam.RayDirection(320, 240).Normalize()
	if center[2] >= -0.999 {
		t.Fatalf("expected the center ray to point towards -z; got %v", center)
	}

	// Rays through opposite frame corners must diverge symmetrically
	// around the view axis.
	c0 := cam.RayDirection(0, 0)
	c1 := cam.RayDirection(640, 480)
	sum := c0.Add(c1).Mul(0.5).Normalize()
	if sum[2] >= -0.999 {
		t.Fatalf("expected corner rays to average onto the view axis; got %v", sum)
	}
}
