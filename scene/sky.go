package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/lumen/types"
)

// The sky stores a square equirectangular HDR panorama that is sampled
// whenever a ray escapes the scene.
type Sky struct {
	Size uint32
	Data []types.Vec3
}

// Create a sky from panorama data. The panorama must be square.
func NewSky(size uint32, data []types.Vec3) (*Sky, error) {
	if uint32(len(data)) != size*size {
		return nil, fmt.Errorf("sky: expected %d texels; got %d", size*size, len(data))
	}
	return &Sky{Size: size, Data: data}, nil
}

// Create a single-texel sky with a uniform radiance.
func NewUniformSky(radiance types.Vec3) *Sky {
	return &Sky{Size: 1, Data: []types.Vec3{radiance}}
}

// Sample the panorama along a normalized direction.
func (s *Sky) Sample(dir types.Vec3) types.Vec3 {
	if s.Size == 1 {
		return s.Data[0]
	}

	// Equirect mapping: phi wraps around Y, theta runs pole to pole.
	phi := float32(math.Atan2(float64(dir[2]), float64(dir[0])))
	theta := float32(math.Acos(float64(clampf(dir[1], -1, 1))))

	u := phi*(0.5/math.Pi) + 0.5
	v := theta * (1.0 / math.Pi)

	x := uint32(u * float32(s.Size))
	y := uint32(v * float32(s.Size))
	if x >= s.Size {
		x = s.Size - 1
	}
	if y >= s.Size {
		y = s.Size - 1
	}
	return s.Data[y*s.Size+x]
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
