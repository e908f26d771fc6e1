package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/lumen/types"
)

// A mip level stores point-sampled RGBA8 texel data at a particular resolution.
type mipLevel struct {
	width  uint32
	height uint32
	data   []uint8
}

// Textures store RGBA8 texel data together with a box-filtered mip chain so
// that the shading kernels can select a footprint-matched level via ray
// differentials or ray cones.
type Texture struct {
	Width  uint32
	Height uint32

	// Treat texel data as sRGB-encoded and linearize on fetch.
	SRGB bool

	levels []mipLevel
}

// Create a texture from RGBA8 texel data. The mip chain is generated eagerly.
func NewTexture(width, height uint32, data []uint8, srgb bool) (*Texture, error) {
	if uint32(len(data)) != width*height*4 {
		return nil, fmt.Errorf("texture: expected %d bytes of texel data; got %d", width*height*4, len(data))
	}

	tex := &Texture{
		Width:  width,
		Height: height,
		SRGB:   srgb,
		levels: []mipLevel{{width: width, height: height, data: data}},
	}
	tex.generateMipChain()
	return tex, nil
}

// Generate the mip chain by successively box-filtering the previous level.
func (tex *Texture) generateMipChain() {
	for {
		prev := tex.levels[len(tex.levels)-1]
		if prev.width <= 1 && prev.height <= 1 {
			return
		}

		w := prev.width >> 1
		if w == 0 {
			w = 1
		}
		h := prev.height >> 1
		if h == 0 {
			h = 1
		}

		next := mipLevel{width: w, height: h, data: make([]uint8, w*h*4)}
		for y := uint32(0); y < h; y++ {
			sy0 := 2 * y
			sy1 := sy0 + 1
			if sy1 >= prev.height {
				sy1 = prev.height - 1
			}
			for x := uint32(0); x < w; x++ {
				sx0 := 2 * x
				sx1 := sx0 + 1
				if sx1 >= prev.width {
					sx1 = prev.width - 1
				}
				for c := uint32(0); c < 4; c++ {
					sum := uint32(prev.data[(sy0*prev.width+sx0)*4+c]) +
						uint32(prev.data[(sy0*prev.width+sx1)*4+c]) +
						uint32(prev.data[(sy1*prev.width+sx0)*4+c]) +
						uint32(prev.data[(sy1*prev.width+sx1)*4+c])
					next.data[(y*w+x)*4+c] = uint8(sum >> 2)
				}
			}
		}
		tex.levels = append(tex.levels, next)
	}
}

// Get the number of mip levels.
func (tex *Texture) Levels() int {
	return len(tex.levels)
}

// Point-sample the texture at the given uv and mip level. The uv coordinates
// wrap and the level is clamped to the available chain.
func (tex *Texture) SampleLOD(u, v float32, lod float32) types.Vec3 {
	level := int(lod)
	if level < 0 {
		level = 0
	}
	if level >= len(tex.levels) {
		level = len(tex.levels) - 1
	}
	mip := tex.levels[level]

	u = wrap(u)
	v = wrap(v)
	x := uint32(u * float32(mip.width))
	y := uint32(v * float32(mip.height))
	if x >= mip.width {
		x = mip.width - 1
	}
	if y >= mip.height {
		y = mip.height - 1
	}

	off := (y*mip.width + x) * 4
	out := types.Vec3{
		float32(mip.data[off]) / 255.0,
		float32(mip.data[off+1]) / 255.0,
		float32(mip.data[off+2]) / 255.0,
	}
	if tex.SRGB {
		out = types.Vec3{srgbToLinear(out[0]), srgbToLinear(out[1]), srgbToLinear(out[2])}
	}
	return out
}

// Sample the texture using uv gradients to select the mip level. This is the
// ray-differential path used for primary visibility.
func (tex *Texture) SampleGrad(u, v float32, dudx, dvdx, dudy, dvdy float32) types.Vec3 {
	dx := types.XY(dudx*float32(tex.Width), dvdx*float32(tex.Height))
	dy := types.XY(dudy*float32(tex.Width), dvdy*float32(tex.Height))

	deltaSq := dx.Dot(dx)
	if d := dy.Dot(dy); d > deltaSq {
		deltaSq = d
	}
	lod := 0.5 * float32(math.Log2(float64(maxf(deltaSq, 1e-8))))
	if lod < 0 {
		lod = 0
	}
	return tex.SampleLOD(u, v, lod)
}

// Sample the texture using a ray cone width projected through the ratio of
// the triangle's uv area to its world-space area. This is the secondary-bounce
// LOD path.
func (tex *Texture) SampleCone(u, v float32, coneWidth, uvArea, worldArea float32) types.Vec3 {
	lod := float32(0)
	if uvArea > 0 && worldArea > 0 {
		footprint := coneWidth * coneWidth * uvArea / worldArea
		lod = 0.5 * float32(math.Log2(float64(maxf(footprint*float32(tex.Width)*float32(tex.Height), 1e-8))))
		if lod < 0 {
			lod = 0
		}
	}
	return tex.SampleLOD(u, v, lod)
}

func wrap(v float32) float32 {
	v = v - float32(math.Floor(float64(v)))
	if v < 0 {
		v += 1
	}
	return v
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64(c+0.055)/1.055, 2.4))
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
