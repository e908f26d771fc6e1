package scene

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// The camera type controls the scene camera. The ray generation kernel only
// consumes the derived frustum vectors: a ray through pixel (x, y) is
//
//	dir = BottomLeft + XAxis*(x + jitterX) + YAxis*(y + jitterY)
//
// The direction is intentionally left unnormalized so bounce-0 ray
// differentials can recover the pixel footprint from its length.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3
	Pitch    float32
	Yaw      float32

	// Camera FOV (vertical, radians).
	FOV float32

	// Derived per-frame constants.
	BottomLeft types.Vec3
	XAxis      types.Vec3
	YAxis      types.Vec3

	// The angle subtended by a single pixel, used for ray-cone mip LOD.
	PixelSpreadAngle float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Update the derived frustum vectors for the given frame dimensions.
func (c *Camera) Update(frameW, frameH uint32) {
	dir := c.LookAt.Sub(c.Position).Normalize()
	pitchAxis := dir.Cross(c.Up)
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)

	orientQuat := pitchQuat.Mul(yawQuat).Normalize()

	dir = orientQuat.Rotate(dir)
	c.LookAt = c.Position.Add(dir)

	right := dir.Cross(c.Up.Normalize()).Normalize()
	up := right.Cross(dir)

	halfH := float32(math.Tan(float64(c.FOV) * 0.5))
	halfW := halfH * float32(frameW) / float32(frameH)

	c.XAxis = right.Mul(2 * halfW / float32(frameW))
	c.YAxis = up.Mul(2 * halfH / float32(frameH))
	c.BottomLeft = dir.Sub(right.Mul(halfW)).Sub(up.Mul(halfH))

	c.PixelSpreadAngle = float32(math.Atan(float64(2 * halfH / float32(frameH))))
}

// Generate the unnormalized ray direction through the given sub-pixel location.
func (c *Camera) RayDirection(x, y float32) types.Vec3 {
	return c.BottomLeft.Add(c.XAxis.Mul(x)).Add(c.YAxis.Mul(y))
}
