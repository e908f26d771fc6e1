package bvh

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// An axis-aligned bounding box.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty (inverted) AABB that can be grown incrementally.
func NewAABB() AABB {
	return AABB{
		Min: types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Create an AABB from a set of points.
func AABBFromPoints(points ...types.Vec3) AABB {
	box := NewAABB()
	for _, p := range points {
		box.GrowPoint(p)
	}
	return box
}

// Expand the AABB to include another AABB.
func (b *AABB) Grow(other AABB) {
	b.Min = types.MinVec3(b.Min, other.Min)
	b.Max = types.MaxVec3(b.Max, other.Max)
}

// Expand the AABB to include a point.
func (b *AABB) GrowPoint(p types.Vec3) {
	b.Min = types.MinVec3(b.Min, p)
	b.Max = types.MaxVec3(b.Max, p)
}

// Check that the AABB encloses a non-negative extent along every axis. Flat
// boxes are valid; inverted ones are not.
func (b AABB) Valid() bool {
	return b.Max[0] >= b.Min[0] && b.Max[1] >= b.Min[1] && b.Max[2] >= b.Min[2]
}

// Calculate the AABB surface area.
func (b AABB) SurfaceArea() float32 {
	side := b.Max.Sub(b.Min)
	return 2 * (side[0]*side[1] + side[1]*side[2] + side[2]*side[0])
}

// Calculate the AABB center point.
func (b AABB) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Check whether the AABB fully contains another AABB.
func (b AABB) Contains(other AABB) bool {
	return other.Min[0] >= b.Min[0] && other.Min[1] >= b.Min[1] && other.Min[2] >= b.Min[2] &&
		other.Max[0] <= b.Max[0] && other.Max[1] <= b.Max[1] && other.Max[2] <= b.Max[2]
}

// Calculate the intersection of two AABBs. The result may be invalid when the
// boxes are disjoint.
func Overlap(a, b AABB) AABB {
	return AABB{
		Min: types.MaxVec3(a.Min, b.Min),
		Max: types.MinVec3(a.Max, b.Max),
	}
}
