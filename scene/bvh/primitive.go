package bvh

import "github.com/achilleasa/lumen/types"

// The BVH builders operate on triangles described by their three vertices.
type Primitive struct {
	P0 types.Vec3
	P1 types.Vec3
	P2 types.Vec3
}

// Calculate the primitive bounding box.
func (p *Primitive) Bounds() AABB {
	return AABBFromPoints(p.P0, p.P1, p.P2)
}

// Calculate the primitive centroid.
func (p *Primitive) Center() types.Vec3 {
	return p.P0.Add(p.P1).Add(p.P2).Mul(1.0 / 3.0)
}
