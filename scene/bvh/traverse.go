package bvh

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// Intersections below this distance are ignored so that rays leaving a
// surface do not immediately re-hit it.
const minHitDistance = 0.001

// A triangle intersection. Slot indexes the flattened triangle tables; U and
// V are the barycentric coordinates of the hit point.
type Hit struct {
	Slot int32
	T    float32
	U    float32
	V    float32
}

// Find the closest triangle intersection along a ray. The triangle tables
// must be laid out in the MBVH's flattened slot order as a base vertex plus
// two edges. The ray direction does not need to be normalized; T is reported
// in units of its length.
func (m *MBVH) Intersect(pos0, edge1, edge2 []types.Vec3, origin, dir types.Vec3, maxDist float32) (Hit, bool) {
	hit := Hit{Slot: -1, T: maxDist}

	invDir := invDirection(dir)
	var stack [128]int32
	stack[0] = 0
	sp := 1

	for sp > 0 {
		sp--
		node := &m.Nodes[stack[sp]]

		// Visit child slabs near to far so that closer leaves shrink
		// the ray extent before farther subtrees are considered.
		var order [MBVHWidth]int
		var dist [MBVHWidth]float32
		hits := 0
		for i := 0; i < MBVHWidth; i++ {
			if node.Count[i] == 0 {
				continue
			}
			tNear, ok := slabTest(node, i, origin, invDir, hit.T)
			if !ok {
				continue
			}
			order[hits] = i
			dist[hits] = tNear
			hits++
		}
		for i := 1; i < hits; i++ {
			for j := i; j > 0 && dist[j] < dist[j-1]; j-- {
				dist[j], dist[j-1] = dist[j-1], dist[j]
				order[j], order[j-1] = order[j-1], order[j]
			}
		}

		for i := hits - 1; i >= 0; i-- {
			slot := order[i]
			if node.Count[slot] < 0 {
				stack[sp] = node.Child[slot]
				sp++
				continue
			}

			first, count := node.Child[slot], node.Count[slot]
			for tri := first; tri < first+count; tri++ {
				t, u, v, ok := intersectTriangle(pos0[tri], edge1[tri], edge2[tri], origin, dir, hit.T)
				if ok {
					hit = Hit{Slot: tri, T: t, U: u, V: v}
				}
			}
		}
	}

	return hit, hit.Slot != -1
}

// Check whether anything blocks the ray before maxDist. Traversal exits on
// the first intersection found.
func (m *MBVH) Occluded(pos0, edge1, edge2 []types.Vec3, origin, dir types.Vec3, maxDist float32) bool {
	invDir := invDirection(dir)
	var stack [128]int32
	stack[0] = 0
	sp := 1

	for sp > 0 {
		sp--
		node := &m.Nodes[stack[sp]]

		for i := 0; i < MBVHWidth; i++ {
			if node.Count[i] == 0 {
				continue
			}
			if _, ok := slabTest(node, i, origin, invDir, maxDist); !ok {
				continue
			}

			if node.Count[i] < 0 {
				stack[sp] = node.Child[i]
				sp++
				continue
			}

			first, count := node.Child[i], node.Count[i]
			for tri := first; tri < first+count; tri++ {
				if _, _, _, ok := intersectTriangle(pos0[tri], edge1[tri], edge2[tri], origin, dir, maxDist); ok {
					return true
				}
			}
		}
	}

	return false
}

// IntersectBrute is the linear-scan reference intersector used to validate
// traversal results.
func IntersectBrute(pos0, edge1, edge2 []types.Vec3, origin, dir types.Vec3, maxDist float32) (Hit, bool) {
	hit := Hit{Slot: -1, T: maxDist}
	for tri := range pos0 {
		t, u, v, ok := intersectTriangle(pos0[tri], edge1[tri], edge2[tri], origin, dir, hit.T)
		if ok {
			hit = Hit{Slot: int32(tri), T: t, U: u, V: v}
		}
	}
	return hit, hit.Slot != -1
}

// Slab test against child slot i. Returns the entry distance and whether the
// ray segment [minHitDistance, tMax] crosses the box.
func slabTest(node *MBVHNode, i int, origin types.Vec3, invDir types.Vec3, tMax float32) (float32, bool) {
	tx0 := (node.MinX[i] - origin[0]) * invDir[0]
	tx1 := (node.MaxX[i] - origin[0]) * invDir[0]
	if tx0 > tx1 {
		tx0, tx1 = tx1, tx0
	}
	ty0 := (node.MinY[i] - origin[1]) * invDir[1]
	ty1 := (node.MaxY[i] - origin[1]) * invDir[1]
	if ty0 > ty1 {
		ty0, ty1 = ty1, ty0
	}
	tz0 := (node.MinZ[i] - origin[2]) * invDir[2]
	tz1 := (node.MaxZ[i] - origin[2]) * invDir[2]
	if tz0 > tz1 {
		tz0, tz1 = tz1, tz0
	}

	tNear := maxf32(maxf32(tx0, ty0), tz0)
	tFar := minf32(minf32(tx1, ty1), tz1)
	return tNear, tNear <= tFar && tFar > minHitDistance && tNear < tMax
}

// Moeller-Trumbore intersection against a base vertex plus two edges.
func intersectTriangle(p0, e1, e2, origin, dir types.Vec3, tMax float32) (t, u, v float32, ok bool) {
	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -1e-8 && det < 1e-8 {
		return 0, 0, 0, false
	}

	invDet := 1 / det
	tvec := origin.Sub(p0)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(e1)
	v = dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(qvec) * invDet
	if t < minHitDistance || t >= tMax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

func invDirection(dir types.Vec3) types.Vec3 {
	var inv types.Vec3
	for i := 0; i < 3; i++ {
		d := dir[i]
		if d > -1e-12 && d < 1e-12 {
			d = float32(math.Copysign(1e-12, float64(d)))
		}
		inv[i] = 1 / d
	}
	return inv
}

func minf32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
