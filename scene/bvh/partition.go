package bvh

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// The best object split found by a full SAH sweep. The index field points at
// the first right-side entry of the sorted dimension array.
type objectSplit struct {
	cost  float32
	dim   int
	index int

	aabbLeft  AABB
	aabbRight AABB
}

// The best spatial split found by binning clipped references. References whose
// bin range straddles the split bin are classified during routing; the counts
// and child AABBs recorded here include straddlers on both sides.
type spatialSplit struct {
	cost float32
	dim  int
	bin  int

	// The bin grid parameters along dim so that routing can recompute bin
	// indices for each reference.
	gridMin   float32
	gridScale float32

	aabbLeft  AABB
	aabbRight AABB

	countLeft  int
	countRight int
}

type spatialBin struct {
	aabb    AABB
	entries int32
	exits   int32
}

// Find the cheapest object split by sweeping all three sorted dimension
// arrays. The suffix scratch buffer stores the right-to-left AABB sweep and
// must have room for count entries.
func partitionObject(prims []Primitive, indices *[3][]int32, first, count int, suffix []AABB) objectSplit {
	split := objectSplit{cost: float32(math.Inf(1)), dim: -1, index: -1}

	for dim := 0; dim < 3; dim++ {
		idx := indices[dim][first : first+count]

		box := NewAABB()
		for i := count - 1; i > 0; i-- {
			box.Grow(prims[idx[i]].Bounds())
			suffix[i] = box
		}

		box = NewAABB()
		for i := 1; i < count; i++ {
			box.Grow(prims[idx[i-1]].Bounds())

			cost := box.SurfaceArea()*float32(i) + suffix[i].SurfaceArea()*float32(count-i)
			if cost < split.cost {
				split.cost = cost
				split.dim = dim
				split.index = first + i
				split.aabbLeft = box
				split.aabbRight = suffix[i]
			}
		}
	}

	return split
}

// Find the cheapest spatial split by chopping the node bounds into BinCount
// slabs along each dimension and binning the clipped reference geometry. The
// bin grid is padded slightly past the node bounds so that references on the
// boundary always land in a valid bin.
func partitionSpatial(prims []Primitive, indices *[3][]int32, first, count int, nodeBounds AABB) spatialSplit {
	split := spatialSplit{cost: float32(math.Inf(1)), dim: -1, bin: -1}

	var bins [BinCount]spatialBin
	var suffixAABB [BinCount]AABB
	var suffixCount [BinCount]int32
	var polyIn, polyOut [16]types.Vec3

	for dim := 0; dim < 3; dim++ {
		gridMin := nodeBounds.Min[dim] - 0.001
		gridMax := nodeBounds.Max[dim] + 0.001
		gridScale := float32(BinCount) / (gridMax - gridMin)
		binWidth := (gridMax - gridMin) / float32(BinCount)

		for b := range bins {
			bins[b] = spatialBin{aabb: NewAABB()}
		}

		for _, id := range indices[dim][first : first+count] {
			prim := &prims[id]
			refAABB := Overlap(prim.Bounds(), nodeBounds)

			binMin := clampBin(int((refAABB.Min[dim] - gridMin) * gridScale))
			binMax := clampBin(int((refAABB.Max[dim] - gridMin) * gridScale))
			bins[binMin].entries++
			bins[binMax].exits++

			if binMin == binMax {
				bins[binMin].aabb.Grow(refAABB)
				continue
			}

			// Clip the triangle into every slab it straddles and grow
			// each bin by the clipped fragment.
			for b := binMin; b <= binMax; b++ {
				slabMin := gridMin + float32(b)*binWidth
				slabMax := slabMin + binWidth

				poly := polyIn[:0]
				poly = append(poly, prim.P0, prim.P1, prim.P2)
				poly = clipAxisPlane(poly, dim, slabMin, true, polyOut[:0])
				poly = clipAxisPlane(poly, dim, slabMax, false, polyIn[:0])
				if len(poly) == 0 {
					continue
				}

				frag := AABBFromPoints(poly...)
				bins[b].aabb.Grow(Overlap(frag, refAABB))
			}
		}

		// Sweep right to left accumulating the right-side AABBs and exit
		// counts for each candidate split bin.
		box := NewAABB()
		total := int32(0)
		for b := BinCount - 1; b > 0; b-- {
			box.Grow(bins[b].aabb)
			total += bins[b].exits
			suffixAABB[b] = box
			suffixCount[b] = total
		}

		box = NewAABB()
		leftCount := int32(0)
		for b := 1; b < BinCount; b++ {
			box.Grow(bins[b-1].aabb)
			leftCount += bins[b-1].entries
			rightCount := suffixCount[b]
			if leftCount == 0 || rightCount == 0 {
				continue
			}

			cost := box.SurfaceArea()*float32(leftCount) + suffixAABB[b].SurfaceArea()*float32(rightCount)
			if cost < split.cost {
				split.cost = cost
				split.dim = dim
				split.bin = b
				split.gridMin = gridMin
				split.gridScale = gridScale
				split.aabbLeft = box
				split.aabbRight = suffixAABB[b]
				split.countLeft = int(leftCount)
				split.countRight = int(rightCount)
			}
		}
	}

	return split
}

// Clip a convex polygon against an axis-aligned plane, keeping the vertices
// at or above the plane when keepAbove is set and at or below it otherwise.
func clipAxisPlane(in []types.Vec3, dim int, plane float32, keepAbove bool, out []types.Vec3) []types.Vec3 {
	n := len(in)
	for i := 0; i < n; i++ {
		cur := in[i]
		next := in[(i+1)%n]

		curIn := cur[dim] >= plane == keepAbove || cur[dim] == plane
		nextIn := next[dim] >= plane == keepAbove || next[dim] == plane
		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			t := (plane - cur[dim]) / (next[dim] - cur[dim])
			out = append(out, cur.Add(next.Sub(cur).Mul(t)))
		}
	}
	return out
}

func clampBin(b int) int {
	if b < 0 {
		return 0
	}
	if b >= BinCount {
		return BinCount - 1
	}
	return b
}
