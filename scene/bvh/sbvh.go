package bvh

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/achilleasa/lumen/log"
)

const (
	// The number of slabs used by the spatial split search.
	BinCount = 256

	// Node and reference storage is overallocated by this factor to leave
	// room for references duplicated by spatial splits. Exceeding the
	// budget is a fatal construction error.
	Overallocation = 3

	// Ranges at or below this size become leaves when neither split beats
	// the cost of leaving the node unsplit.
	maxLeafPrimitives = 8

	// Spatial splits are only attempted when the overlap between the best
	// object split children exceeds this fraction of the root surface
	// area.
	overlapAlpha = 1e-5
)

// The binary SBVH produced by Build. Leaf nodes reference ranges of the
// Indices array; the same primitive may appear in more than one leaf when a
// spatial split chops its reference in two.
type Tree struct {
	Nodes   []Node
	Indices []int32

	// The number of primitive references across all leaves.
	RefCount int
}

type builder struct {
	logger log.Logger

	prims  []Primitive
	nodes  []Node
	rootSA float32

	// Index arrays presorted by centroid along each dimension. All three
	// cover the same reference ranges at every node.
	indices [3][]int32

	// The next free node slot.
	nextNode int32

	// Scratch buffers reused across buildNode invocations. None of them
	// is held across a recursive call.
	suffix       []AABB
	routeScratch []int32
	goesLeft     []bool
	goesRight    []bool

	maxDepth int
	leafs    int
}

// Construct an SBVH from a set of primitives. The builder considers both
// object and spatial partitions at every node and applies reference
// unsplitting to straddling primitives, so leaves may share primitives.
func Build(prims []Primitive) (*Tree, error) {
	if len(prims) == 0 {
		return nil, fmt.Errorf("bvh: cannot build tree without primitives")
	}

	capacity := Overallocation * len(prims)
	b := &builder{
		logger:       log.New("bvh"),
		prims:        prims,
		nodes:        make([]Node, capacity),
		suffix:       make([]AABB, capacity),
		routeScratch: make([]int32, capacity),
		goesLeft:     make([]bool, len(prims)),
		goesRight:    make([]bool, len(prims)),
	}

	rootBounds := NewAABB()
	centers := make([][3]float32, len(prims))
	for i := range prims {
		rootBounds.Grow(prims[i].Bounds())
		c := prims[i].Center()
		centers[i] = [3]float32{c[0], c[1], c[2]}
	}
	b.rootSA = rootBounds.SurfaceArea()

	for dim := 0; dim < 3; dim++ {
		b.indices[dim] = make([]int32, capacity)
		for i := 0; i < len(prims); i++ {
			b.indices[dim][i] = int32(i)
		}
		d := dim
		sort.Slice(b.indices[d][:len(prims)], func(i, j int) bool {
			return centers[b.indices[d][i]][d] < centers[b.indices[d][j]][d]
		})
	}

	start := time.Now()
	b.nextNode = 1
	refCount, err := b.buildNode(0, rootBounds, 0, len(prims), 0)
	if err != nil {
		return nil, err
	}
	b.logger.Debugf(
		"SBVH build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, refs: %d (%d primitives)\n",
		time.Since(start).Nanoseconds()/1e6,
		b.maxDepth, b.nextNode, b.leafs, refCount, len(prims),
	)

	return &Tree{
		Nodes:    b.nodes[:b.nextNode],
		Indices:  b.indices[0][:refCount],
		RefCount: refCount,
	}, nil
}

// Partition the reference range [first, first+count) into the given node and
// recurse. Returns the number of references across the subtree's leaves; the
// subtree has exclusive use of the index arrays from first onward until it
// returns.
func (b *builder) buildNode(nodeIdx int32, bounds AABB, first, count, depth int) (int, error) {
	if depth > b.maxDepth {
		b.maxDepth = depth
	}

	node := &b.nodes[nodeIdx]
	node.SetBounds(bounds)

	if count == 1 {
		return b.createLeaf(node, first, count), nil
	}

	objSplit := partitionObject(b.prims, &b.indices, first, count, b.suffix)

	// Gate the spatial split search on the amount of child overlap the
	// object split produces.
	spSplit := spatialSplit{cost: float32(math.Inf(1)), dim: -1}
	overlap := Overlap(objSplit.aabbLeft, objSplit.aabbRight)
	if overlap.Valid() && overlap.SurfaceArea()/b.rootSA > overlapAlpha {
		spSplit = partitionSpatial(b.prims, &b.indices, first, count, bounds)
	}

	splitCost := objSplit.cost
	if spSplit.cost < splitCost {
		splitCost = spSplit.cost
	}
	if count <= maxLeafPrimitives && bounds.SurfaceArea()*float32(count) <= splitCost {
		return b.createLeaf(node, first, count), nil
	}

	leftNode := b.nextNode
	b.nextNode += 2
	if int(b.nextNode) > len(b.nodes) {
		return 0, fmt.Errorf("bvh: node budget of %d exceeded; input is degenerate", len(b.nodes))
	}

	var countLeft, countRight int
	var aabbLeft, aabbRight AABB
	var splitDim int
	if spSplit.cost < objSplit.cost {
		if first+spSplit.countLeft+spSplit.countRight > len(b.indices[0]) {
			return 0, fmt.Errorf("bvh: reference budget of %d exceeded; input is degenerate", len(b.indices[0]))
		}
		splitDim = spSplit.dim
		countLeft, countRight, aabbLeft, aabbRight = b.routeSpatial(first, count, bounds, spSplit)
	} else {
		splitDim = objSplit.dim
		countLeft = objSplit.index - first
		countRight = count - countLeft
		aabbLeft, aabbRight = Overlap(objSplit.aabbLeft, bounds), Overlap(objSplit.aabbRight, bounds)
		b.routeObject(first, count, objSplit)
	}
	node.SetChildNodes(leftNode, splitDim)

	// Stash the right-side references; the left subtree may grow past
	// first+countLeft while it recurses.
	var rightRefs [3][]int32
	for dim := 0; dim < 3; dim++ {
		rightRefs[dim] = make([]int32, countRight)
		copy(rightRefs[dim], b.indices[dim][first+countLeft:first+countLeft+countRight])
	}

	leavesLeft, err := b.buildNode(leftNode, aabbLeft, first, countLeft, depth+1)
	if err != nil {
		return 0, err
	}

	rightFirst := first + leavesLeft
	if rightFirst+countRight > len(b.indices[0]) {
		return 0, fmt.Errorf("bvh: reference budget of %d exceeded; input is degenerate", len(b.indices[0]))
	}
	for dim := 0; dim < 3; dim++ {
		copy(b.indices[dim][rightFirst:rightFirst+countRight], rightRefs[dim])
	}

	leavesRight, err := b.buildNode(leftNode+1, aabbRight, rightFirst, countRight, depth+1)
	if err != nil {
		return 0, err
	}

	return leavesLeft + leavesRight, nil
}

func (b *builder) createLeaf(node *Node, first, count int) int {
	node.SetPrimitives(int32(first), int32(count))
	b.leafs++
	return count
}

// Partition all three dimension arrays around an object split. The split
// dimension is already partitioned by construction; the other two route each
// reference by comparing its centroid with the split coordinate, falling back
// to an identity scan when centroids coincide so that every dimension arrives
// at the same partition counts.
func (b *builder) routeObject(first, count int, split objectSplit) {
	splitPos := b.prims[b.indices[split.dim][split.index]].Center()[split.dim]

	for dim := 0; dim < 3; dim++ {
		if dim == split.dim {
			continue
		}

		idx := b.indices[dim]
		left := first
		right := 0

		for i := first; i < first+count; i++ {
			id := idx[i]
			center := b.prims[id].Center()[split.dim]

			goesLeft := center < splitPos
			if center == splitPos {
				for j := split.index - 1; j >= first; j-- {
					other := b.indices[split.dim][j]
					if b.prims[other].Center()[split.dim] != splitPos {
						break
					}
					if other == id {
						goesLeft = true
						break
					}
				}
			}

			if goesLeft {
				idx[left] = id
				left++
			} else {
				b.routeScratch[right] = id
				right++
			}
		}
		copy(idx[left:left+right], b.routeScratch[:right])
	}
}

// Classify every reference against a spatial split, applying reference
// unsplitting to straddlers, then replay the decisions across all three
// dimension arrays so each keeps its sort order. Returns the reference counts
// and child AABBs after unsplitting.
func (b *builder) routeSpatial(first, count int, nodeBounds AABB, split spatialSplit) (int, int, AABB, AABB) {
	countLeft, countRight := split.countLeft, split.countRight
	aabbLeft, aabbRight := split.aabbLeft, split.aabbRight

	for _, id := range b.indices[split.dim][first : first+count] {
		refAABB := Overlap(b.prims[id].Bounds(), nodeBounds)
		binMin := clampBin(int((refAABB.Min[split.dim] - split.gridMin) * split.gridScale))
		binMax := clampBin(int((refAABB.Max[split.dim] - split.gridMin) * split.gridScale))

		if binMax < split.bin {
			b.goesLeft[id], b.goesRight[id] = true, false
			continue
		}
		if binMin >= split.bin {
			b.goesLeft[id], b.goesRight[id] = false, true
			continue
		}

		// A straddler may stay split, or be unsplit onto whichever side
		// the SAH favors. Sides whose clipped fragment does not overlap
		// the child bounds are rejected outright.
		leftValid := Overlap(refAABB, aabbLeft).Valid()
		rightValid := Overlap(refAABB, aabbRight).Valid()

		switch {
		case leftValid && rightValid:
			costSplit := aabbLeft.SurfaceArea()*float32(countLeft) + aabbRight.SurfaceArea()*float32(countRight)

			grownLeft := aabbLeft
			grownLeft.Grow(refAABB)
			grownRight := aabbRight
			grownRight.Grow(refAABB)

			costLeft := float32(math.Inf(1))
			if countRight > 1 {
				costLeft = grownLeft.SurfaceArea()*float32(countLeft) + aabbRight.SurfaceArea()*float32(countRight-1)
			}
			costRight := float32(math.Inf(1))
			if countLeft > 1 {
				costRight = aabbLeft.SurfaceArea()*float32(countLeft-1) + grownRight.SurfaceArea()*float32(countRight)
			}

			switch {
			case costLeft < costSplit && costLeft <= costRight:
				aabbLeft = grownLeft
				countRight--
				b.goesLeft[id], b.goesRight[id] = true, false
			case costRight < costSplit:
				aabbRight = grownRight
				countLeft--
				b.goesLeft[id], b.goesRight[id] = false, true
			default:
				b.goesLeft[id], b.goesRight[id] = true, true
			}
		case leftValid:
			aabbLeft.Grow(refAABB)
			countRight--
			b.goesLeft[id], b.goesRight[id] = true, false
		case rightValid:
			aabbRight.Grow(refAABB)
			countLeft--
			b.goesLeft[id], b.goesRight[id] = false, true
		default:
			aabbLeft.Grow(refAABB)
			countRight--
			b.goesLeft[id], b.goesRight[id] = true, false
		}
	}

	for dim := 0; dim < 3; dim++ {
		idx := b.indices[dim]
		left := first
		right := 0

		for i := first; i < first+count; i++ {
			id := idx[i]
			if b.goesLeft[id] {
				idx[left] = id
				left++
			}
			if b.goesRight[id] {
				b.routeScratch[right] = id
				right++
			}
		}
		copy(idx[left:left+right], b.routeScratch[:right])
	}

	return countLeft, countRight, aabbLeft, aabbRight
}
