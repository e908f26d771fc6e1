package bvh

import "math"

// The MBVH branching factor.
const MBVHWidth = 4

// MBVH nodes store the AABBs of up to four children in SoA layout so that a
// traversal step can test a ray against all child slabs at once. The Child
// and Count fields overload their meaning per slot:
//
// - internal child: Count is -1 and Child holds the child node index
// - leaf child: Count holds the triangle count and Child the first slot in
//   the flattened triangle order
// - empty slot: Count is 0 and the AABB is inverted so it can never be hit
type MBVHNode struct {
	MinX [MBVHWidth]float32
	MinY [MBVHWidth]float32
	MinZ [MBVHWidth]float32
	MaxX [MBVHWidth]float32
	MaxY [MBVHWidth]float32
	MaxZ [MBVHWidth]float32

	Child [MBVHWidth]int32
	Count [MBVHWidth]int32
}

// A 4-wide BVH collapsed from a binary SBVH. Indices lists the input
// primitive for every flattened triangle slot in leaf visit order; leaf
// children reference contiguous ranges of it.
type MBVH struct {
	Nodes   []MBVHNode
	Indices []int32
}

// Collapse a binary SBVH into an MBVH. Each inner node absorbs descendants
// by repeatedly expanding its largest-surface-area internal child until it
// has four children or only leaves remain.
func Collapse(tree *Tree) *MBVH {
	m := &MBVH{
		Nodes:   make([]MBVHNode, 1, len(tree.Nodes)),
		Indices: make([]int32, 0, tree.RefCount),
	}

	if tree.Nodes[0].IsLeaf() {
		m.fillNode(tree, []int32{0}, 0)
		return m
	}

	m.collapseNode(tree, 0, 0)
	return m
}

func (m *MBVH) collapseNode(tree *Tree, src, dst int32) {
	node := &tree.Nodes[src]
	children := make([]int32, 0, MBVHWidth)
	children = append(children, node.LeftChild(), node.RightChild())

	for len(children) < MBVHWidth {
		best := -1
		bestSA := float32(-math.MaxFloat32)
		for i, c := range children {
			if tree.Nodes[c].IsLeaf() {
				continue
			}
			if sa := tree.Nodes[c].Bounds().SurfaceArea(); sa > bestSA {
				bestSA = sa
				best = i
			}
		}
		if best < 0 {
			break
		}

		expand := &tree.Nodes[children[best]]
		children[best] = expand.LeftChild()
		children = append(children, expand.RightChild())
	}

	childDst := m.fillNode(tree, children, dst)
	for i, c := range children {
		if !tree.Nodes[c].IsLeaf() {
			m.collapseNode(tree, c, childDst[i])
		}
	}
}

// Populate the destination node from the given binary children, flattening
// leaf triangle ranges and reserving node slots for internal children. The
// node fields are fully written before returning since recursion may move
// the node storage.
func (m *MBVH) fillNode(tree *Tree, children []int32, dst int32) [MBVHWidth]int32 {
	var childDst [MBVHWidth]int32
	for i, c := range children {
		if !tree.Nodes[c].IsLeaf() {
			childDst[i] = int32(len(m.Nodes))
			m.Nodes = append(m.Nodes, MBVHNode{})
		}
	}

	node := &m.Nodes[dst]
	for i := 0; i < MBVHWidth; i++ {
		if i >= len(children) {
			node.MinX[i], node.MinY[i], node.MinZ[i] = math.MaxFloat32, math.MaxFloat32, math.MaxFloat32
			node.MaxX[i], node.MaxY[i], node.MaxZ[i] = -math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32
			node.Child[i] = 0
			node.Count[i] = 0
			continue
		}

		child := &tree.Nodes[children[i]]
		node.MinX[i], node.MinY[i], node.MinZ[i] = child.Min[0], child.Min[1], child.Min[2]
		node.MaxX[i], node.MaxY[i], node.MaxZ[i] = child.Max[0], child.Max[1], child.Max[2]

		if child.IsLeaf() {
			first := child.FirstPrimitive()
			count := child.PrimitiveCount()
			node.Child[i] = int32(len(m.Indices))
			node.Count[i] = count
			m.Indices = append(m.Indices, tree.Indices[first:first+count]...)
		} else {
			node.Child[i] = childDst[i]
			node.Count[i] = -1
		}
	}
	return childDst
}
