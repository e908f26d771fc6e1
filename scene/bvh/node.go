package bvh

import "github.com/achilleasa/lumen/types"

// BVH nodes use a compact 32-byte encoding. The two 4-byte fields tucked
// behind the AABB corners overload their meaning depending on the node type:
//
// - inner nodes: LData points to the left child (the right child is always
//   LData+1) and RData stores -(splitAxis+1)
// - leaf nodes: LData stores the negated index of the first primitive and
//   RData the primitive count
//
// A node is a leaf iff RData > 0.
type Node struct {
	Min   types.Vec3
	LData int32
	Max   types.Vec3
	RData int32
}

// Get the node bounding box.
func (n *Node) Bounds() AABB {
	return AABB{Min: n.Min, Max: n.Max}
}

// Set the node bounding box.
func (n *Node) SetBounds(box AABB) {
	n.Min = box.Min
	n.Max = box.Max
}

// Check whether this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.RData > 0
}

// Flag the node as an inner node pointing to the given left child. The right
// child is implicitly stored at leftChild+1.
func (n *Node) SetChildNodes(leftChild int32, splitAxis int) {
	n.LData = leftChild
	n.RData = -int32(splitAxis + 1)
}

// Get the left child index for an inner node.
func (n *Node) LeftChild() int32 {
	return n.LData
}

// Get the right child index for an inner node.
func (n *Node) RightChild() int32 {
	return n.LData + 1
}

// Get the split axis for an inner node.
func (n *Node) SplitAxis() int {
	return int(-n.RData - 1)
}

// Flag the node as a leaf spanning count primitives starting at first.
func (n *Node) SetPrimitives(first, count int32) {
	n.LData = -first
	n.RData = count
}

// Get the index of the first leaf primitive.
func (n *Node) FirstPrimitive() int32 {
	return -n.LData
}

// Get the leaf primitive count.
func (n *Node) PrimitiveCount() int32 {
	return n.RData
}
