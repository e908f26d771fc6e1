package bvh

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/lumen/types"
)

func TestNodeEncoding(t *testing.T) {
	var node Node

	node.SetPrimitives(123, 7)
	if !node.IsLeaf() {
		t.Fatalf("expected node to be flagged as a leaf")
	}
	if node.FirstPrimitive() != 123 || node.PrimitiveCount() != 7 {
		t.Fatalf("expected leaf to span [123, 130); got first %d, count %d", node.FirstPrimitive(), node.PrimitiveCount())
	}

	node.SetChildNodes(42, 2)
	if node.IsLeaf() {
		t.Fatalf("expected node to be flagged as an inner node")
	}
	if node.LeftChild() != 42 || node.RightChild() != 43 {
		t.Fatalf("expected children at 42/43; got %d/%d", node.LeftChild(), node.RightChild())
	}
	if node.SplitAxis() != 2 {
		t.Fatalf("expected split axis 2; got %d", node.SplitAxis())
	}
}

func TestAABB(t *testing.T) {
	box := NewAABB()
	if box.Valid() {
		t.Fatalf("expected empty AABB to be invalid")
	}

	box.GrowPoint(types.Vec3{1, 2, 3})
	if !box.Valid() {
		t.Fatalf("expected point AABB to be valid")
	}
	if box.SurfaceArea() != 0 {
		t.Fatalf("expected point AABB surface area to be 0; got %f", box.SurfaceArea())
	}

	box.GrowPoint(types.Vec3{2, 4, 6})
	if expArea := float32(2 * (1*2 + 2*3 + 3*1)); box.SurfaceArea() != expArea {
		t.Fatalf("expected surface area %f; got %f", expArea, box.SurfaceArea())
	}
	if expCenter := (types.Vec3{1.5, 3, 4.5}); box.Center() != expCenter {
		t.Fatalf("expected center %v; got %v", expCenter, box.Center())
	}

	other := AABBFromPoints(types.Vec3{1.5, 2.5, 3.5}, types.Vec3{1.75, 3, 4})
	if !box.Contains(other) {
		t.Fatalf("expected box to contain %v", other)
	}

	disjoint := AABBFromPoints(types.Vec3{10, 10, 10}, types.Vec3{11, 11, 11})
	if Overlap(box, disjoint).Valid() {
		t.Fatalf("expected overlap with a disjoint AABB to be invalid")
	}
	if got := Overlap(box, other); got != other {
		t.Fatalf("expected overlap with a contained AABB to equal it; got %v", got)
	}
}

func TestClipAxisPlane(t *testing.T) {
	tri := []types.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}

	var scratch [16]types.Vec3
	clipped := clipAxisPlane(tri, 0, 1, false, scratch[:0])
	box := AABBFromPoints(clipped...)
	if box.Min[0] != 0 || box.Max[0] != 1 {
		t.Fatalf("expected clipped x extent [0, 1]; got [%f, %f]", box.Min[0], box.Max[0])
	}
	if box.Max[1] != 2 {
		t.Fatalf("expected clipped triangle to keep apex at y=2; got %f", box.Max[1])
	}

	clipped = clipAxisPlane(tri, 0, 3, true, scratch[:0])
	if len(clipped) != 0 {
		t.Fatalf("expected clip plane past the triangle to discard it; got %d vertices", len(clipped))
	}
}

func TestBuildSingleTriangle(t *testing.T) {
	tree, err := Build([]Primitive{
		{P0: types.Vec3{0, 0, 0}, P1: types.Vec3{1, 0, 0}, P2: types.Vec3{0, 1, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(tree.Nodes) != 1 || !tree.Nodes[0].IsLeaf() {
		t.Fatalf("expected a single leaf root; got %d nodes", len(tree.Nodes))
	}
	if tree.RefCount != 1 || tree.Indices[0] != 0 {
		t.Fatalf("expected the root leaf to reference primitive 0")
	}
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Fatalf("expected an error when building without primitives")
	}
}

func makeRandomPrimitives(count int, seed int64) []Primitive {
	rng := rand.New(rand.NewSource(seed))
	prims := make([]Primitive, count)
	for i := range prims {
		base := types.Vec3{
			rng.Float32()*20 - 10,
			rng.Float32()*20 - 10,
			rng.Float32()*20 - 10,
		}
		prims[i] = Primitive{
			P0: base,
			P1: base.Add(types.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}),
			P2: base.Add(types.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}),
		}
	}
	return prims
}

// Walk a binary tree checking the structural invariants every consumer of the
// builder output relies on.
func checkTree(t *testing.T, tree *Tree, primCount int) {
	t.Helper()

	if len(tree.Nodes) > Overallocation*primCount {
		t.Fatalf("node count %d exceeds the budget of %d", len(tree.Nodes), Overallocation*primCount)
	}

	seen := make([]bool, primCount)
	var walk func(nodeIdx int32)
	walk = func(nodeIdx int32) {
		node := &tree.Nodes[nodeIdx]
		if !node.Bounds().Valid() {
			t.Fatalf("node %d has an invalid AABB", nodeIdx)
		}

		if node.IsLeaf() {
			first, count := node.FirstPrimitive(), node.PrimitiveCount()
			if first < 0 || int(first+count) > len(tree.Indices) {
				t.Fatalf("leaf %d references [%d, %d) outside the index array", nodeIdx, first, first+count)
			}
			for _, ref := range tree.Indices[first : first+count] {
				if ref < 0 || int(ref) >= primCount {
					t.Fatalf("leaf %d references unknown primitive %d", nodeIdx, ref)
				}
				seen[ref] = true
			}
			return
		}

		left, right := node.LeftChild(), node.RightChild()
		if left <= nodeIdx || int(right) >= len(tree.Nodes) {
			t.Fatalf("inner node %d has out-of-range children %d/%d", nodeIdx, left, right)
		}
		if axis := node.SplitAxis(); axis < 0 || axis > 2 {
			t.Fatalf("inner node %d has invalid split axis %d", nodeIdx, axis)
		}
		for _, child := range []int32{left, right} {
			if !node.Bounds().Contains(tree.Nodes[child].Bounds()) {
				t.Fatalf("node %d bounds do not contain child %d", nodeIdx, child)
			}
		}
		walk(left)
		walk(right)
	}
	walk(0)

	for i, ok := range seen {
		if !ok {
			t.Fatalf("primitive %d is not referenced by any leaf", i)
		}
	}
}

func TestBuildStructuralInvariants(t *testing.T) {
	prims := makeRandomPrimitives(500, 42)
	tree, err := Build(prims)
	if err != nil {
		t.Fatal(err)
	}
	checkTree(t, tree, len(prims))
}

// Long thin triangles laid out diagonally force heavy child overlap for any
// object split, which is exactly the case spatial splits exist for.
func TestBuildDiagonalStrip(t *testing.T) {
	const count = 64
	prims := make([]Primitive, count)
	for i := range prims {
		f := float32(i)
		prims[i] = Primitive{
			P0: types.Vec3{f, f, f},
			P1: types.Vec3{f + 8, f + 8, f + 8.01},
			P2: types.Vec3{f + 8.01, f + 8, f + 8},
		}
	}

	tree, err := Build(prims)
	if err != nil {
		t.Fatal(err)
	}
	checkTree(t, tree, count)

	if tree.RefCount < count {
		t.Fatalf("expected at least %d references; got %d", count, tree.RefCount)
	}
}

func TestCollapse(t *testing.T) {
	prims := makeRandomPrimitives(300, 7)
	tree, err := Build(prims)
	if err != nil {
		t.Fatal(err)
	}
	mbvh := Collapse(tree)

	if len(mbvh.Indices) != tree.RefCount {
		t.Fatalf("expected %d flattened slots; got %d", tree.RefCount, len(mbvh.Indices))
	}

	seen := make([]bool, len(prims))
	var walk func(nodeIdx int32)
	walk = func(nodeIdx int32) {
		node := &mbvh.Nodes[nodeIdx]
		for i := 0; i < MBVHWidth; i++ {
			switch {
			case node.Count[i] == 0:
				if node.MinX[i] <= node.MaxX[i] {
					t.Fatalf("node %d slot %d is empty but has a valid AABB", nodeIdx, i)
				}
			case node.Count[i] > 0:
				first, count := node.Child[i], node.Count[i]
				if first < 0 || int(first+count) > len(mbvh.Indices) {
					t.Fatalf("node %d slot %d references [%d, %d) outside the flattened order", nodeIdx, i, first, first+count)
				}
				for _, ref := range mbvh.Indices[first : first+count] {
					seen[ref] = true
				}
			default:
				if node.Child[i] <= nodeIdx || int(node.Child[i]) >= len(mbvh.Nodes) {
					t.Fatalf("node %d slot %d points at invalid child %d", nodeIdx, i, node.Child[i])
				}
				walk(node.Child[i])
			}
		}
	}
	walk(0)

	for i, ok := range seen {
		if !ok {
			t.Fatalf("primitive %d is not referenced by any MBVH leaf", i)
		}
	}
}

func TestCollapseLeafRoot(t *testing.T) {
	tree, err := Build([]Primitive{
		{P0: types.Vec3{0, 0, 0}, P1: types.Vec3{1, 0, 0}, P2: types.Vec3{0, 1, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}

	mbvh := Collapse(tree)
	if len(mbvh.Nodes) != 1 {
		t.Fatalf("expected a single MBVH node; got %d", len(mbvh.Nodes))
	}
	node := &mbvh.Nodes[0]
	if node.Count[0] != 1 || node.Child[0] != 0 {
		t.Fatalf("expected slot 0 to be a single-triangle leaf; got count %d, child %d", node.Count[0], node.Child[0])
	}
	for i := 1; i < MBVHWidth; i++ {
		if node.Count[i] != 0 {
			t.Fatalf("expected slot %d to be empty; got count %d", i, node.Count[i])
		}
	}
}
