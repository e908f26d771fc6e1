package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene/bvh"
	"github.com/achilleasa/lumen/types"
	"github.com/olekukonko/tablewriter"
)

const (
	// The maximum number of materials a compiled scene can reference.
	MaxMaterials = 256

	// The maximum number of textures a compiled scene can reference.
	MaxTextures = 64
)

// A compiled scene stores the geometry as flat SoA tables laid out in MBVH
// leaf order so that the trace and shade kernels can fetch triangle data by
// flattened slot without indirection. Positions, normals and texture
// coordinates are stored as a base vertex plus two edges.
type CompiledScene struct {
	Camera *Camera
	Sky    *Sky

	MBVH *bvh.MBVH

	Position0     []types.Vec3
	PositionEdge1 []types.Vec3
	PositionEdge2 []types.Vec3

	Normal0     []types.Vec3
	NormalEdge1 []types.Vec3
	NormalEdge2 []types.Vec3

	TexCoord0     []types.Vec2
	TexCoordEdge1 []types.Vec2
	TexCoordEdge2 []types.Vec2

	MaterialID []int32

	Materials []Material
	Textures  []*Texture

	// Light sampling tables. Each emissive input triangle contributes one
	// flattened slot; selection is area-weighted through the cumulative
	// distribution.
	LightSlots     []int32
	LightAreas     []float32
	LightCDF       []float32
	TotalLightArea float32
}

// Compile validates the scene, builds the acceleration structure and lays the
// geometry out in flattened traversal order.
func (s *Scene) Compile() (*CompiledScene, error) {
	logger := log.New("scene")
	start := time.Now()

	if len(s.Materials) > MaxMaterials {
		return nil, fmt.Errorf("scene: material count %d exceeds the limit of %d", len(s.Materials), MaxMaterials)
	}
	if len(s.Textures) > MaxTextures {
		return nil, fmt.Errorf("scene: texture count %d exceeds the limit of %d", len(s.Textures), MaxTextures)
	}
	for i, mat := range s.Materials {
		if mat.TextureID >= int32(len(s.Textures)) {
			return nil, fmt.Errorf("scene: material %d references unknown texture %d", i, mat.TextureID)
		}
	}
	for i := range s.Triangles {
		if id := s.Triangles[i].MaterialID; id < 0 || id >= int32(len(s.Materials)) {
			return nil, fmt.Errorf("scene: triangle %d references unknown material %d", i, id)
		}
	}

	cs := &CompiledScene{
		Camera:    s.Camera,
		Sky:       s.Sky,
		Materials: s.Materials,
		Textures:  s.Textures,
	}

	if len(s.Triangles) == 0 {
		logger.Noticef("scene contains no geometry; all rays will hit the sky\n")
		return cs, nil
	}

	prims := make([]bvh.Primitive, len(s.Triangles))
	for i := range s.Triangles {
		prims[i] = bvh.Primitive{
			P0: s.Triangles[i].Positions[0],
			P1: s.Triangles[i].Positions[1],
			P2: s.Triangles[i].Positions[2],
		}
	}

	tree, err := bvh.Build(prims)
	if err != nil {
		return nil, err
	}
	cs.MBVH = bvh.Collapse(tree)

	slotCount := len(cs.MBVH.Indices)
	cs.Position0 = make([]types.Vec3, slotCount)
	cs.PositionEdge1 = make([]types.Vec3, slotCount)
	cs.PositionEdge2 = make([]types.Vec3, slotCount)
	cs.Normal0 = make([]types.Vec3, slotCount)
	cs.NormalEdge1 = make([]types.Vec3, slotCount)
	cs.NormalEdge2 = make([]types.Vec3, slotCount)
	cs.TexCoord0 = make([]types.Vec2, slotCount)
	cs.TexCoordEdge1 = make([]types.Vec2, slotCount)
	cs.TexCoordEdge2 = make([]types.Vec2, slotCount)
	cs.MaterialID = make([]int32, slotCount)

	// Spatial splits duplicate references so the same input triangle may
	// occupy several slots; lights must only be sampled once, through
	// their first slot.
	firstSlot := make([]int32, len(s.Triangles))
	for i := range firstSlot {
		firstSlot[i] = -1
	}

	for slot, triIdx := range cs.MBVH.Indices {
		tri := &s.Triangles[triIdx]

		cs.Position0[slot] = tri.Positions[0]
		cs.PositionEdge1[slot] = tri.Positions[1].Sub(tri.Positions[0])
		cs.PositionEdge2[slot] = tri.Positions[2].Sub(tri.Positions[0])

		cs.Normal0[slot] = tri.Normals[0]
		cs.NormalEdge1[slot] = tri.Normals[1].Sub(tri.Normals[0])
		cs.NormalEdge2[slot] = tri.Normals[2].Sub(tri.Normals[0])

		cs.TexCoord0[slot] = tri.UVs[0]
		cs.TexCoordEdge1[slot] = tri.UVs[1].Sub(tri.UVs[0])
		cs.TexCoordEdge2[slot] = tri.UVs[2].Sub(tri.UVs[0])

		cs.MaterialID[slot] = tri.MaterialID

		if firstSlot[triIdx] == -1 {
			firstSlot[triIdx] = int32(slot)
		}
	}

	for i := range s.Triangles {
		tri := &s.Triangles[i]
		if !s.Materials[tri.MaterialID].Emissive() {
			continue
		}

		area := tri.Area()
		cs.TotalLightArea += area
		cs.LightSlots = append(cs.LightSlots, firstSlot[i])
		cs.LightAreas = append(cs.LightAreas, area)
		cs.LightCDF = append(cs.LightCDF, cs.TotalLightArea)
	}

	logger.Debugf(
		"scene compile time: %d ms (%d triangles, %d refs, %d mbvh nodes, %d lights)\n",
		time.Since(start).Nanoseconds()/1e6,
		len(s.Triangles), slotCount, len(cs.MBVH.Nodes), len(cs.LightSlots),
	)
	return cs, nil
}

// Get the number of emissive triangles in the scene.
func (cs *CompiledScene) LightCount() int {
	return len(cs.LightSlots)
}

// Pick a light with probability proportional to its area. Returns the light
// table index and the selection probability.
func (cs *CompiledScene) SampleLight(xi float32) (int, float32) {
	target := xi * cs.TotalLightArea
	light := sort.Search(len(cs.LightCDF), func(i int) bool {
		return cs.LightCDF[i] >= target
	})
	if light >= len(cs.LightCDF) {
		light = len(cs.LightCDF) - 1
	}
	return light, cs.LightAreas[light] / cs.TotalLightArea
}

// Generate a table with the memory footprint of the compiled scene tables.
func (cs *CompiledScene) Stats() string {
	var mbvhNodes []bvh.MBVHNode
	var mbvhIndices []int32
	if cs.MBVH != nil {
		mbvhNodes = cs.MBVH.Nodes
		mbvhIndices = cs.MBVH.Indices
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.SetHeader([]string{"Table", "Entry", "Size"})
	table.Append([]string{"Geometry", "---", fmtSize(cs.Position0, cs.PositionEdge1, cs.PositionEdge2, cs.Normal0, cs.NormalEdge1, cs.NormalEdge2, cs.TexCoord0, cs.TexCoordEdge1, cs.TexCoordEdge2, cs.MaterialID)})
	table.Append([]string{"", "Positions", fmtSize(cs.Position0, cs.PositionEdge1, cs.PositionEdge2)})
	table.Append([]string{"", "Normals", fmtSize(cs.Normal0, cs.NormalEdge1, cs.NormalEdge2)})
	table.Append([]string{"", "UVs", fmtSize(cs.TexCoord0, cs.TexCoordEdge1, cs.TexCoordEdge2)})
	table.Append([]string{"", "Material ids", fmtSize(cs.MaterialID)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"MBVH", "---", fmtSize(mbvhNodes, mbvhIndices)})
	table.Append([]string{"", "Nodes", fmtSize(mbvhNodes)})
	table.Append([]string{"", "Indices", fmtSize(mbvhIndices)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Lights", "---", fmtSize(cs.LightSlots, cs.LightAreas, cs.LightCDF)})
	table.Append([]string{"Materials", "---", fmtSize(cs.Materials)})
	table.Append([]string{"Sky", "---", fmtSize(cs.Sky.Data)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(
		cs.Position0, cs.PositionEdge1, cs.PositionEdge2,
		cs.Normal0, cs.NormalEdge1, cs.NormalEdge2,
		cs.TexCoord0, cs.TexCoordEdge1, cs.TexCoordEdge2,
		cs.MaterialID, mbvhNodes, mbvhIndices,
		cs.LightSlots, cs.LightAreas, cs.LightCDF,
		cs.Materials, cs.Sky.Data,
	), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
