package scene

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/achilleasa/lbvh/types"
	"github.com/olekukonko/tablewriter"
)

// Camera placement as defined by the scene description.
type CameraSpec struct {
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3

	// Vertical field of view in degrees.
	FOV float32
}

// Default camera placement for scenes that do not define one.
func DefaultCameraSpec() CameraSpec {
	return CameraSpec{
		Eye:  types.Vec3{0, 0, 0},
		Look: types.Vec3{0, 0, -1},
		Up:   types.Vec3{0, 1, 0},
		FOV:  45,
	}
}

// A scene is a flat list of triangles plus the materials they reference.
type Scene struct {
	Triangles []Triangle
	Materials []Material
	Camera    CameraSpec
}

// Create an empty scene.
func New() *Scene {
	return &Scene{
		Triangles: make([]Triangle, 0),
		Materials: make([]Material, 0),
		Camera:    DefaultCameraSpec(),
	}
}

// Get the AABB enclosing all scene triangles. Returns a zero box for empty scenes.
func (sc *Scene) Bounds() [2]types.Vec3 {
	if len(sc.Triangles) == 0 {
		return [2]types.Vec3{}
	}

	bounds := [2]types.Vec3{
		types.Splat3(math.MaxFloat32),
		types.Splat3(-math.MaxFloat32),
	}
	for index := range sc.Triangles {
		bbox := sc.Triangles[index].BBox()
		bounds[0] = types.MinVec3(bounds[0], bbox[0])
		bounds[1] = types.MaxVec3(bounds[1], bbox[1])
	}
	return bounds
}

// Lookup a material by index. Out of range indices resolve to the default material.
func (sc *Scene) Material(index int32) Material {
	if index < 0 || int(index) >= len(sc.Materials) {
		return DefaultMaterial()
	}
	return sc.Materials[index]
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	bounds := sc.Bounds()

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Value"})
	table.Append([]string{"Geometry", "Triangles", fmt.Sprintf("%d", len(sc.Triangles))})
	table.Append([]string{"", "Size", FmtSize(sc.Triangles)})
	table.Append([]string{"", "Bounds", fmt.Sprintf("%v - %v", bounds[0], bounds[1])})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Materials", "Count", fmt.Sprintf("%d", len(sc.Materials))})
	for _, mat := range sc.Materials {
		table.Append([]string{"", mat.Name, mat.Bxdf.String()})
	}
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(FmtSize(sc.Triangles, sc.Materials), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func FmtSize(items ...interface{}) string {
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
