package reader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/lbvh/asset"
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
)

func mockResource(payload string) *asset.Resource {
	return asset.NewResourceFromStream("embedded", strings.NewReader(payload))
}

func TestFloat32Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 1 argument; got 0`
	_, err := parseFloat32([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat32([]string{"v", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"v", "3.14"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestVec2Parser(t *testing.T) {
	expError := `unsupported syntax for "vt"; expected 2 arguments; got 0`
	_, err := parseVec2([]string{"vt"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	v, err := parseVec2([]string{"vt", "3.14", "0"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec2{3.14, 0}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"0", 10, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""},
		{"-1", 10, 4, 9, ""},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0 0
vn 0 1 0
vt 0 1
vn 0 1 0
vt 1 0
vn 0 0 1
# Comment
f 1/1/1 2/2/2 -1/-1/-1
`

	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Triangles) != 1 {
		t.Fatalf("expected 1 triangle to be parsed; got %d", len(sc.Triangles))
	}

	expMaterials := 1
	if len(sc.Materials) != expMaterials {
		t.Fatalf("expected scene to contain %d material(s); got %d", expMaterials, len(sc.Materials))
	}
	if sc.Materials[0].Bxdf != scene.BxdfDiffuse {
		t.Fatalf("expected default material to be diffuse; got %s", sc.Materials[0].Bxdf)
	}

	expPoints := [3]types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	expNormals := [3]types.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	expUVs := [3]types.Vec2{{0, 0}, {0, 1}, {1, 0}}
	tri := sc.Triangles[0]
	if tri.Vertices != expPoints {
		t.Fatalf("expected vertices to be %v; got %v", expPoints, tri.Vertices)
	}
	if tri.Normals != expNormals {
		t.Fatalf("expected normals to be %v; got %v", expNormals, tri.Normals)
	}
	if tri.UVs != expUVs {
		t.Fatalf("expected uvs to be %v; got %v", expUVs, tri.UVs)
	}
}

func TestParsePolygonFaces(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 1 0
f 1 2 3 4
f 1 2 3 4 5
f -4 -2 -1
`

	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	// quad: 2 triangles, pentagon: 3 triangles, triangle: 1
	if len(sc.Triangles) != 6 {
		t.Fatalf("expected 6 triangles; got %d", len(sc.Triangles))
	}

	expFan := [][3]types.Vec3{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	}
	for idx, exp := range expFan {
		if sc.Triangles[idx].Vertices != exp {
			t.Fatalf("expected fan triangle %d to be %v; got %v", idx, exp, sc.Triangles[idx].Vertices)
		}
	}

	// Missing normals are replaced by the face normal
	expNormal := types.Vec3{0, 0, 1}
	for idx, tri := range sc.Triangles {
		if tri.Normals[0] != expNormal || tri.Normals[2] != expNormal {
			t.Fatalf("expected triangle %d normals to be %v; got %v", idx, expNormal, tri.Normals)
		}
	}

	expLast := [3]types.Vec3{{1, 0, 0}, {0, 1, 0}, {-1, 1, 0}}
	if sc.Triangles[5].Vertices != expLast {
		t.Fatalf("expected negative indices to select %v; got %v", expLast, sc.Triangles[5].Vertices)
	}
}

func TestParseFaceErrors(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}
	specs := []spec{
		{"v 0 0 0\nf 1 1", `[embedded: 2] error: unsupported syntax for "f"; expected at least 3 arguments; got 2`},
		{"v 0 0 0\nf 1 1 4", "[embedded: 2] error: could not parse vertex coord for face argument 2: index out of bounds"},
		{"v 0 0 0\nf 1/ 1 1", "[embedded: 2] error: expected each face argument to contain 2 indices; arg 1 contains 1 indices"},
		{"v 0 0 0\nusemtl foo", `[embedded: 2] error: undefined material with name "foo"`},
		{"v 0 0", `[embedded: 1] error: unsupported syntax for "v"; expected 3 arguments; got 2`},
	}

	for idx, s := range specs {
		_, err := newWavefrontReader().Read(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected error %q; got %v", idx, s.expError, err)
		}
	}
}

func TestParseCamera(t *testing.T) {
	payload := `
camera_eye 0 5 10
camera_look 0 0 0
camera_up 0 1 0
camera_fov 60
`
	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	exp := scene.CameraSpec{Eye: types.Vec3{0, 5, 10}, Look: types.Vec3{0, 0, 0}, Up: types.Vec3{0, 1, 0}, FOV: 60}
	if sc.Camera != exp {
		t.Fatalf("expected camera to be %+v; got %+v", exp, sc.Camera)
	}
}

func TestMaterialLoaderMissingNewMaterialCommand(t *testing.T) {
	payload := `Kd 1.0 1.0 1.0`
	err := newWavefrontReader().parseMaterials(mockResource(payload))

	expError := `[embedded: 1] error: got "Kd" without a "newmtl"`
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestMaterialLoaderInvalidParams(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}
	specs := []spec{
		{"newmtl foo\nKd 1.0", `[embedded: 2] error: unsupported syntax for "Kd"; expected 3 arguments; got 1`},
		{"newmtl foo\nNi", `[embedded: 2] error: unsupported syntax for "Ni"; expected 1 argument; got 0`},
		{"newmtl foo\nbxdf velvet", `[embedded: 2] error: unknown bxdf type "velvet"`},
		{"newmtl foo\nnewmtl foo", `[embedded: 2] error: material "foo" already defined`},
		{"newmtl foo\ninclude bar", `[embedded: 2] error: could not include unknown material "bar"`},
	}

	for idx, s := range specs {
		err := newWavefrontReader().parseMaterials(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected error %q; got %v", idx, s.expError, err)
		}
	}
}

func TestMaterialBxdfClassification(t *testing.T) {
	type spec struct {
		mat     wavefrontMaterial
		expBxdf scene.BxdfType
	}
	specs := []spec{
		{wavefrontMaterial{Kd: types.Vec3{0.5, 0.5, 0.5}}, scene.BxdfDiffuse},
		{wavefrontMaterial{}, scene.BxdfDiffuse},
		{wavefrontMaterial{Ke: types.Vec3{10, 10, 10}}, scene.BxdfEmissive},
		{wavefrontMaterial{Ks: types.Vec3{1, 1, 1}, Ni: 1.5}, scene.BxdfDielectric},
		{wavefrontMaterial{Ks: types.Vec3{1, 1, 1}, Kd: types.Vec3{1, 0, 0}}, scene.BxdfPlastic},
		{wavefrontMaterial{Ks: types.Vec3{1, 1, 1}}, scene.BxdfConductor},
		{wavefrontMaterial{Tf: types.Vec3{1, 1, 1}, Ni: 1.3}, scene.BxdfTransmissive},
		{wavefrontMaterial{Kd: types.Vec3{1, 1, 1}, Bxdf: scene.BxdfConductor}, scene.BxdfConductor},
	}

	for idx, s := range specs {
		if got := s.mat.BxdfType(); got != s.expBxdf {
			t.Fatalf("[spec %d] expected bxdf %s; got %s", idx, s.expBxdf, got)
		}
	}

	m := (&wavefrontMaterial{Name: "glass", Ks: types.Vec3{1, 1, 1}}).Material()
	if m.IOR != scene.DefaultIOR {
		t.Fatalf("expected unset IOR to default to %f; got %f", scene.DefaultIOR, m.IOR)
	}
}

func TestMaterialLoaderSuccess(t *testing.T) {
	payload := `
	# comment
	newmtl foo
	Kd 1.0 1.0 1.0
	Ks 0.1 0.2 0.3
	Ke 0.4    0.5 0.6
	Ni 2.5
	illum 2

	newmtl bar
	include foo
	bxdf plastic
	`
	r := newWavefrontReader()
	err := r.parseMaterials(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(r.materials) != 2 {
		t.Fatalf("expected to parse 2 materials; got %d", len(r.materials))
	}

	mat := r.materials[0]
	if mat.Name != "foo" {
		t.Fatalf("expected material name to be 'foo'; got %s", mat.Name)
	}

	expVec3 := types.Vec3{1, 1, 1}
	if !reflect.DeepEqual(mat.Kd, expVec3) {
		t.Fatalf("expected Kd to be %v; got %v", expVec3, mat.Kd)
	}
	expVec3 = types.Vec3{0.1, 0.2, 0.3}
	if !reflect.DeepEqual(mat.Ks, expVec3) {
		t.Fatalf("expected Ks to be %v; got %v", expVec3, mat.Ks)
	}
	expVec3 = types.Vec3{0.4, 0.5, 0.6}
	if !reflect.DeepEqual(mat.Ke, expVec3) {
		t.Fatalf("expected Ke to be %v; got %v", expVec3, mat.Ke)
	}
	var expScalar float32 = 2.5
	if mat.Ni != expScalar {
		t.Fatalf("expected Ni to be %f; got %f", expScalar, mat.Ni)
	}

	inc := r.materials[1]
	if inc.Name != "bar" || inc.Kd != mat.Kd || inc.Ni != mat.Ni {
		t.Fatalf("expected bar to include the properties of foo; got %+v", inc)
	}
	if inc.BxdfType() != scene.BxdfPlastic {
		t.Fatalf("expected bxdf override to select plastic; got %s", inc.BxdfType())
	}
}

func TestMaterialPruning(t *testing.T) {
	dir := t.TempDir()
	mtl := `
newmtl unused
Kd 1 0 0

newmtl light
Ke 5 5 5

newmtl mirror
Ks 1 1 1
`
	obj := `
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
usemtl mirror
f 1 2 3
usemtl light
f 1 2 3
`
	if err := os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(mtl), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.obj"), []byte(obj), 0o644); err != nil {
		t.Fatal(err)
	}

	sc, err := ReadScene(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}

	expNames := []string{"light", "mirror", "default"}
	if len(sc.Materials) != len(expNames) {
		t.Fatalf("expected %d materials; got %d", len(expNames), len(sc.Materials))
	}
	for idx, name := range expNames {
		if sc.Materials[idx].Name != name {
			t.Fatalf("expected material %d to be %q; got %q", idx, name, sc.Materials[idx].Name)
		}
	}

	expIndices := []int32{2, 1, 0}
	for idx, exp := range expIndices {
		if sc.Triangles[idx].MaterialIndex != exp {
			t.Fatalf("expected triangle %d to use material %d; got %d", idx, exp, sc.Triangles[idx].MaterialIndex)
		}
	}
}

func TestIncludeErrorStack(t *testing.T) {
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scene.obj":
			w.Write([]byte("v 0 0 0\ncall model.obj\n"))
		case "/model.obj":
			w.Write([]byte("v 0 0 0\nf 1 2 3\n"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	_, err := ReadScene(server.URL + "/scene.obj")
	if err == nil {
		t.Fatal("expected to get an error")
	}

	expLines := []string{
		"[" + server.URL + "/model.obj: 2] error: could not parse vertex coord for face argument 1: index out of bounds",
		"referenced from " + server.URL + "/scene.obj:2 [call]",
	}
	if err.Error() != strings.Join(expLines, "\n") {
		t.Fatalf("expected error:\n%s\ngot:\n%v", strings.Join(expLines, "\n"), err)
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	_, err := ReadScene("scene.zip")
	if err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("expected unsupported format error; got %v", err)
	}
}
