package mesh

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hschendel/stl"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
)

// tetra returns the corners and outward faces of a tetrahedron in microns.
func tetra() [][3]geom.Point3 {
	a := geom.Point3{X: 0, Y: 0, Z: 0}
	b := geom.Point3{X: 10000, Y: 0, Z: 0}
	c := geom.Point3{X: 0, Y: 10000, Z: 0}
	d := geom.Point3{X: 0, Y: 0, Z: 10000}
	return [][3]geom.Point3{
		{a, c, b},
		{a, b, d},
		{a, d, c},
		{b, c, d},
	}
}

func buildTetra(t *testing.T) *Mesh {
	t.Helper()
	b := NewBuilder(DefaultWeldDistance)
	for _, f := range tetra() {
		if !b.AddFace(f[0], f[1], f[2]) {
			t.Fatalf("AddFace(%v) rejected a valid face", f)
		}
	}
	return b.Finish()
}

func TestBuilderTetrahedron(t *testing.T) {
	m := buildTetra(t)
	if m.FaceCount() != 4 {
		t.Fatalf("FaceCount = %d, want 4", m.FaceCount())
	}
	if m.VertexCount() != 4 {
		t.Fatalf("VertexCount = %d, want 4", m.VertexCount())
	}
	if n := m.BoundaryEdges(); n != 0 {
		t.Errorf("BoundaryEdges = %d, want 0", n)
	}
}

func TestNeighborsAreSymmetric(t *testing.T) {
	m := buildTetra(t)
	for f := 0; f < m.FaceCount(); f++ {
		face := m.Face(f)
		for e := 0; e < 3; e++ {
			nb, ok := m.NeighborFace(f, e)
			if !ok {
				t.Fatalf("face %d edge %d has no neighbour", f, e)
			}
			if nb == f {
				t.Fatalf("face %d is its own neighbour", f)
			}
			// The neighbour must share the edge's two vertices and point back.
			v0, v1 := face.Vertices[e], face.Vertices[(e+1)%3]
			back := -1
			other := m.Face(nb)
			for oe := 0; oe < 3; oe++ {
				if other.Vertices[oe] == v1 && other.Vertices[(oe+1)%3] == v0 {
					back = oe
				}
			}
			if back < 0 {
				t.Fatalf("face %d does not traverse edge %d-%d in reverse", nb, v1, v0)
			}
			if got, _ := m.NeighborFace(nb, back); got != f {
				t.Errorf("neighbour of %d across %d is %d, want %d", nb, back, got, f)
			}
		}
	}
}

func TestBuilderWelding(t *testing.T) {
	b := NewBuilder(DefaultWeldDistance)
	p := geom.Point3{X: 1000, Y: 1000, Z: 1000}
	near := geom.Point3{X: 1010, Y: 995, Z: 1012}
	far := geom.Point3{X: 1040, Y: 1000, Z: 1000}

	b.AddFace(p, geom.Point3{X: 5000}, geom.Point3{Y: 5000})
	b.AddFace(near, geom.Point3{Z: 5000}, geom.Point3{X: 5000})
	b.AddFace(far, geom.Point3{Z: 5000}, geom.Point3{Y: 5000})
	m := b.Finish()

	if got := m.Face(1).Vertices[0]; got != m.Face(0).Vertices[0] {
		t.Errorf("near corner welded to vertex %d, want %d", got, m.Face(0).Vertices[0])
	}
	if got := m.Face(2).Vertices[0]; got == m.Face(0).Vertices[0] {
		t.Errorf("far corner was welded")
	}
	if m.Vertex(m.Face(1).Vertices[0]) != p {
		t.Errorf("welded vertex moved to %v, want first position %v", m.Vertex(m.Face(1).Vertices[0]), p)
	}
}

func TestBuilderWeldsAcrossCells(t *testing.T) {
	b := NewBuilder(DefaultWeldDistance)
	// Either side of a cell boundary, and of the origin.
	b.AddFace(geom.Point3{X: -5}, geom.Point3{X: 5000}, geom.Point3{Y: 5000})
	b.AddFace(geom.Point3{X: 5}, geom.Point3{Y: 5000}, geom.Point3{Z: 5000})
	m := b.Finish()
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4", m.VertexCount())
	}
}

func TestBuilderSkipsDegenerateFaces(t *testing.T) {
	b := NewBuilder(DefaultWeldDistance)
	p := geom.Point3{X: 100, Y: 100}
	if b.AddFace(p, p.Add(geom.Point3{X: 3}), geom.Point3{X: 9000}) {
		t.Error("AddFace accepted a face collapsing under the weld distance")
	}
	if b.Degenerate() != 1 || b.FaceCount() != 0 {
		t.Errorf("Degenerate = %d, FaceCount = %d, want 1, 0", b.Degenerate(), b.FaceCount())
	}
}

func TestBoundaryEdges(t *testing.T) {
	b := NewBuilder(DefaultWeldDistance)
	for _, f := range tetra()[:3] {
		b.AddFace(f[0], f[1], f[2])
	}
	m := b.Finish()
	if n := m.BoundaryEdges(); n != 3 {
		t.Errorf("BoundaryEdges = %d, want 3", n)
	}
	if _, ok := m.NeighborFace(0, 1); ok {
		// Edge c-b of the base is shared only with the missing face.
		t.Error("expected edge c-b of face 0 to be a boundary")
	}
}

func TestNonManifoldNeighbour(t *testing.T) {
	a := geom.Point3{}
	c := geom.Point3{X: 10000}
	b := NewBuilder(DefaultWeldDistance)
	b.AddFace(a, c, geom.Point3{Y: 10000})  // 0: a->c
	b.AddFace(a, c, geom.Point3{Z: 10000})  // 1: a->c again
	b.AddFace(c, a, geom.Point3{Y: -10000}) // 2: c->a
	b.AddFace(c, a, geom.Point3{Z: -10000}) // 3: c->a
	m := b.Finish()

	want := []int{2, 2, 0, 0}
	for f, w := range want {
		if got, ok := m.NeighborFace(f, 0); !ok || got != w {
			t.Errorf("face %d neighbour across a-c = %d, %v, want %d", f, got, ok, w)
		}
	}
}

func TestFaceZRangeAndBounds(t *testing.T) {
	m := buildTetra(t)
	lo, hi := m.FaceZRange(0)
	if lo != 0 || hi != 0 {
		t.Errorf("base FaceZRange = %d..%d, want 0..0", lo, hi)
	}
	lo, hi = m.FaceZRange(3)
	if lo != 0 || hi != 10000 {
		t.Errorf("slanted FaceZRange = %d..%d, want 0..10000", lo, hi)
	}
	min, max := m.Bounds()
	if min != (geom.Point3{}) || max != (geom.Point3{X: 10000, Y: 10000, Z: 10000}) {
		t.Errorf("Bounds = %v..%v", min, max)
	}
}

func TestPlaceOnPlate(t *testing.T) {
	m := buildTetra(t).Translate(geom.Point3{X: 3000, Y: -2000, Z: 7000})
	p := m.PlaceOnPlate()
	min, max := p.Bounds()
	if min.Z != 0 {
		t.Errorf("min Z = %d, want 0", min.Z)
	}
	if min.X+max.X != 0 || min.Y+max.Y != 0 {
		t.Errorf("not centred: %v..%v", min, max)
	}
	// The original is untouched.
	if min, _ := m.Bounds(); min.Z != 7000 {
		t.Errorf("source mesh moved: min Z = %d", min.Z)
	}
	if p.FaceCount() != m.FaceCount() || p.BoundaryEdges() != 0 {
		t.Error("topology changed by PlaceOnPlate")
	}
}

func TestFacePanicsOutOfRange(t *testing.T) {
	m := buildTetra(t)
	for _, fn := range []func(){
		func() { m.FaceVertices(4) },
		func() { m.NeighborFace(-1, 0) },
		func() { m.NeighborFace(0, 3) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		}()
	}
}

func TestFromKernel(t *testing.T) {
	// A 1mm square split into two triangles sharing the diagonal.
	km := &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		PartName: "plate",
	}
	m, err := FromKernel(km)
	if err != nil {
		t.Fatalf("FromKernel: %v", err)
	}
	if m.VertexCount() != 4 || m.FaceCount() != 2 {
		t.Fatalf("got %d vertices, %d faces", m.VertexCount(), m.FaceCount())
	}
	if got := m.FaceVertices(0)[1]; got != (geom.Point3{X: 1000}) {
		t.Errorf("vertex not converted to microns: %v", got)
	}
	if nb, ok := m.NeighborFace(0, 2); !ok || nb != 1 {
		t.Errorf("shared diagonal not linked: %d, %v", nb, ok)
	}
}

func TestFromKernelErrors(t *testing.T) {
	tests := []struct {
		name string
		km   *kernel.Mesh
	}{
		{"nil", nil},
		{"ragged vertices", &kernel.Mesh{Vertices: []float32{0, 0}, Indices: []uint32{0, 0, 0}}},
		{"ragged indices", &kernel.Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{0}}},
		{"index out of range", &kernel.Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromKernel(tt.km); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFromKernelMeshesKeepsPartsApart(t *testing.T) {
	part := func(dx float32) *kernel.Mesh {
		return &kernel.Mesh{
			Vertices: []float32{dx, 0, 0, dx + 1, 0, 0, dx, 1, 0},
			Indices:  []uint32{0, 1, 2},
		}
	}
	m, err := FromKernelMeshes([]*kernel.Mesh{part(0), part(5)})
	if err != nil {
		t.Fatalf("FromKernelMeshes: %v", err)
	}
	if m.FaceCount() != 2 || m.VertexCount() != 6 {
		t.Errorf("got %d faces, %d vertices", m.FaceCount(), m.VertexCount())
	}
}

func tetraSTL(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteSTL(&buf, buildTetra(t), "tetra"); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	return buf.Bytes()
}

func TestReadSTL(t *testing.T) {
	m, err := ReadSTL(bytes.NewReader(tetraSTL(t)))
	if err != nil {
		t.Fatalf("ReadSTL: %v", err)
	}
	if m.FaceCount() != 4 || m.VertexCount() != 4 || m.BoundaryEdges() != 0 {
		t.Errorf("got %d faces, %d vertices, %d boundary edges", m.FaceCount(), m.VertexCount(), m.BoundaryEdges())
	}
	if _, max := m.Bounds(); max.Z != 10000 {
		t.Errorf("max Z = %d, want 10000", max.Z)
	}
}

func TestReadSTLASCII(t *testing.T) {
	src := `solid tri
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
endsolid tri
`
	m, err := ReadSTL(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadSTL: %v", err)
	}
	if m.FaceCount() != 1 || m.BoundaryEdges() != 3 {
		t.Errorf("got %d faces, %d boundary edges", m.FaceCount(), m.BoundaryEdges())
	}
	if m.Vertex(1) != (geom.Point3{X: 1000}) {
		t.Errorf("vertex 1 = %v, want (1000,0,0)", m.Vertex(1))
	}
}

func TestLoadSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetra.stl")
	if err := os.WriteFile(path, tetraSTL(t), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadSTL(path)
	if err != nil {
		t.Fatalf("LoadSTL: %v", err)
	}
	if m.FaceCount() != 4 {
		t.Errorf("FaceCount = %d, want 4", m.FaceCount())
	}

	if _, err := LoadSTL(filepath.Join(t.TempDir(), "missing.stl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteSTLNormals(t *testing.T) {
	n := faceNormal([3]geom.Point3{{}, {X: 5}, {Y: 5}})
	if n != (stl.Vec3{0, 0, 1}) {
		t.Errorf("normal = %v, want +Z", n)
	}
	if faceNormal([3]geom.Point3{{}, {X: 1}, {X: 2}}) != (stl.Vec3{}) {
		t.Error("degenerate face should have a zero normal")
	}
}
