package mesh

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/hschendel/stl"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
)

// FromKernel welds a kernel triangle mesh, given in millimetres, into an
// indexed mesh in microns.
func FromKernel(km *kernel.Mesh) (*Mesh, error) {
	if km == nil {
		return nil, fmt.Errorf("mesh: nil kernel mesh")
	}
	if len(km.Vertices)%3 != 0 || len(km.Indices)%3 != 0 {
		return nil, fmt.Errorf("mesh: malformed kernel mesh %q: %d vertex floats, %d indices",
			km.PartName, len(km.Vertices), len(km.Indices))
	}
	b := NewBuilder(DefaultWeldDistance)
	if err := addKernelMesh(b, km); err != nil {
		return nil, err
	}
	return b.Finish(), nil
}

// FromKernelMeshes welds several part meshes into one slicing mesh. Parts
// stay topologically separate unless their surfaces share vertices.
func FromKernelMeshes(kms []*kernel.Mesh) (*Mesh, error) {
	b := NewBuilder(DefaultWeldDistance)
	for _, km := range kms {
		if err := addKernelMesh(b, km); err != nil {
			return nil, err
		}
	}
	return b.Finish(), nil
}

func addKernelMesh(b *Builder, km *kernel.Mesh) error {
	nv := uint32(km.VertexCount())
	for t := 0; t < km.TriangleCount(); t++ {
		var p [3]geom.Point3
		for j := 0; j < 3; j++ {
			vi := km.Indices[t*3+j]
			if vi >= nv {
				return fmt.Errorf("mesh: triangle %d of %q references vertex %d of %d", t, km.PartName, vi, nv)
			}
			p[j] = geom.Point3{
				X: geom.MM(float64(km.Vertices[vi*3])),
				Y: geom.MM(float64(km.Vertices[vi*3+1])),
				Z: geom.MM(float64(km.Vertices[vi*3+2])),
			}
		}
		b.AddFace(p[0], p[1], p[2])
	}
	return nil
}

// ReadSTL reads an ASCII or binary STL stream in millimetres. The format is
// detected by peeking at the start of r, so r must be seekable.
func ReadSTL(r io.ReadSeeker) (*Mesh, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mesh: read STL: %w", err)
	}
	b := NewBuilder(DefaultWeldDistance)
	for _, t := range solid.Triangles {
		var p [3]geom.Point3
		for j, v := range t.Vertices {
			p[j] = geom.Point3{
				X: geom.MM(float64(v[0])),
				Y: geom.MM(float64(v[1])),
				Z: geom.MM(float64(v[2])),
			}
		}
		b.AddFace(p[0], p[1], p[2])
	}
	return b.Finish(), nil
}

// LoadSTL opens and reads an STL file.
func LoadSTL(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	defer f.Close()
	return ReadSTL(f)
}

// WriteSTL writes m as a binary STL in millimetres, named name.
func WriteSTL(w io.Writer, m *Mesh, name string) error {
	solid := &stl.Solid{Name: name, Triangles: make([]stl.Triangle, m.FaceCount())}
	for i := range solid.Triangles {
		v := m.FaceVertices(i)
		tri := &solid.Triangles[i]
		for j, p := range v {
			tri.Vertices[j] = stl.Vec3{float32(geom.ToMM(p.X)), float32(geom.ToMM(p.Y)), float32(geom.ToMM(p.Z))}
		}
		tri.Normal = faceNormal(v)
	}
	if err := solid.WriteAll(w); err != nil {
		return fmt.Errorf("mesh: write STL: %w", err)
	}
	return nil
}

// faceNormal is the unit normal of a counter-clockwise face, or zero for a
// degenerate one.
func faceNormal(v [3]geom.Point3) stl.Vec3 {
	a, b := v[1].Sub(v[0]), v[2].Sub(v[0])
	n := [3]float64{
		float64(a.Y)*float64(b.Z) - float64(a.Z)*float64(b.Y),
		float64(a.Z)*float64(b.X) - float64(a.X)*float64(b.Z),
		float64(a.X)*float64(b.Y) - float64(a.Y)*float64(b.X),
	}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return stl.Vec3{}
	}
	return stl.Vec3{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
}
