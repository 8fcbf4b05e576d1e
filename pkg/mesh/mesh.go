// Package mesh holds the indexed triangle mesh that the slicer reads.
// A Mesh is immutable once built: faces reference welded vertices and
// every face knows the neighbouring face across each of its edges.
package mesh

import (
	"fmt"

	"github.com/chazu/lamina/pkg/geom"
)

// noNeighbor marks a boundary edge inside Face.Neighbors.
const noNeighbor = -1

// Face is one triangle. Edge i runs from Vertices[i] to Vertices[(i+1)%3]
// and Neighbors[i] is the face sharing that edge, or -1 on a boundary.
type Face struct {
	Vertices  [3]int
	Neighbors [3]int
}

// Mesh is an indexed triangle mesh in integer microns.
type Mesh struct {
	vertices []geom.Point3
	faces    []Face
	zRange   [][2]int64
	min, max geom.Point3
}

func newMesh(vertices []geom.Point3, faces []Face) *Mesh {
	m := &Mesh{
		vertices: vertices,
		faces:    faces,
		zRange:   make([][2]int64, len(faces)),
	}
	for i, f := range faces {
		lo := vertices[f.Vertices[0]].Z
		hi := lo
		for _, vi := range f.Vertices[1:] {
			z := vertices[vi].Z
			lo, hi = min(lo, z), max(hi, z)
		}
		m.zRange[i] = [2]int64{lo, hi}
	}
	if len(vertices) > 0 {
		m.min, m.max = vertices[0], vertices[0]
		for _, v := range vertices[1:] {
			m.min = m.min.Min(v)
			m.max = m.max.Max(v)
		}
	}
	return m
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.faces)
}

// VertexCount returns the number of welded vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// IsEmpty returns true if the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.faces) == 0
}

// Face returns face i. It panics if i is out of range.
func (m *Mesh) Face(i int) Face {
	return m.faces[m.checkFace(i)]
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) geom.Point3 {
	return m.vertices[i]
}

// FaceVertices returns the three corner positions of face i in winding order.
func (m *Mesh) FaceVertices(i int) [3]geom.Point3 {
	f := m.faces[m.checkFace(i)]
	return [3]geom.Point3{
		m.vertices[f.Vertices[0]],
		m.vertices[f.Vertices[1]],
		m.vertices[f.Vertices[2]],
	}
}

// NeighborFace returns the face across edge of face. ok is false when the
// edge lies on the mesh boundary.
func (m *Mesh) NeighborFace(face, edge int) (neighbor int, ok bool) {
	if edge < 0 || edge > 2 {
		panic(fmt.Sprintf("mesh: edge index %d out of range", edge))
	}
	n := m.faces[m.checkFace(face)].Neighbors[edge]
	if n == noNeighbor {
		return 0, false
	}
	return n, true
}

// FaceZRange returns the lowest and highest vertex height of face i.
func (m *Mesh) FaceZRange(i int) (lo, hi int64) {
	r := m.zRange[m.checkFace(i)]
	return r[0], r[1]
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() (lo, hi geom.Point3) {
	return m.min, m.max
}

// BoundaryEdges returns the number of face edges without a neighbour.
// A closed manifold mesh has none.
func (m *Mesh) BoundaryEdges() int {
	n := 0
	for _, f := range m.faces {
		for _, nb := range f.Neighbors {
			if nb == noNeighbor {
				n++
			}
		}
	}
	return n
}

// Translate returns a copy of the mesh moved by d. Topology is shared
// structurally but never mutated, so the copy is independent.
func (m *Mesh) Translate(d geom.Point3) *Mesh {
	vertices := make([]geom.Point3, len(m.vertices))
	for i, v := range m.vertices {
		vertices[i] = v.Add(d)
	}
	return newMesh(vertices, m.faces)
}

// PlaceOnPlate returns a copy of the mesh centred on the XY origin with its
// lowest point at z = 0.
func (m *Mesh) PlaceOnPlate() *Mesh {
	if m.IsEmpty() {
		return m
	}
	d := geom.Point3{
		X: -(m.min.X + m.max.X) / 2,
		Y: -(m.min.Y + m.max.Y) / 2,
		Z: -m.min.Z,
	}
	return m.Translate(d)
}

func (m *Mesh) checkFace(i int) int {
	if i < 0 || i >= len(m.faces) {
		panic(fmt.Sprintf("mesh: face index %d out of range [0,%d)", i, len(m.faces)))
	}
	return i
}
