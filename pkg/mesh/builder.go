package mesh

import "github.com/chazu/lamina/pkg/geom"

// DefaultWeldDistance is the distance in microns under which two triangle
// corners are treated as the same vertex.
const DefaultWeldDistance = 30

// Builder welds a triangle soup into an indexed mesh and derives the
// face adjacency. Faces keep the order in which they were added.
type Builder struct {
	weld       int64
	vertices   []geom.Point3
	cells      map[geom.Point3][]int
	faces      [][3]int
	degenerate int
}

// NewBuilder returns a Builder that welds corners closer than weld microns.
// A weld distance of zero or less only merges identical corners.
func NewBuilder(weld int64) *Builder {
	if weld < 1 {
		weld = 1
	}
	return &Builder{
		weld:  weld,
		cells: make(map[geom.Point3][]int),
	}
}

// AddFace adds a triangle in winding order. Triangles that collapse to a
// line or point after welding are counted and skipped; AddFace then
// returns false.
func (b *Builder) AddFace(p0, p1, p2 geom.Point3) bool {
	f := [3]int{b.vertex(p0), b.vertex(p1), b.vertex(p2)}
	if f[0] == f[1] || f[1] == f[2] || f[2] == f[0] {
		b.degenerate++
		return false
	}
	b.faces = append(b.faces, f)
	return true
}

// Degenerate returns the number of faces skipped by AddFace.
func (b *Builder) Degenerate() int {
	return b.degenerate
}

// FaceCount returns the number of faces added so far.
func (b *Builder) FaceCount() int {
	return len(b.faces)
}

// vertex returns the index of the welded vertex for p, adding it if no
// existing vertex lies within the weld distance.
func (b *Builder) vertex(p geom.Point3) int {
	c := b.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, idx := range b.cells[geom.Point3{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}] {
					if b.vertices[idx].Sub(p).ShorterThan(b.weld - 1) {
						return idx
					}
				}
			}
		}
	}
	idx := len(b.vertices)
	b.vertices = append(b.vertices, p)
	b.cells[c] = append(b.cells[c], idx)
	return idx
}

func (b *Builder) cell(p geom.Point3) geom.Point3 {
	return geom.Point3{X: floorDiv(p.X, b.weld), Y: floorDiv(p.Y, b.weld), Z: floorDiv(p.Z, b.weld)}
}

func floorDiv(a, d int64) int64 {
	q := a / d
	if (a%d != 0) && ((a < 0) != (d < 0)) {
		q--
	}
	return q
}

// halfEdge is one face's use of an undirected mesh edge.
type halfEdge struct {
	face, edge int
	from       int
}

type edgeKey struct {
	lo, hi int
}

func makeEdgeKey(a, b int) edgeKey {
	if a < b {
		return edgeKey{a, b}
	}
	return edgeKey{b, a}
}

// Finish computes the face adjacency and returns the mesh. On a
// non-manifold edge shared by more than two faces the neighbour is the
// lowest-indexed face that traverses the edge in the opposite direction,
// falling back to the lowest-indexed other face.
func (b *Builder) Finish() *Mesh {
	edges := make(map[edgeKey][]halfEdge, len(b.faces)*3/2)
	for fi, f := range b.faces {
		for e := 0; e < 3; e++ {
			k := makeEdgeKey(f[e], f[(e+1)%3])
			edges[k] = append(edges[k], halfEdge{face: fi, edge: e, from: f[e]})
		}
	}

	faces := make([]Face, len(b.faces))
	for fi, f := range b.faces {
		faces[fi].Vertices = f
		for e := 0; e < 3; e++ {
			faces[fi].Neighbors[e] = pickNeighbor(edges[makeEdgeKey(f[e], f[(e+1)%3])], fi, f[e])
		}
	}

	vertices := make([]geom.Point3, len(b.vertices))
	copy(vertices, b.vertices)
	return newMesh(vertices, faces)
}

func pickNeighbor(uses []halfEdge, face, from int) int {
	fallback := noNeighbor
	for _, u := range uses {
		if u.face == face {
			continue
		}
		if u.from != from {
			return u.face
		}
		if fallback == noNeighbor {
			fallback = u.face
		}
	}
	return fallback
}
