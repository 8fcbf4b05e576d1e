// Package slicer cuts a triangle mesh into horizontal layers and stitches
// each layer's face/plane intersection segments into closed polygons.
//
// Stitching first follows mesh topology: the segment of a face continues
// in the segment of the neighbouring face across the edge that produced its
// end point. Chains that topology cannot close are repaired by proximity
// against the polygons already closed, and, when extensive stitching is
// enabled, against each other.
package slicer

import (
	"github.com/chazu/lamina/pkg/geom"
)

// Mesh is the read-only view of a mesh the slicer needs. Face edges are
// numbered so that edge i runs from corner i to corner (i+1)%3.
type Mesh interface {
	FaceCount() int
	FaceVertices(face int) [3]geom.Point3
	NeighborFace(face, edge int) (neighbor int, ok bool)
	FaceZRange(face int) (lo, hi int64)
}

// Layer is the cross-section of a mesh at one height.
type Layer struct {
	Z int64

	// Segments holds one segment per straddling face, in face order.
	Segments []Segment
	// FaceToSegment maps a face index to its position in Segments.
	FaceToSegment map[int]int

	Polygons      geom.Polygons
	OpenPolylines geom.Polygons
}

// BuildLayer intersects every face of m with the plane at z. A face touching
// the plane at one vertex, or lying in it, produces no segment; one with an
// edge in the plane produces a segment only when the rest of it is below.
func BuildLayer(m Mesh, z int64) *Layer {
	l := &Layer{
		Z:             z,
		FaceToSegment: make(map[int]int),
	}
	for f := 0; f < m.FaceCount(); f++ {
		lo, hi := m.FaceZRange(f)
		if z < lo || z > hi {
			continue
		}
		v := m.FaceVertices(f)
		if !Straddles(v, z) {
			continue
		}
		l.FaceToSegment[f] = len(l.Segments)
		l.Segments = append(l.Segments, ProjectFace(f, v, z))
	}
	return l
}

// segmentOf returns the segment index produced by face, if any.
func (l *Layer) segmentOf(face int) (int, bool) {
	idx, ok := l.FaceToSegment[face]
	return idx, ok
}

// Stats summarises a stitched layer.
type Stats struct {
	Segments      int
	Polygons      int
	OpenPolylines int
	Points        int
}

// Stats returns counts describing the layer.
func (l *Layer) Stats() Stats {
	return Stats{
		Segments:      len(l.Segments),
		Polygons:      len(l.Polygons),
		OpenPolylines: len(l.OpenPolylines),
		Points:        l.Polygons.PointCount(),
	}
}
