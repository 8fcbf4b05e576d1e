package slicer

import (
	"fmt"

	"github.com/chazu/lamina/pkg/geom"
)

// Segment is the piece of a layer outline contributed by one face.
// StartEdge and EndEdge name the face edges (edge i runs from vertex i to
// vertex i+1) whose crossings produced Start and End.
type Segment struct {
	Start, End         geom.Point2
	Face               int
	StartEdge, EndEdge int
	Consumed           bool
}

// apex finds the vertex that lies alone on one side of the plane at z.
// A vertex exactly on the plane counts as above it. So a face with an edge
// in the plane and its third vertex below has an apex and yields a segment
// along that edge, while the same face with the third vertex above does not.
// This gives the top cap of a solid an outline and the bottom cap none.
// A face touching the plane at a single vertex never has an apex.
// below reports the side of the apex.
func apex(v [3]geom.Point3, z int64) (idx int, below, ok bool) {
	for i := 0; i < 3; i++ {
		a, b, c := v[i].Z, v[(i+1)%3].Z, v[(i+2)%3].Z
		if a < z && b >= z && c >= z {
			return i, true, true
		}
		if a > z && b < z && c < z {
			return i, false, true
		}
	}
	return 0, false, false
}

// Straddles reports whether the face with corners v crosses the plane at z.
func Straddles(v [3]geom.Point3, z int64) bool {
	_, _, ok := apex(v, z)
	return ok
}

// ProjectFace intersects face (corners v in winding order) with the plane at
// z. The segment is oriented so that walking from End to the Start of the
// next face's segment keeps the solid on the left: outer contours come out
// counter-clockwise. ProjectFace panics if the face does not straddle z.
func ProjectFace(face int, v [3]geom.Point3, z int64) Segment {
	a, below, ok := apex(v, z)
	if !ok {
		panic(fmt.Sprintf("slicer: face %d does not straddle z=%d (corners %v %v %v)", face, z, v[0], v[1], v[2]))
	}
	next, prev := (a+1)%3, (a+2)%3

	seg := Segment{Face: face}
	if below {
		seg.Start, seg.StartEdge = crossing(v[a], v[prev], z), prev
		seg.End, seg.EndEdge = crossing(v[a], v[next], z), a
	} else {
		seg.Start, seg.StartEdge = crossing(v[a], v[next], z), a
		seg.End, seg.EndEdge = crossing(v[a], v[prev], z), prev
	}
	return seg
}

// crossing interpolates the point where edge p0-p1 meets the plane at z.
// p0.Z != p1.Z is guaranteed by the apex classification.
func crossing(p0, p1 geom.Point3, z int64) geom.Point2 {
	dz := p1.Z - p0.Z
	t := z - p0.Z
	return geom.Point2{
		X: p0.X + (p1.X-p0.X)*t/dz,
		Y: p0.Y + (p1.Y-p0.Y)*t/dz,
	}
}
