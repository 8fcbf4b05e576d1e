package slicer

import (
	"testing"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/tdewolff/test"
)

func p3(x, y, z int64) geom.Point3 { return geom.Point3{X: x, Y: y, Z: z} }

func TestStraddles(t *testing.T) {
	tests := []struct {
		name string
		v    [3]geom.Point3
		want bool
	}{
		{"crossing", [3]geom.Point3{p3(0, 0, 0), p3(10, 0, 10), p3(0, 10, 10)}, true},
		{"apex above", [3]geom.Point3{p3(0, 0, 10), p3(10, 0, 0), p3(0, 10, 0)}, true},
		{"entirely above", [3]geom.Point3{p3(0, 0, 6), p3(10, 0, 6), p3(0, 10, 9)}, false},
		{"entirely below", [3]geom.Point3{p3(0, 0, 0), p3(10, 0, 1), p3(0, 10, 4)}, false},
		{"touching from below at a vertex", [3]geom.Point3{p3(0, 0, 0), p3(10, 0, 0), p3(0, 10, 5)}, false},
		{"touching from above at a vertex", [3]geom.Point3{p3(0, 0, 5), p3(10, 0, 10), p3(0, 10, 10)}, false},
		{"lying in the plane", [3]geom.Point3{p3(0, 0, 5), p3(10, 0, 5), p3(0, 10, 5)}, false},
		{"edge in the plane, body below", [3]geom.Point3{p3(0, 0, 0), p3(10, 0, 5), p3(0, 10, 5)}, true},
		{"edge in the plane, body above", [3]geom.Point3{p3(0, 0, 9), p3(10, 0, 5), p3(0, 10, 5)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.T(t, Straddles(tt.v, 5), tt.want)
		})
	}
}

func TestProjectFace(t *testing.T) {
	// Outward facing triangle of the y=0 wall of a box, apex above.
	v := [3]geom.Point3{p3(0, 0, 0), p3(1000, 0, 0), p3(1000, 0, 1000)}
	seg := ProjectFace(7, v, 500)
	test.T(t, seg.Face, 7)
	test.T(t, seg.Start, geom.Point2{X: 500, Y: 0})
	test.T(t, seg.End, geom.Point2{X: 1000, Y: 0})
	test.T(t, seg.StartEdge, 2)
	test.T(t, seg.EndEdge, 1)
	test.That(t, !seg.Consumed, "fresh segment must not be consumed")

	// The other half of the same wall, apex below.
	v = [3]geom.Point3{p3(0, 0, 0), p3(1000, 0, 1000), p3(0, 0, 1000)}
	seg = ProjectFace(8, v, 500)
	test.T(t, seg.Start, geom.Point2{X: 0, Y: 0})
	test.T(t, seg.End, geom.Point2{X: 500, Y: 0})
	test.T(t, seg.StartEdge, 2)
	test.T(t, seg.EndEdge, 0)
}

func TestProjectFacePanicsWhenNotStraddling(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for a face above the plane")
		}
	}()
	ProjectFace(0, [3]geom.Point3{p3(0, 0, 10), p3(10, 0, 10), p3(0, 10, 20)}, 5)
}

func TestCrossingTruncates(t *testing.T) {
	got := crossing(p3(0, 0, 0), p3(10, 7, 3), 1)
	test.T(t, got, geom.Point2{X: 3, Y: 2})
}
