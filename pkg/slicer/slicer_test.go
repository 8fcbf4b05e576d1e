package slicer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tdewolff/test"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
	"github.com/chazu/lamina/pkg/slicer"
)

var _ slicer.Mesh = (*mesh.Mesh)(nil)

// cube builds a closed axis-aligned cube with outward facing triangles.
// skip names faces to leave out, counted in the order they are added.
func cube(side int64, skip ...int) *mesh.Mesh {
	v := func(x, y, z int64) geom.Point3 { return geom.Point3{X: x * side, Y: y * side, Z: z * side} }
	faces := [][3]geom.Point3{
		{v(0, 0, 0), v(0, 1, 0), v(1, 1, 0)}, {v(0, 0, 0), v(1, 1, 0), v(1, 0, 0)}, // bottom
		{v(0, 0, 1), v(1, 0, 1), v(1, 1, 1)}, {v(0, 0, 1), v(1, 1, 1), v(0, 1, 1)}, // top
		{v(0, 0, 0), v(1, 0, 0), v(1, 0, 1)}, {v(0, 0, 0), v(1, 0, 1), v(0, 0, 1)}, // y=0
		{v(0, 1, 0), v(0, 1, 1), v(1, 1, 1)}, {v(0, 1, 0), v(1, 1, 1), v(1, 1, 0)}, // y=1
		{v(0, 0, 0), v(0, 0, 1), v(0, 1, 1)}, {v(0, 0, 0), v(0, 1, 1), v(0, 1, 0)}, // x=0
		{v(1, 0, 0), v(1, 1, 0), v(1, 1, 1)}, {v(1, 0, 0), v(1, 1, 1), v(1, 0, 1)}, // x=1
	}
	b := mesh.NewBuilder(mesh.DefaultWeldDistance)
outer:
	for i, f := range faces {
		for _, s := range skip {
			if s == i {
				continue outer
			}
		}
		b.AddFace(f[0], f[1], f[2])
	}
	return b.Finish()
}

func TestCubeMidplane(t *testing.T) {
	const s = 10000
	m := cube(s)
	test.T(t, m.BoundaryEdges(), 0)

	l := slicer.BuildLayer(m, s/2)
	test.T(t, len(l.Segments), 8)
	l.MakePolygons(m, slicer.StitchOptions{})

	test.T(t, len(l.Polygons), 1)
	test.T(t, len(l.OpenPolylines), 0)
	test.T(t, l.Polygons[0], geom.Polygon{
		{X: s / 2, Y: 0}, {X: s, Y: 0}, {X: s, Y: s / 2}, {X: s, Y: s},
		{X: s / 2, Y: s}, {X: 0, Y: s}, {X: 0, Y: s / 2}, {X: 0, Y: 0},
	})
	test.Float(t, l.Polygons[0].Area(), s*s)
	for i, seg := range l.Segments {
		test.That(t, seg.Consumed, "segment", i, "left unconsumed")
	}
}

// An edge lying in the plane counts when the face is below it, so the top
// of a solid yields an outline and the bottom does not.
func TestCubeCaps(t *testing.T) {
	const s = 10000
	m := cube(s)

	test.T(t, len(slicer.BuildLayer(m, 0).Segments), 0)

	top := slicer.BuildLayer(m, s)
	test.T(t, len(top.Segments), 4)
	for _, seg := range top.Segments {
		for _, p := range []geom.Point2{seg.Start, seg.End} {
			onEdge := p.X == 0 || p.X == s || p.Y == 0 || p.Y == s
			test.That(t, onEdge, "segment point", p, "is not on the cube outline")
		}
	}
}

func TestCubeMissingFace(t *testing.T) {
	const s = 10000
	m := cube(s, 4)
	test.T(t, m.BoundaryEdges(), 3)

	l := slicer.BuildLayer(m, s/2)
	l.MakePolygons(m, slicer.StitchOptions{})
	test.T(t, len(l.Polygons), 0)
	test.T(t, len(l.OpenPolylines), 0)

	l = slicer.BuildLayer(m, s/2)
	l.MakePolygons(m, slicer.StitchOptions{KeepUnclosed: true})
	test.T(t, len(l.Polygons), 0)
	test.That(t, len(l.OpenPolylines) > 0, "open chains must be kept")
	segments := 0
	for _, p := range l.OpenPolylines {
		segments += len(p) - 1
	}
	test.T(t, segments, len(l.Segments), "every segment belongs to exactly one open chain")
}

func TestCubeMissingFaceExtensive(t *testing.T) {
	const s = 10000
	m := cube(s, 4)
	opts := slicer.DefaultStitchOptions()
	opts.ExtensiveStitching = true
	opts.KeepUnclosed = true

	// The fragments snap into one chain; the hole left by the face is wider
	// than the snap distance.
	l := slicer.BuildLayer(m, s/2)
	l.MakePolygons(m, opts)
	test.T(t, len(l.Polygons), 0)
	test.T(t, len(l.OpenPolylines), 1)
	chain := l.OpenPolylines[0]
	test.T(t, chain[0], geom.Point2{X: s, Y: 0})
	test.T(t, chain[len(chain)-1], geom.Point2{X: s / 2, Y: 0})
}

func cubeSettings(workers int) slicer.Settings {
	return slicer.Settings{
		InitialHeight: 500,
		Thickness:     1000,
		LayerCount:    slicer.CountLayers(9999, 500, 1000),
		Stitch:        slicer.DefaultStitchOptions(),
		Workers:       workers,
	}
}

func TestSliceCube(t *testing.T) {
	m := cube(10000)
	layers, err := slicer.Slice(context.Background(), m, cubeSettings(0))
	test.Error(t, err)
	test.T(t, len(layers), 10)
	for i, l := range layers {
		test.T(t, l.Z, int64(500+1000*i))
		test.T(t, len(l.Polygons), 1, "layer", i)
		for _, p := range l.Polygons {
			test.That(t, p.Orientation(), "layer", i, "outer contour is not counter-clockwise")
			test.Float(t, p.Area(), 1e8)
		}
	}
}

func TestSliceDeterministic(t *testing.T) {
	m := cube(10000, 7)
	s := cubeSettings(1)
	s.Stitch.KeepUnclosed = true
	s.Stitch.ExtensiveStitching = true

	a, err := slicer.Slice(context.Background(), m, s)
	test.Error(t, err)
	s.Workers = 8
	b, err := slicer.Slice(context.Background(), m, s)
	test.Error(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("slicing is not deterministic (-workers=1 +workers=8):\n%s", diff)
	}
}

func TestSliceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := slicer.Slice(ctx, cube(10000), cubeSettings(2))
	test.That(t, errors.Is(err, context.Canceled), "got", err)
}

func TestSliceInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*slicer.Settings)
	}{
		{"zero thickness", func(s *slicer.Settings) { s.Thickness = 0 }},
		{"negative layer count", func(s *slicer.Settings) { s.LayerCount = -1 }},
		{"negative workers", func(s *slicer.Settings) { s.Workers = -2 }},
		{"negative snap distance", func(s *slicer.Settings) { s.Stitch.SnapDistance = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cubeSettings(1)
			tt.mod(&s)
			_, err := slicer.Slice(context.Background(), cube(1000), s)
			test.That(t, errors.Is(err, slicer.ErrInvalidSettings), "got", err)
		})
	}
}

func TestSliceEmptyMesh(t *testing.T) {
	m := mesh.NewBuilder(mesh.DefaultWeldDistance).Finish()
	layers, err := slicer.Slice(context.Background(), m, cubeSettings(0))
	test.Error(t, err)
	for _, l := range layers {
		test.T(t, len(l.Segments), 0)
		test.T(t, len(l.Polygons), 0)
	}
}

func TestSlicer(t *testing.T) {
	sl, err := slicer.New(context.Background(), cube(10000), cubeSettings(0))
	test.Error(t, err)
	test.T(t, sl.LayerCount(), 10)
	test.T(t, sl.Layer(3).Z, int64(3500))
	test.T(t, len(sl.Layers()), 10)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for out of range layer")
		}
	}()
	sl.Layer(10)
}

func TestCountLayers(t *testing.T) {
	test.T(t, slicer.CountLayers(10000, 100, 200), 50)
	test.T(t, slicer.CountLayers(10000, 0, 10000), 2)
	test.T(t, slicer.CountLayers(50, 100, 200), 0)
	test.T(t, slicer.CountLayers(10000, 100, 0), 0)
}
