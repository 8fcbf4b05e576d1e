// Package export writes sliced layers as SVG drawings and PNG masks.
package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/slicer"
)

var (
	polygonFill  = color.RGBA{0x9b, 0xc2, 0xcf, 0xff}
	openStroke   = color.RGBA{0xd6, 0x28, 0x28, 0xff}
	segmentColor = color.RGBA{0x88, 0x88, 0x88, 0xff}
)

// SVGOptions controls WriteSVG. Lengths are millimetres.
type SVGOptions struct {
	Margin      float64
	StrokeWidth float64
	// Segments draws every raw face segment, for inspecting stitching.
	Segments bool
}

// DefaultSVGOptions returns the options used by the command line.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Margin: 2, StrokeWidth: 0.05}
}

// WriteSVG draws one layer: closed polygons filled, open polylines in red
// and optionally the raw segments underneath. The drawing is in millimetres
// with y pointing up.
func WriteSVG(w io.Writer, l *slicer.Layer, opts SVGOptions) error {
	lo, hi, ok := layerBounds(l, opts.Segments)
	if !ok {
		lo, hi = geom.Point2{}, geom.Point2{}
	}
	origin := canvas.Point{X: geom.ToMM(lo.X) - opts.Margin, Y: geom.ToMM(lo.Y) - opts.Margin}
	width := geom.ToMM(hi.X-lo.X) + 2*opts.Margin
	height := geom.ToMM(hi.Y-lo.Y) + 2*opts.Margin

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetStrokeWidth(opts.StrokeWidth)

	if opts.Segments {
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(segmentColor)
		for _, s := range l.Segments {
			p := &canvas.Path{}
			p.MoveTo(toCanvas(s.Start, origin))
			p.LineTo(toCanvas(s.End, origin))
			ctx.DrawPath(0, 0, p)
		}
	}

	if len(l.Polygons) > 0 {
		ctx.SetFillColor(polygonFill)
		ctx.SetStrokeColor(canvas.Black)
		ctx.DrawPath(0, 0, polylinePath(l.Polygons, origin, true))
	}
	if len(l.OpenPolylines) > 0 {
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(openStroke)
		ctx.DrawPath(0, 0, polylinePath(l.OpenPolylines, origin, false))
	}

	r := svg.New(w, c.W, c.H, nil)
	c.RenderTo(r)
	if err := r.Close(); err != nil {
		return fmt.Errorf("export: layer z=%d: %w", l.Z, err)
	}
	return nil
}

func toCanvas(p geom.Point2, origin canvas.Point) (float64, float64) {
	return geom.ToMM(p.X) - origin.X, geom.ToMM(p.Y) - origin.Y
}

func polylinePath(ps geom.Polygons, origin canvas.Point, closed bool) *canvas.Path {
	path := &canvas.Path{}
	for _, poly := range ps {
		if len(poly) == 0 {
			continue
		}
		path.MoveTo(toCanvas(poly[0], origin))
		for _, q := range poly[1:] {
			path.LineTo(toCanvas(q, origin))
		}
		if closed {
			path.Close()
		}
	}
	return path
}

// layerBounds covers polygons, open polylines and, when asked, segments.
func layerBounds(l *slicer.Layer, segments bool) (lo, hi geom.Point2, ok bool) {
	all := make(geom.Polygons, 0, len(l.Polygons)+len(l.OpenPolylines)+1)
	all = append(all, l.Polygons...)
	all = append(all, l.OpenPolylines...)
	if segments {
		pts := make(geom.Polygon, 0, 2*len(l.Segments))
		for _, s := range l.Segments {
			pts = append(pts, s.Start, s.End)
		}
		all = append(all, pts)
	}
	return all.Bounds()
}
