package export

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/vector"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/slicer"
)

// Frame is the region of the build plate covered by a raster, in microns.
// Pixel (0, 0) is the top-left corner, at (Min.X, Max.Y).
type Frame struct {
	Min, Max  geom.Point2
	PixelSize int64
}

// FrameFor returns a frame covering every layer, padded by margin.
// ok is false when no layer holds any geometry.
func FrameFor(layers []*slicer.Layer, pixelSize, margin int64) (f Frame, ok bool) {
	for _, l := range layers {
		lo, hi, has := l.Polygons.Bounds()
		if !has {
			continue
		}
		if !ok {
			f.Min, f.Max, ok = lo, hi, true
			continue
		}
		f.Min.X, f.Min.Y = min(f.Min.X, lo.X), min(f.Min.Y, lo.Y)
		f.Max.X, f.Max.Y = max(f.Max.X, hi.X), max(f.Max.Y, hi.Y)
	}
	pad := geom.Point2{X: margin, Y: margin}
	f.Min, f.Max = f.Min.Sub(pad), f.Max.Add(pad)
	f.PixelSize = pixelSize
	return f, ok
}

// Size returns the raster dimensions in pixels.
func (f Frame) Size() (w, h int) {
	if f.PixelSize <= 0 {
		return 0, 0
	}
	d := f.Max.Sub(f.Min)
	w = int((d.X + f.PixelSize - 1) / f.PixelSize)
	h = int((d.Y + f.PixelSize - 1) / f.PixelSize)
	return max(w, 0), max(h, 0)
}

// Rasterize renders the closed polygons of l into an alpha mask. Outer
// contours and holes are told apart by winding, so a hole must wind the
// other way from the contour around it. Open polylines are not drawn.
func Rasterize(l *slicer.Layer, f Frame) *image.Alpha {
	w, h := f.Size()
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 || len(l.Polygons) == 0 {
		return dst
	}

	px := float32(f.PixelSize)
	at := func(p geom.Point2) (float32, float32) {
		return float32(p.X-f.Min.X) / px, float32(f.Max.Y-p.Y) / px
	}

	z := vector.NewRasterizer(w, h)
	for _, poly := range l.Polygons {
		if len(poly) < 3 {
			continue
		}
		z.MoveTo(at(poly[0]))
		for _, q := range poly[1:] {
			z.LineTo(at(q))
		}
		z.ClosePath()
	}
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}

// WritePNG encodes a layer mask.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("export: png: %w", err)
	}
	return nil
}
