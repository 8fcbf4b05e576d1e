package slicer

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidSettings is wrapped by every settings validation error.
var ErrInvalidSettings = errors.New("invalid slicer settings")

// Settings controls how a mesh is cut into layers. Distances are microns.
type Settings struct {
	// InitialHeight is the height of the first layer's cutting plane.
	InitialHeight int64
	// Thickness is the distance between consecutive cutting planes.
	Thickness int64
	// LayerCount is the number of layers to produce.
	LayerCount int
	Stitch     StitchOptions
	// Workers bounds the number of layers sliced concurrently. Zero uses
	// GOMAXPROCS.
	Workers int
}

// Validate reports the first problem with s.
func (s Settings) Validate() error {
	switch {
	case s.Thickness <= 0:
		return fmt.Errorf("%w: thickness %d must be positive", ErrInvalidSettings, s.Thickness)
	case s.LayerCount < 0:
		return fmt.Errorf("%w: layer count %d is negative", ErrInvalidSettings, s.LayerCount)
	case s.Workers < 0:
		return fmt.Errorf("%w: worker count %d is negative", ErrInvalidSettings, s.Workers)
	case s.Stitch.SnapDistance < 0 || s.Stitch.MinPolygonLength < 0:
		return fmt.Errorf("%w: stitch distances must not be negative", ErrInvalidSettings)
	}
	return nil
}

// LayerZ returns the height of layer i.
func (s Settings) LayerZ(i int) int64 {
	return s.InitialHeight + int64(i)*s.Thickness
}

// CountLayers returns how many layers starting at initial with the given
// thickness fit below maxZ.
func CountLayers(maxZ, initial, thickness int64) int {
	if thickness <= 0 || maxZ < initial {
		return 0
	}
	return int((maxZ-initial)/thickness) + 1
}

// Slice builds and stitches every layer of m. Layers are processed
// concurrently but the result is ordered by height and does not depend on
// scheduling. Slice stops early and returns the context's error when ctx is
// cancelled.
func Slice(ctx context.Context, m Mesh, s Settings) ([]*Layer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	layers := make([]*Layer, s.LayerCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range layers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l := BuildLayer(m, s.LayerZ(i))
			l.MakePolygons(m, s.Stitch)
			layers[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return layers, nil
}

// Slicer holds the layers of one sliced mesh.
type Slicer struct {
	layers []*Layer
}

// New slices m with s.
func New(ctx context.Context, m Mesh, s Settings) (*Slicer, error) {
	layers, err := Slice(ctx, m, s)
	if err != nil {
		return nil, err
	}
	return &Slicer{layers: layers}, nil
}

// LayerCount returns the number of layers.
func (s *Slicer) LayerCount() int {
	return len(s.layers)
}

// Layer returns layer i. It panics if i is out of range.
func (s *Slicer) Layer(i int) *Layer {
	if i < 0 || i >= len(s.layers) {
		panic(fmt.Sprintf("slicer: layer %d out of range [0, %d)", i, len(s.layers)))
	}
	return s.layers[i]
}

// Layers returns all layers ordered by height.
func (s *Slicer) Layers() []*Layer {
	return s.layers
}
