// Package config holds the user-facing slicing profile. Distances are in
// millimetres; ToSlicer converts them to the micron settings used by the
// slicer.
package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/graph"
	"github.com/chazu/lamina/pkg/slicer"
)

// Settings is a slicing profile.
type Settings struct {
	LayerHeight        float64 `toml:"layer_height"`
	InitialLayerHeight float64 `toml:"initial_layer_height"`
	// Layers is the number of layers. Zero derives it from the model height.
	Layers int `toml:"layers"`

	KeepUnclosed       bool    `toml:"keep_unclosed"`
	ExtensiveStitching bool    `toml:"extensive_stitching"`
	SnapDistance       float64 `toml:"snap_distance"`
	MinPolygonLength   float64 `toml:"min_polygon_length"`
	Optimize           bool    `toml:"optimize"`

	// Workers bounds concurrent layer slicing; zero uses every CPU.
	Workers int `toml:"workers"`
	// MeshCells is the marching cubes resolution along the longest axis
	// when meshing scripted solids.
	MeshCells int `toml:"mesh_cells"`
	// PlaceOnPlate centres the model on the origin with its bottom at z=0.
	PlaceOnPlate bool `toml:"place_on_plate"`

	Output Output `toml:"output"`
}

// Output controls which per-layer files are written.
type Output struct {
	Dir string `toml:"dir"`
	SVG bool   `toml:"svg"`
	PNG bool   `toml:"png"`
	// STL writes the sliced mesh, after placement, as model.stl.
	STL bool `toml:"stl"`
	// PixelSize is the edge length of one PNG pixel.
	PixelSize float64 `toml:"pixel_size"`
}

// Default returns the built-in profile.
func Default() Settings {
	return Settings{
		LayerHeight:        0.1,
		InitialLayerHeight: 0.3,
		SnapDistance:       geom.ToMM(slicer.DefaultSnapDistance),
		MinPolygonLength:   geom.ToMM(slicer.DefaultMinPolygonLength),
		Optimize:           true,
		MeshCells:          200,
		PlaceOnPlate:       true,
		Output: Output{
			Dir:       "layers",
			SVG:       true,
			PixelSize: 0.05,
		},
	}
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every field and returns all problems found. An empty
// slice means the profile is usable.
func (s Settings) Validate() []ValidationError {
	var errs []ValidationError
	positive := func(field string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, ValidationError{field, fmt.Sprintf("must be a positive number, got %v", v)})
		}
	}
	nonNegative := func(field string, v float64) {
		if !(v >= 0) || math.IsInf(v, 0) {
			errs = append(errs, ValidationError{field, fmt.Sprintf("must not be negative, got %v", v)})
		}
	}

	positive("layer_height", s.LayerHeight)
	nonNegative("initial_layer_height", s.InitialLayerHeight)
	nonNegative("snap_distance", s.SnapDistance)
	nonNegative("min_polygon_length", s.MinPolygonLength)
	if s.Layers < 0 {
		errs = append(errs, ValidationError{"layers", fmt.Sprintf("must not be negative, got %d", s.Layers)})
	}
	if s.Workers < 0 {
		errs = append(errs, ValidationError{"workers", fmt.Sprintf("must not be negative, got %d", s.Workers)})
	}
	if s.MeshCells < 8 {
		errs = append(errs, ValidationError{"mesh_cells", fmt.Sprintf("must be at least 8, got %d", s.MeshCells)})
	}
	if s.LayerHeight > 0 && geom.MM(s.LayerHeight) == 0 {
		errs = append(errs, ValidationError{"layer_height", "is below one micron"})
	}
	if s.Output.PNG {
		positive("output.pixel_size", s.Output.PixelSize)
	}
	return errs
}

// Err returns the validation problems joined into one error, or nil.
func (s Settings) Err() error {
	errs := s.Validate()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("config: invalid settings: %s", strings.Join(msgs, "; "))
}

// ToSlicer converts the profile to slicer settings for a model whose top
// lies at maxZ microns.
func (s Settings) ToSlicer(maxZ int64) slicer.Settings {
	out := slicer.Settings{
		InitialHeight: geom.MM(s.InitialLayerHeight),
		Thickness:     geom.MM(s.LayerHeight),
		LayerCount:    s.Layers,
		Stitch: slicer.StitchOptions{
			KeepUnclosed:       s.KeepUnclosed,
			ExtensiveStitching: s.ExtensiveStitching,
			SnapDistance:       geom.MM(s.SnapDistance),
			MinPolygonLength:   geom.MM(s.MinPolygonLength),
			Optimize:           s.Optimize,
		},
		Workers: s.Workers,
	}
	if out.LayerCount == 0 {
		out.LayerCount = slicer.CountLayers(maxZ, out.InitialHeight, out.Thickness)
	}
	return out
}

// WithOverrides returns s with the settings a script set replacing the
// profile's.
func (s Settings) WithOverrides(o graph.Settings) Settings {
	if o.LayerHeight != nil {
		s.LayerHeight = *o.LayerHeight
	}
	if o.InitialLayerHeight != nil {
		s.InitialLayerHeight = *o.InitialLayerHeight
	}
	if o.Layers != nil {
		s.Layers = *o.Layers
	}
	if o.KeepUnclosed != nil {
		s.KeepUnclosed = *o.KeepUnclosed
	}
	if o.ExtensiveStitching != nil {
		s.ExtensiveStitching = *o.ExtensiveStitching
	}
	return s
}

// Parse decodes a TOML profile on top of base. Keys not present in the
// document keep their base values; unknown keys are an error.
func Parse(r io.Reader, base Settings) (Settings, error) {
	s := base
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return base, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return base, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	return s, nil
}

// LoadFile reads a TOML profile from path on top of Default.
func LoadFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Default(), fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	s, err := Parse(f, Default())
	if err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Encode writes s as a TOML profile.
func Encode(w io.Writer, s Settings) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
