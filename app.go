package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/lamina/pkg/config"
	"github.com/chazu/lamina/pkg/engine"
	"github.com/chazu/lamina/pkg/export"
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
	"github.com/chazu/lamina/pkg/kernel/sdfx"
	"github.com/chazu/lamina/pkg/mesh"
	"github.com/chazu/lamina/pkg/slicer"
	"github.com/chazu/lamina/pkg/tessellate"
)

// ScriptExt is the file extension of modelling scripts.
const ScriptExt = ".lamina"

// App ties script evaluation, meshing, slicing and export together.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	cfg    config.Settings
}

// ScriptError reports the problems found in a script.
type ScriptError struct {
	Errors []engine.EvalError
}

func (e *ScriptError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = ee.Error()
	}
	return "script: " + strings.Join(msgs, "; ")
}

// Result summarises one slicing run.
type Result struct {
	// Mesh is the mesh that was sliced, after placement.
	Mesh   *mesh.Mesh
	Layers []*slicer.Layer
	Files  []string
	// Open counts layers left with open polylines.
	Open int
}

// NewApp creates an App with the sdfx kernel at the profile's resolution.
func NewApp(cfg config.Settings) *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(cfg.MeshCells),
		cfg:    cfg,
	}
}

// MeshFromSource evaluates a script and meshes its parts. The returned
// settings are the profile with the script's overrides applied.
func (a *App) MeshFromSource(source string) (*mesh.Mesh, config.Settings, error) {
	res, err := a.engine.Check(source)
	if err != nil {
		return nil, a.cfg, fmt.Errorf("script: %w", err)
	}
	for _, w := range res.Warnings {
		log.Printf("warning: %s", w.Message)
	}
	if !res.OK() {
		return nil, a.cfg, &ScriptError{Errors: res.Errors}
	}
	if len(res.Design.Parts()) == 0 {
		return nil, a.cfg, fmt.Errorf("script: no parts to slice")
	}

	cfg := a.cfg.WithOverrides(res.Design.Settings)
	if err := cfg.Err(); err != nil {
		return nil, a.cfg, err
	}

	kms, err := tessellate.Tessellate(res.Design, a.kernel)
	if err != nil {
		return nil, cfg, err
	}
	for _, km := range kms {
		log.Printf("part %q: %d triangles", km.PartName, km.TriangleCount())
	}
	m, err := mesh.FromKernelMeshes(kms)
	if err != nil {
		return nil, cfg, err
	}
	return m, cfg, nil
}

// MeshFromFile loads an STL file or evaluates a script, by extension.
func (a *App) MeshFromFile(path string) (*mesh.Mesh, config.Settings, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		m, err := mesh.LoadSTL(path)
		return m, a.cfg, err
	case ScriptExt:
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, a.cfg, err
		}
		return a.MeshFromSource(string(src))
	}
	return nil, a.cfg, fmt.Errorf("%s: unsupported input, want .stl or %s", path, ScriptExt)
}

// Slice cuts m into layers with cfg.
func (a *App) Slice(ctx context.Context, m *mesh.Mesh, cfg config.Settings) (*Result, error) {
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("mesh has no faces")
	}
	if cfg.PlaceOnPlate {
		m = m.PlaceOnPlate()
	}
	if n := m.BoundaryEdges(); n > 0 {
		log.Printf("warning: mesh has %d boundary edges; stitching may leave open chains", n)
	}

	_, hi := m.Bounds()
	s, err := slicer.New(ctx, m, cfg.ToSlicer(hi.Z))
	if err != nil {
		return nil, err
	}

	res := &Result{Mesh: m, Layers: s.Layers()}
	for i, l := range res.Layers {
		st := l.Stats()
		if st.OpenPolylines > 0 {
			res.Open++
			log.Printf("layer %d (z=%.3fmm): %d polygons, %d open polylines", i, geom.ToMM(l.Z), st.Polygons, st.OpenPolylines)
		}
	}
	log.Printf("sliced %d faces into %d layers", m.FaceCount(), len(res.Layers))
	return res, nil
}

// WriteLayers writes the enabled outputs for every layer into cfg.Output.Dir
// and records the file names in res.
func (a *App) WriteLayers(res *Result, cfg config.Settings, segments bool) error {
	out := cfg.Output
	if !out.SVG && !out.PNG && !out.STL {
		return nil
	}
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return err
	}
	if out.STL && res.Mesh != nil {
		path := filepath.Join(out.Dir, "model.stl")
		if err := writeFile(path, func(f *os.File) error {
			return mesh.WriteSTL(f, res.Mesh, "lamina")
		}); err != nil {
			return err
		}
		res.Files = append(res.Files, path)
	}

	var frame export.Frame
	var haveFrame bool
	if out.PNG {
		frame, haveFrame = export.FrameFor(res.Layers, geom.MM(out.PixelSize), geom.MM(1))
		if !haveFrame {
			log.Printf("warning: no closed polygons, skipping PNG output")
		}
	}
	svgOpts := export.DefaultSVGOptions()
	svgOpts.Segments = segments

	for i, l := range res.Layers {
		base := filepath.Join(out.Dir, fmt.Sprintf("layer-%04d", i))
		if out.SVG {
			if err := writeFile(base+".svg", func(f *os.File) error {
				return export.WriteSVG(f, l, svgOpts)
			}); err != nil {
				return err
			}
			res.Files = append(res.Files, base+".svg")
		}
		if haveFrame {
			if err := writeFile(base+".png", func(f *os.File) error {
				return export.WritePNG(f, export.Rasterize(l, frame))
			}); err != nil {
				return err
			}
			res.Files = append(res.Files, base+".png")
		}
	}
	log.Printf("wrote %d files to %s", len(res.Files), out.Dir)
	return nil
}

// Run slices the file at path and writes its layers.
func (a *App) Run(ctx context.Context, path string, segments bool) (*Result, error) {
	m, cfg, err := a.MeshFromFile(path)
	if err != nil {
		return nil, err
	}
	res, err := a.Slice(ctx, m, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.WriteLayers(res, cfg, segments); err != nil {
		return res, err
	}
	return res, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
