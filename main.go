// Command lamina slices STL meshes and modelling scripts into layer
// outlines.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/tdewolff/argp"

	"github.com/chazu/lamina/pkg/config"
	"github.com/chazu/lamina/pkg/engine"
)

// Slice is the root command.
type Slice struct {
	Config       string  `short:"c" desc:"TOML slicing profile"`
	Output       string  `short:"o" desc:"Output directory"`
	LayerHeight  float64 `short:"l" desc:"Layer height in mm"`
	Layers       int     `short:"n" desc:"Number of layers, 0 derives it from the model height"`
	Extensive    bool    `short:"e" desc:"Stitch open chains against each other"`
	KeepUnclosed bool    `desc:"Keep open polylines in the output"`
	PNG          bool    `desc:"Write PNG layer masks"`
	NoSVG        bool    `desc:"Do not write SVG layers"`
	STL          bool    `desc:"Write the sliced mesh as model.stl"`
	Segments     bool    `desc:"Draw raw segments in SVG layers"`
	Workers      int     `short:"j" desc:"Concurrent layers, 0 uses every CPU"`
	Input        string  `index:"0" desc:"Input .stl or .lamina file"`
}

// Check evaluates a script without slicing it.
type Check struct {
	Input string `index:"0" desc:"Input .lamina file"`
}

// Profile prints the effective slicing profile as TOML.
type Profile struct {
	Config string `short:"c" desc:"TOML slicing profile to start from"`
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("lamina: ")

	root := argp.NewCmd(&Slice{}, "Slice meshes and modelling scripts into layer outlines")
	root.AddCmd(&Check{}, "check", "Evaluate and validate a modelling script")
	root.AddCmd(&Profile{}, "profile", "Print the slicing profile")
	root.Parse()
	root.PrintHelp()
}

func loadProfile(path string) (config.Settings, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

// settings applies command line flags on top of the profile. Only flags that
// were set change anything.
func (cmd *Slice) settings() (config.Settings, error) {
	cfg, err := loadProfile(cmd.Config)
	if err != nil {
		return cfg, err
	}
	if cmd.Output != "" {
		cfg.Output.Dir = cmd.Output
	}
	if cmd.LayerHeight != 0 {
		cfg.LayerHeight = cmd.LayerHeight
	}
	if cmd.Layers != 0 {
		cfg.Layers = cmd.Layers
	}
	if cmd.Workers != 0 {
		cfg.Workers = cmd.Workers
	}
	cfg.ExtensiveStitching = cfg.ExtensiveStitching || cmd.Extensive
	cfg.KeepUnclosed = cfg.KeepUnclosed || cmd.KeepUnclosed
	cfg.Output.PNG = cfg.Output.PNG || cmd.PNG
	cfg.Output.STL = cfg.Output.STL || cmd.STL
	if cmd.NoSVG {
		cfg.Output.SVG = false
	}
	return cfg, cfg.Err()
}

func (cmd *Slice) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	cfg, err := cmd.settings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := NewApp(cfg).Run(ctx, cmd.Input, cmd.Segments)
	if err != nil {
		return err
	}
	if res.Open > 0 {
		log.Printf("%d of %d layers have open polylines", res.Open, len(res.Layers))
	}
	return nil
}

func (cmd *Check) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	src, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}
	res, err := engine.NewEngine().Check(string(src))
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Printf("%s: warning: %s\n", cmd.Input, w.Message)
	}
	if !res.OK() {
		return &ScriptError{Errors: res.Errors}
	}
	fmt.Printf("%s: %d parts, %d nodes\n", cmd.Input, len(res.Design.Parts()), res.Design.NodeCount())
	return nil
}

func (cmd *Profile) Run() error {
	cfg, err := loadProfile(cmd.Config)
	if err != nil {
		return err
	}
	return config.Encode(os.Stdout, cfg)
}
