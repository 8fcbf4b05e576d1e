package engine

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lamina/pkg/graph"
)

// registerBuiltins installs the modelling builtins into env. Each builtin
// adds nodes to d. Source must go through preprocessSource first so that
// keywords arrive as marked strings.
func registerBuiltins(env *zygo.Zlisp, d *graph.Design) {
	add := func(kind graph.NodeKind, name string, data graph.NodeData, children ...graph.NodeID) *sexpSolid {
		n := d.AddNode(graph.NewNode(kind, name, data, children...))
		return &sexpSolid{id: n.ID, kind: n.Kind, name: n.Name}
	}

	// (vec3 x y z)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := vec3Args("vec3", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec3{vec: v}, nil
	})

	// (box x y z) or (box (vec3 x y z))
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var size graph.Vec3
		var err error
		if len(args) == 1 {
			size, err = toVec3(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
		} else if size, err = vec3Args("box", args); err != nil {
			return zygo.SexpNull, err
		}
		if err := positive("box", size.X, size.Y, size.Z); err != nil {
			return zygo.SexpNull, err
		}
		return add(graph.NodePrimitive, "", graph.BoxData{Size: size}), nil
	})

	// (cylinder :height h :radius r)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("height", "radius"); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		var cd graph.CylinderData
		for _, f := range []struct {
			key string
			dst *float64
		}{{"height", &cd.Height}, {"radius", &cd.Radius}} {
			v, ok := pa.kw[f.key]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("cylinder: missing :%s", f.key)
			}
			x, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: %s: %w", f.key, err)
			}
			*f.dst = x
		}
		if err := positive("cylinder", cd.Height, cd.Radius); err != nil {
			return zygo.SexpNull, err
		}
		return add(graph.NodePrimitive, "", cd), nil
	})

	// (sphere r) or (sphere :radius r)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("radius"); err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		v, ok := pa.kw["radius"]
		if !ok {
			if len(pa.positional) != 1 {
				return zygo.SexpNull, fmt.Errorf("sphere requires a radius")
			}
			v = pa.positional[0]
		}
		r, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		if err := positive("sphere", r); err != nil {
			return zygo.SexpNull, err
		}
		return add(graph.NodePrimitive, "", graph.SphereData{Radius: r}), nil
	})

	// (translate solid (vec3 x y z))
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		child, v, err := solidAndVec3("translate", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return add(graph.NodeTransform, "", graph.TransformData{Translation: &v}, child.id), nil
	})

	// (rotate solid (vec3 rx ry rz)), angles in degrees
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		child, v, err := solidAndVec3("rotate", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return add(graph.NodeTransform, "", graph.TransformData{Rotation: &v}, child.id), nil
	})

	// (union a b ...), (difference a b ...), (intersection a b ...)
	for _, op := range []graph.BoolOp{graph.OpUnion, graph.OpDifference, graph.OpIntersection} {
		env.AddFunction(op.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			ids, err := solidList(op.String(), args)
			if err != nil {
				return zygo.SexpNull, err
			}
			if len(ids) == 1 {
				n := d.Get(ids[0])
				return &sexpSolid{id: n.ID, kind: n.Kind, name: n.Name}, nil
			}
			return add(graph.NodeBoolean, "", graph.BooleanData{Op: op}, ids...), nil
		})
	}

	// (part "name" solid)
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("part requires a name and a solid, got %d arguments", len(args))
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		if partName == "" {
			return zygo.SexpNull, fmt.Errorf("part: name must not be empty")
		}
		if d.Lookup(partName) != nil {
			return zygo.SexpNull, fmt.Errorf("part: %q is already defined", partName)
		}
		body, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part %q: %w", partName, err)
		}
		if body.kind == graph.NodePart {
			return zygo.SexpNull, fmt.Errorf("part %q: body is part %q, not a solid", partName, body.name)
		}
		ref := add(graph.NodePart, partName, graph.PartData{}, body.id)
		d.AddRoot(ref.id)
		return ref, nil
	})

	// (settings :layer-height 0.2 :initial-layer-height 0.3 :layers 40
	//           :keep-unclosed true :extensive-stitching false)
	env.AddFunction("settings", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("settings takes only keyword arguments")
		}
		if err := pa.unknown("layer-height", "initial-layer-height", "layers", "keep-unclosed", "extensive-stitching"); err != nil {
			return zygo.SexpNull, fmt.Errorf("settings: %w", err)
		}
		s := d.Settings
		for _, f := range []struct {
			key string
			dst **float64
		}{{"layer-height", &s.LayerHeight}, {"initial-layer-height", &s.InitialLayerHeight}} {
			if v, ok := pa.kw[f.key]; ok {
				x, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("settings: %s: %w", f.key, err)
				}
				*f.dst = &x
			}
		}
		if v, ok := pa.kw["layers"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("settings: layers: %w", err)
			}
			s.Layers = &n
		}
		for _, f := range []struct {
			key string
			dst **bool
		}{{"keep-unclosed", &s.KeepUnclosed}, {"extensive-stitching", &s.ExtensiveStitching}} {
			if v, ok := pa.kw[f.key]; ok {
				b, err := toBool(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("settings: %s: %w", f.key, err)
				}
				*f.dst = &b
			}
		}
		d.Settings = s
		return zygo.SexpNull, nil
	})
}

func vec3Args(fn string, args []zygo.Sexp) (graph.Vec3, error) {
	if len(args) != 3 {
		return graph.Vec3{}, fmt.Errorf("%s requires exactly 3 numbers, got %d arguments", fn, len(args))
	}
	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return graph.Vec3{}, fmt.Errorf("%s: %s: %w", fn, axis, err)
		}
		c[i] = f
	}
	return graph.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

func solidAndVec3(fn string, args []zygo.Sexp) (*sexpSolid, graph.Vec3, error) {
	if len(args) != 2 {
		return nil, graph.Vec3{}, fmt.Errorf("%s requires a solid and a vec3, got %d arguments", fn, len(args))
	}
	s, err := toSolid(args[0])
	if err != nil {
		return nil, graph.Vec3{}, fmt.Errorf("%s: %w", fn, err)
	}
	if s.kind == graph.NodePart {
		return nil, graph.Vec3{}, fmt.Errorf("%s: cannot transform part %q", fn, s.name)
	}
	v, err := toVec3(args[1])
	if err != nil {
		return nil, graph.Vec3{}, fmt.Errorf("%s: %w", fn, err)
	}
	return s, v, nil
}

// solidList collects solids from args; lists and arrays are flattened one
// level.
func solidList(fn string, args []zygo.Sexp) ([]graph.NodeID, error) {
	var ids []graph.NodeID
	for i, a := range args {
		items := []zygo.Sexp{a}
		if _, ok := a.(*sexpSolid); !ok {
			if list, err := sexpListToSlice(a); err == nil {
				items = list
			}
		}
		for _, item := range items {
			s, err := toSolid(item)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
			}
			if s.kind == graph.NodePart {
				return nil, fmt.Errorf("%s: argument %d: cannot combine part %q", fn, i+1, s.name)
			}
			ids = append(ids, s.id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s requires at least one solid", fn)
	}
	return ids, nil
}

func positive(fn string, vs ...float64) error {
	for _, v := range vs {
		if !(v > 0) {
			return fmt.Errorf("%s: dimensions must be positive, got %g", fn, v)
		}
	}
	return nil
}
