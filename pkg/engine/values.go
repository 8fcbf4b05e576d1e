package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lamina/pkg/graph"
)

// sexpSolid carries a design node between builtins.
type sexpSolid struct {
	id   graph.NodeID
	kind graph.NodeKind
	name string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	if s.name != "" {
		return fmt.Sprintf("(%s %q)", s.kind, s.name)
	}
	return fmt.Sprintf("(%s %s)", s.kind, s.id.Short())
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// kwPrefix marks keyword strings produced by preprocessSource.
const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs is an argument list split into keyword and positional parts.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
	order      []string
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		result.order = append(result.order, name)
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// trailing keyword with no value
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// unknown returns an error naming the first keyword not in allowed.
func (a kwArgs) unknown(allowed ...string) error {
	for _, k := range a.order {
		found := false
		for _, want := range allowed {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown keyword :%s", k)
		}
	}
	return nil
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %s", describe(s))
}

func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", describe(s))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok && !strings.HasPrefix(str.S, kwPrefix) {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if ref, ok := s.(*sexpSolid); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected solid, got %s", describe(s))
}

func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %s", describe(s))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %s", describe(s))
}

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nothing"
	}
	if name, ok := isKW(s); ok {
		return "keyword :" + name
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}
