package graph

import (
	"bytes"
	"fmt"
	"math"
	"slices"
)

// ValidationSeverity indicates whether a finding blocks slicing or is
// informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks slicing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID // zero for design-level findings
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// HasErrors reports whether any finding has SeverityError.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate runs the structural checks on d and returns every finding in a
// stable order. It never mutates d.
func Validate(d *Design) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(d)...)
	errs = append(errs, validateReferences(d)...)
	errs = append(errs, validateArity(d)...)
	errs = append(errs, validateDimensions(d)...)
	errs = append(errs, validateNames(d)...)
	errs = append(errs, validateRoots(d)...)
	errs = append(errs, validateSettings(d.Settings)...)
	return errs
}

func sortedIDs(d *Design) []NodeID {
	ids := make([]NodeID, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b NodeID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

// validateDAG finds cycles with a three-colour depth-first search: a grey
// node met again is on the current path.
func validateDAG(d *Design) []ValidationError {
	const (
		white = iota
		grey
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case grey:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  "node is part of a cycle",
				Severity: SeverityError,
			})
			return true
		}
		color[id] = grey
		if n := d.Nodes[id]; n != nil {
			for _, c := range n.Children {
				if visit(c) {
					color[id] = black
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range sortedIDs(d) {
		if color[id] == white {
			visit(id)
		}
	}
	return errs
}

func validateReferences(d *Design) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(d) {
		n := d.Nodes[id]
		for _, c := range n.Children {
			if _, ok := d.Nodes[c]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("child reference %s does not exist", c.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateArity checks child counts and that each kind carries its data.
func validateArity(d *Design) []ValidationError {
	var errs []ValidationError
	bad := func(id NodeID, format string, args ...any) {
		errs = append(errs, ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}
	for _, id := range sortedIDs(d) {
		n := d.Nodes[id]
		switch n.Kind {
		case NodePrimitive:
			switch n.Data.(type) {
			case BoxData, CylinderData, SphereData:
			default:
				bad(id, "primitive has data %T", n.Data)
			}
			if len(n.Children) != 0 {
				bad(id, "primitive has %d children", len(n.Children))
			}
		case NodeTransform:
			if _, ok := n.Data.(TransformData); !ok {
				bad(id, "transform has data %T", n.Data)
			}
			if len(n.Children) != 1 {
				bad(id, "transform needs 1 child, has %d", len(n.Children))
			}
		case NodeBoolean:
			if _, ok := n.Data.(BooleanData); !ok {
				bad(id, "boolean has data %T", n.Data)
			}
			if len(n.Children) < 2 {
				bad(id, "boolean needs at least 2 children, has %d", len(n.Children))
			}
		case NodePart:
			if _, ok := n.Data.(PartData); !ok {
				bad(id, "part has data %T", n.Data)
			}
			if len(n.Children) != 1 {
				bad(id, "part needs 1 child, has %d", len(n.Children))
			}
		default:
			bad(id, "unknown node kind %v", n.Kind)
		}
	}
	return errs
}

func validateDimensions(d *Design) []ValidationError {
	var errs []ValidationError
	check := func(id NodeID, what string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s must be positive, got %v", what, v),
				Severity: SeverityError,
			})
		}
	}
	finite := func(id NodeID, what string, v *Vec3) {
		if v == nil {
			return
		}
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("%s %v is not finite", what, *v),
					Severity: SeverityError,
				})
				return
			}
		}
	}
	for _, id := range sortedIDs(d) {
		switch data := d.Nodes[id].Data.(type) {
		case BoxData:
			check(id, "box x", data.Size.X)
			check(id, "box y", data.Size.Y)
			check(id, "box z", data.Size.Z)
		case CylinderData:
			check(id, "cylinder height", data.Height)
			check(id, "cylinder radius", data.Radius)
		case SphereData:
			check(id, "sphere radius", data.Radius)
		case TransformData:
			finite(id, "translation", data.Translation)
			finite(id, "rotation", data.Rotation)
		}
	}
	return errs
}

// validateNames checks that every part is named, that names are unique and
// that NameIndex entries point at existing nodes.
func validateNames(d *Design) []ValidationError {
	var errs []ValidationError

	names := make([]string, 0, len(d.NameIndex))
	for name := range d.NameIndex {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, ok := d.Nodes[d.NameIndex[name]]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name %q references a missing node", name),
				Severity: SeverityError,
			})
		}
	}

	seen := make(map[string]NodeID)
	for _, id := range sortedIDs(d) {
		n := d.Nodes[id]
		if n.Kind == NodePart && n.Name == "" {
			errs = append(errs, ValidationError{NodeID: id, Message: "part has no name", Severity: SeverityError})
		}
		if n.Name == "" {
			continue
		}
		if other, ok := seen[n.Name]; ok {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("name %q is also used by node %s", n.Name, other.Short()),
				Severity: SeverityError,
			})
			continue
		}
		seen[n.Name] = id
	}
	return errs
}

// validateRoots checks that roots are existing parts and warns about nodes
// no root reaches.
func validateRoots(d *Design) []ValidationError {
	var errs []ValidationError
	if len(d.Roots) == 0 {
		return append(errs, ValidationError{Message: "design declares no parts", Severity: SeverityWarning})
	}

	reachable := make(map[NodeID]bool)
	var queue []NodeID
	for _, rid := range d.Roots {
		n, ok := d.Nodes[rid]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if n.Kind != NodePart {
			errs = append(errs, ValidationError{
				NodeID:   rid,
				Message:  fmt.Sprintf("root is a %s, not a part", n.Kind),
				Severity: SeverityError,
			})
		}
		if !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}

	for len(queue) > 0 {
		n := d.Nodes[queue[0]]
		queue = queue[1:]
		if n == nil {
			continue
		}
		for _, c := range n.Children {
			if !reachable[c] {
				reachable[c] = true
				queue = append(queue, c)
			}
		}
	}

	for _, id := range sortedIDs(d) {
		if !reachable[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s is not used by any part", d.Nodes[id].Kind),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func validateSettings(s Settings) []ValidationError {
	var errs []ValidationError
	bad := func(format string, args ...any) {
		errs = append(errs, ValidationError{Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}
	if v := s.LayerHeight; v != nil && (!(*v > 0) || math.IsInf(*v, 0)) {
		bad("layer-height must be positive, got %v", *v)
	}
	if v := s.InitialLayerHeight; v != nil && (!(*v >= 0) || math.IsInf(*v, 0)) {
		bad("initial-layer-height must not be negative, got %v", *v)
	}
	if v := s.Layers; v != nil && *v < 0 {
		bad("layers must not be negative, got %d", *v)
	}
	return errs
}
