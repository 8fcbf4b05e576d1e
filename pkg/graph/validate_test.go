package graph

import (
	"strings"
	"testing"
)

// buildValidDesign makes one part: a box with a cylinder cut out, raised
// by 5mm.
func buildValidDesign() *Design {
	d := New()
	b := d.AddNode(box(20, 20, 10))
	c := d.AddNode(NewNode(NodePrimitive, "", CylinderData{Height: 10, Radius: 4}))
	diff := d.AddNode(NewNode(NodeBoolean, "", BooleanData{Op: OpDifference}, b.ID, c.ID))
	up := Vec3{0, 0, 5}
	tr := d.AddNode(NewNode(NodeTransform, "", TransformData{Translation: &up}, diff.ID))
	p := d.AddNode(NewNode(NodePart, "washer", PartData{}, tr.ID))
	d.AddRoot(p.ID)
	return d
}

func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateValidDesign(t *testing.T) {
	errs := Validate(buildValidDesign())
	if len(errs) != 0 {
		t.Errorf("valid design produced findings: %v", errs)
	}
	if HasErrors(errs) {
		t.Error("HasErrors on empty findings")
	}
}

func TestValidateCycle(t *testing.T) {
	d := New()
	a := &Node{ID: box(1, 1, 1).ID, Kind: NodeTransform, Data: TransformData{}}
	b := &Node{ID: box(2, 2, 2).ID, Kind: NodeTransform, Data: TransformData{}}
	a.Children = []NodeID{b.ID}
	b.Children = []NodeID{a.ID}
	d.AddNode(a)
	d.AddNode(b)

	if !hasError(Validate(d), "cycle") {
		t.Error("cycle not reported")
	}
}

func TestValidateDanglingChild(t *testing.T) {
	d := buildValidDesign()
	missing := box(99, 99, 99).ID
	p := d.AddNode(NewNode(NodePart, "ghost", PartData{}, missing))
	d.AddRoot(p.ID)

	errs := Validate(d)
	if !hasError(errs, "does not exist") {
		t.Errorf("dangling child not reported: %v", errs)
	}
}

func TestValidateArity(t *testing.T) {
	tests := []struct {
		name string
		node func(d *Design) *Node
		want string
	}{
		{"boolean with one child", func(d *Design) *Node {
			b := d.AddNode(box(1, 1, 1))
			return NewNode(NodeBoolean, "", BooleanData{Op: OpUnion}, b.ID)
		}, "at least 2 children"},
		{"transform with two children", func(d *Design) *Node {
			a, b := d.AddNode(box(1, 1, 1)), d.AddNode(box(2, 1, 1))
			return NewNode(NodeTransform, "", TransformData{}, a.ID, b.ID)
		}, "needs 1 child"},
		{"primitive with children", func(d *Design) *Node {
			a := d.AddNode(box(1, 1, 1))
			return NewNode(NodePrimitive, "", SphereData{Radius: 1}, a.ID)
		}, "primitive has 1 children"},
		{"primitive with boolean data", func(d *Design) *Node {
			return NewNode(NodePrimitive, "", BooleanData{})
		}, "primitive has data"},
		{"unknown kind", func(d *Design) *Node {
			return NewNode(NodeKind(9), "", PartData{})
		}, "unknown node kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			d.AddNode(tt.node(d))
			if errs := Validate(d); !hasError(errs, tt.want) {
				t.Errorf("want %q in %v", tt.want, errs)
			}
		})
	}
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		data NodeData
		want string
	}{
		{BoxData{Size: Vec3{1, 0, 1}}, "box y"},
		{BoxData{Size: Vec3{-1, 1, 1}}, "box x"},
		{CylinderData{Height: 1, Radius: 0}, "cylinder radius"},
		{SphereData{Radius: -3}, "sphere radius"},
	}
	for _, tt := range tests {
		d := New()
		d.AddNode(NewNode(NodePrimitive, "", tt.data))
		if errs := Validate(d); !hasError(errs, tt.want) {
			t.Errorf("%#v: want %q in %v", tt.data, tt.want, errs)
		}
	}
}

func TestValidateNames(t *testing.T) {
	d := buildValidDesign()
	b := d.AddNode(box(5, 5, 5))
	p := d.AddNode(NewNode(NodePart, "", PartData{}, b.ID))
	d.AddRoot(p.ID)
	if !hasError(Validate(d), "part has no name") {
		t.Error("unnamed part not reported")
	}

	d = buildValidDesign()
	d.NameIndex["stale"] = box(7, 7, 7).ID
	if !hasError(Validate(d), `name "stale"`) {
		t.Error("stale name index entry not reported")
	}
}

func TestValidateRoots(t *testing.T) {
	if !hasWarning(Validate(New()), "no parts") {
		t.Error("empty design should warn")
	}

	d := buildValidDesign()
	b := d.AddNode(box(3, 3, 3))
	if errs := Validate(d); !hasWarning(errs, "not used by any part") || HasErrors(errs) {
		t.Errorf("orphan should only warn: %v", errs)
	}

	d.AddRoot(b.ID)
	if !hasError(Validate(d), "not a part") {
		t.Error("non-part root not reported")
	}
}

func TestValidateSettings(t *testing.T) {
	d := buildValidDesign()
	zero, layers := 0.0, -2
	d.Settings.LayerHeight = &zero
	d.Settings.Layers = &layers
	errs := Validate(d)
	if !hasError(errs, "layer-height") || !hasError(errs, "layers must not be negative") {
		t.Errorf("bad settings not reported: %v", errs)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Message: "boom", Severity: SeverityWarning}
	if e.Error() != "[warning] boom" {
		t.Errorf("Error() = %q", e.Error())
	}
	id := box(1, 1, 1).ID
	e = ValidationError{NodeID: id, Message: "bad", Severity: SeverityError}
	if !strings.Contains(e.Error(), id.Short()) {
		t.Errorf("Error() = %q, missing node id", e.Error())
	}
}
