package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeKind enumerates the types of nodes in a design.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // box, cylinder, sphere
	NodeTransform                 // translate, rotate
	NodeBoolean                   // union, difference, intersection
	NodePart                      // named root handed to the slicer
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodePart:
		return "part"
	default:
		return "unknown"
	}
}

// NodeID is the content hash of a node: its kind, name, data and children.
// Structurally equal subtrees share one ID.
type NodeID [sha256.Size]byte

// ZeroID is the unset NodeID.
var ZeroID NodeID

// NewNodeID hashes a node's content.
func NewNodeID(kind NodeKind, name string, data NodeData, children []NodeID) NodeID {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00", kind, name, canonical(data))
	for _, c := range children {
		h.Write(c[:])
	}
	var id NodeID
	copy(id[:], h.Sum(nil))
	return id
}

// canonical formats data without pointer addresses.
func canonical(data NodeData) string {
	t, ok := data.(TransformData)
	if !ok {
		return fmt.Sprintf("%#v", data)
	}
	vec := func(v *Vec3) string {
		if v == nil {
			return "nil"
		}
		return fmt.Sprintf("%#v", *v)
	}
	return fmt.Sprintf("graph.TransformData{%s %s}", vec(t.Translation), vec(t.Rotation))
}

func (id NodeID) IsZero() bool { return id == ZeroID }

// Short returns the first 8 hex digits, for messages.
func (id NodeID) Short() string { return hex.EncodeToString(id[:4]) }

func (id NodeID) String() string { return hex.EncodeToString(id[:]) }

// Node is one element of the design.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Name     string
	Children []NodeID
	Data     NodeData
}

// NewNode builds a node and fills in its ID.
func NewNode(kind NodeKind, name string, data NodeData, children ...NodeID) *Node {
	return &Node{
		ID:       NewNodeID(kind, name, data, children),
		Kind:     kind,
		Name:     name,
		Children: children,
		Data:     data,
	}
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// Vec3 is a vector in millimetres, or Euler angles in degrees.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) IsZero() bool { return v == Vec3{} }

// BoxData is a box with one corner at the origin.
type BoxData struct {
	Size Vec3
}

// CylinderData is a cylinder standing on the XY plane, centred on the Z axis.
type CylinderData struct {
	Height, Radius float64
}

// SphereData is a sphere centred on the origin.
type SphereData struct {
	Radius float64
}

// TransformData moves its single child. Rotation is applied before
// translation; either may be nil.
type TransformData struct {
	Translation *Vec3
	Rotation    *Vec3
}

// BoolOp is a CSG operation.
type BoolOp int

const (
	OpUnion BoolOp = iota
	OpDifference
	OpIntersection
)

func (op BoolOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// BooleanData folds its children left to right with Op.
type BooleanData struct {
	Op BoolOp
}

// PartData marks a named part. Its single child is the part's solid.
type PartData struct{}

func (BoxData) nodeData()       {}
func (CylinderData) nodeData()  {}
func (SphereData) nodeData()    {}
func (TransformData) nodeData() {}
func (BooleanData) nodeData()   {}
func (PartData) nodeData()      {}
