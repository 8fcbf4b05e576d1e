package graph

import "fmt"

// Settings holds the slicing settings a script overrides. Nil fields keep
// the profile's value. Lengths are millimetres.
type Settings struct {
	LayerHeight        *float64
	InitialLayerHeight *float64
	Layers             *int
	KeepUnclosed       *bool
	ExtensiveStitching *bool
}

// IsZero reports whether no setting is overridden.
func (s Settings) IsZero() bool {
	return s.LayerHeight == nil && s.InitialLayerHeight == nil && s.Layers == nil &&
		s.KeepUnclosed == nil && s.ExtensiveStitching == nil
}

// Design is the immutable result of evaluating a script. Each evaluation
// produces a new Design.
type Design struct {
	Nodes     map[NodeID]*Node
	Roots     []NodeID
	NameIndex map[string]NodeID
	Settings  Settings
}

// New creates an empty Design.
func New() *Design {
	return &Design{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds n and returns the node stored under its ID, which is an
// earlier equal node when one exists.
func (d *Design) AddNode(n *Node) *Node {
	if old, ok := d.Nodes[n.ID]; ok {
		return old
	}
	d.Nodes[n.ID] = n
	if n.Name != "" {
		d.NameIndex[n.Name] = n.ID
	}
	return n
}

// AddRoot registers a node ID as a root. Adding the same root twice is a
// no-op.
func (d *Design) AddRoot(id NodeID) {
	for _, r := range d.Roots {
		if r == id {
			return
		}
	}
	d.Roots = append(d.Roots, id)
}

// Lookup returns the node with the given name, or nil.
func (d *Design) Lookup(name string) *Node {
	id, ok := d.NameIndex[name]
	if !ok {
		return nil
	}
	return d.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (d *Design) MustLookup(name string) *Node {
	n := d.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (d *Design) Get(id NodeID) *Node {
	return d.Nodes[id]
}

// Children returns the child nodes of n in order, skipping dangling IDs.
func (d *Design) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := d.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// Parts returns the root part nodes in the order they were declared.
func (d *Design) Parts() []*Node {
	var parts []*Node
	for _, id := range d.Roots {
		if n := d.Nodes[id]; n != nil && n.Kind == NodePart {
			parts = append(parts, n)
		}
	}
	return parts
}

// NodeCount returns the number of nodes.
func (d *Design) NodeCount() int {
	return len(d.Nodes)
}
