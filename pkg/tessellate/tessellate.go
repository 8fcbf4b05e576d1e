// Package tessellate turns a design into triangle meshes with a geometry
// kernel. Each root part becomes one mesh.
package tessellate

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/lamina/pkg/graph"
	"github.com/chazu/lamina/pkg/kernel"
)

// builder folds design nodes into kernel solids. Shared subtrees are built
// once.
type builder struct {
	d      *graph.Design
	k      kernel.Kernel
	solids map[graph.NodeID]kernel.Solid
}

// Solid builds the kernel solid for n.
func Solid(d *graph.Design, k kernel.Kernel, n *graph.Node) (kernel.Solid, error) {
	b := &builder{d: d, k: k, solids: make(map[graph.NodeID]kernel.Solid)}
	return b.build(n)
}

func (b *builder) build(n *graph.Node) (kernel.Solid, error) {
	if s, ok := b.solids[n.ID]; ok {
		return s, nil
	}
	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case graph.NodePrimitive:
		s, err = b.primitive(n)
	case graph.NodeTransform:
		s, err = b.transform(n)
	case graph.NodeBoolean:
		s, err = b.boolean(n)
	case graph.NodePart:
		s, err = b.single(n)
	default:
		err = fmt.Errorf("node %s: unknown kind %v", n.ID.Short(), n.Kind)
	}
	if err != nil {
		return nil, err
	}
	b.solids[n.ID] = s
	return s, nil
}

func (b *builder) primitive(n *graph.Node) (kernel.Solid, error) {
	switch data := n.Data.(type) {
	case graph.BoxData:
		return b.k.Box(data.Size.X, data.Size.Y, data.Size.Z), nil
	case graph.CylinderData:
		return b.k.Cylinder(data.Height, data.Radius), nil
	case graph.SphereData:
		return b.k.Sphere(data.Radius), nil
	}
	return nil, fmt.Errorf("primitive %s has unsupported data %T", n.ID.Short(), n.Data)
}

// transform applies rotation first, then translation.
func (b *builder) transform(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform %s has unexpected data %T", n.ID.Short(), n.Data)
	}
	s, err := b.single(n)
	if err != nil {
		return nil, err
	}
	if r := td.Rotation; r != nil && !r.IsZero() {
		s = b.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && !t.IsZero() {
		s = b.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s, nil
}

// boolean folds the children left to right.
func (b *builder) boolean(n *graph.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean %s has unexpected data %T", n.ID.Short(), n.Data)
	}
	children := b.d.Children(n)
	if len(children) == 0 || len(children) != len(n.Children) {
		return nil, fmt.Errorf("boolean %s: missing children", n.ID.Short())
	}
	acc, err := b.build(children[0])
	if err != nil {
		return nil, err
	}
	for _, c := range children[1:] {
		s, err := b.build(c)
		if err != nil {
			return nil, err
		}
		switch bd.Op {
		case graph.OpUnion:
			acc = b.k.Union(acc, s)
		case graph.OpDifference:
			acc = b.k.Difference(acc, s)
		case graph.OpIntersection:
			acc = b.k.Intersection(acc, s)
		default:
			return nil, fmt.Errorf("boolean %s: unknown op %v", n.ID.Short(), bd.Op)
		}
	}
	return acc, nil
}

func (b *builder) single(n *graph.Node) (kernel.Solid, error) {
	children := b.d.Children(n)
	if len(children) != 1 || len(n.Children) != 1 {
		return nil, fmt.Errorf("%s %s: expected one child, found %d", n.Kind, n.ID.Short(), len(children))
	}
	return b.build(children[0])
}

// Tessellate builds one solid per part and meshes them concurrently. Meshes
// are returned in part order, each named after its part. The design is never
// mutated.
func Tessellate(d *graph.Design, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if d == nil {
		return nil, nil
	}
	parts := d.Parts()
	b := &builder{d: d, k: k, solids: make(map[graph.NodeID]kernel.Solid)}
	solids := make([]kernel.Solid, len(parts))
	for i, p := range parts {
		s, err := b.build(p)
		if err != nil {
			return nil, fmt.Errorf("tessellate: part %q: %w", p.Name, err)
		}
		solids[i] = s
	}

	meshes := make([]*kernel.Mesh, len(parts))
	var g errgroup.Group
	for i, p := range parts {
		g.Go(func() error {
			m, err := k.ToMesh(solids[i])
			if err != nil {
				return fmt.Errorf("tessellate: part %q: %w", p.Name, err)
			}
			m.PartName = p.Name
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}
