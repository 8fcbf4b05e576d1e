// Package kernel defines the solid modelling interface used to produce
// meshes for slicing. Implementations (sdfx) build solids from primitives
// and booleans and tessellate them into triangle meshes; the slicer never
// sees a Solid, only the Mesh it turns into.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box in millimetres.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and meshes them. Dimensions are millimetres.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
