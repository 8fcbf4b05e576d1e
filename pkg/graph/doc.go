// Package graph defines the CSG design produced by evaluating a script.
// A Design is an immutable DAG of primitives, transforms and booleans whose
// roots are named parts, plus the slicing settings the script overrides.
package graph
