package kernel

// Mesh is a triangle soup in millimetres as produced by a kernel.
// Arrays are flat: Vertices has 3 floats per vertex (x,y,z) and Indices has
// 3 entries per triangle. Winding is counter-clockwise seen from outside.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh returns zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		for j := 0; j < 3; j++ {
			v := float64(m.Vertices[i+j])
			if i == 0 || v < min[j] {
				min[j] = v
			}
			if i == 0 || v > max[j] {
				max[j] = v
			}
		}
	}
	return min, max
}
