package geom

// Polygon is an ordered point sequence. When used as a closed polygon the
// last point implicitly connects back to the first.
type Polygon []Point2

// Polygons is a list of polygons belonging to one layer.
type Polygons []Polygon

// Optimization thresholds, in microns.
const (
	// optimizeSnap drops a point that lies this close to its predecessor.
	optimizeSnap = 10
	// optimizeShortEdge bounds the edges considered for collinear removal.
	optimizeShortEdge = 500
	// optimizeNormal is the fixed length used to compare edge directions.
	optimizeNormal = 10_000_000
	// optimizeStraight is the dot product (of two optimizeNormal vectors)
	// below which a point is considered to lie on a straight line.
	optimizeStraight = -99_999_999_999_999
)

// Area returns the signed area of the closed polygon in square microns.
// Counter-clockwise polygons have positive area.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	var twice int64
	prev := p[len(p)-1]
	for _, cur := range p {
		twice += prev.Cross(cur)
		prev = cur
	}
	return float64(twice) / 2
}

// Orientation reports whether the polygon winds counter-clockwise.
func (p Polygon) Orientation() bool {
	return p.Area() >= 0
}

// Length returns the perimeter of the closed polygon.
func (p Polygon) Length() int64 {
	if len(p) < 2 {
		return 0
	}
	var l int64
	prev := p[len(p)-1]
	for _, cur := range p {
		l += cur.Sub(prev).VSize()
		prev = cur
	}
	return l
}

// ShorterThan reports whether the perimeter is below l. It stops summing as
// soon as the answer is known.
func (p Polygon) ShorterThan(l int64) bool {
	if len(p) < 2 {
		return true
	}
	var sum int64
	prev := p[len(p)-1]
	for _, cur := range p {
		sum += cur.Sub(prev).VSize()
		if sum >= l {
			return false
		}
		prev = cur
	}
	return true
}

// Bounds returns the axis-aligned bounding box of the polygon.
func (p Polygon) Bounds() (lo, hi Point2) {
	if len(p) == 0 {
		return
	}
	lo, hi = p[0], p[0]
	for _, q := range p[1:] {
		lo.X, lo.Y = min(lo.X, q.X), min(lo.Y, q.Y)
		hi.X, hi.Y = max(hi.X, q.X), max(hi.Y, q.Y)
	}
	return lo, hi
}

// Reversed returns a copy of p with the point order reversed.
func (p Polygon) Reversed() Polygon {
	r := make(Polygon, len(p))
	for i, q := range p {
		r[len(p)-1-i] = q
	}
	return r
}

// Optimize returns a copy of the closed polygon without points that lie
// within 10µm of their predecessor, and without points on short edges whose
// neighbours are collinear with them.
func (p Polygon) Optimize() Polygon {
	if len(p) == 0 {
		return nil
	}
	out := make(Polygon, 0, len(p))
	p0 := p[len(p)-1]
	for i, p1 := range p {
		d := p1.Sub(p0)
		if d.ShorterThan(optimizeSnap) {
			continue
		}
		if d.ShorterThan(optimizeShortEdge) {
			var p2 Point2
			switch {
			case i < len(p)-1:
				p2 = p[i+1]
			case len(out) > 0:
				p2 = out[0]
			default:
				p2 = p[0]
			}
			diff0 := p1.Sub(p0).Normal(optimizeNormal)
			diff2 := p1.Sub(p2).Normal(optimizeNormal)
			if diff0.Dot(diff2) < optimizeStraight {
				continue
			}
		}
		out = append(out, p1)
		p0 = p1
	}
	return out
}

// Bounds returns the bounding box of all polygons. ok is false when there
// are no points.
func (ps Polygons) Bounds() (lo, hi Point2, ok bool) {
	for _, p := range ps {
		if len(p) == 0 {
			continue
		}
		plo, phi := p.Bounds()
		if !ok {
			lo, hi, ok = plo, phi, true
			continue
		}
		lo.X, lo.Y = min(lo.X, plo.X), min(lo.Y, plo.Y)
		hi.X, hi.Y = max(hi.X, phi.X), max(hi.Y, phi.Y)
	}
	return lo, hi, ok
}

// PointCount returns the total number of points over all polygons.
func (ps Polygons) PointCount() int {
	n := 0
	for _, p := range ps {
		n += len(p)
	}
	return n
}

// Optimize optimizes every polygon and drops the ones left with fewer than
// three points.
func (ps Polygons) Optimize() Polygons {
	out := make(Polygons, 0, len(ps))
	for _, p := range ps {
		p = p.Optimize()
		if len(p) < 3 {
			continue
		}
		out = append(out, p)
	}
	return out
}
