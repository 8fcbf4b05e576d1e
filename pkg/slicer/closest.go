package slicer

import "github.com/chazu/lamina/pkg/geom"

// GapTolerance is the largest distance, in microns, between an open chain
// end and a polygon edge for the two to be joined.
const GapTolerance = 100

// ClosestPointResult locates a point on a closed polygon of the layer.
// EdgeIndex i denotes the edge from point i-1 (wrapping) to point i.
type ClosestPointResult struct {
	Point        geom.Point2
	PolygonIndex int
	EdgeIndex    int
}

// FindClosestPointOnPolygons returns the first polygon edge, scanning
// polygons and edges in order, whose perpendicular foot from q lies on the
// edge and within GapTolerance of q. It is a first-match search: a closer
// edge later in the scan is never considered. Edges of squared length at
// most 1 are ignored.
func (l *Layer) FindClosestPointOnPolygons(q geom.Point2) (ClosestPointResult, bool) {
	for n, poly := range l.Polygons {
		if len(poly) == 0 {
			continue
		}
		p0 := poly[len(poly)-1]
		for i, p1 := range poly {
			d := p1.Sub(p0)
			if d.VSize2() > 1 {
				length := d.VSize()
				along := d.Dot(q.Sub(p0)) / length
				if along >= 0 && along <= length {
					foot := p0.Add(d.Mul(along).Div(length))
					if foot.Sub(q).ShorterThan(GapTolerance) {
						return ClosestPointResult{Point: foot, PolygonIndex: n, EdgeIndex: i}, true
					}
				}
			}
			p0 = p1
		}
	}
	return ClosestPointResult{}, false
}

// GapCloserPlan describes how to connect two chain ends through a closed
// polygon both of them touch. Forward means walking the polygon from
// EdgeIndexA to EdgeIndexB in point order.
type GapCloserPlan struct {
	Length       int64
	PolygonIndex int
	EdgeIndexA   int
	EdgeIndexB   int
	Forward      bool
}

// FindGapCloser plans the shortest connection from ip0 to ip1 along a
// closed polygon touched by both. It fails when either point touches no
// polygon or the two touch different polygons. Ties prefer forward.
func (l *Layer) FindGapCloser(ip0, ip1 geom.Point2) (GapCloserPlan, bool) {
	c1, ok := l.FindClosestPointOnPolygons(ip0)
	if !ok {
		return GapCloserPlan{}, false
	}
	c2, ok := l.FindClosestPointOnPolygons(ip1)
	if !ok || c1.PolygonIndex != c2.PolygonIndex {
		return GapCloserPlan{}, false
	}

	plan := GapCloserPlan{
		PolygonIndex: c1.PolygonIndex,
		EdgeIndexA:   c1.EdgeIndex,
		EdgeIndexB:   c2.EdgeIndex,
		Forward:      true,
	}
	if plan.EdgeIndexA == plan.EdgeIndexB {
		plan.Length = ip0.Sub(ip1).VSize()
		return plan, true
	}

	poly := l.Polygons[plan.PolygonIndex]
	lenA := arcLength(poly, plan.EdgeIndexA, plan.EdgeIndexB, ip0, ip1)
	lenB := arcLength(poly, plan.EdgeIndexB, plan.EdgeIndexA, ip1, ip0)
	plan.Forward = lenA <= lenB
	if plan.Forward {
		plan.Length = lenA
	} else {
		plan.Length = lenB
	}
	return plan, true
}

// arcLength measures from, then poly[a] .. poly[b-1] in order, then to.
func arcLength(poly geom.Polygon, a, b int, from, to geom.Point2) int64 {
	p0 := poly[a]
	l := p0.Sub(from).VSize()
	for i := a; i != b; i = (i + 1) % len(poly) {
		p1 := poly[i]
		l += p0.Sub(p1).VSize()
		p0 = p1
	}
	return l + p0.Sub(to).VSize()
}

// arc returns poly[a] .. poly[b-1], wrapping around the end.
func arc(poly geom.Polygon, a, b int) geom.Polygon {
	var out geom.Polygon
	for i := a; i != b; i = (i + 1) % len(poly) {
		out = append(out, poly[i])
	}
	return out
}
