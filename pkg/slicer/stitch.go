package slicer

import "github.com/chazu/lamina/pkg/geom"

// Distances used while stitching, in microns.
const (
	// ChainSnap is how close a neighbour segment's start must be to the
	// current end for topology chaining to continue through it.
	ChainSnap = 10
	// DefaultSnapDistance joins open chain ends to chain starts during
	// extensive stitching.
	DefaultSnapDistance = 2000
	// DefaultMinPolygonLength is the perimeter below which closed polygons
	// are dropped as noise.
	DefaultMinPolygonLength = 1000
)

// StitchOptions controls MakePolygons. The zero value runs topology
// chaining and gap closing only and drops chains that stay open.
type StitchOptions struct {
	// KeepUnclosed retains chains that could not be closed as open polylines.
	KeepUnclosed bool
	// ExtensiveStitching additionally joins open chains with each other:
	// end-to-start snapping within SnapDistance, then repeated shortest
	// pairings through closed polygons both chains touch.
	ExtensiveStitching bool
	// SnapDistance is used by extensive stitching. Zero selects
	// DefaultSnapDistance.
	SnapDistance int64
	// MinPolygonLength drops closed polygons with a shorter perimeter.
	// Zero keeps every polygon.
	MinPolygonLength int64
	// Optimize removes near-duplicate and collinear points from closed
	// polygons and drops polygons left with fewer than three points.
	Optimize bool
}

// DefaultStitchOptions returns the options used by the command line.
func DefaultStitchOptions() StitchOptions {
	return StitchOptions{
		SnapDistance:     DefaultSnapDistance,
		MinPolygonLength: DefaultMinPolygonLength,
		Optimize:         true,
	}
}

// MakePolygons stitches the layer's segments into closed polygons. m must be
// the mesh the layer was built from. It is called once per layer; Consumed
// flags are only ever set here.
func (l *Layer) MakePolygons(m Mesh, opts StitchOptions) {
	open := l.chainByTopology(m)
	open = l.closeAgainstPolygons(open)

	if opts.ExtensiveStitching {
		snap := opts.SnapDistance
		if snap <= 0 {
			snap = DefaultSnapDistance
		}
		l.snapChains(open, snap)
		l.pairChains(open)
	}

	if opts.KeepUnclosed {
		for _, c := range open {
			if len(c) > 0 {
				l.OpenPolylines = append(l.OpenPolylines, c)
			}
		}
	}

	if opts.MinPolygonLength > 0 {
		kept := l.Polygons[:0]
		for _, p := range l.Polygons {
			if !p.ShorterThan(opts.MinPolygonLength) {
				kept = append(kept, p)
			}
		}
		l.Polygons = kept
	}
	if opts.Optimize {
		l.Polygons = l.Polygons.Optimize()
	}
}

// chainByTopology walks segments through face adjacency. Closed chains are
// appended to l.Polygons as the Start points of their segments; open chains
// are returned as Start points followed by the final End.
func (l *Layer) chainByTopology(m Mesh) []geom.Polygon {
	var open []geom.Polygon
	for first := range l.Segments {
		if l.Segments[first].Consumed {
			continue
		}
		var chain geom.Polygon
		closed := false
		cur := first
		for {
			seg := &l.Segments[cur]
			seg.Consumed = true
			chain = append(chain, seg.Start)

			next, ok, closes := l.nextInChain(m, seg, first)
			if !ok {
				closed = closes
				break
			}
			cur = next
		}
		if closed {
			l.Polygons = append(l.Polygons, chain)
		} else {
			open = append(open, append(chain, l.Segments[cur].End))
		}
	}
	return open
}

// nextInChain finds the unconsumed segment continuing seg. The neighbour
// across the edge that produced seg.End is tried first, then the other two
// neighbours, accepting a segment whose Start lies within ChainSnap of
// seg.End. closes reports that the chain's first segment continues seg.
func (l *Layer) nextInChain(m Mesh, seg *Segment, first int) (next int, ok, closes bool) {
	for k := 0; k < 3; k++ {
		edge := (seg.EndEdge + k) % 3
		nb, has := m.NeighborFace(seg.Face, edge)
		if !has {
			continue
		}
		idx, has := l.segmentOf(nb)
		if !has {
			continue
		}
		cand := &l.Segments[idx]
		if !seg.End.Sub(cand.Start).ShorterThan(ChainSnap) {
			continue
		}
		if idx == first {
			closes = true
		}
		if cand.Consumed {
			continue
		}
		return idx, true, false
	}
	return 0, false, closes
}

// closeAgainstPolygons closes every open chain whose two ends touch the same
// closed polygon, using the shorter way around that polygon. Closed chains
// are removed from the returned slice.
func (l *Layer) closeAgainstPolygons(open []geom.Polygon) []geom.Polygon {
	remaining := open[:0]
	for _, c := range open {
		plan, ok := l.FindGapCloser(c[0], c[len(c)-1])
		if !ok {
			remaining = append(remaining, c)
			continue
		}
		closed, ok := l.closeChain(c, plan)
		if !ok {
			remaining = append(remaining, c)
			continue
		}
		l.Polygons = append(l.Polygons, closed)
	}
	return remaining
}

// closeChain turns chain c into a closed polygon by borrowing the planned
// arc of the polygon both of its ends touch. ok is false when the result
// would have fewer than three points.
func (l *Layer) closeChain(c geom.Polygon, plan GapCloserPlan) (closed geom.Polygon, ok bool) {
	switch {
	case plan.EdgeIndexA == plan.EdgeIndexB:
		closed = append(geom.Polygon(nil), c...)
	case plan.Forward:
		closed = append(arc(l.Polygons[plan.PolygonIndex], plan.EdgeIndexA, plan.EdgeIndexB), c.Reversed()...)
	default:
		closed = append(append(geom.Polygon(nil), c...), arc(l.Polygons[plan.PolygonIndex], plan.EdgeIndexB, plan.EdgeIndexA)...)
	}
	return closed, len(closed) >= 3
}

// snapChains joins open chains whose end lies within snap of a chain start.
// A chain of more than two points whose end meets its own start becomes a
// closed polygon. Emptied chains stay in place as nil entries.
func (l *Layer) snapChains(open []geom.Polygon, snap int64) {
	for i := range open {
		for len(open[i]) > 0 {
			j, ok := snapTarget(open, i, snap)
			if !ok {
				break
			}
			if i == j {
				l.Polygons = append(l.Polygons, open[i])
				open[i] = nil
				break
			}
			open[i] = append(open[i], open[j]...)
			open[j] = nil
		}
	}
}

// snapTarget returns the first chain whose start lies within snap of the
// end of chain i.
func snapTarget(open []geom.Polygon, i int, snap int64) (int, bool) {
	last := open[i][len(open[i])-1]
	for j, c := range open {
		if len(c) == 0 || (j == i && len(c) <= 2) {
			continue
		}
		if last.Sub(c[0]).ShorterThan(snap) {
			return j, true
		}
	}
	return 0, false
}

// pairChains repeatedly applies the shortest gap closing plan between the
// start of one open chain and the end of another (or the same) chain until
// no plan remains.
func (l *Layer) pairChains(open []geom.Polygon) {
	for {
		var best GapCloserPlan
		bestA, bestB, found := 0, 0, false
		consider := func(a, b int) {
			plan, ok := l.FindGapCloser(open[a][0], open[b][len(open[b])-1])
			if ok && a == b {
				_, ok = l.closeChain(open[a], plan)
			}
			if ok && (!found || plan.Length < best.Length) {
				best, bestA, bestB, found = plan, a, b, true
			}
		}
		for i := range open {
			if len(open[i]) == 0 {
				continue
			}
			consider(i, i)
			for j := range open {
				if j == i || len(open[j]) == 0 {
					continue
				}
				consider(i, j)
			}
		}
		if !found {
			return
		}

		if bestA == bestB {
			closed, _ := l.closeChain(open[bestA], best)
			l.Polygons = append(l.Polygons, closed)
			open[bestA] = nil
			continue
		}

		// Extend chain B through the polygon arc into chain A.
		merged := open[bestB]
		if best.EdgeIndexA != best.EdgeIndexB {
			poly := l.Polygons[best.PolygonIndex]
			if best.Forward {
				merged = append(merged, arc(poly, best.EdgeIndexA, best.EdgeIndexB).Reversed()...)
			} else {
				merged = append(merged, arc(poly, best.EdgeIndexB, best.EdgeIndexA)...)
			}
		}
		open[bestB] = append(merged, open[bestA]...)
		open[bestA] = nil
	}
}
