package orbveil

import (
	"time"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// kdPoint is a 3-D position carrying the index of the element set it came
// from, so identity survives the tree's in-place partitioning.
type kdPoint struct {
	coord [3]float64
	idx   int
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord[d] - c.(kdPoint).coord[d]
}

func (p kdPoint) Dims() int { return 3 }

func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	dx := p.coord[0] - q.coord[0]
	dy := p.coord[1] - q.coord[1]
	dz := p.coord[2] - q.coord[2]
	return dx*dx + dy*dy + dz*dz
}

// kdPoints implements kdtree.Interface over a slice of kdPoint.
type kdPoints []kdPoint

func (ps kdPoints) Index(i int) kdtree.Comparable { return ps[i] }
func (ps kdPoints) Len() int                      { return len(ps) }
func (ps kdPoints) Slice(start, end int) kdtree.Interface {
	return ps[start:end]
}

// Pivot partitions ps along dimension d. A full sort is not the most
// efficient partition, but catalog-scale N (thousands, not millions) makes
// this an acceptable trade for a correctness-first implementation.
func (ps kdPoints) Pivot(d kdtree.Dim) int {
	insertionSortByDim(ps, d)
	return len(ps) / 2
}

func insertionSortByDim(ps kdPoints, d kdtree.Dim) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j].coord[d] < ps[j-1].coord[d]; j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

// CatalogScreenOptions configures ScreenCatalog's stale-element filter.
type CatalogScreenOptions struct {
	MaxTLEAgeDays float64   // 0 disables the filter
	ReferenceTime time.Time // anchor for the age filter
	Logger        Logger
}

// filterStaleElements drops element sets whose epoch is older than
// MaxTLEAgeDays relative to ReferenceTime.
func filterStaleElements(catalog []*ElementSet, opts CatalogScreenOptions) []*ElementSet {
	if opts.MaxTLEAgeDays <= 0 {
		return catalog
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger()
	}
	out := make([]*ElementSet, 0, len(catalog))
	dropped := 0
	for _, e := range catalog {
		age := e.AgeDays(opts.ReferenceTime)
		if age > opts.MaxTLEAgeDays {
			dropped++
			continue
		}
		out = append(out, e)
	}
	if dropped > 0 {
		logWarn(log, "msg", "dropped stale element sets", "count", dropped, "max_age_days", opts.MaxTLEAgeDays)
	}
	return out
}

// CatalogCoarseSweep performs the all-on-all catalog screener's per-step
// loop: batch-propagate the whole catalog, build a 3-D k-d tree
// over the valid positions, query it for all pairs within threshold, and
// register a candidate window for each unique unordered pair exactly as
// CoarseSweep does for the primary/candidate form.
func CatalogCoarseSweep(catalog []*ElementSet, t0 time.Time, window, step time.Duration, thresholdKm float64) []candidateWindow {
	if step <= 0 || window <= 0 || len(catalog) < 2 {
		return nil
	}
	nSteps := int(window / step)
	thresholdSq := thresholdKm * thresholdKm

	open := make(map[pairKey]*candidateWindow)
	var finished []candidateWindow
	var prevT time.Time

	for k := 0; k <= nSteps; k++ {
		tk := t0.Add(time.Duration(k) * step)
		states, valid := PropagateBatch(catalog, tk)

		points := make(kdPoints, 0, len(catalog))
		for i, s := range states {
			if valid[i] {
				points = append(points, kdPoint{coord: s.R, idx: i})
			}
		}

		below := make(map[pairKey]bool)
		if len(points) >= 2 {
			tree := kdtree.New(points, false)
			for _, p := range points {
				keeper := kdtree.NewDistKeeper(thresholdSq)
				tree.NearestSet(keeper, p)
				for _, cd := range keeper.Heap {
					q, ok := cd.Comparable.(kdPoint)
					if !ok || q.idx <= p.idx {
						continue // unordered pair: count each (i<j) once, skip self
					}
					below[pairKey{catalog[p.idx].CatalogNumber, catalog[q.idx].CatalogNumber}] = true
				}
			}
		}

		for pair := range below {
			if w, ok := open[pair]; ok {
				w.End = tk
			} else {
				start := tk
				if k > 0 {
					start = prevT
				}
				open[pair] = &candidateWindow{Pair: pair, Start: start, End: tk}
			}
		}
		for pair, w := range open {
			if !below[pair] {
				if k > 0 {
					w.End = tk
				}
				finished = append(finished, *w)
				delete(open, pair)
			}
		}
		prevT = tk
	}
	for _, w := range open {
		finished = append(finished, *w)
	}
	return finished
}
