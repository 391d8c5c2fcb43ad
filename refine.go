package orbveil

import (
	"math"
	"sort"
	"time"
)

const goldenRatio = 0.6180339887498949

// RefineResult is the outcome of bisecting a single candidate window.
type RefineResult struct {
	Event   ConjunctionEvent
	Dropped bool // true if a propagation failure forced this pair to be dropped
}

// RefineTCA bisects a candidate window via golden-section search on the
// scalar distance function d(t) = ||r_primary(t) - r_secondary(t)||,
// terminating once the bracket width falls below targetSeconds.
// Each probed instant is propagated with a single direct PropagateOne call
// per object, not a batch call sized 1.
//
// A propagation failure inside the search is reported via Dropped=true and
// does not panic — the caller logs a WARNING and continues.
func RefineTCA(primary, secondary *ElementSet, w candidateWindow, targetSeconds float64) RefineResult {
	distAt := func(t time.Time) (float64, [3]float64, [3]float64, bool) {
		sp, err := PropagateOne(primary, []time.Time{t})
		if err != nil || len(sp) == 0 || !sp[0].Valid {
			return math.Inf(1), [3]float64{}, [3]float64{}, false
		}
		ss, err := PropagateOne(secondary, []time.Time{t})
		if err != nil || len(ss) == 0 || !ss[0].Valid {
			return math.Inf(1), [3]float64{}, [3]float64{}, false
		}
		d := norm(sub(sp[0].R, ss[0].R))
		return d, sp[0].V, ss[0].V, true
	}

	a := w.Start
	b := w.End
	if !b.After(a) {
		b = a.Add(time.Second)
	}

	target := time.Duration(targetSeconds * float64(time.Second))
	var lastVP, lastVS [3]float64
	var lastOK bool
	var bestT time.Time
	bestD := math.Inf(1)

	for b.Sub(a) > target {
		span := b.Sub(a)
		c := a.Add(time.Duration(float64(span) * (1 - goldenRatio)))
		d := a.Add(time.Duration(float64(span) * goldenRatio))

		dc, vpC, vsC, okC := distAt(c)
		dd, vpD, vsD, okD := distAt(d)
		if !okC && !okD {
			return RefineResult{Dropped: true}
		}
		if dc <= dd {
			b = d
			if dc < bestD {
				bestD, bestT, lastVP, lastVS, lastOK = dc, c, vpC, vsC, okC
			}
		} else {
			a = c
			if dd < bestD {
				bestD, bestT, lastVP, lastVS, lastOK = dd, d, vpD, vsD, okD
			}
		}
	}
	// Final check at the midpoint of the remaining bracket.
	mid := a.Add(b.Sub(a) / 2)
	dm, vpM, vsM, okM := distAt(mid)
	if okM && dm < bestD {
		bestD, bestT, lastVP, lastVS, lastOK = dm, mid, vpM, vsM, okM
	}
	if !lastOK || math.IsInf(bestD, 1) {
		return RefineResult{Dropped: true}
	}

	relSpeed := norm(sub(lastVP, lastVS))
	return RefineResult{
		Event: ConjunctionEvent{
			Primary:       primary.CatalogNumber,
			Secondary:     secondary.CatalogNumber,
			TCA:           bestT,
			MissDistance:  bestD,
			RelativeSpeed: relSpeed,
		},
	}
}

// DedupEvents collapses events for the same ordered pair into clusters,
// taken in TCA order, where each event's TCA lies within window of the
// previous event's (so a chain of close events forms one cluster even if
// its ends are further apart), keeping the smallest miss distance, then
// sorts the result by miss distance ascending. Event records
// are treated as immutable; this returns a new slice rather than mutating
// entries in place.
func DedupEvents(events []ConjunctionEvent, window time.Duration) []ConjunctionEvent {
	byPair := make(map[pairKey][]ConjunctionEvent)
	order := make([]pairKey, 0)
	for _, e := range events {
		k := pairKey{e.Primary, e.Secondary}
		if _, seen := byPair[k]; !seen {
			order = append(order, k)
		}
		byPair[k] = append(byPair[k], e)
	}

	var out []ConjunctionEvent
	for _, k := range order {
		group := byPair[k]
		sort.Slice(group, func(i, j int) bool { return group[i].TCA.Before(group[j].TCA) })
		var clusters [][]ConjunctionEvent
		for _, e := range group {
			if len(clusters) > 0 {
				last := clusters[len(clusters)-1]
				if e.TCA.Sub(last[len(last)-1].TCA) <= window {
					clusters[len(clusters)-1] = append(last, e)
					continue
				}
			}
			clusters = append(clusters, []ConjunctionEvent{e})
		}
		for _, cl := range clusters {
			best := cl[0]
			for _, e := range cl[1:] {
				if e.MissDistance < best.MissDistance {
					best = e
				}
			}
			out = append(out, best)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MissDistance < out[j].MissDistance })
	return out
}
