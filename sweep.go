package orbveil

import "time"

// pairKey identifies an ordered (primary, secondary) pair.
type pairKey struct {
	Primary, Secondary int
}

// candidateWindow is a detected approach window for one pair, before
// refinement.
type candidateWindow struct {
	Pair  pairKey
	Start time.Time
	End   time.Time
}

// CoarseSweep steps through [t0, t0+window] at cadence step, batch
// propagating primaries ∪ candidates once per step, and emits a candidate
// window for every (primary, candidate) pair whose distance drops below
// threshold at that step. Adjacent windows for the same pair are merged
// into one.
//
// Grounded on mission.go's step-loop structure (propagate, then evaluate,
// then advance), reduced to the pure batch-propagate-and-scan form we
// want here — no channel streaming, no per-step side effects.
func CoarseSweep(primaries, candidates []*ElementSet, t0 time.Time, window, step time.Duration, thresholdKm float64) []candidateWindow {
	if step <= 0 || window <= 0 {
		return nil
	}
	all := make([]*ElementSet, 0, len(primaries)+len(candidates))
	all = append(all, primaries...)
	all = append(all, candidates...)
	primaryIdx := len(primaries)

	nSteps := int(window / step)
	// open[pair] tracks the currently-open window's start/prev-step time.
	open := make(map[pairKey]*candidateWindow)
	var finished []candidateWindow

	var prevT time.Time
	for k := 0; k <= nSteps; k++ {
		tk := t0.Add(time.Duration(k) * step)
		states, valid := PropagateBatch(all, tk)

		below := make(map[pairKey]bool)
		for pi := 0; pi < primaryIdx; pi++ {
			if !valid[pi] {
				continue
			}
			for ci := primaryIdx; ci < len(all); ci++ {
				if !valid[ci] {
					continue
				}
				d := norm(sub(states[pi].R, states[ci].R))
				if d < thresholdKm {
					below[pairKey{all[pi].CatalogNumber, all[ci].CatalogNumber}] = true
				}
			}
		}

		for pair, hit := range below {
			if !hit {
				continue
			}
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
		// Close windows for pairs that are no longer below threshold this step.
		for pair, w := range open {
			if !below[pair] {
				end := w.End
				if k > 0 {
					end = tk // extend one step past the last hit, per (t_{k-1}, t_{k+1})
				}
				w.End = end
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
