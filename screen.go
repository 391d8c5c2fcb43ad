package orbveil

import "time"

// ScreenOptions carries the ambient collaborators used by Screen and
// ScreenCatalog; callers may leave either zero-valued.
type ScreenOptions struct {
	Clock  Clock
	Logger Logger
}

func resolveScreenOptions(opts ScreenOptions) ScreenOptions {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger()
	}
	return opts
}

// Screen screens one or more primary element sets against a catalog over a
// forward window: geometric prefilter, coarse sweep,
// TCA refinement, then deduplication, run independently per primary and
// merged into one sorted list.
func Screen(primaries, catalog []*ElementSet, days, thresholdKm, stepMinutes float64, opts ScreenOptions) ([]ConjunctionEvent, error) {
	if days <= 0 {
		return nil, &UsageError{Parameter: "days", Reason: "must be positive"}
	}
	if thresholdKm <= 0 {
		return nil, &UsageError{Parameter: "threshold_km", Reason: "must be positive"}
	}
	if stepMinutes <= 0 {
		return nil, &UsageError{Parameter: "step_minutes", Reason: "must be positive"}
	}
	if len(primaries) == 0 {
		return nil, &UsageError{Parameter: "primary", Reason: "must supply at least one element set"}
	}

	cfg := resolveScreenOptions(opts)
	log := cfg.Logger
	t0 := cfg.Clock.Now()
	window := time.Duration(days * 24 * float64(time.Hour))
	step := time.Duration(stepMinutes * float64(time.Minute))

	logInfo(log, "msg", "screening started", "primaries", len(primaries), "catalog", len(catalog), "days", days, "threshold_km", thresholdKm)

	var events []ConjunctionEvent
	for _, p := range primaries {
		candidates := Prefilter(p, catalog, thresholdKm)
		byNum := indexByCatalogNumber(candidates)
		windows := CoarseSweep([]*ElementSet{p}, candidates, t0, window, step, thresholdKm)
		for _, w := range windows {
			secondary := byNum[w.Pair.Secondary]
			if secondary == nil {
				continue
			}
			res := RefineTCA(p, secondary, w, DefaultTCATargetSeconds)
			if res.Dropped {
				logWarn(log, "msg", "dropped candidate pair after refinement failure", "primary", w.Pair.Primary, "secondary", w.Pair.Secondary)
				continue
			}
			events = append(events, res.Event)
		}
	}

	deduped := DedupEvents(events, DefaultDedupWindow)
	logInfo(log, "msg", "screening finished", "events", len(deduped))
	return deduped, nil
}

// ScreenCatalog performs all-on-all screening within a single catalog,
// with an optional stale-TLE pre-filter.
func ScreenCatalog(catalog []*ElementSet, hours, stepMinutes, thresholdKm float64, maxTLEAgeDays *float64, referenceTime *time.Time, opts ScreenOptions) ([]ConjunctionEvent, error) {
	if hours <= 0 {
		return nil, &UsageError{Parameter: "hours", Reason: "must be positive"}
	}
	if thresholdKm <= 0 {
		return nil, &UsageError{Parameter: "threshold_km", Reason: "must be positive"}
	}
	if stepMinutes <= 0 {
		return nil, &UsageError{Parameter: "step_minutes", Reason: "must be positive"}
	}

	cfg := resolveScreenOptions(opts)
	log := cfg.Logger
	t0 := cfg.Clock.Now()
	ref := t0
	if referenceTime != nil {
		ref = referenceTime.UTC()
	}

	staleOpts := CatalogScreenOptions{ReferenceTime: ref, Logger: log}
	if maxTLEAgeDays != nil {
		staleOpts.MaxTLEAgeDays = *maxTLEAgeDays
	}
	active := filterStaleElements(catalog, staleOpts)

	window := time.Duration(hours * float64(time.Hour))
	step := time.Duration(stepMinutes * float64(time.Minute))

	logInfo(log, "msg", "catalog screening started", "catalog", len(active), "hours", hours, "threshold_km", thresholdKm)

	byNum := indexByCatalogNumber(active)
	windows := CatalogCoarseSweep(active, t0, window, step, thresholdKm)

	var events []ConjunctionEvent
	for _, w := range windows {
		p := byNum[w.Pair.Primary]
		s := byNum[w.Pair.Secondary]
		if p == nil || s == nil {
			continue
		}
		res := RefineTCA(p, s, w, DefaultTCATargetSeconds)
		if res.Dropped {
			logWarn(log, "msg", "dropped candidate pair after refinement failure", "primary", w.Pair.Primary, "secondary", w.Pair.Secondary)
			continue
		}
		events = append(events, res.Event)
	}

	deduped := DedupEvents(events, DefaultDedupWindow)
	logInfo(log, "msg", "catalog screening finished", "events", len(deduped))
	return deduped, nil
}

func indexByCatalogNumber(elements []*ElementSet) map[int]*ElementSet {
	out := make(map[int]*ElementSet, len(elements))
	for _, e := range elements {
		out[e.CatalogNumber] = e
	}
	return out
}
