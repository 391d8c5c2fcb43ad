package orbveil

import (
	"testing"
	"time"
)

func TestCatalogCoarseSweepFindsCoLocatedPair(t *testing.T) {
	a := testElementSet(t)
	b := testElementSetWithCatalogNumber(t, 11)
	c := testElementSetWithCatalogNumber(t, 12)

	windows := CatalogCoarseSweep([]*ElementSet{a, b, c}, a.Epoch, time.Hour, 10*time.Minute, 1.0)
	if len(windows) == 0 {
		t.Fatalf("expected at least one candidate window among co-located duplicates")
	}
	for _, w := range windows {
		if w.Pair.Primary == w.Pair.Secondary {
			t.Fatalf("pair must not match an object with itself: %+v", w.Pair)
		}
	}
}

func TestCatalogCoarseSweepStaysWithinWindow(t *testing.T) {
	a := testElementSet(t)
	b := testElementSetWithCatalogNumber(t, 14)

	window := 60 * time.Minute
	step := 10 * time.Minute
	windows := CatalogCoarseSweep([]*ElementSet{a, b}, a.Epoch, window, step, 1.0)
	for _, w := range windows {
		if w.End.After(a.Epoch.Add(window)) {
			t.Fatalf("window end %v exceeds requested window bound %v", w.End, a.Epoch.Add(window))
		}
	}
}

func TestCatalogCoarseSweepTooFewObjects(t *testing.T) {
	a := testElementSet(t)
	if out := CatalogCoarseSweep([]*ElementSet{a}, a.Epoch, time.Hour, 10*time.Minute, 1.0); out != nil {
		t.Fatalf("expected nil for a catalog of one object, got %v", out)
	}
}

func TestFilterStaleElementsDropsOldEpochs(t *testing.T) {
	a := testElementSet(t)
	b := testElementSetWithCatalogNumber(t, 13)
	ref := a.Epoch.AddDate(0, 0, 10)

	out := filterStaleElements([]*ElementSet{a, b}, CatalogScreenOptions{MaxTLEAgeDays: 0, ReferenceTime: ref})
	if len(out) != 2 {
		t.Fatalf("MaxTLEAgeDays=0 must disable the filter, got %d elements", len(out))
	}

	out = filterStaleElements([]*ElementSet{a, b}, CatalogScreenOptions{MaxTLEAgeDays: 5, ReferenceTime: ref})
	if len(out) != 0 {
		t.Fatalf("expected both elements dropped as stale (age 10d > max 5d), got %d", len(out))
	}
}

func TestKDPointsPivotPartitionsByDimension(t *testing.T) {
	pts := kdPoints{
		{coord: [3]float64{3, 0, 0}, idx: 0},
		{coord: [3]float64{1, 0, 0}, idx: 1},
		{coord: [3]float64{2, 0, 0}, idx: 2},
	}
	mid := pts.Pivot(0)
	if mid != 1 {
		t.Fatalf("Pivot on 3 elements should return the middle index 1, got %d", mid)
	}
	for i := 0; i < mid; i++ {
		if pts[i].coord[0] > pts[mid].coord[0] {
			t.Fatalf("elements before the pivot must not exceed it: %v vs %v", pts[i], pts[mid])
		}
	}
}
