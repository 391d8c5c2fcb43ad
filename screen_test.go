package orbveil

import "testing"

func TestScreenRejectsInvalidParameters(t *testing.T) {
	p := testElementSet(t)
	cases := []struct {
		days, threshold, step float64
	}{
		{0, 10, 10},
		{7, 0, 10},
		{7, 10, 0},
	}
	for _, c := range cases {
		_, err := Screen([]*ElementSet{p}, nil, c.days, c.threshold, c.step, ScreenOptions{})
		if _, ok := err.(*UsageError); !ok {
			t.Fatalf("days=%v threshold=%v step=%v: expected *UsageError, got %v", c.days, c.threshold, c.step, err)
		}
	}
}

func TestScreenFindsCoLocatedCatalogMember(t *testing.T) {
	primary := testElementSet(t)
	candidate := testElementSetWithCatalogNumber(t, 21)
	clock := FixedClock{At: primary.Epoch}

	events, err := Screen([]*ElementSet{primary}, []*ElementSet{candidate}, 0.1, 1.0, 10, ScreenOptions{Clock: clock})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected at least one event for a co-located candidate")
	}
	for i := 1; i < len(events); i++ {
		if events[i].MissDistance < events[i-1].MissDistance {
			t.Fatalf("events not sorted by ascending miss distance: %+v", events)
		}
	}
}

func TestScreenCatalogRejectsInvalidParameters(t *testing.T) {
	_, err := ScreenCatalog(nil, 0, 10, 1.0, nil, nil, ScreenOptions{})
	if _, ok := err.(*UsageError); !ok {
		t.Fatalf("expected *UsageError for zero hours, got %v", err)
	}
}

func TestScreenCatalogFindsCoLocatedPair(t *testing.T) {
	a := testElementSet(t)
	b := testElementSetWithCatalogNumber(t, 22)
	clock := FixedClock{At: a.Epoch}

	events, err := ScreenCatalog([]*ElementSet{a, b}, 1.0, 10, 1.0, nil, nil, ScreenOptions{Clock: clock})
	if err != nil {
		t.Fatalf("ScreenCatalog: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected the co-located pair to be detected")
	}
}

func TestScreenCatalogHonorsStaleFilter(t *testing.T) {
	a := testElementSet(t)
	b := testElementSetWithCatalogNumber(t, 23)
	ref := a.Epoch.AddDate(0, 0, 30)
	maxAge := 1.0

	events, err := ScreenCatalog([]*ElementSet{a, b}, 1.0, 10, 1.0, &maxAge, &ref, ScreenOptions{})
	if err != nil {
		t.Fatalf("ScreenCatalog: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events once both elements are filtered as stale, got %d", len(events))
	}
}
