package orbveil

import (
	"math"
	"time"

	gosatellite "github.com/joshuaferrara/go-satellite"
)

// PropagateOne produces a State at each requested instant for a single
// element set. Times must be UTC-aware; the caller is
// responsible for that (we call .UTC() defensively since the zone itself
// carries no information loss risk here).
//
// Fails with *PropagationError if the underlying SGP4 model rejects any
// requested instant; the failing instant is reported and no further times
// are evaluated.
func PropagateOne(e *ElementSet, times []time.Time) ([]State, error) {
	states := make([]State, 0, len(times))
	for _, t := range times {
		s, code := propagateSGP4(e.sat, t.UTC())
		if code != 0 {
			return states, &PropagationError{CatalogNumber: e.CatalogNumber, At: t, Code: code}
		}
		states = append(states, s)
	}
	return states, nil
}

// PropagateBatch evaluates N element sets at one instant in a single call.
// Individual failures set valid[i] = false and leave row i holding whatever
// the propagator returned, which is not meaningful; the call itself never
// fails. This is the
// vectorization point that dominates cost at catalog scale —
// go-satellite does not offer an array-SGP4 entry point, so "batch" here
// means "one loop, no per-object error propagation," keeping the batch
// and single-instant entry points at the same API boundary even though the
// underlying library call is scalar.
func PropagateBatch(elements []*ElementSet, at time.Time) ([]State, []bool) {
	states := make([]State, len(elements))
	valid := make([]bool, len(elements))
	atUTC := at.UTC()
	for i, e := range elements {
		s, code := propagateSGP4(e.sat, atUTC)
		states[i] = s
		valid[i] = code == 0
	}
	return states, valid
}

// propagateSGP4 calls the underlying SGP4 propagator. go-satellite reports a
// rejected instant (decayed orbit, numerical breakdown of the analytic
// theory, etc.) by returning non-finite or identically-zero vectors rather
// than a Go error value, so that is what we treat as "a non-zero error
// code" when reporting failures; the code
// reported on PropagationError is a fixed sentinel (1) since go-satellite
// does not expose the underlying SGP4 numeric error code to callers.
func propagateSGP4(sat gosatellite.Satellite, at time.Time) (State, int) {
	y, mo, d := at.Year(), int(at.Month()), at.Day()
	h, mi, sec := at.Hour(), at.Minute(), at.Second()
	pos, vel := gosatellite.Propagate(sat, y, mo, d, h, mi, sec)
	r := [3]float64{pos.X, pos.Y, pos.Z}
	v := [3]float64{vel.X, vel.Y, vel.Z}
	ok := finite3(r) && finite3(v) && norm(r) > 1.0
	code := 0
	if !ok {
		code = 1
	}
	s := State{At: at, R: r, V: v, Valid: ok}
	return s, code
}

func finite3(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
