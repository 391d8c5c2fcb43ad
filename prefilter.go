package orbveil

// Prefilter rejects candidates whose altitude shell cannot overlap the
// primary's within the threshold. The candidate whose catalog
// number equals the primary's is always excluded.
//
// Grounded on orbit.go's Apoapsis/Periapsis a(1±e) formula family,
// generalized from the classical-elements a to the mean-motion-derived a
// this package's ElementSet carries.
func Prefilter(primary *ElementSet, candidates []*ElementSet, thresholdKm float64) []*ElementSet {
	pApo := primary.ApogeeAltitudeKm()
	pPer := primary.PerigeeAltitudeKm()
	loP := pPer - thresholdKm
	hiP := pApo + thresholdKm

	out := make([]*ElementSet, 0, len(candidates))
	for _, c := range candidates {
		if c.CatalogNumber == primary.CatalogNumber {
			continue
		}
		cApo := c.ApogeeAltitudeKm()
		cPer := c.PerigeeAltitudeKm()
		loC := cPer - thresholdKm
		hiC := cApo + thresholdKm
		if shellsOverlap(loP, hiP, loC, hiC) {
			out = append(out, c)
		}
	}
	return out
}

func shellsOverlap(lo1, hi1, lo2, hi2 float64) bool {
	return lo1 <= hi2 && lo2 <= hi1
}
