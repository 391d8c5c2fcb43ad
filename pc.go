package orbveil

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

const (
	pcRelTol        = 1e-6
	pcMaxQuadDepth  = 24
	mahalanobisFlag = 5.0 // above this, a large 2D Mahalanobis distance flags the Gaussian fit as suspect
)

// ComputePC computes the probability of collision between two objects at
// TCA. pos/vel are ECI km and km/s; cov1/cov2 are each a 6x6
// RTN-or-ECI state covariance (position block in rows/cols 0-2, matching
// the canonical R,T,N,Ṙ,Ṫ,Ṅ / x,y,z,ẋ,ẏ,ż order); hardBodyRadiusM is the
// combined hard-body radius in meters. seed selects the Monte Carlo
// generator's stream and is ignored by the Foster method.
func ComputePC(pos1, vel1, pos2, vel2 [3]float64, cov1, cov2 *mat.SymDense, hardBodyRadiusM float64, method Method, mcSamples int, seed uint64) (PcResult, error) {
	if hardBodyRadiusM <= 0 {
		return PcResult{}, &UsageError{Parameter: "hard_body_radius_m", Reason: "must be positive"}
	}
	if cov1.SymmetricDim() != 6 || cov2.SymmetricDim() != 6 {
		return PcResult{}, &UsageError{Parameter: "cov1/cov2", Reason: "must be 6x6"}
	}

	rRel := sub(pos1, pos2)
	vRel := sub(vel1, vel2)
	frame := BuildEncounterFrame(rRel, vRel)

	combinedPos := combinePositionBlocks(cov1, cov2)
	sigmaB, regularized := ProjectCovariance(combinedPos, frame)

	mx := dot(rRel, frame.X)
	my := dot(rRel, frame.Y)
	mdist, mdOK := MahalanobisDistance2D([2]float64{mx, my}, sigmaB)

	var diag *NumericError
	switch {
	case !mdOK:
		diag = &NumericError{Reason: "Sigma_B singular even after regularization; Mahalanobis distance unavailable"}
	case regularized:
		diag = &NumericError{Reason: "Sigma_B required epsilon regularization before inversion"}
	case mdist > mahalanobisFlag:
		diag = &NumericError{Reason: "Mahalanobis distance exceeds 5; Pc estimate may be unreliable"}
	}

	radiusKm := hardBodyRadiusM / 1000.0
	result := PcResult{
		Method:          method,
		HardBodyRadiusM: hardBodyRadiusM,
		MahalanobisDist: mdist,
		HasMahalanobis:  mdOK,
		Diagnostic:      diag,
	}

	switch method {
	case MonteCarlo:
		n := mcSamples
		if n <= 0 {
			n = DefaultMonteCarloSamples
		}
		pc, err := monteCarloPC(rRel, combinedPos, frame, radiusKm, n, seed)
		if err != nil {
			if ne, ok := err.(*NumericError); ok {
				result.Diagnostic = ne
				return result, nil
			}
			return PcResult{}, err
		}
		result.Probability = pc
		result.SampleCount = n
	default:
		result.Probability = fosterPC(mx, my, sigmaB, radiusKm)
	}
	return result, nil
}

// combinePositionBlocks sums the 3x3 position blocks (rows/cols 0-2) of two
// 6x6 state covariances: "only the position blocks feed the
// projection."
func combinePositionBlocks(cov1, cov2 *mat.SymDense) *mat.SymDense {
	out := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			out.SetSym(i, j, cov1.At(i, j)+cov2.At(i, j))
		}
	}
	return out
}

// fosterPC integrates the bivariate normal density, mean (mx, my), covariance
// sigmaB, over the disk of radius radiusKm centered at the origin, via
// polar-coordinate adaptive quadrature. The angular integral
// uses a plain composite trapezoid rule, which converges spectrally for
// smooth periodic integrands; the radial integral uses adaptive Simpson
// refined to pcRelTol.
func fosterPC(mx, my float64, sigmaB *mat.SymDense, radiusKm float64) float64 {
	var inv mat.Dense
	if err := inv.Inverse(sigmaB); err != nil {
		return 0
	}
	det := sigmaB.At(0, 0)*sigmaB.At(1, 1) - sigmaB.At(0, 1)*sigmaB.At(1, 0)
	if det <= 0 {
		return 0
	}
	normConst := 1.0 / (2 * math.Pi * math.Sqrt(det))
	i00, i01, i11 := inv.At(0, 0), inv.At(0, 1), inv.At(1, 1)

	density := func(x, y float64) float64 {
		dx := x - mx
		dy := y - my
		q := dx*dx*i00 + 2*dx*dy*i01 + dy*dy*i11
		return normConst * math.Exp(-0.5*q)
	}

	const nTheta = 360
	dtheta := 2 * math.Pi / nTheta
	angularIntegral := func(rho float64) float64 {
		if rho == 0 {
			return 0
		}
		sum := 0.0
		for i := 0; i < nTheta; i++ {
			theta := float64(i) * dtheta
			sum += density(rho*math.Cos(theta), rho*math.Sin(theta))
		}
		return sum * dtheta * rho
	}

	pc := adaptiveSimpson(angularIntegral, 0, radiusKm, pcRelTol, pcMaxQuadDepth)
	if pc < 0 {
		pc = 0
	}
	if pc > 1 {
		pc = 1
	}
	return pc
}

// monteCarloPC samples n draws from the 3-D combined position normal
// centered at rRel with covariance combinedPos3, projects each onto the
// encounter frame's (x, y) plane, and returns the fraction landing within
// radiusKm of the origin.
func monteCarloPC(rRel [3]float64, combinedPos3 *mat.SymDense, frame EncounterFrame, radiusKm float64, n int, seed uint64) (float64, error) {
	mu := []float64{rRel[0], rRel[1], rRel[2]}
	src := rand.New(rand.NewSource(int64(seed)))
	normal, ok := distmv.NewNormal(mu, combinedPos3, src)
	if !ok {
		return 0, &NumericError{Reason: "combined position covariance is not positive definite; cannot sample"}
	}
	sample := make([]float64, 3)
	hits := 0
	r2 := radiusKm * radiusKm
	for i := 0; i < n; i++ {
		sample = normal.Rand(sample)
		s := [3]float64{sample[0], sample[1], sample[2]}
		x := dot(s, frame.X)
		y := dot(s, frame.Y)
		if x*x+y*y <= r2 {
			hits++
		}
	}
	return float64(hits) / float64(n), nil
}

// adaptiveSimpson integrates f over [a, b] via recursive adaptive Simpson's
// rule, refining until the local error estimate is within relTol of the
// coarse estimate or maxDepth is exhausted.
func adaptiveSimpson(f func(float64) float64, a, b, relTol float64, maxDepth int) float64 {
	fa, fb := f(a), f(b)
	m := (a + b) / 2
	fm := f(m)
	whole := simpsonRule(fa, fm, fb, a, b)
	return adaptiveSimpsonRec(f, a, b, fa, fm, fb, whole, relTol, maxDepth)
}

func simpsonRule(fa, fm, fb, a, b float64) float64 {
	return (b - a) / 6 * (fa + 4*fm + fb)
}

func adaptiveSimpsonRec(f func(float64) float64, a, b, fa, fm, fb, whole, tol float64, depth int) float64 {
	m := (a + b) / 2
	lm := (a + m) / 2
	rm := (m + b) / 2
	flm := f(lm)
	frm := f(rm)
	left := simpsonRule(fa, flm, fm, a, m)
	right := simpsonRule(fm, frm, fb, m, b)
	diff := left + right - whole
	if depth <= 0 || math.Abs(diff) <= 15*tol*math.Max(math.Abs(whole), 1e-300) {
		return left + right + diff/15
	}
	return adaptiveSimpsonRec(f, a, m, fa, flm, fm, left, tol/2, depth-1) +
		adaptiveSimpsonRec(f, m, b, fm, frm, fb, right, tol/2, depth-1)
}
