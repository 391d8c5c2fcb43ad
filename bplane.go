package orbveil

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// covRegularizationEps is added to the diagonal of a singular or
// near-singular 2x2 projected covariance before inversion.
const covRegularizationEps = 1e-12

// EncounterFrame is the right-handed basis (x, y, z) at TCA used to project
// the combined covariance onto the B-plane. Z is along the
// relative velocity; X and Y span the plane perpendicular to it.
type EncounterFrame struct {
	X, Y, Z [3]float64
}

// BuildEncounterFrame constructs the encounter frame from the relative
// position and velocity at TCA. Z points along v_r; X is r_r projected
// perpendicular to Z and normalized; Y completes the right-handed set.
//
// When ||v_r|| falls below minRelativeSpeedKmS (near-tangential or
// co-moving encounters), Z falls back to the relative position direction
// itself, since the velocity direction is no longer numerically meaningful.
func BuildEncounterFrame(rRel, vRel [3]float64) EncounterFrame {
	var z [3]float64
	if norm(vRel) < minRelativeSpeedKmS {
		z = unit(rRel)
	} else {
		z = unit(vRel)
	}

	xRaw := sub(rRel, scale(dot(rRel, z), z))
	var x [3]float64
	if norm(xRaw) < minRelativeSpeedKmS {
		// r_r is (anti)parallel to z: pick any vector perpendicular to z.
		arbitrary := [3]float64{1, 0, 0}
		if math.Abs(dot(arbitrary, z)) > 0.9 {
			arbitrary = [3]float64{0, 1, 0}
		}
		x = unit(sub(arbitrary, scale(dot(arbitrary, z), z)))
	} else {
		x = unit(xRaw)
	}
	y := cross(z, x)
	return EncounterFrame{X: x, Y: y, Z: z}
}

// ProjectCovariance projects the combined 3x3 position covariance (the
// summed position blocks of the two 6x6 state covariances, see
// combinePositionBlocks) onto the encounter plane's (x, y) axes, returning
// the 2x2 B-plane covariance and whether it had to be regularized.
//
// Only position terms are projected: the B-plane is a position-projection
// device, and cross position-velocity terms do not enter a point-in-plane
// covariance.
func ProjectCovariance(combinedPosCov *mat.SymDense, frame EncounterFrame) (*mat.SymDense, bool) {
	proj := mat.NewDense(2, 3, []float64{
		frame.X[0], frame.X[1], frame.X[2],
		frame.Y[0], frame.Y[1], frame.Y[2],
	})
	var tmp mat.Dense
	tmp.Mul(proj, combinedPosCov)
	var sigmaB mat.Dense
	sigmaB.Mul(&tmp, proj.T())

	out := mat.NewSymDense(2, []float64{
		sigmaB.At(0, 0), sigmaB.At(0, 1),
		sigmaB.At(1, 0), sigmaB.At(1, 1),
	})
	regularized := regularizeIfSingular(out)
	return out, regularized
}

// regularizeIfSingular adds covRegularizationEps to the diagonal in place
// when the matrix is (near-)singular, so downstream inversion never panics.
// Reports whether it had to do so.
func regularizeIfSingular(m *mat.SymDense) bool {
	var chol mat.Cholesky
	if chol.Factorize(m) {
		return false
	}
	m.SetSym(0, 0, m.At(0, 0)+covRegularizationEps)
	m.SetSym(1, 1, m.At(1, 1)+covRegularizationEps)
	return true
}

// MahalanobisDistance2D returns the Mahalanobis distance of the miss vector
// (the B-plane projection of the relative position at TCA) with respect to
// sigmaB.
func MahalanobisDistance2D(missXY [2]float64, sigmaB *mat.SymDense) (float64, bool) {
	var inv mat.Dense
	if err := inv.Inverse(sigmaB); err != nil {
		return 0, false
	}
	v := mat.NewVecDense(2, missXY[:])
	var tmp mat.VecDense
	tmp.MulVec(&inv, v)
	md2 := mat.Dot(v, &tmp)
	if md2 < 0 {
		return 0, false
	}
	return math.Sqrt(md2), true
}

// RTNToECIRotation builds the 6x6 block-diagonal rotation that
// RotateCovarianceRTNToECI uses to carry an RTN-frame state covariance into
// ECI, given the object's ECI position and
// velocity at the covariance epoch. R̂ = r̂,
// N̂ = (r×v)/‖r×v‖, T̂ = N̂×R̂; the 6x6 matrix is diag(M, M) with
// M = [R̂; T̂; N̂] (rows).
//
// This lives on the Pc boundary rather than the CDM reader: a CDM's RTN
// covariance is only meaningful once paired with the state it describes.
func RTNToECIRotation(r, v [3]float64) *mat.Dense {
	rHat := unit(r)
	h := cross(r, v)
	nHat := unit(h)
	tHat := cross(nHat, rHat)

	m := mat.NewDense(3, 3, []float64{
		rHat[0], rHat[1], rHat[2],
		tHat[0], tHat[1], tHat[2],
		nHat[0], nHat[1], nHat[2],
	})

	out := mat.NewDense(6, 6, nil)
	out.Slice(0, 3, 0, 3).(*mat.Dense).Copy(m)
	out.Slice(3, 6, 3, 6).(*mat.Dense).Copy(m)
	return out
}

// RotateCovarianceRTNToECI applies M^T·Σ_RTN·M using the rotation from
// RTNToECIRotation: M's rows are the RTN axes in ECI components, so M^T
// carries RTN components into ECI.
func RotateCovarianceRTNToECI(covRTN *mat.SymDense, rotation *mat.Dense) *mat.SymDense {
	n := covRTN.SymmetricDim()
	var tmp mat.Dense
	tmp.Mul(rotation.T(), covRTN)
	var rotated mat.Dense
	rotated.Mul(&tmp, rotation)

	data := make([]float64, n*n)
	out := mat.NewSymDense(n, data)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, rotated.At(i, j))
		}
	}
	return out
}
