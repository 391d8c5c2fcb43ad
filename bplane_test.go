package orbveil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestBuildEncounterFrameOrthonormal(t *testing.T) {
	rRel := [3]float64{1, 0.2, -0.3}
	vRel := [3]float64{0.01, 7.5, 0.02}
	frame := BuildEncounterFrame(rRel, vRel)

	for _, v := range [][3]float64{frame.X, frame.Y, frame.Z} {
		if n := norm(v); math.Abs(n-1) > 1e-9 {
			t.Fatalf("expected unit vector, got norm %v for %v", n, v)
		}
	}
	if d := dot(frame.X, frame.Z); math.Abs(d) > 1e-9 {
		t.Fatalf("x.z = %v, want ~0", d)
	}
	if d := dot(frame.X, frame.Y); math.Abs(d) > 1e-9 {
		t.Fatalf("x.y = %v, want ~0", d)
	}
	if got := cross(frame.X, frame.Y); norm(sub(got, frame.Z)) > 1e-9 {
		t.Fatalf("frame is not right-handed: x cross y = %v, want z = %v", got, frame.Z)
	}
}

func TestBuildEncounterFrameFallsBackOnZeroRelativeVelocity(t *testing.T) {
	rRel := [3]float64{5, 0, 0}
	vRel := [3]float64{0, 0, 0}
	frame := BuildEncounterFrame(rRel, vRel)
	if math.Abs(norm(frame.Z)-1) > 1e-9 {
		t.Fatalf("expected a unit fallback z axis, got %v", frame.Z)
	}
	if d := dot(frame.X, frame.Z); math.Abs(d) > 1e-9 {
		t.Fatalf("fallback frame not perpendicular: x.z = %v", d)
	}
}

func TestProjectCovarianceDiagonal(t *testing.T) {
	// An isotropic 3x3 covariance projects to an isotropic 2x2 regardless
	// of the chosen orthonormal frame.
	pos := mat.NewSymDense(3, []float64{
		2, 0, 0,
		0, 2, 0,
		0, 0, 2,
	})
	frame := EncounterFrame{X: [3]float64{1, 0, 0}, Y: [3]float64{0, 1, 0}, Z: [3]float64{0, 0, 1}}
	sigmaB, regularized := ProjectCovariance(pos, frame)
	if regularized {
		t.Fatalf("a well-conditioned isotropic covariance should not need regularization")
	}
	if math.Abs(sigmaB.At(0, 0)-2) > 1e-9 || math.Abs(sigmaB.At(1, 1)-2) > 1e-9 {
		t.Fatalf("expected diag(2,2), got [%v %v; %v %v]", sigmaB.At(0, 0), sigmaB.At(0, 1), sigmaB.At(1, 0), sigmaB.At(1, 1))
	}
	if math.Abs(sigmaB.At(0, 1)) > 1e-9 {
		t.Fatalf("expected zero off-diagonal, got %v", sigmaB.At(0, 1))
	}
}

func TestProjectCovarianceRegularizesSingular(t *testing.T) {
	pos := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 0, 0,
		0, 0, 1,
	})
	frame := EncounterFrame{X: [3]float64{0, 1, 0}, Y: [3]float64{0, 0, 1}, Z: [3]float64{1, 0, 0}}
	sigmaB, regularized := ProjectCovariance(pos, frame)
	if !regularized {
		t.Fatalf("expected a singular projected covariance to be regularized")
	}
	if _, ok := MahalanobisDistance2D([2]float64{0.1, 0.1}, sigmaB); !ok {
		t.Fatalf("expected regularized covariance to be invertible")
	}
}

func TestMahalanobisDistanceZeroAtMean(t *testing.T) {
	sigmaB := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	d, ok := MahalanobisDistance2D([2]float64{0, 0}, sigmaB)
	if !ok {
		t.Fatalf("expected a valid Mahalanobis distance")
	}
	if d != 0 {
		t.Fatalf("Mahalanobis distance at the mean should be 0, got %v", d)
	}
}

func TestRTNToECIRotationIsOrthonormalBlock(t *testing.T) {
	r := [3]float64{7000, 0, 0}
	v := [3]float64{0, 7.5, 1.0}
	rot := RTNToECIRotation(r, v)

	var gram mat.Dense
	top := rot.Slice(0, 3, 0, 3)
	gram.Mul(top, top.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(gram.At(i, j)-want) > 1e-9 {
				t.Fatalf("rotation block is not orthonormal at (%d,%d): %v", i, j, gram.At(i, j))
			}
		}
	}
}
