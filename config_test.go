package orbveil

import "testing"

func TestDefaultsConfigFallsBackToConstants(t *testing.T) {
	d := defaultsConfig()
	if d.WindowDays != DefaultWindowDays {
		t.Errorf("WindowDays = %v, want %v", d.WindowDays, DefaultWindowDays)
	}
	if d.ThresholdKm != DefaultThresholdKm {
		t.Errorf("ThresholdKm = %v, want %v", d.ThresholdKm, DefaultThresholdKm)
	}
	if d.StepMinutes != DefaultStepMinutes {
		t.Errorf("StepMinutes = %v, want %v", d.StepMinutes, DefaultStepMinutes)
	}
}
