package orbveil

import (
	"sync"

	"github.com/spf13/viper"
)

// Defaults holds operational defaults read from environment variables,
// following config.go's viper-backed singleton pattern (trimmed of the
// SPICE/Horizons/Meeus concerns that do not apply to this domain — there is
// no external ephemeris service to configure). Screen and ScreenCatalog take
// every parameter explicitly and do not consult these values.
type Defaults struct {
	WindowDays      float64
	ThresholdKm     float64
	StepMinutes     float64
	MaxTLEAgeDays   float64 // 0 means "unset, no filter"
	DedupWindowMins float64
}

var (
	defaultsOnce   sync.Once
	defaultsLoaded Defaults
)

// defaultsConfig returns the process-wide Defaults, reading
// ORBVEIL_THRESHOLD_KM / ORBVEIL_STEP_MINUTES / ORBVEIL_WINDOW_DAYS /
// ORBVEIL_MAX_TLE_AGE_DAYS / ORBVEIL_DEDUP_WINDOW_MINUTES from the
// environment on first use. Unlike smd's smdConfig(), a missing
// environment variable never panics: every field has a safe built-in
// default.
func defaultsConfig() Defaults {
	defaultsOnce.Do(func() {
		v := viper.New()
		v.SetEnvPrefix("ORBVEIL")
		v.AutomaticEnv()
		v.SetDefault("window_days", DefaultWindowDays)
		v.SetDefault("threshold_km", DefaultThresholdKm)
		v.SetDefault("step_minutes", DefaultStepMinutes)
		v.SetDefault("max_tle_age_days", 0.0)
		v.SetDefault("dedup_window_minutes", DefaultDedupWindow.Minutes())
		defaultsLoaded = Defaults{
			WindowDays:      v.GetFloat64("window_days"),
			ThresholdKm:     v.GetFloat64("threshold_km"),
			StepMinutes:     v.GetFloat64("step_minutes"),
			MaxTLEAgeDays:   v.GetFloat64("max_tle_age_days"),
			DedupWindowMins: v.GetFloat64("dedup_window_minutes"),
		}
	})
	return defaultsLoaded
}
