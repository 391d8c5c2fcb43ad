package orbveil

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	gosatellite "github.com/joshuaferrara/go-satellite"
)

// ElementSet is an immutable record of one object's mean orbital elements
// plus a precomputed propagator handle. Constructed once by
// ParseTLEs; never mutated afterward.
type ElementSet struct {
	CatalogNumber  int
	IntlDesignator string
	Epoch          time.Time // UTC

	InclinationDeg float64
	RAANDeg        float64
	Eccentricity   float64
	ArgPerigeeDeg  float64
	MeanAnomalyDeg float64
	MeanMotionRevD float64 // revolutions per day
	Drag           float64 // BSTAR drag term

	sat gosatellite.Satellite // opaque propagator handle, bound at construction
}

// ParseTLEOptions controls tolerant TLE scanning.
type ParseTLEOptions struct {
	// VerifyChecksum opts into TLE checksum validation.
	// Off by default.
	VerifyChecksum bool
	Logger         Logger
}

// ParseTLEs scans a text stream containing one or more TLEs in two- or
// three-line form. Lines that do not parse as a TLE pair are
// skipped rather than aborting the whole catalog load. A WARNING with a
// running count is logged when a line-2 has no preceding line-1, when a
// pair fails to parse, or when a line-1 is followed by a non-TLE line;
// name lines, other non-TLE lines between pairs, and a line-1 directly
// followed by another line-1 are dropped without a warning.
func ParseTLEs(r io.Reader, opts ParseTLEOptions) ([]*ElementSet, error) {
	log := opts.Logger
	if log == nil {
		log = nopLogger()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending string // line 1 candidate, name line dropped
	var sets []*ElementSet
	skipped := 0
	lineNo := 0

	flushSkip := func(reason string) {
		skipped++
		logWarn(log, "msg", "skipped unparseable TLE line", "reason", reason, "count", skipped)
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \r\t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "1 ") && len(trimmed) >= 60:
			pending = trimmed
		case strings.HasPrefix(trimmed, "2 ") && len(trimmed) >= 60:
			if pending == "" {
				flushSkip(fmt.Sprintf("line %d: line-2 with no preceding line-1", lineNo))
				continue
			}
			es, err := parseTLEPair(pending, trimmed, opts.VerifyChecksum)
			pending = ""
			if err != nil {
				flushSkip(fmt.Sprintf("line %d: %s", lineNo, err))
				continue
			}
			sets = append(sets, es)
		default:
			// Name line (three-line form) or garbage; either way it is
			// not a TLE line itself, so just drop it.
			if pending != "" {
				flushSkip(fmt.Sprintf("line %d: expected line-2, got %q", lineNo, trimmed))
				pending = ""
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return sets, errors.Wrap(err, "reading TLE stream")
	}
	return sets, nil
}

func parseTLEPair(line1, line2 string, verifyChecksum bool) (*ElementSet, error) {
	if len(line1) < 69 || len(line2) < 69 {
		return nil, errors.New("line too short for standard TLE columns")
	}
	if verifyChecksum {
		if err := verifyTLEChecksum(line1); err != nil {
			return nil, errors.Wrap(err, "line 1 checksum")
		}
		if err := verifyTLEChecksum(line2); err != nil {
			return nil, errors.Wrap(err, "line 2 checksum")
		}
	}

	catNum, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return nil, errors.Wrap(err, "catalog number")
	}
	intlDesig := strings.TrimSpace(line1[9:17])
	epoch, err := parseTLEEpoch(line1[18:32])
	if err != nil {
		return nil, errors.Wrap(err, "epoch")
	}
	drag, err := parseTLEDecimalAssumed(strings.TrimSpace(line1[53:61]))
	if err != nil {
		return nil, errors.Wrap(err, "bstar drag term")
	}

	catNum2, err := strconv.Atoi(strings.TrimSpace(line2[2:7]))
	if err != nil {
		return nil, errors.Wrap(err, "line 2 catalog number")
	}
	if catNum2 != catNum {
		return nil, errors.New("line 1/line 2 catalog number mismatch")
	}
	inc, err := strconv.ParseFloat(strings.TrimSpace(line2[8:16]), 64)
	if err != nil {
		return nil, errors.Wrap(err, "inclination")
	}
	raan, err := strconv.ParseFloat(strings.TrimSpace(line2[17:25]), 64)
	if err != nil {
		return nil, errors.Wrap(err, "raan")
	}
	eccStr := "0." + strings.TrimSpace(line2[26:33])
	ecc, err := strconv.ParseFloat(eccStr, 64)
	if err != nil {
		return nil, errors.Wrap(err, "eccentricity")
	}
	argp, err := strconv.ParseFloat(strings.TrimSpace(line2[34:42]), 64)
	if err != nil {
		return nil, errors.Wrap(err, "argument of perigee")
	}
	ma, err := strconv.ParseFloat(strings.TrimSpace(line2[43:51]), 64)
	if err != nil {
		return nil, errors.Wrap(err, "mean anomaly")
	}
	mm, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil {
		return nil, errors.Wrap(err, "mean motion")
	}

	if mm <= 0 {
		return nil, errors.New("mean motion must be positive")
	}
	if ecc < 0 || ecc >= 1 {
		return nil, errors.New("eccentricity must be in [0, 1)")
	}
	if epoch.Location() != time.UTC {
		epoch = epoch.UTC()
	}

	sat := gosatellite.TLEToSat(line1, line2, gosatellite.GravityWGS84)

	return &ElementSet{
		CatalogNumber:  catNum,
		IntlDesignator: intlDesig,
		Epoch:          epoch,
		InclinationDeg: canonicalDeg(inc),
		RAANDeg:        canonicalDeg(raan),
		Eccentricity:   ecc,
		ArgPerigeeDeg:  canonicalDeg(argp),
		MeanAnomalyDeg: canonicalDeg(ma),
		MeanMotionRevD: mm,
		Drag:           drag,
		sat:            sat,
	}, nil
}

// parseTLEEpoch decodes the TLE epoch field "YYDDD.DDDDDDDD" into a UTC time.
func parseTLEEpoch(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if len(field) < 5 {
		return time.Time{}, errors.New("epoch field too short")
	}
	yy, err := strconv.Atoi(field[:2])
	if err != nil {
		return time.Time{}, errors.Wrap(err, "epoch year")
	}
	dayFrac, err := strconv.ParseFloat(field[2:], 64)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "epoch day")
	}
	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	days := dayFrac - 1 // day 1 == Jan 1st
	return jan1.Add(time.Duration(days * float64(24*time.Hour))), nil
}

// parseTLEDecimalAssumed decodes TLE's "decimal-point-assumed" exponential
// notation from an already-trimmed field, e.g. "12345-3" => 0.12345e-3,
// "-12345-3" => -0.12345e-3, and "00000-0" => 0.
func parseTLEDecimalAssumed(field string) (float64, error) {
	if field == "" {
		return 0, nil
	}
	sign := 1.0
	if strings.HasPrefix(field, "-") {
		sign = -1
		field = field[1:]
	} else if strings.HasPrefix(field, "+") {
		field = field[1:]
	}
	idx := strings.IndexAny(field, "+-")
	if idx < 0 {
		// No exponent; treat literally.
		v, err := strconv.ParseFloat("0."+field, 64)
		if err != nil {
			return 0, err
		}
		return sign * v, nil
	}
	mantissa := field[:idx]
	expStr := field[idx:]
	exp, err := strconv.Atoi(expStr)
	if err != nil {
		return 0, err
	}
	m, err := strconv.ParseFloat("0."+mantissa, 64)
	if err != nil {
		return 0, err
	}
	return sign * m * pow10(exp), nil
}

func pow10(n int) float64 {
	result := 1.0
	if n >= 0 {
		for i := 0; i < n; i++ {
			result *= 10
		}
		return result
	}
	for i := 0; i < -n; i++ {
		result /= 10
	}
	return result
}

func verifyTLEChecksum(line string) error {
	trimmed := line
	if len(trimmed) < 69 {
		return errors.New("line too short to carry a checksum")
	}
	sum := 0
	for _, c := range trimmed[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	want := sum % 10
	got, err := strconv.Atoi(string(trimmed[68]))
	if err != nil {
		return errors.Wrap(err, "checksum digit")
	}
	if got != want {
		return fmt.Errorf("checksum mismatch: want %d got %d", want, got)
	}
	return nil
}

// SemiMajorAxisKm returns a = (μ / n²)^(1/3) with n in rad/s.
func (e *ElementSet) SemiMajorAxisKm() float64 {
	n := e.MeanMotionRevD * 2 * math.Pi / 86400 // rad/s
	return math.Pow(EarthMu/(n*n), 1.0/3.0)
}

// ApogeeAltitudeKm returns a(1+e) - R_E.
func (e *ElementSet) ApogeeAltitudeKm() float64 {
	a := e.SemiMajorAxisKm()
	return a*(1+e.Eccentricity) - EarthRadiusKm
}

// PerigeeAltitudeKm returns a(1-e) - R_E.
func (e *ElementSet) PerigeeAltitudeKm() float64 {
	a := e.SemiMajorAxisKm()
	return a*(1-e.Eccentricity) - EarthRadiusKm
}

// AgeDays returns the number of days between the element set's epoch and ref.
func (e *ElementSet) AgeDays(ref time.Time) float64 {
	return ref.Sub(e.Epoch).Hours() / 24
}
