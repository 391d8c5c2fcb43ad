package orbveil

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// CDMObject is one of a CDM's two participants. Covariance is nil
// when the message carried no covariance block for this object.
type CDMObject struct {
	Designator string
	Name       string
	Position   [3]float64 // km, ECI
	Velocity   [3]float64 // km/s, ECI
	Covariance *mat.SymDense
	Extra      map[string]string
}

// CDM is a parsed Conjunction Data Message (CCSDS 508.0-B-1).
type CDM struct {
	CreationDate         time.Time
	Originator           string
	MessageID            string
	TCA                  time.Time
	MissDistance         float64 // km
	RelativeSpeed        float64 // km/s
	CollisionProbability *float64
	Object1              CDMObject // primary
	Object2              CDMObject // secondary
	Extra                map[string]string
}

// ToKVN is declared but not implemented in v1.
func (c *CDM) ToKVN() (string, error) {
	return "", &NotImplementedError{Operation: "CDM.ToKVN"}
}

// covarianceFieldOrder is the CCSDS 508.0-B-1 lower-triangular sequence for
// the RTN covariance, in canonical (R, T, N, Ṙ, Ṫ, Ṅ) row/column order.
var covarianceFieldOrder = []struct {
	key      string
	row, col int
}{
	{"CR_R", 0, 0},
	{"CT_R", 1, 0}, {"CT_T", 1, 1},
	{"CN_R", 2, 0}, {"CN_T", 2, 1}, {"CN_N", 2, 2},
	{"CRDOT_R", 3, 0}, {"CRDOT_T", 3, 1}, {"CRDOT_N", 3, 2}, {"CRDOT_RDOT", 3, 3},
	{"CTDOT_R", 4, 0}, {"CTDOT_T", 4, 1}, {"CTDOT_N", 4, 2}, {"CTDOT_RDOT", 4, 3}, {"CTDOT_TDOT", 4, 4},
	{"CNDOT_R", 5, 0}, {"CNDOT_T", 5, 1}, {"CNDOT_N", 5, 2}, {"CNDOT_RDOT", 5, 3}, {"CNDOT_TDOT", 5, 4}, {"CNDOT_NDOT", 5, 5},
}

// assembleCovariance builds the 6x6 symmetric RTN covariance from a flat
// field bag, or returns (nil, nil) when any of the 21 entries is missing.
func assembleCovariance(fields map[string]string, source string) (*mat.SymDense, error) {
	for _, f := range covarianceFieldOrder {
		if _, ok := fields[f.key]; !ok {
			return nil, nil
		}
	}
	out := mat.NewSymDense(6, nil)
	for _, f := range covarianceFieldOrder {
		v, err := strconv.ParseFloat(fields[f.key], 64)
		if err != nil {
			return nil, &ParseError{Source: source, Field: f.key, Reason: "not a valid number: " + err.Error()}
		}
		out.SetSym(f.row, f.col, v)
	}
	return out, nil
}

// objectFields bundles a single OBJECTn scope's raw key/value pairs plus any
// keys not recognized by the schema.
type objectFields struct {
	known   map[string]string
	unknown map[string]string
}

var knownObjectKeys = map[string]bool{
	"OBJECT": true, "OBJECT_DESIGNATOR": true, "CATALOG_NAME": true, "OBJECT_NAME": true,
	"INTERNATIONAL_DESIGNATOR": true,
	"X": true, "Y": true, "Z": true, "X_DOT": true, "Y_DOT": true, "Z_DOT": true,
}

func init() {
	for _, f := range covarianceFieldOrder {
		knownObjectKeys[f.key] = true
	}
}

func buildCDMObject(of objectFields, source string) (CDMObject, error) {
	required := []string{"X", "Y", "Z", "X_DOT", "Y_DOT", "Z_DOT"}
	for _, k := range required {
		if _, ok := of.known[k]; !ok {
			return CDMObject{}, &ParseError{Source: source, Field: k, Reason: "required object field missing"}
		}
	}
	parse := func(key string) (float64, error) {
		v, err := strconv.ParseFloat(of.known[key], 64)
		if err != nil {
			return 0, &ParseError{Source: source, Field: key, Reason: "not a valid number: " + err.Error()}
		}
		return v, nil
	}
	x, err := parse("X")
	if err != nil {
		return CDMObject{}, err
	}
	y, err := parse("Y")
	if err != nil {
		return CDMObject{}, err
	}
	z, err := parse("Z")
	if err != nil {
		return CDMObject{}, err
	}
	xd, err := parse("X_DOT")
	if err != nil {
		return CDMObject{}, err
	}
	yd, err := parse("Y_DOT")
	if err != nil {
		return CDMObject{}, err
	}
	zd, err := parse("Z_DOT")
	if err != nil {
		return CDMObject{}, err
	}

	cov, err := assembleCovariance(of.known, source)
	if err != nil {
		return CDMObject{}, err
	}

	designator := of.known["OBJECT_DESIGNATOR"]
	if designator == "" {
		designator = of.known["INTERNATIONAL_DESIGNATOR"]
	}

	return CDMObject{
		Designator: designator,
		Name:       of.known["OBJECT_NAME"],
		Position:   [3]float64{x, y, z},
		Velocity:   [3]float64{xd, yd, zd},
		Covariance: cov,
		Extra:      of.unknown,
	}, nil
}

// parseCDMDatetime parses a CCSDS datetime string. CDM timestamps carry no
// zone suffix and are UTC by convention, so the parsed value is stamped
// UTC directly rather than requiring an explicit offset.
func parseCDMDatetime(value, field, source string) (time.Time, error) {
	layouts := []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ParseError{Source: source, Field: field, Reason: "not a recognizable CCSDS datetime: " + value}
}

// buildCDM assembles a CDM from the header dictionary and the two object
// scopes common to both the KVN and XML parsers. source names
// which parser produced the field bag, for error context.
func buildCDM(header map[string]string, unknownHeader map[string]string, obj1, obj2 objectFields, source string) (*CDM, error) {
	get := func(key string) (string, bool) {
		v, ok := header[key]
		return v, ok
	}

	creationStr, ok := get("CREATION_DATE")
	if !ok {
		return nil, &ParseError{Source: source, Field: "CREATION_DATE", Reason: "required top-level field missing"}
	}
	creation, err := parseCDMDatetime(creationStr, "CREATION_DATE", source)
	if err != nil {
		return nil, err
	}

	tcaStr, ok := get("TCA")
	if !ok {
		return nil, &ParseError{Source: source, Field: "TCA", Reason: "required top-level field missing"}
	}
	tca, err := parseCDMDatetime(tcaStr, "TCA", source)
	if err != nil {
		return nil, err
	}

	missStr, ok := get("MISS_DISTANCE")
	if !ok {
		return nil, &ParseError{Source: source, Field: "MISS_DISTANCE", Reason: "required top-level field missing"}
	}
	miss, err := strconv.ParseFloat(missStr, 64)
	if err != nil {
		return nil, &ParseError{Source: source, Field: "MISS_DISTANCE", Reason: "not a valid number: " + err.Error()}
	}

	var relSpeed float64
	if v, ok := get("RELATIVE_SPEED"); ok {
		relSpeed, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &ParseError{Source: source, Field: "RELATIVE_SPEED", Reason: "not a valid number: " + err.Error()}
		}
	}

	var pc *float64
	if v, ok := get("COLLISION_PROBABILITY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &ParseError{Source: source, Field: "COLLISION_PROBABILITY", Reason: "not a valid number: " + err.Error()}
		}
		pc = &f
	}

	object1, err := buildCDMObject(obj1, source)
	if err != nil {
		return nil, errors.Wrap(err, "object1")
	}
	object2, err := buildCDMObject(obj2, source)
	if err != nil {
		return nil, errors.Wrap(err, "object2")
	}

	return &CDM{
		CreationDate:         creation,
		Originator:           header["ORIGINATOR"],
		MessageID:            header["MESSAGE_ID"],
		TCA:                  tca,
		MissDistance:         miss,
		RelativeSpeed:        relSpeed,
		CollisionProbability: pc,
		Object1:              object1,
		Object2:              object2,
		Extra:                unknownHeader,
	}, nil
}
