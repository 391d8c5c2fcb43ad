package orbveil

import (
	"fmt"
	"time"
)

// ParseError reports a malformed element set or CDM, with location context.
type ParseError struct {
	Source string // "tle" or "cdm-kvn" or "cdm-xml"
	Field  string // field or line identifier
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error at %s: %s", e.Source, e.Field, e.Reason)
}

// PropagationError reports that the analytic propagator rejected an instant.
type PropagationError struct {
	CatalogNumber int
	At            time.Time
	Code          int
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation of object %d failed at %s (sgp4 error code %d)", e.CatalogNumber, e.At.UTC().Format(time.RFC3339), e.Code)
}

// UsageError reports invalid caller-supplied parameters.
type UsageError struct {
	Parameter string
	Reason    string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Parameter, e.Reason)
}

// NotImplementedError reports an operation declared but not available in v1.
type NotImplementedError struct {
	Operation string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s is not implemented", e.Operation)
}

// NumericError is never returned as an error; it is the diagnostic carried
// on a PcResult when Σ_B required regularization or the Mahalanobis
// distance is large enough to be suspect.
type NumericError struct {
	Reason string
}

func (e *NumericError) Error() string {
	return e.Reason
}
