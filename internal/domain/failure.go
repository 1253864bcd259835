package domain

import "fmt"

// FailureKind names the entity a Failure was recorded against.
type FailureKind string

const (
	FailureKindBundle    FailureKind = "case_bundle"
	FailureKindUsCase    FailureKind = "us_case"
	FailureKindNonUsCase FailureKind = "non_us_case"
	FailureKindCase      FailureKind = "case"
	FailureKindDocument  FailureKind = "document"
	FailureKindEvent     FailureKind = "event"
)

func (k FailureKind) String() string { return string(k) }

// Failure is a non-fatal record of why one source record could not be mapped.
// ID is nil when the record had no usable identifier.
type Failure struct {
	ID     *int        `json:"id"`
	Kind   FailureKind `json:"type"`
	Reason string      `json:"reason"`
}

// NewFailure builds a Failure for a record with a known id.
func NewFailure(id int, kind FailureKind, reason string) Failure {
	return Failure{ID: &id, Kind: kind, Reason: reason}
}

// NewAnonymousFailure builds a Failure for a record without a usable id.
func NewAnonymousFailure(kind FailureKind, reason string) Failure {
	return Failure{Kind: kind, Reason: reason}
}

func (f Failure) String() string {
	if f.ID == nil {
		return fmt.Sprintf("[%s] id=-: %s", f.Kind, f.Reason)
	}
	return fmt.Sprintf("[%s] id=%d: %s", f.Kind, *f.ID, f.Reason)
}
