// Package census talks to the external census authority that confirms a
// person is a resident. Every implementation answers with exactly one of
// three outcomes; none of them return errors, because an unreachable census
// is itself an outcome the caller has to record.
package census

import (
	"context"

	id "ballotbox/pkg/domain"
)

type Outcome string

const (
	OutcomeMatch       Outcome = "match"
	OutcomeNoMatch     Outcome = "no_match"
	OutcomeUnavailable Outcome = "unavailable"
)

// Request identifies a person to the census. Booth checks send YearOfBirth,
// remote channels send PostalCode; the zero value means "not supplied".
type Request struct {
	DocumentType   id.DocumentType
	DocumentNumber string
	PostalCode     string
	YearOfBirth    int
	PollID         id.PollID
}

// Result is the census answer. DocumentNumber and Geozone are only set on a
// match; Cause only on unavailable.
type Result struct {
	Outcome        Outcome
	DocumentNumber string
	Geozone        string
	Cause          string
}

func Match(documentNumber, geozone string) Result {
	return Result{Outcome: OutcomeMatch, DocumentNumber: documentNumber, Geozone: geozone}
}

func NoMatch() Result {
	return Result{Outcome: OutcomeNoMatch}
}

func Unavailable(cause string) Result {
	return Result{Outcome: OutcomeUnavailable, Cause: cause}
}

func (r Result) IsMatch() bool {
	return r.Outcome == OutcomeMatch
}

// Gateway verifies residence. Implementations must honour ctx cancellation
// and must not retry on their own.
type Gateway interface {
	Verify(ctx context.Context, req Request) Result
}
