// Package voter is the vote ledger: one row per recorded vote, shared by every
// channel. Rows are never updated or deleted.
package voter

import (
	"errors"
	"time"

	"github.com/google/uuid"

	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
)

// ErrAlreadyVoted is returned when the ledger already holds a vote for the
// same identity or the same document in the poll, including when a
// concurrent writer won the race.
var ErrAlreadyVoted = errors.New("already voted in this poll")

// Origin records which channel produced the vote.
type Origin string

const (
	OriginBooth  Origin = "booth"
	OriginLetter Origin = "letter"
	OriginSMS    Origin = "sms"
	OriginEmail  Origin = "email"
	OriginWeb    Origin = "web"
)

func (o Origin) IsValid() bool {
	switch o {
	case OriginBooth, OriginLetter, OriginSMS, OriginEmail, OriginWeb:
		return true
	}
	return false
}

// Officiated reports whether the origin requires an officer on the record.
func (o Origin) Officiated() bool {
	return o == OriginBooth || o == OriginLetter
}

// Voter is a recorded vote. UserID is nil and DocumentNumber empty when that
// identity key is unknown; at least one is always present.
type Voter struct {
	ID                id.VoterID
	PollID            id.PollID
	UserID            id.UserID
	DocumentType      id.DocumentType
	DocumentNumber    string
	Origin            Origin
	BoothAssignmentID id.BoothAssignmentID
	OfficerID         id.UserID
	CreatedAt         time.Time
}

// Params carries the fields of a new vote.
type Params struct {
	PollID            id.PollID
	UserID            id.UserID
	DocumentType      id.DocumentType
	DocumentNumber    string
	Origin            Origin
	BoothAssignmentID id.BoothAssignmentID
	OfficerID         id.UserID
}

// New validates p and stamps a fresh ID. DocumentNumber must already be
// normalized by the census or by domain.ParseDocumentNumber.
func New(p Params, now time.Time) (*Voter, error) {
	if p.PollID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "voter requires a poll")
	}
	if !p.Origin.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid voter origin")
	}
	if p.UserID.IsNil() && p.DocumentNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "voter requires a user or a document")
	}
	if p.Origin.Officiated() && p.OfficerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "officiated vote requires an officer")
	}
	if p.Origin == OriginBooth && p.BoothAssignmentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "booth vote requires a booth assignment")
	}
	return &Voter{
		ID:                id.VoterID(uuid.New()),
		PollID:            p.PollID,
		UserID:            p.UserID,
		DocumentType:      p.DocumentType,
		DocumentNumber:    p.DocumentNumber,
		Origin:            p.Origin,
		BoothAssignmentID: p.BoothAssignmentID,
		OfficerID:         p.OfficerID,
		CreatedAt:         now,
	}, nil
}

// Identity is the lookup key for an existing vote: a match on either field
// counts.
type Identity struct {
	UserID         id.UserID
	DocumentNumber string
}

func (i Identity) IsEmpty() bool {
	return i.UserID.IsNil() && i.DocumentNumber == ""
}

// Matches reports whether v was cast by the same identity.
func (i Identity) Matches(v *Voter) bool {
	if !i.UserID.IsNil() && v.UserID == i.UserID {
		return true
	}
	return i.DocumentNumber != "" && v.DocumentNumber == i.DocumentNumber
}
