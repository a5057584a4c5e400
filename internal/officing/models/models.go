package models

import (
	"time"

	"github.com/google/uuid"

	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
)

// Officer is a user who may officiate. LetterOfficer grants the postal
// verification capability, which is not tied to any booth or date.
type Officer struct {
	UserID        id.UserID
	Name          string
	LetterOfficer bool
}

// Assignment places an officer at a booth for one calendar date.
type Assignment struct {
	ID                uuid.UUID
	OfficerID         id.UserID
	BoothAssignmentID id.BoothAssignmentID
	Date              string // YYYY-MM-DD in the configured location
}

// CivilDate renders t as a calendar date in loc.
func CivilDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

// Channel is the officiated channel being authorized.
type Channel string

const (
	ChannelBooth  Channel = "booth"
	ChannelLetter Channel = "letter"
)

// BoothContext is what the officer claims to be officiating.
type BoothContext struct {
	Channel           Channel
	BoothAssignmentID id.BoothAssignmentID
}

// FailureReason explains why a census-backed verification was refused.
type FailureReason string

const (
	ReasonNoMatch           FailureReason = "no_match"
	ReasonUnavailable       FailureReason = "unavailable"
	ReasonIneligibleGeozone FailureReason = "ineligible_geozone"
)

func (r FailureReason) IsValid() bool {
	switch r {
	case ReasonNoMatch, ReasonUnavailable, ReasonIneligibleGeozone:
		return true
	}
	return false
}

// FailedCensusCall is an append-only accountability record. The document
// number is stored masked; OfficerID is nil for self-service channels and
// UserID is nil for officiated ones.
type FailedCensusCall struct {
	ID                   uuid.UUID
	OfficerID            id.UserID
	UserID               id.UserID
	PollID               id.PollID
	Channel              string
	DocumentType         id.DocumentType
	DocumentNumberMasked string
	PostalCode           string
	YearOfBirth          int
	Reason               FailureReason
	CreatedAt            time.Time
}

// FailedCallParams carries the fields of a new failed call. DocumentNumber
// is the raw number; it is masked on construction.
type FailedCallParams struct {
	OfficerID      id.UserID
	UserID         id.UserID
	PollID         id.PollID
	Channel        string
	DocumentType   id.DocumentType
	DocumentNumber string
	PostalCode     string
	YearOfBirth    int
	Reason         FailureReason
}

func NewFailedCensusCall(p FailedCallParams, now time.Time) (*FailedCensusCall, error) {
	if !p.Reason.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid failed census call reason")
	}
	if p.PollID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "failed census call requires a poll")
	}
	if p.OfficerID.IsNil() && p.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "failed census call requires an officer or a user")
	}
	return &FailedCensusCall{
		ID:                   uuid.New(),
		OfficerID:            p.OfficerID,
		UserID:               p.UserID,
		PollID:               p.PollID,
		Channel:              p.Channel,
		DocumentType:         p.DocumentType,
		DocumentNumberMasked: id.MaskDocumentNumber(p.DocumentNumber),
		PostalCode:           p.PostalCode,
		YearOfBirth:          p.YearOfBirth,
		Reason:               p.Reason,
		CreatedAt:            now,
	}, nil
}

// LetterMessage is the verdict a letter officer sees for a postal vote.
type LetterMessage string

const (
	LetterOK           LetterMessage = "ok"
	LetterHasVoted     LetterMessage = "has_voted"
	LetterCensusFailed LetterMessage = "census_failed"
)

var letterTexts = map[LetterMessage]string{
	LetterOK:           "Voto VÁLIDO",
	LetterHasVoted:     "Voto REFORMULADO",
	LetterCensusFailed: "Voto NO VÁLIDO",
}

// Text returns the canonical wording stored and shown to the officer.
func (m LetterMessage) Text() string {
	return letterTexts[m]
}

// ParseLetterMessageText maps stored wording back to its message.
func ParseLetterMessageText(text string) (LetterMessage, bool) {
	for m, t := range letterTexts {
		if t == text {
			return m, true
		}
	}
	return "", false
}

// LetterOfficerLog records one postal verification for the officer's tally.
type LetterOfficerLog struct {
	ID             uuid.UUID
	OfficerID      id.UserID
	DocumentNumber string
	PostalCode     string
	Message        LetterMessage
	CreatedAt      time.Time
}

func NewLetterOfficerLog(officer id.UserID, documentNumber, postalCode string, msg LetterMessage, now time.Time) (*LetterOfficerLog, error) {
	if msg.Text() == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid letter officer message")
	}
	if officer.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "letter officer log requires an officer")
	}
	return &LetterOfficerLog{
		ID:             uuid.New(),
		OfficerID:      officer,
		DocumentNumber: documentNumber,
		PostalCode:     postalCode,
		Message:        msg,
		CreatedAt:      now,
	}, nil
}
