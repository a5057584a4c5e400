package domain

import (
	"github.com/google/uuid"

	dErrors "ballotbox/pkg/domain-errors"
)

// Typed identifiers keep poll, booth, and identity references from being
// swapped at call sites. All are UUIDs on the wire and in storage.
type (
	UserID            uuid.UUID
	PollID            uuid.UUID
	BoothAssignmentID uuid.UUID
	VoterID           uuid.UUID
	NvoteID           uuid.UUID
	RecountID         uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

// ParseUserID parses an authenticated identity (user or officer).
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user ID", s)
	return UserID(u), err
}

func ParsePollID(s string) (PollID, error) {
	u, err := parseUUID("poll ID", s)
	return PollID(u), err
}

func ParseBoothAssignmentID(s string) (BoothAssignmentID, error) {
	u, err := parseUUID("booth assignment ID", s)
	return BoothAssignmentID(u), err
}

func ParseVoterID(s string) (VoterID, error) {
	u, err := parseUUID("voter ID", s)
	return VoterID(u), err
}

func ParseNvoteID(s string) (NvoteID, error) {
	u, err := parseUUID("nvote ID", s)
	return NvoteID(u), err
}

func (id UserID) String() string            { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool               { return uuid.UUID(id) == uuid.Nil }
func (id PollID) String() string            { return uuid.UUID(id).String() }
func (id PollID) IsNil() bool               { return uuid.UUID(id) == uuid.Nil }
func (id BoothAssignmentID) String() string { return uuid.UUID(id).String() }
func (id BoothAssignmentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id VoterID) String() string           { return uuid.UUID(id).String() }
func (id NvoteID) String() string           { return uuid.UUID(id).String() }
func (id RecountID) String() string         { return uuid.UUID(id).String() }
