package models

import (
	"ballotbox/internal/officing/models"
	"ballotbox/internal/voter"
	id "ballotbox/pkg/domain"
)

// Channel is the route by which a person proves residence.
type Channel string

const (
	ChannelBooth  Channel = "booth"
	ChannelLetter Channel = "letter"
	ChannelSMS    Channel = "sms"
	ChannelEmail  Channel = "email"
)

// Config describes how a channel differs from the others. Everything not
// listed here is shared.
type Config struct {
	Origin voter.Origin
	// Officer is the officiated context checked by the scheduler; empty for
	// self-service channels.
	Officer          models.Channel
	NeedsBooth       bool
	NeedsPostalCode  bool
	NeedsYearOfBirth bool
	// KeyedByUser adds the authenticated user to the vote identity. Officiated
	// channels identify the voter by document only.
	KeyedByUser bool
	LetterLog   bool
}

func (c Config) Officiated() bool {
	return c.Officer != ""
}

var channels = map[Channel]Config{
	ChannelBooth: {
		Origin:           voter.OriginBooth,
		Officer:          models.ChannelBooth,
		NeedsBooth:       true,
		NeedsYearOfBirth: true,
	},
	ChannelLetter: {
		Origin:          voter.OriginLetter,
		Officer:         models.ChannelLetter,
		NeedsPostalCode: true,
		LetterLog:       true,
	},
	ChannelSMS: {
		Origin:          voter.OriginSMS,
		NeedsPostalCode: true,
		KeyedByUser:     true,
	},
	ChannelEmail: {
		Origin:          voter.OriginEmail,
		NeedsPostalCode: true,
		KeyedByUser:     true,
	},
}

// ConfigFor returns the channel configuration and whether the channel exists.
func ConfigFor(c Channel) (Config, bool) {
	cfg, ok := channels[c]
	return cfg, ok
}

// ParseSelfServiceChannel accepts the channels a user may start on their own.
func ParseSelfServiceChannel(s string) (Channel, bool) {
	switch c := Channel(s); c {
	case ChannelSMS, ChannelEmail:
		return c, true
	}
	return "", false
}

// Request is one verification attempt. Fields are raw user input; the
// service validates them. OfficerID is set for officiated channels and
// UserID for self-service ones, both from the authenticated caller.
type Request struct {
	Channel           Channel
	PollID            id.PollID
	BoothAssignmentID id.BoothAssignmentID
	OfficerID         id.UserID
	UserID            id.UserID
	DocumentType      string
	DocumentNumber    string
	PostalCode        string
	YearOfBirth       string
}

type Outcome string

const (
	OutcomeVerified       Outcome = "verified"
	OutcomeAlreadyVoted   Outcome = "already_voted"
	OutcomeCensusRejected Outcome = "census_rejected"
	OutcomeUnauthorized   Outcome = "unauthorized"
	OutcomeInvalidInput   Outcome = "invalid_input"
)

// Result is the typed answer to a verification attempt. Reason explains
// every non-verified outcome; Retryable is only true when the census could
// not be reached.
type Result struct {
	Outcome        Outcome
	Reason         string
	Retryable      bool
	DocumentNumber string
	Voter          *voter.Voter
	LetterMessage  models.LetterMessage
}

// LetterMessageFor maps an outcome to the letter officer's verdict.
func LetterMessageFor(o Outcome) (models.LetterMessage, bool) {
	switch o {
	case OutcomeVerified:
		return models.LetterOK, true
	case OutcomeAlreadyVoted:
		return models.LetterHasVoted, true
	case OutcomeCensusRejected:
		return models.LetterCensusFailed, true
	}
	return "", false
}
