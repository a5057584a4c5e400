package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers the vote ledger: every recorded or refused vote.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers refused officers, replayed tokens and throttling.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity such as token issuance.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventVoterVerified       AuditEvent = "voter_verified"
	EventVoterAlreadyVoted   AuditEvent = "voter_already_voted"
	EventCensusRejected      AuditEvent = "census_rejected"
	EventOfficerUnauthorized AuditEvent = "officer_unauthorized"
	EventVerificationInvalid AuditEvent = "verification_invalid_input"

	EventNvoteIssued   AuditEvent = "nvote_issued"
	EventNvoteRedeemed AuditEvent = "nvote_redeemed"
	EventNvoteRejected AuditEvent = "nvote_rejected"

	EventRecountSubmitted AuditEvent = "recount_submitted"
	EventThrottled        AuditEvent = "census_attempts_throttled"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVoterVerified:     CategoryCompliance,
	EventVoterAlreadyVoted: CategoryCompliance,
	EventNvoteRedeemed:     CategoryCompliance,
	EventRecountSubmitted:  CategoryCompliance,

	EventCensusRejected:      CategorySecurity,
	EventOfficerUnauthorized: CategorySecurity,
	EventNvoteRejected:       CategorySecurity,
	EventThrottled:           CategorySecurity,

	EventVerificationInvalid: CategoryOperations,
	EventNvoteIssued:         CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out. Document numbers never appear in
// clear; SubjectIDHash carries a SHA-256 of the normalized number instead.
type Event struct {
	Action        AuditEvent    `json:"action"`
	Category      EventCategory `json:"category"`
	Timestamp     time.Time     `json:"timestamp"`
	UserID        string        `json:"user_id,omitempty"`
	OfficerID     string        `json:"officer_id,omitempty"`
	PollID        string        `json:"poll_id,omitempty"`
	Channel       string        `json:"channel,omitempty"`
	Outcome       string        `json:"outcome,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	SubjectIDHash string        `json:"subject_id_hash,omitempty"`
	RequestID     string        `json:"request_id,omitempty"`
	ClientIP      string        `json:"client_ip,omitempty"`
	Device        string        `json:"device,omitempty"`
}

// Emitter accepts audit events. Implementations must not block the request
// path for longer than a local enqueue.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Normalize fills the category and timestamp when the caller left them empty.
func (e Event) Normalize(now time.Time) Event {
	if e.Category == "" {
		e.Category = e.Action.Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }

// HashSubject returns the SHA-256 hex digest used for SubjectIDHash. Empty
// input stays empty.
func HashSubject(documentNumber string) string {
	if documentNumber == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(documentNumber))
	return hex.EncodeToString(sum[:])
}
