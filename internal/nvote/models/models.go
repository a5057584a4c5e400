package models

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	id "ballotbox/pkg/domain"
)

// ErrReplayedOrUnknownToken rejects a redemption whose credential is
// malformed, forged, unknown or already spent. All cases share this error.
var ErrReplayedOrUnknownToken = errors.New("replayed or unknown token")

// State is the Nvote lifecycle: issued -> confirmed, exactly once.
type State string

const (
	StateIssued    State = "issued"
	StateConfirmed State = "confirmed"
)

// Nvote is a pseudonymous web voting token bound to one (user, poll).
type Nvote struct {
	ID          id.NvoteID
	UserID      id.UserID
	PollID      id.PollID
	Message     string
	Hash        string
	Confirmed   bool
	IssuedAt    time.Time
	ConfirmedAt *time.Time
}

const messageBytes = 32

// New builds an unconfirmed token around a fresh random message. The hash
// is supplied by the caller's signer.
func New(userID id.UserID, pollID id.PollID, sign func(message string) string, now time.Time) (*Nvote, error) {
	buf := make([]byte, messageBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	message := base64.RawURLEncoding.EncodeToString(buf)
	return &Nvote{
		ID:       id.NvoteID(uuid.New()),
		UserID:   userID,
		PollID:   pollID,
		Message:  message,
		Hash:     sign(message),
		IssuedAt: now,
	}, nil
}

func (n *Nvote) State() State {
	if n.Confirmed {
		return StateConfirmed
	}
	return StateIssued
}

// Credential is the opaque bearer string handed to the voter.
func (n *Nvote) Credential() string {
	return n.Hash + "/" + n.Message
}

// ParseCredential splits "hash/message". It only checks shape; the
// signature is checked by the signer.
func ParseCredential(raw string) (hash, message string, err error) {
	hash, message, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok || hash == "" || message == "" || strings.Contains(message, "/") {
		return "", "", ErrReplayedOrUnknownToken
	}
	return hash, message, nil
}
