// Package models holds officer-submitted tallies and the reconciliation
// report that compares them against the vote ledger.
package models

import (
	"time"

	"github.com/google/uuid"

	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
)

// Kind separates provisional daily tallies from the closing one.
type Kind string

const (
	KindDaily Kind = "daily"
	KindFinal Kind = "final"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDaily, KindFinal:
		return k, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "kind must be daily or final")
}

// Recount is one submitted tally. Rows are appended, never adjusted.
type Recount struct {
	ID                id.RecountID
	Kind              Kind
	BoothAssignmentID id.BoothAssignmentID
	OfficerID         id.UserID
	Count             int
	CreatedAt         time.Time
}

func New(kind Kind, booth id.BoothAssignmentID, officer id.UserID, count int, now time.Time) (*Recount, error) {
	if kind != KindDaily && kind != KindFinal {
		return nil, dErrors.New(dErrors.CodeValidation, "kind must be daily or final")
	}
	if count < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "count must not be negative")
	}
	if booth.IsNil() || officer.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recount requires a booth and an officer")
	}
	return &Recount{
		ID:                id.RecountID(uuid.New()),
		Kind:              kind,
		BoothAssignmentID: booth,
		OfficerID:         officer,
		Count:             count,
		CreatedAt:         now,
	}, nil
}

// Tally is the three figures for one booth, read together.
type Tally struct {
	BoothAssignmentID id.BoothAssignmentID
	PollID            id.PollID
	BoothName         string
	Daily             int
	Final             int
	System            int
}

// Discrepancy is final minus system. Daily tallies are provisional and never
// compared.
func (t Tally) Discrepancy() int {
	return t.Final - t.System
}

func (t Tally) HasDiscrepancy() bool {
	return t.Discrepancy() != 0
}

// PollReport aggregates every booth of a poll.
type PollReport struct {
	PollID id.PollID
	Booths []Tally
	Totals Tally
}

// NewPollReport sums booths into Totals. Totals.Discrepancy is the net
// difference; Flagged counts booths that disagree.
func NewPollReport(pollID id.PollID, booths []Tally) *PollReport {
	r := &PollReport{PollID: pollID, Booths: booths, Totals: Tally{PollID: pollID}}
	for _, b := range booths {
		r.Totals.Daily += b.Daily
		r.Totals.Final += b.Final
		r.Totals.System += b.System
	}
	return r
}

func (r *PollReport) Flagged() int {
	n := 0
	for _, b := range r.Booths {
		if b.HasDiscrepancy() {
			n++
		}
	}
	return n
}
