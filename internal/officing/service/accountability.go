package service

import (
	"context"
	"fmt"

	"ballotbox/internal/officing/metrics"
	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
)

const defaultRecentLimit = 20

// Accountability records census failures and letter verdicts and reports
// them per officer.
type Accountability struct {
	failed  FailedCallStore
	letters LetterLogStore
	metrics *metrics.Metrics
}

type AccountabilityOption func(*Accountability)

func WithMetrics(m *metrics.Metrics) AccountabilityOption {
	return func(a *Accountability) { a.metrics = m }
}

func NewAccountability(failed FailedCallStore, letters LetterLogStore, opts ...AccountabilityOption) *Accountability {
	a := &Accountability{failed: failed, letters: letters}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordFailedCall appends a failed census call.
func (a *Accountability) RecordFailedCall(ctx context.Context, call *models.FailedCensusCall) error {
	if err := a.failed.Append(ctx, call); err != nil {
		return fmt.Errorf("record failed census call: %w", err)
	}
	a.metrics.IncFailedCensusCall(call.Channel, string(call.Reason))
	return nil
}

// RecordLetterVerdict appends one letter officer log entry.
func (a *Accountability) RecordLetterVerdict(ctx context.Context, l *models.LetterOfficerLog) error {
	if err := a.letters.Append(ctx, l); err != nil {
		return fmt.Errorf("record letter officer log: %w", err)
	}
	return nil
}

// OfficerReport summarizes an officer's failed census calls.
type OfficerReport struct {
	OfficerID id.UserID
	Total     int
	Recent    []*models.FailedCensusCall
}

func (a *Accountability) FailedCallsReport(ctx context.Context, officerID id.UserID, limit int) (*OfficerReport, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	total, err := a.failed.CountByOfficer(ctx, officerID)
	if err != nil {
		return nil, fmt.Errorf("count failed census calls: %w", err)
	}
	recent, err := a.failed.ListRecentByOfficer(ctx, officerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed census calls: %w", err)
	}
	return &OfficerReport{OfficerID: officerID, Total: total, Recent: recent}, nil
}

// LetterLogs returns the officer's own postal verification history.
func (a *Accountability) LetterLogs(ctx context.Context, officerID id.UserID, limit int) ([]*models.LetterOfficerLog, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	logs, err := a.letters.ListByOfficer(ctx, officerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list letter officer logs: %w", err)
	}
	return logs, nil
}
