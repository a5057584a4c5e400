package service

import (
	"context"

	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
)

// AssignmentStore reads officers and their booth shifts.
type AssignmentStore interface {
	FindOfficer(ctx context.Context, officerID id.UserID) (*models.Officer, error)
	HasAssignment(ctx context.Context, officerID id.UserID, boothID id.BoothAssignmentID, date string) (bool, error)
}

// FailedCallStore is the append-only failed census call log.
type FailedCallStore interface {
	Append(ctx context.Context, call *models.FailedCensusCall) error
	CountByOfficer(ctx context.Context, officerID id.UserID) (int, error)
	ListRecentByOfficer(ctx context.Context, officerID id.UserID, limit int) ([]*models.FailedCensusCall, error)
}

// LetterLogStore is the append-only letter officer log.
type LetterLogStore interface {
	Append(ctx context.Context, l *models.LetterOfficerLog) error
	ListByOfficer(ctx context.Context, officerID id.UserID, limit int) ([]*models.LetterOfficerLog, error)
}
