package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballotbox/internal/officing/models"
	"ballotbox/internal/officing/store/failedcall"
	"ballotbox/internal/officing/store/letterlog"
	id "ballotbox/pkg/domain"
)

func TestFailedCallsReport(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountability(failedcall.NewInMemory(), letterlog.NewInMemory())
	officer := id.UserID(uuid.New())
	pollID := id.PollID(uuid.New())
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	for i, reason := range []models.FailureReason{models.ReasonNoMatch, models.ReasonUnavailable, models.ReasonNoMatch} {
		call, err := models.NewFailedCensusCall(models.FailedCallParams{
			OfficerID: officer, PollID: pollID, Channel: "booth",
			DocumentType: id.DocumentTypeDNI, DocumentNumber: "12345678Z", YearOfBirth: 1980, Reason: reason,
		}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, svc.RecordFailedCall(ctx, call))
	}

	report, err := svc.FailedCallsReport(ctx, officer, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.Recent, 2)
	assert.True(t, report.Recent[0].CreatedAt.After(report.Recent[1].CreatedAt))
	assert.Equal(t, models.ReasonUnavailable, report.Recent[1].Reason)

	empty, err := svc.FailedCallsReport(ctx, id.UserID(uuid.New()), 0)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Recent)
}

func TestLetterLogs(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountability(failedcall.NewInMemory(), letterlog.NewInMemory())
	officer := id.UserID(uuid.New())

	for _, msg := range []models.LetterMessage{models.LetterOK, models.LetterHasVoted} {
		l, err := models.NewLetterOfficerLog(officer, "12345678Z", "28013", msg, time.Now())
		require.NoError(t, err)
		require.NoError(t, svc.RecordLetterVerdict(ctx, l))
	}

	logs, err := svc.LetterLogs(ctx, officer, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
