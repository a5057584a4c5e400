package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	e := Event{Action: EventOfficerUnauthorized}.Normalize(now)
	assert.Equal(t, CategorySecurity, e.Category)
	assert.Equal(t, now, e.Timestamp)

	earlier := now.Add(-time.Minute)
	kept := Event{Action: EventNvoteIssued, Category: CategoryCompliance, Timestamp: earlier}.Normalize(now)
	assert.Equal(t, CategoryCompliance, kept.Category)
	assert.Equal(t, earlier, kept.Timestamp)
}

func TestUnknownEventsAreOperational(t *testing.T) {
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}

func TestHashSubject(t *testing.T) {
	assert.Empty(t, HashSubject(""))
	h := HashSubject("12345678Z")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashSubject("12345678Z"))
	assert.NotEqual(t, h, HashSubject("12345678A"))
}
