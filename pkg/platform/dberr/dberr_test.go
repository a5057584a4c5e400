package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifiers(t *testing.T) {
	wrapped := fmt.Errorf("insert voter: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_poll_voters_document"})
	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsForeignKeyViolation(wrapped))
	assert.Equal(t, "uq_poll_voters_document", ConstraintName(wrapped))

	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.Empty(t, ConstraintName(errors.New("plain")))
}
