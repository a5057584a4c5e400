package testutil

import (
	"net/http"
	"time"

	id "ballotbox/pkg/domain"
	"ballotbox/pkg/requestcontext"
)

// WithUserID adds an authenticated identity to the request context.
// This simulates what the auth middleware would do for bearer requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
