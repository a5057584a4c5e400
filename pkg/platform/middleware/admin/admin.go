// Package admin guards the reporting endpoints with a shared operator token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/httputil"
	"ballotbox/pkg/requestcontext"
)

// HeaderName carries the operator token.
const HeaderName = "X-Admin-Token"

var errAdminToken = dErrors.New(dErrors.CodeUnauthorized, "admin token required")

// RequireAdminToken compares HeaderName against expected in constant time.
// With no token configured every request is refused.
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(expected)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(HeaderName))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "rejected report request",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
					"client_ip", requestcontext.ClientIP(ctx),
					"token_present", len(got) > 0,
				)
				httputil.WriteError(w, errAdminToken)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
