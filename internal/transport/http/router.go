// Package httptransport assembles the chi router: shared middleware, auth
// groups and the module handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	nvotehandler "ballotbox/internal/nvote/handler"
	officinghandler "ballotbox/internal/officing/handler"
	"ballotbox/internal/platform/metrics"
	ratelimit "ballotbox/internal/ratelimit/middleware"
	ratelimitmodels "ballotbox/internal/ratelimit/models"
	recounthandler "ballotbox/internal/recount/handler"
	verificationhandler "ballotbox/internal/verification/handler"
	"ballotbox/pkg/platform/httputil"
	adminmw "ballotbox/pkg/platform/middleware/admin"
	authmw "ballotbox/pkg/platform/middleware/auth"
	"ballotbox/pkg/platform/middleware/metadata"
	"ballotbox/pkg/platform/middleware/request"
	"ballotbox/pkg/requestcontext"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Tokens       authmw.JWTValidator
	AdminToken   string
	Throttle     *ratelimit.Middleware
	Verification *verificationhandler.Handler
	Nvote        *nvotehandler.Handler
	Recount      *recounthandler.Handler
	Officing     *officinghandler.Handler
	HealthChecks map[string]HealthCheck
}

func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(metadata.ClientMetadata)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(chimw.Recoverer)

	r.Get("/health", health(d.HealthChecks, d.Logger))
	r.Handle("/metrics", promhttp.Handler())

	// The callback is authenticated by the credential it carries.
	d.Nvote.RegisterCallback(r)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.Tokens, d.Logger))

		r.Group(func(r chi.Router) {
			if d.Throttle != nil {
				r.Use(d.Throttle.Throttle(ratelimitmodels.ScopeCensus))
			}
			d.Verification.RegisterOfficer(r)
			d.Verification.RegisterSelfService(r)
		})

		d.Nvote.RegisterUser(r)
		d.Recount.RegisterOfficer(r)
		d.Officing.RegisterOfficer(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(d.AdminToken, d.Logger))
		d.Recount.RegisterAdmin(r)
		d.Officing.RegisterAdmin(r)
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func health(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"request_id", requestcontext.RequestID(ctx),
					"check", name,
					"error", err,
				)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
