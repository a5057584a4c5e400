package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ballotbox/internal/officing/models"
	"ballotbox/internal/officing/service"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/httputil"
	"ballotbox/pkg/requestcontext"
)

// Service defines the accountability reads exposed over HTTP.
type Service interface {
	FailedCallsReport(ctx context.Context, officerID id.UserID, limit int) (*service.OfficerReport, error)
	LetterLogs(ctx context.Context, officerID id.UserID, limit int) ([]*models.LetterOfficerLog, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterAdmin mounts the admin-token protected accountability report.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/officers/{officerID}/failed-census-calls", h.handleFailedCalls)
}

// RegisterOfficer mounts the bearer-protected officer routes.
func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Get("/officing/letters/logs", h.handleLetterLogs)
}

type failedCallResponse struct {
	ID             string    `json:"id"`
	PollID         string    `json:"poll_id"`
	Channel        string    `json:"channel"`
	DocumentType   string    `json:"document_type"`
	DocumentNumber string    `json:"document_number"`
	PostalCode     string    `json:"postal_code,omitempty"`
	YearOfBirth    int       `json:"year_of_birth,omitempty"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

type failedCallsReportResponse struct {
	OfficerID string               `json:"officer_id"`
	Total     int                  `json:"total"`
	Recent    []failedCallResponse `json:"recent"`
}

func (h *Handler) handleFailedCalls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	officerID, err := id.ParseUserID(chi.URLParam(r, "officerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.svc.FailedCallsReport(ctx, officerID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build failed census call report",
			"request_id", requestID,
			"officer_id", officerID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load report"))
		return
	}

	resp := failedCallsReportResponse{
		OfficerID: report.OfficerID.String(),
		Total:     report.Total,
		Recent:    make([]failedCallResponse, 0, len(report.Recent)),
	}
	for _, c := range report.Recent {
		resp.Recent = append(resp.Recent, failedCallResponse{
			ID:             c.ID.String(),
			PollID:         c.PollID.String(),
			Channel:        c.Channel,
			DocumentType:   string(c.DocumentType),
			DocumentNumber: c.DocumentNumberMasked,
			PostalCode:     c.PostalCode,
			YearOfBirth:    c.YearOfBirth,
			Reason:         string(c.Reason),
			CreatedAt:      c.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type letterLogResponse struct {
	DocumentNumber string    `json:"document_number"`
	PostalCode     string    `json:"postal_code"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *Handler) handleLetterLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	officerID := requestcontext.UserID(ctx)
	if officerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	logs, err := h.svc.LetterLogs(ctx, officerID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list letter officer logs",
			"request_id", requestcontext.RequestID(ctx),
			"officer_id", officerID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load letter logs"))
		return
	}

	resp := make([]letterLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, letterLogResponse{
			DocumentNumber: l.DocumentNumber,
			PostalCode:     l.PostalCode,
			Message:        l.Message.Text(),
			CreatedAt:      l.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

const maxLimit = 200

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 200")
	}
	return n, nil
}
