package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ballotbox/internal/recount/models"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/httputil"
	"ballotbox/pkg/requestcontext"
)

// Service is the recount surface exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, officerID id.UserID, boothID id.BoothAssignmentID, kind models.Kind, count int) (*models.Recount, error)
	BoothReport(ctx context.Context, boothID id.BoothAssignmentID) (*models.Tally, error)
	PollReport(ctx context.Context, pollID id.PollID) (*models.PollReport, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Post("/officing/booths/{boothAssignmentID}/recounts", h.handleSubmit)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/polls/{pollID}/recounts", h.handlePollReport)
	r.Get("/admin/booths/{boothAssignmentID}/recount", h.handleBoothReport)
}

type submitRequest struct {
	Kind  string `json:"kind"`
	Count *int   `json:"count"`
}

func (r *submitRequest) Validate() error {
	r.Kind = strings.TrimSpace(r.Kind)
	if _, err := models.ParseKind(r.Kind); err != nil {
		return err
	}
	if r.Count == nil {
		return dErrors.New(dErrors.CodeValidation, "count is required")
	}
	if *r.Count < 0 {
		return dErrors.New(dErrors.CodeValidation, "count must not be negative")
	}
	return nil
}

type recountResponse struct {
	ID                string    `json:"id"`
	Kind              string    `json:"kind"`
	BoothAssignmentID string    `json:"booth_assignment_id"`
	Count             int       `json:"count"`
	CreatedAt         time.Time `json:"created_at"`
}

type tallyResponse struct {
	BoothAssignmentID string `json:"booth_assignment_id,omitempty"`
	BoothName         string `json:"booth_name,omitempty"`
	Daily             int    `json:"daily"`
	Final             int    `json:"final"`
	System            int    `json:"system"`
	Discrepancy       int    `json:"discrepancy"`
	Flagged           bool   `json:"flagged"`
}

type pollReportResponse struct {
	PollID  string          `json:"poll_id"`
	Booths  []tallyResponse `json:"booths"`
	Totals  tallyResponse   `json:"totals"`
	Flagged int             `json:"flagged_booths"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	boothID, err := id.ParseBoothAssignmentID(chi.URLParam(r, "boothAssignmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.svc.Submit(ctx, requestcontext.UserID(ctx), boothID, models.Kind(body.Kind), *body.Count)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to submit recount")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recountResponse{
		ID:                rec.ID.String(),
		Kind:              string(rec.Kind),
		BoothAssignmentID: rec.BoothAssignmentID.String(),
		Count:             rec.Count,
		CreatedAt:         rec.CreatedAt,
	})
}

func (h *Handler) handleBoothReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boothID, err := id.ParseBoothAssignmentID(chi.URLParam(r, "boothAssignmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	t, err := h.svc.BoothReport(ctx, boothID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to build booth recount report")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTally(*t))
}

func (h *Handler) handlePollReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID, err := id.ParsePollID(chi.URLParam(r, "pollID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.svc.PollReport(ctx, pollID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to build poll recount report")
		return
	}

	resp := pollReportResponse{
		PollID:  report.PollID.String(),
		Booths:  make([]tallyResponse, 0, len(report.Booths)),
		Totals:  toTally(report.Totals),
		Flagged: report.Flagged(),
	}
	for _, b := range report.Booths {
		resp.Booths = append(resp.Booths, toTally(b))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// writeServiceError passes coded errors through and hides the rest.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		httputil.WriteError(w, err)
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, msg))
}

func toTally(t models.Tally) tallyResponse {
	resp := tallyResponse{
		BoothName:   t.BoothName,
		Daily:       t.Daily,
		Final:       t.Final,
		System:      t.System,
		Discrepancy: t.Discrepancy(),
		Flagged:     t.HasDiscrepancy(),
	}
	if !t.BoothAssignmentID.IsNil() {
		resp.BoothAssignmentID = t.BoothAssignmentID.String()
	}
	return resp
}
