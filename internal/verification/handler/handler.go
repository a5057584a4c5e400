package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ballotbox/internal/verification/models"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/httputil"
	"ballotbox/pkg/requestcontext"
)

// Service runs a verification attempt.
type Service interface {
	Verify(ctx context.Context, req models.Request) (*models.Result, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterOfficer mounts the officiated channels. The caller is the officer.
func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Post("/officing/booths/{boothAssignmentID}/verifications", h.handleBooth)
	r.Post("/officing/letters/verifications", h.handleLetter)
}

// RegisterSelfService mounts the sms and email channels. The caller is the
// voter.
func (h *Handler) RegisterSelfService(r chi.Router) {
	r.Post("/polls/{pollID}/verifications/{channel}", h.handleSelfService)
}

type verifyRequest struct {
	PollID         string      `json:"poll_id"`
	DocumentType   string      `json:"document_type"`
	DocumentNumber string      `json:"document_number"`
	PostalCode     string      `json:"postal_code"`
	YearOfBirth    json.Number `json:"year_of_birth"`
}

// Validate only trims; field rules are applied by the service so that
// rejections are audited like every other outcome.
func (r *verifyRequest) Validate() error {
	r.PollID = strings.TrimSpace(r.PollID)
	r.DocumentType = strings.TrimSpace(r.DocumentType)
	r.DocumentNumber = strings.TrimSpace(r.DocumentNumber)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	return nil
}

type verifyResponse struct {
	Outcome        string `json:"outcome"`
	Reason         string `json:"reason,omitempty"`
	Retryable      bool   `json:"retryable"`
	DocumentNumber string `json:"document_number,omitempty"`
	VoterID        string `json:"voter_id,omitempty"`
	Message        string `json:"message,omitempty"`
}

func (h *Handler) handleBooth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boothID, err := id.ParseBoothAssignmentID(chi.URLParam(r, "boothAssignmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	req := toModel(body)
	req.Channel = models.ChannelBooth
	req.BoothAssignmentID = boothID
	req.OfficerID = requestcontext.UserID(ctx)
	if body.PollID != "" {
		if req.PollID, err = id.ParsePollID(body.PollID); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	h.verify(w, r, req)
}

func (h *Handler) handleLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	pollID, err := id.ParsePollID(body.PollID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req := toModel(body)
	req.Channel = models.ChannelLetter
	req.PollID = pollID
	req.OfficerID = requestcontext.UserID(ctx)
	h.verify(w, r, req)
}

func (h *Handler) handleSelfService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channel, ok := models.ParseSelfServiceChannel(chi.URLParam(r, "channel"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown verification channel"))
		return
	}
	pollID, err := id.ParsePollID(chi.URLParam(r, "pollID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	req := toModel(body)
	req.Channel = channel
	req.PollID = pollID
	req.UserID = requestcontext.UserID(ctx)
	h.verify(w, r, req)
}

func toModel(body *verifyRequest) models.Request {
	return models.Request{
		DocumentType:   body.DocumentType,
		DocumentNumber: body.DocumentNumber,
		PostalCode:     body.PostalCode,
		YearOfBirth:    body.YearOfBirth.String(),
	}
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, req models.Request) {
	ctx := r.Context()
	res, err := h.svc.Verify(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification aborted",
			"request_id", requestcontext.RequestID(ctx),
			"channel", string(req.Channel),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "verification could not be completed"))
		return
	}

	resp := verifyResponse{
		Outcome:        string(res.Outcome),
		Reason:         res.Reason,
		Retryable:      res.Retryable,
		DocumentNumber: res.DocumentNumber,
		Message:        res.LetterMessage.Text(),
	}
	if res.Voter != nil {
		resp.VoterID = res.Voter.ID.String()
	}
	httputil.WriteJSON(w, statusFor(res.Outcome), resp)
}

func statusFor(o models.Outcome) int {
	switch o {
	case models.OutcomeVerified:
		return http.StatusCreated
	case models.OutcomeAlreadyVoted:
		return http.StatusOK
	case models.OutcomeCensusRejected:
		return http.StatusUnprocessableEntity
	case models.OutcomeUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
