package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ballotbox/internal/nvote/models"
	"ballotbox/internal/voter"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/httputil"
	"ballotbox/pkg/requestcontext"
)

// Service issues and redeems web voting tokens.
type Service interface {
	Issue(ctx context.Context, userID id.UserID, pollID id.PollID) (string, error)
	Redeem(ctx context.Context, credential string) error
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterUser mounts token issuance behind user authentication.
func (h *Handler) RegisterUser(r chi.Router) {
	r.Get("/polls/{pollID}/nvotes/token", h.handleToken)
}

// RegisterCallback mounts the redemption callback. The credential in the
// Authorization header is the only authentication.
func (h *Handler) RegisterCallback(r chi.Router) {
	r.Post("/polls/nvotes/success", h.handleSuccess)
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID, err := id.ParsePollID(chi.URLParam(r, "pollID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID := requestcontext.UserID(ctx)

	credential, err := h.svc.Issue(ctx, userID, pollID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to issue nvote",
				"request_id", requestcontext.RequestID(ctx),
				"poll_id", pollID.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(credential))
}

// handleSuccess answers 200 or 400 with an empty body.
func (h *Handler) handleSuccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.svc.Redeem(ctx, r.Header.Get("Authorization"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, models.ErrReplayedOrUnknownToken), errors.Is(err, voter.ErrAlreadyVoted):
		h.logger.InfoContext(ctx, "nvote redemption rejected",
			"request_id", requestcontext.RequestID(ctx),
			"reason", err.Error(),
		)
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}
