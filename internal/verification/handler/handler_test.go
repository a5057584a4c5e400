package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	officing "ballotbox/internal/officing/models"
	"ballotbox/internal/verification/handler/mocks"
	"ballotbox/internal/verification/models"
	"ballotbox/internal/voter"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/testutil"
)

func setup(t *testing.T) (*mocks.MockService, http.Handler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	h := New(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	r := chi.NewRouter()
	h.RegisterOfficer(r)
	h.RegisterSelfService(r)
	return svc, r
}

func TestBoothVerification(t *testing.T) {
	officer := uuid.New()
	booth := uuid.New()
	path := "/officing/booths/" + booth.String() + "/verifications"

	t.Run("maps the path and caller into the request", func(t *testing.T) {
		svc, router := setup(t)
		want := models.Request{
			Channel:           models.ChannelBooth,
			BoothAssignmentID: id.BoothAssignmentID(booth),
			OfficerID:         id.UserID(officer),
			DocumentType:      "1",
			DocumentNumber:    "00012345678Z",
			YearOfBirth:       "1980",
		}
		v := &voter.Voter{ID: id.VoterID(uuid.New())}
		svc.EXPECT().Verify(gomock.Any(), want).Return(&models.Result{
			Outcome: models.OutcomeVerified, DocumentNumber: "12345678Z", Voter: v,
		}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{
			"document_type": "1", "document_number": " 00012345678Z ", "year_of_birth": 1980,
		})
		rr := testutil.DoRequest(router, testutil.WithUserID(req, officer.String()))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		body := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "verified", (*body)["outcome"])
		assert.Equal(t, "12345678Z", (*body)["document_number"])
		assert.Equal(t, v.ID.String(), (*body)["voter_id"])
	})

	t.Run("year of birth may be sent as a string", func(t *testing.T) {
		svc, router := setup(t)
		svc.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, r models.Request) (*models.Result, error) {
				assert.Equal(t, "1980", r.YearOfBirth)
				return &models.Result{Outcome: models.OutcomeAlreadyVoted}, nil
			})

		req := testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{
			"document_type": "1", "document_number": "12345678Z", "year_of_birth": "1980",
		})
		rr := testutil.DoRequest(router, testutil.WithUserID(req, officer.String()))
		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "outcome", "already_voted")
	})

	t.Run("bad booth id is rejected before the service", func(t *testing.T) {
		_, router := setup(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/officing/booths/nope/verifications", map[string]any{})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, router := setup(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{"dni": "12345678Z"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("storage failures are internal errors", func(t *testing.T) {
		svc, router := setup(t)
		svc.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

		req := testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{"document_type": "1"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	})
}

func TestOutcomeStatuses(t *testing.T) {
	path := "/officing/letters/verifications"
	pollID := uuid.New()

	cases := []struct {
		result *models.Result
		status int
	}{
		{&models.Result{Outcome: models.OutcomeVerified, LetterMessage: officing.LetterOK}, http.StatusCreated},
		{&models.Result{Outcome: models.OutcomeAlreadyVoted, LetterMessage: officing.LetterHasVoted}, http.StatusOK},
		{&models.Result{Outcome: models.OutcomeCensusRejected, Retryable: true, LetterMessage: officing.LetterCensusFailed}, http.StatusUnprocessableEntity},
		{&models.Result{Outcome: models.OutcomeUnauthorized}, http.StatusForbidden},
		{&models.Result{Outcome: models.OutcomeInvalidInput, Reason: "postal_code must be 5 digits"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(string(tc.result.Outcome), func(t *testing.T) {
			svc, router := setup(t)
			svc.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ any, r models.Request) (*models.Result, error) {
					assert.Equal(t, models.ChannelLetter, r.Channel)
					assert.Equal(t, id.PollID(pollID), r.PollID)
					return tc.result, nil
				})

			req := testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{
				"poll_id": pollID.String(), "document_type": "1", "document_number": "12345678Z", "postal_code": "28013",
			})
			rr := testutil.DoRequest(router, req)
			testutil.AssertStatus(t, rr, tc.status)
			testutil.AssertJSONContains(t, rr, "outcome", string(tc.result.Outcome))
			if text := tc.result.LetterMessage.Text(); text != "" {
				testutil.AssertJSONContains(t, rr, "message", text)
			}
		})
	}
}

func TestSelfServiceVerification(t *testing.T) {
	user := uuid.New()
	pollID := uuid.New()

	t.Run("sms carries the authenticated user", func(t *testing.T) {
		svc, router := setup(t)
		svc.EXPECT().Verify(gomock.Any(), models.Request{
			Channel:        models.ChannelSMS,
			PollID:         id.PollID(pollID),
			UserID:         id.UserID(user),
			DocumentType:   "1",
			DocumentNumber: "12345678Z",
			PostalCode:     "28013",
		}).Return(&models.Result{Outcome: models.OutcomeVerified}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/polls/"+pollID.String()+"/verifications/sms", map[string]any{
			"document_type": "1", "document_number": "12345678Z", "postal_code": "28013",
		})
		rr := testutil.DoRequest(router, testutil.WithUserID(req, user.String()))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("officiated channels cannot be self-served", func(t *testing.T) {
		_, router := setup(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/polls/"+pollID.String()+"/verifications/booth", map[string]any{})
		rr := testutil.DoRequest(router, testutil.WithUserID(req, user.String()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}
