package census

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "ballotbox/pkg/domain"
)

func TestParseResponse(t *testing.T) {
	t.Run("match carries normalized number and geozone", func(t *testing.T) {
		res := parseResponse(200, []byte(`{"match":true,"document_number":"12345678Z","geozone":"01"}`))
		assert.Equal(t, Match("12345678Z", "01"), res)
	})

	t.Run("match false is a definite negative", func(t *testing.T) {
		assert.Equal(t, NoMatch(), parseResponse(200, []byte(`{"match":false}`)))
	})

	t.Run("404 is a definite negative", func(t *testing.T) {
		assert.Equal(t, NoMatch(), parseResponse(404, nil))
	})

	t.Run("5xx is unavailable", func(t *testing.T) {
		res := parseResponse(503, []byte(`{"match":true}`))
		assert.Equal(t, OutcomeUnavailable, res.Outcome)
		assert.Contains(t, res.Cause, "503")
	})

	t.Run("malformed body is unavailable", func(t *testing.T) {
		assert.Equal(t, OutcomeUnavailable, parseResponse(200, []byte(`{not json`)).Outcome)
	})

	t.Run("missing match field is unavailable", func(t *testing.T) {
		assert.Equal(t, OutcomeUnavailable, parseResponse(200, []byte(`{"geozone":"01"}`)).Outcome)
	})
}

func TestHTTPGateway(t *testing.T) {
	pollID := id.PollID(uuid.New())
	req := Request{
		DocumentType:   id.DocumentTypeDNI,
		DocumentNumber: "00012345678Z",
		YearOfBirth:    1980,
		PollID:         pollID,
	}

	t.Run("sends the wire request and reads a match", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"match":true,"document_number":"12345678Z"}`))
		}))
		defer srv.Close()

		res := NewHTTPGateway(srv.URL, time.Second).Verify(context.Background(), req)

		assert.Equal(t, OutcomeMatch, res.Outcome)
		assert.Equal(t, "12345678Z", res.DocumentNumber)
		assert.Equal(t, "1", got["document_type"])
		assert.Equal(t, "00012345678Z", got["document_number"])
		assert.EqualValues(t, 1980, got["year_of_birth"])
		assert.Equal(t, pollID.String(), got["poll_id"])
		assert.NotContains(t, got, "postal_code")
	})

	t.Run("match without a number keeps the submitted one", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"match":true}`))
		}))
		defer srv.Close()

		res := NewHTTPGateway(srv.URL, time.Second).Verify(context.Background(), req)
		assert.Equal(t, "00012345678Z", res.DocumentNumber)
	})

	t.Run("slow census times out as unavailable", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		start := time.Now()
		res := NewHTTPGateway(srv.URL, 50*time.Millisecond).Verify(context.Background(), req)

		assert.Equal(t, OutcomeUnavailable, res.Outcome)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("unreachable census is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		res := NewHTTPGateway(url, time.Second).Verify(context.Background(), req)
		assert.Equal(t, OutcomeUnavailable, res.Outcome)
	})

	t.Run("never retries", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		res := NewHTTPGateway(srv.URL, time.Second).Verify(context.Background(), req)
		assert.Equal(t, OutcomeUnavailable, res.Outcome)
		assert.Equal(t, 1, calls)
	})
}

func TestStub(t *testing.T) {
	stub := NewStub(DefaultResidents()...)
	ctx := context.Background()

	t.Run("leading zeros are tolerated and the canonical number returned", func(t *testing.T) {
		res := stub.Verify(ctx, Request{DocumentType: id.DocumentTypeDNI, DocumentNumber: "00012345678Z", YearOfBirth: 1980})
		assert.Equal(t, OutcomeMatch, res.Outcome)
		assert.Equal(t, "12345678Z", res.DocumentNumber)
	})

	t.Run("postal code must agree", func(t *testing.T) {
		ok := stub.Verify(ctx, Request{DocumentType: id.DocumentTypeDNI, DocumentNumber: "12345678Z", PostalCode: "28013"})
		assert.Equal(t, OutcomeMatch, ok.Outcome)

		bad := stub.Verify(ctx, Request{DocumentType: id.DocumentTypeDNI, DocumentNumber: "12345678Z", PostalCode: "28014"})
		assert.Equal(t, OutcomeNoMatch, bad.Outcome)
	})

	t.Run("year of birth must agree", func(t *testing.T) {
		res := stub.Verify(ctx, Request{DocumentType: id.DocumentTypeDNI, DocumentNumber: "12345678Z", YearOfBirth: 1981})
		assert.Equal(t, OutcomeNoMatch, res.Outcome)
	})

	t.Run("document type is part of identity", func(t *testing.T) {
		res := stub.Verify(ctx, Request{DocumentType: id.DocumentTypePassport, DocumentNumber: "12345678Z"})
		assert.Equal(t, OutcomeNoMatch, res.Outcome)
	})

	t.Run("cancelled context is unavailable", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		res := stub.Verify(cctx, Request{DocumentType: id.DocumentTypeDNI, DocumentNumber: "12345678Z"})
		assert.Equal(t, OutcomeUnavailable, res.Outcome)
	})
}

func TestCacheKey(t *testing.T) {
	a := Request{DocumentType: id.DocumentTypeDNI, DocumentNumber: "12345678Z", PostalCode: "28013"}
	b := a
	b.PostalCode = "28014"

	assert.Equal(t, CacheKey(a), CacheKey(a))
	assert.NotEqual(t, CacheKey(a), CacheKey(b))
	assert.NotContains(t, CacheKey(a), "12345678Z")

	// poll does not change the census answer
	c := a
	c.PollID = id.PollID(uuid.New())
	assert.Equal(t, CacheKey(a), CacheKey(c))
}
