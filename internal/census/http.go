package census

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ballotbox/internal/census/metrics"
)

const maxResponseBytes = 16 << 10

type wireRequest struct {
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	PostalCode     string `json:"postal_code,omitempty"`
	YearOfBirth    int    `json:"year_of_birth,omitempty"`
	PollID         string `json:"poll_id"`
}

type wireResponse struct {
	Match          *bool  `json:"match"`
	DocumentNumber string `json:"document_number"`
	Geozone        string `json:"geozone"`
}

// HTTPGateway calls the census over JSON/HTTP. Every failure to obtain a
// definite answer is reported as Unavailable.
type HTTPGateway struct {
	url     string
	timeout time.Duration
	client  *http.Client
	tracer  trace.Tracer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type HTTPOption func(*HTTPGateway)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTPGateway) {
		g.client = c
	}
}

func WithMetrics(m *metrics.Metrics) HTTPOption {
	return func(g *HTTPGateway) {
		g.metrics = m
	}
}

func WithLogger(l *slog.Logger) HTTPOption {
	return func(g *HTTPGateway) {
		g.logger = l
	}
}

func NewHTTPGateway(url string, timeout time.Duration, opts ...HTTPOption) *HTTPGateway {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	g := &HTTPGateway{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("ballotbox/census"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *HTTPGateway) Verify(ctx context.Context, req Request) Result {
	ctx, span := g.tracer.Start(ctx, "census.Verify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("census.document_type", string(req.DocumentType)),
			attribute.String("poll.id", req.PollID.String()),
		),
	)
	defer span.End()

	start := time.Now()
	res := g.call(ctx, req)
	g.metrics.ObserveCall(string(res.Outcome), time.Since(start))

	span.SetAttributes(attribute.String("census.outcome", string(res.Outcome)))
	if res.Outcome == OutcomeUnavailable {
		span.SetStatus(codes.Error, res.Cause)
		g.logger.WarnContext(ctx, "census unavailable",
			"poll_id", req.PollID.String(),
			"cause", res.Cause,
		)
	}
	return res
}

func (g *HTTPGateway) call(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(wireRequest{
		DocumentType:   string(req.DocumentType),
		DocumentNumber: req.DocumentNumber,
		PostalCode:     req.PostalCode,
		YearOfBirth:    req.YearOfBirth,
		PollID:         req.PollID.String(),
	})
	if err != nil {
		return Unavailable(fmt.Sprintf("encode request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return Unavailable(fmt.Sprintf("build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Unavailable("timeout")
		}
		return Unavailable(fmt.Sprintf("transport: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Unavailable(fmt.Sprintf("read body: %v", err))
	}
	res := parseResponse(resp.StatusCode, body)
	if res.IsMatch() && res.DocumentNumber == "" {
		res.DocumentNumber = req.DocumentNumber
	}
	return res
}

// parseResponse maps a census reply to an outcome. 404 is a definite
// negative; anything else outside 2xx is treated as an outage.
func parseResponse(status int, body []byte) Result {
	switch {
	case status == http.StatusNotFound:
		return NoMatch()
	case status < 200 || status > 299:
		return Unavailable(fmt.Sprintf("census status %d", status))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return Unavailable("malformed census response")
	}
	if wr.Match == nil {
		return Unavailable("census response missing match")
	}
	if !*wr.Match {
		return NoMatch()
	}
	return Match(wr.DocumentNumber, wr.Geozone)
}
