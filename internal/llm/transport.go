package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loangate-backend/internal/shared/metrics"
)

// maxReplyBytes bounds how much of a provider reply is read.
const maxReplyBytes = 4 << 20

// ErrTimeout marks provider calls that ran out of time.
var ErrTimeout = errors.New("llm request timeout")

// Reply is a raw provider response.
type Reply struct {
	Status int
	Body   []byte
}

// HTTPError formats a non-JSON provider failure.
func (r Reply) HTTPError(provider string) error {
	return fmt.Errorf("%s http status %d: %s", provider, r.Status, strings.TrimSpace(string(r.Body)))
}

// PostJSON sends body as JSON and decodes the reply into out. A reply that
// is not JSON is an error carrying the HTTP status when the status is >= 400.
func PostJSON(ctx context.Context, hc *http.Client, provider, endpoint string, headers map[string]string, body, out any) (Reply, error) {
	start := time.Now()
	reply, err := postJSON(ctx, hc, provider, endpoint, headers, body, out)
	metrics.LLMRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	metrics.LLMRequestsTotal.WithLabelValues(provider, outcome(reply, err)).Inc()
	return reply, err
}

func postJSON(ctx context.Context, hc *http.Client, provider, endpoint string, headers map[string]string, body, out any) (Reply, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Reply{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Reply{}, fmt.Errorf("%s: %w: %w", provider, ErrTimeout, err)
		}
		return Reply{}, fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{Status: resp.StatusCode}, err
	}
	reply := Reply{Status: resp.StatusCode, Body: raw}
	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return reply, reply.HTTPError(provider)
		}
		return reply, fmt.Errorf("%s response parse: %w", provider, err)
	}
	return reply, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcome(r Reply, err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case r.Status >= http.StatusBadRequest:
		return "http_error"
	case err != nil:
		return "error"
	}
	return "ok"
}
