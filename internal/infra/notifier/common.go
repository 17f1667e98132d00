package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"contest-api/internal/observability/logging"
)

// Retry policy shared by the webhook notifiers.
const (
	maxAttempts      = 2
	defaultBaseDelay = 5 * time.Second
	maxRetryAfter    = 60 * time.Second
)

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// isRetryable reports whether another attempt could succeed. Client errors
// are final; rate limits are handled separately by the caller.
func isRetryable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	return !errors.As(err, &rateLimitErr)
}

// classify turns a non-2xx webhook response into a typed error. The webhook
// URL never appears in the message since it carries the credential.
func classify(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    service + " rate limit exceeded",
			RetryAfter: retryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s webhook client error %d: %s", service, resp.StatusCode, truncate(string(body), 200, "...")),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s webhook server error %d", service, resp.StatusCode),
		}
	}
	return fmt.Errorf("%s webhook: unexpected status code %d", service, resp.StatusCode)
}

// retryAfter reads the delay from the Retry-After header, falling back to a
// JSON retry_after field (seconds) and finally to one second.
func retryAfter(resp *http.Response, body []byte) time.Duration {
	d := time.Second
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			d = time.Duration(secs * float64(time.Second))
		}
	} else {
		var payload struct {
			RetryAfter float64 `json:"retry_after"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.RetryAfter > 0 {
			d = time.Duration(payload.RetryAfter * float64(time.Second))
		}
	}
	return min(d, maxRetryAfter)
}

// postJSON sends one webhook request.
func postJSON(ctx context.Context, client *http.Client, service, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// *url.Error の文字列は URL を含むので使わない
		if ctx.Err() != nil {
			return fmt.Errorf("%s webhook request: %w", service, ctx.Err())
		}
		return fmt.Errorf("%s webhook request failed", service)
	}
	defer func() { _ = resp.Body.Close() }()
	return classify(service, resp)
}

// sendWithRetry runs send up to maxAttempts times. A 429 waits for the
// advertised delay; 5xx and network errors back off linearly from baseDelay.
func sendWithRetry(ctx context.Context, service, entryID string, baseDelay time.Duration, send func(context.Context) error) error {
	logger := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := send(ctx)
		if err == nil {
			logger.Info("notification sent",
				slog.String("channel", service),
				slog.String("entry_id", entryID),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		var delay time.Duration
		var rateLimitErr *RateLimitError
		switch {
		case errors.As(err, &rateLimitErr):
			delay = rateLimitErr.RetryAfter
			logger.Warn("notification rate limited, backing off",
				slog.String("channel", service),
				slog.String("entry_id", entryID),
				slog.Duration("retry_after", delay),
				slog.Int("attempt", attempt))
		case !isRetryable(err):
			return err
		default:
			delay = baseDelay * time.Duration(attempt)
			logger.Warn("notification failed, retrying",
				slog.String("channel", service),
				slog.String("entry_id", entryID),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
		}
	}
	return fmt.Errorf("%s notification failed after %d attempts: %w", service, maxAttempts, lastErr)
}

// truncate shortens text to at most maxLength bytes without splitting a rune,
// appending suffix when anything was cut.
func truncate(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	cut := max(maxLength-len(suffix), 0)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + suffix
}
