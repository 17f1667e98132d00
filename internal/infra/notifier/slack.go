package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"contest-api/internal/domain/entity"
)

// SlackConfig holds the Incoming Webhook settings. The URL embeds the token.
type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// SlackNotifier posts Block Kit messages to a Slack Incoming Webhook.
type SlackNotifier struct {
	config     SlackConfig
	httpClient *http.Client
	pace       *rate.Limiter
	baseDelay  time.Duration
}

// NewSlackNotifier paces requests at 1 per second, the Incoming Webhook limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		pace:       rate.NewLimiter(1, 1),
		baseDelay:  defaultBaseDelay,
	}
}

// SlackWebhookPayload is the JSON body sent to the webhook.
type SlackWebhookPayload struct {
	Text   string       `json:"text"` // 通知のフォールバック
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Block Kit block ("section" or "context").
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block Kit limits
const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
)

// Name implements Notifier.
func (*SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) buildPayload(e *entity.Entry) SlackWebhookPayload {
	sum := summarize(e)

	fallback := truncate(fmt.Sprintf("New %s entry: %s", e.Category, sum.Title), maxFallbackLength, "...")
	section := truncate(fmt.Sprintf("*%s*\n%s", sum.Title, sum.Details), maxSectionTextLength, "...")
	footer := fmt.Sprintf("%s • %s", sum.Footer, e.SubmittedAt.UTC().Format(time.RFC3339))

	return SlackWebhookPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{Type: "section", Text: &SlackTextObject{Type: "mrkdwn", Text: section}},
			{Type: "context", Elements: []SlackTextObject{{Type: "mrkdwn", Text: footer}}},
		},
	}
}

// NotifyEntry implements Notifier.
func (s *SlackNotifier) NotifyEntry(ctx context.Context, e *entity.Entry) error {
	payload, err := json.Marshal(s.buildPayload(e))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	return sendWithRetry(ctx, s.Name(), e.ID, s.baseDelay, func(ctx context.Context) error {
		if err := s.pace.Wait(ctx); err != nil {
			return fmt.Errorf("wait for send slot: %w", err)
		}
		return postJSON(ctx, s.httpClient, "slack", s.config.WebhookURL, payload)
	})
}
