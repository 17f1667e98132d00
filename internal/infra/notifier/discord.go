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

// DiscordConfig holds the webhook settings. The URL embeds the token.
type DiscordConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier posts embeds to a Discord webhook.
type DiscordNotifier struct {
	config     DiscordConfig
	httpClient *http.Client
	pace       *rate.Limiter
	baseDelay  time.Duration
}

// NewDiscordNotifier paces requests at 30 per minute with a burst of 3.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		pace:       rate.NewLimiter(0.5, 3),
		baseDelay:  defaultBaseDelay,
	}
}

// DiscordWebhookPayload is the JSON body sent to the webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is one embed message.
type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

// DiscordEmbedFooter is the footer line of an embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096

	discordBlueColor = 5793266 // #5865F2
)

// Name implements Notifier.
func (*DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) buildPayload(e *entity.Entry) DiscordWebhookPayload {
	sum := summarize(e)
	return DiscordWebhookPayload{
		Embeds: []DiscordEmbed{{
			Title:       truncate(sum.Title, maxTitleLength, ""),
			Description: truncate(sum.Details, maxDescriptionLength, "..."),
			Color:       discordBlueColor,
			Footer:      DiscordEmbedFooter{Text: sum.Footer},
			Timestamp:   e.SubmittedAt.UTC().Format(time.RFC3339),
		}},
	}
}

// NotifyEntry implements Notifier.
func (d *DiscordNotifier) NotifyEntry(ctx context.Context, e *entity.Entry) error {
	payload, err := json.Marshal(d.buildPayload(e))
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	return sendWithRetry(ctx, d.Name(), e.ID, d.baseDelay, func(ctx context.Context) error {
		if err := d.pace.Wait(ctx); err != nil {
			return fmt.Errorf("wait for send slot: %w", err)
		}
		return postJSON(ctx, d.httpClient, "discord", d.config.WebhookURL, payload)
	})
}
