package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers operator-facing alerts. Implementations must never
// block trading paths; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// Discord posts alerts to a webhook. A nil or empty-URL Discord is a
// no-op, so callers never need to branch on configuration.
type Discord struct {
	URL    string
	Client *http.Client
	Log    zerolog.Logger
}

func NewDiscord(url string, log zerolog.Logger) *Discord {
	return &Discord{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
		Log:    log,
	}
}

type discordPayload struct {
	Content string `json:"content"`
}

func (d *Discord) Notify(ctx context.Context, title, message string) {
	if d == nil || d.URL == "" {
		return
	}
	body, err := json.Marshal(discordPayload{
		Content: fmt.Sprintf("**%s**\n%s", title, message),
	})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		d.Log.Warn().Err(err).Msg("discord request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		d.Log.Warn().Err(err).Msg("discord notify failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.Log.Warn().Int("status", resp.StatusCode).Msg("discord notify rejected")
	}
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) {}
