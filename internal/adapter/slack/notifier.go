// Package slack posts run notifications to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/litigation-mapper/internal/config"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

// Notification describes a finished run.
type Notification struct {
	RunID   string
	State   domain.RunStatus
	At      time.Time
	Message string
}

// Text renders the Slack message body.
func (n Notification) Text(env string) string {
	return fmt.Sprintf("Litigation mapper run %s observed in state `%s` at %s. For environment: %s. State message: %s",
		n.RunID, n.State, n.At.UTC().Format(time.RFC3339), env, n.Message)
}

// Notifier sends notifications. Only production runs reach Slack; other
// environments log and return.
type Notifier struct {
	webhookURL string
	env        string
	httpClient *http.Client
	log        *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(slackCfg config.SlackConfig, appCfg config.AppConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: slackCfg.WebhookURL,
		env:        appCfg.Environment,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With(slog.String("adapter", "slack")),
	}
}

// Notify posts n to the webhook.
func (s *Notifier) Notify(ctx context.Context, n Notification) error {
	if s.env != config.EnvProd || s.webhookURL == "" {
		s.log.DebugContext(ctx, "slack notification suppressed",
			slog.String("environment", s.env),
			slog.String("run_id", n.RunID),
			slog.String("state", string(n.State)),
		)
		return nil
	}

	body, err := json.Marshal(map[string]string{"text": n.Text(s.env)})
	if err != nil {
		return fmt.Errorf("slack: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack: post: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	return nil
}
