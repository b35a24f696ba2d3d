package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mmaazkhanhere/learnpath/pkg/httpclient"
)

// WebhookSender posts each message as JSON to a fixed URL. Consecutive
// failures open a circuit breaker so a dead endpoint fails fast and the
// consumer can dead-letter the event.
type WebhookSender struct {
	url    string
	client *httpclient.BreakerClient
}

func NewWebhookSender(url string, cfg httpclient.Config, logger *slog.Logger) *WebhookSender {
	client := httpclient.New(cfg)
	return &WebhookSender{
		url:    url,
		client: httpclient.NewBreakerClient(client, httpclient.DefaultBreakerConfig("notify-webhook"), logger),
	}
}

func (s *WebhookSender) Name() string { return "webhook" }

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	resp, err := s.client.Post(ctx, s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, s.Name())
	}
	_ = resp.Body.Close()
	return nil
}

// NewSender returns a WebhookSender when url is set and a LogSender otherwise.
func NewSender(url string, logger *slog.Logger) Sender {
	if url == "" {
		return NewLogSender(logger)
	}
	return NewWebhookSender(url, httpclient.DefaultConfig(), logger)
}
