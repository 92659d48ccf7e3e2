// Package notify delivers report announcements to subscriber webhooks.
// The message carries the report metadata plus a truncated excerpt of
// the analysis body; the full body stays in the blob store.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"bdo-watch/patchwatch/internal/models"
)

const (
	maxMessageLen = 2000
	maxExcerptLen = 1024
)

// BlobReader serves stored report bodies for the message excerpt.
type BlobReader interface {
	Read(name string) ([]byte, error)
}

// WebhookSender posts announcement messages to Discord-compatible
// webhooks.
type WebhookSender struct {
	client *http.Client
	blobs  BlobReader
}

// NewWebhookSender builds a sender with a bounded request timeout.
func NewWebhookSender(blobs BlobReader) *WebhookSender {
	return &WebhookSender{
		client: &http.Client{Timeout: 15 * time.Second},
		blobs:  blobs,
	}
}

// Send posts one report announcement to one subscription webhook.
func (w *WebhookSender) Send(ctx context.Context, sub models.Subscription, report models.Report) error {
	if sub.WebhookURL == "" {
		return fmt.Errorf("subscription for guild %d has no webhook", sub.GuildID)
	}

	body, err := json.Marshal(map[string]string{
		"content": w.buildMessage(report),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}

// buildMessage assembles the announcement text, fitting an excerpt of
// the analysis under the webhook message limit.
func (w *WebhookSender) buildMessage(report models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**New patch report - %s**\n", report.Source)
	fmt.Fprintf(&b, "**%s**\n", report.Title)
	if report.RawDate != "" {
		fmt.Fprintf(&b, "Date: %s\n", report.RawDate)
	}
	if report.URL != "" {
		fmt.Fprintf(&b, "%s\n", report.URL)
	}

	if excerpt := w.excerpt(report.ReportFilename); excerpt != "" {
		fmt.Fprintf(&b, "```\n%s\n```", excerpt)
	}

	msg := b.String()
	if len([]rune(msg)) > maxMessageLen {
		msg = string([]rune(msg)[:maxMessageLen-4]) + "\n```"
	}
	return msg
}

func (w *WebhookSender) excerpt(filename string) string {
	if filename == "" || w.blobs == nil {
		return ""
	}

	data, err := w.blobs.Read(filename)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("Could not read report blob for excerpt")
		return ""
	}

	runes := []rune(strings.TrimSpace(string(data)))
	if len(runes) > maxExcerptLen {
		runes = runes[:maxExcerptLen]
	}
	return string(runes)
}
