package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// webhookPayload is the JSON body posted to the webhook. The attachment is
// inlined base64 so the receiver needs no follow-up fetch.
type webhookPayload struct {
	Summary
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentB64  string `json:"attachment_b64,omitempty"`
}

// WebhookNotifier posts operation summaries as JSON to a fixed URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the summary, attaching the exported table inline when given.
func (n *WebhookNotifier) Notify(ctx context.Context, s Summary, attachment *Attachment) error {
	p := webhookPayload{Summary: s}
	if attachment != nil {
		p.AttachmentName = attachment.Filename
		p.AttachmentB64 = base64.StdEncoding.EncodeToString(attachment.Data)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "notify: marshal summary")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
