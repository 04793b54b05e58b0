// Package notify delivers fire-and-forget summaries of finished search and
// export operations. Delivery failures are logged and swallowed; they never
// alter the operation's outcome.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/places-cli/internal/config"
	"github.com/sells-group/places-cli/internal/model"
)

// Summary describes one completed (or failed) operation.
type Summary struct {
	OperationID string         `json:"operation_id"`
	Query       string         `json:"query"`
	Language    string         `json:"language"`
	Viewport    model.Viewport `json:"viewport"`
	Success     bool           `json:"success"`
	ResultCount int            `json:"result_count"`
	Error       string         `json:"error,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Attachment is the exported table sent along with a successful summary.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Notifier delivers one summary, optionally with the exported table
// attached. attachment is nil when the operation failed.
type Notifier interface {
	Notify(ctx context.Context, s Summary, attachment *Attachment) error
}

// Dispatch sends the summary through every notifier with a bounded timeout,
// logging and swallowing failures.
func Dispatch(ctx context.Context, notifiers []Notifier, s Summary, attachment *Attachment) {
	if len(notifiers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, n := range notifiers {
		if err := n.Notify(ctx, s, attachment); err != nil {
			zap.L().Error("notify: delivery failed",
				zap.String("operation_id", s.OperationID),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("notify: summary delivered",
			zap.String("operation_id", s.OperationID),
			zap.Bool("success", s.Success),
		)
	}
}

// FromConfig builds the notifiers enabled by configuration.
func FromConfig(cfg config.NotifyConfig) []Notifier {
	var out []Notifier
	if cfg.WebhookURL != "" {
		out = append(out, NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.To != "" {
		out = append(out, NewMailNotifier(cfg.SMTP))
	}
	return out
}
