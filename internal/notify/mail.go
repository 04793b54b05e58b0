package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/wneessen/go-mail"

	"github.com/sells-group/places-cli/internal/config"
)

// MailNotifier emails operation summaries with the exported table attached.
// The attachment already carries a UTF-8 BOM, so spreadsheet apps render
// right-to-left text correctly.
type MailNotifier struct {
	cfg config.SMTPConfig
}

// NewMailNotifier creates an SMTP notifier from config.
func NewMailNotifier(cfg config.SMTPConfig) *MailNotifier {
	return &MailNotifier{cfg: cfg}
}

// Notify sends one summary mail.
func (n *MailNotifier) Notify(ctx context.Context, s Summary, attachment *Attachment) error {
	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return eris.Wrap(err, "notify: set mail sender")
	}
	if err := m.To(n.cfg.To); err != nil {
		return eris.Wrap(err, "notify: set mail recipient")
	}

	m.Subject(subjectLine(s))
	m.SetBodyString(mail.TypeTextPlain, bodyText(s))

	if attachment != nil {
		if err := m.AttachReader(attachment.Filename, bytes.NewReader(attachment.Data)); err != nil {
			return eris.Wrap(err, "notify: attach export")
		}
	}

	c, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return eris.Wrap(err, "notify: create mail client")
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return eris.Wrap(err, "notify: send mail")
	}
	return nil
}

func subjectLine(s Summary) string {
	if s.Success {
		return fmt.Sprintf("Place search %q: %d results", s.Query, s.ResultCount)
	}
	return fmt.Sprintf("Place search %q failed", s.Query)
}

func bodyText(s Summary) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Query: %s\nLanguage: %s\n", s.Query, s.Language)
	fmt.Fprintf(&buf, "Viewport: N %.6f S %.6f E %.6f W %.6f\n",
		s.Viewport.North, s.Viewport.South, s.Viewport.East, s.Viewport.West)
	if s.Success {
		fmt.Fprintf(&buf, "Results: %d\n", s.ResultCount)
	} else {
		fmt.Fprintf(&buf, "Failed: %s\n", s.Error)
	}
	fmt.Fprintf(&buf, "Operation: %s at %s\n", s.OperationID, s.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	return buf.String()
}
