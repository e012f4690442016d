package mail

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/config"
)

// ErrNoRecipient is returned for messages without a To address.
var ErrNoRecipient = errors.New("message has no recipient")

// Message is a single HTML email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Validate checks that the message can be addressed.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an SMTPSender when cfg names a host and a LogSender otherwise.
func NewSender(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	if cfg.Host == "" {
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg, logger)
}
