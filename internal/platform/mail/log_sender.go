package mail

import (
	"context"
	"log/slog"
	"sync"
)

// LogSender records messages in the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With("component", "log_sender")}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "mail not delivered, no smtp host configured",
		"subject", msg.Subject,
		"body_bytes", len(msg.HTMLBody))
	return nil
}

// Sent returns the messages passed to Send so far.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

var _ Sender = (*LogSender)(nil)
