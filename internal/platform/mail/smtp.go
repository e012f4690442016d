package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/config"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSender sends messages through an SMTP relay.
type SMTPSender struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

// NewSMTPSender validates the relay settings and returns a sender.
// Connections are opened per Send.
func NewSMTPSender(cfg config.MailConfig, logger *slog.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if _, err := tlsPolicy(cfg.TLS); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		cfg:    cfg,
		logger: logger.With("component", "smtp_sender"),
	}, nil
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.buildMsg(msg)
	if err != nil {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("failed to send mail",
			"host", s.cfg.Host,
			"subject", msg.Subject,
			"error", err)
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Info("mail sent", "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) buildMsg(msg Message) (*gomail.Msg, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	m := gomail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if msg.ToName != "" {
		if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
			return nil, fmt.Errorf("invalid recipient: %w", err)
		}
	} else if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	return m, nil
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	policy, err := tlsPolicy(s.cfg.TLS)
	if err != nil {
		return nil, err
	}

	opts := []gomail.Option{gomail.WithTLSPolicy(policy)}
	if s.cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(s.cfg.Port))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}

func tlsPolicy(name string) (gomail.TLSPolicy, error) {
	switch name {
	case "", "opportunistic":
		return gomail.TLSOpportunistic, nil
	case "mandatory":
		return gomail.TLSMandatory, nil
	case "none":
		return gomail.NoTLS, nil
	default:
		return gomail.NoTLS, fmt.Errorf("unknown tls policy %q", name)
	}
}

var _ Sender = (*SMTPSender)(nil)
