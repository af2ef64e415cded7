package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// Email sends plain-text alerts through an SMTP relay using STARTTLS.
// Each recipient gets its own message so one rejected address does not
// stop delivery to the rest.
type Email struct {
	logger  *zap.Logger
	opts    EmailOptions
	client  *mail.Client
	deliver func(ctx context.Context, m *mail.Msg) error
}

func NewEmail(logger *zap.Logger, opts EmailOptions) (*Email, error) {
	if opts.Host == "" {
		return nil, errors.New("notify: smtp host required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	c, err := mail.NewClient(opts.Host,
		mail.WithPort(opts.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.Username),
		mail.WithPassword(opts.Password),
		mail.WithTimeout(opts.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: smtp client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Email{logger: logger, opts: opts, client: c}
	e.deliver = func(ctx context.Context, m *mail.Msg) error {
		return c.DialAndSendWithContext(ctx, m)
	}
	return e, nil
}

func (e *Email) Send(ctx context.Context, title, text string) error {
	if len(e.opts.To) == 0 {
		return errors.New("notify: no recipients")
	}
	var errs error
	sent := 0
	for _, rcpt := range e.opts.To {
		m, err := e.message(rcpt, title, text)
		if err == nil {
			err = e.deliver(ctx, m)
		}
		if err != nil {
			e.logger.Warn("email_delivery_failed", zap.String("to", rcpt), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", rcpt, err))
			continue
		}
		sent++
	}
	e.logger.Info("email_sent",
		zap.String("subject", title),
		zap.Int("delivered", sent),
		zap.Int("recipients", len(e.opts.To)),
	)
	return errs
}

// Verify dials and authenticates against the relay without sending.
func (e *Email) Verify(ctx context.Context) error {
	if err := e.client.DialWithContext(ctx); err != nil {
		return err
	}
	return e.client.Close()
}

func (e *Email) message(rcpt, title, text string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(e.opts.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(rcpt); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(title)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, text)
	return m, nil
}
