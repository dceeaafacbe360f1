package email

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendWelcome(ctx context.Context, email string, name string) error
	SendDisputeNotice(ctx context.Context, to string, disputeNumber string, status string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// New returns an SMTP service, or Nop when no host is configured.
func New(cfg Config) Service {
	if cfg.Host == "" {
		return Nop{}
	}
	return NewSMTP(cfg)
}

type SMTPService struct {
	from string
	send func(*gomail.Message) error
}

func NewSMTP(cfg Config) *SMTPService {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPService{
		from: cfg.From,
		send: func(m *gomail.Message) error { return d.DialAndSend(m) },
	}
}

func (s *SMTPService) SendWelcome(ctx context.Context, email string, name string) error {
	body := fmt.Sprintf("<p>Hello %s,</p><p>Your employee account has been created. Welcome aboard!</p>", name)
	return s.SendCustom(ctx, email, "Welcome to the team", body)
}

func (s *SMTPService) SendDisputeNotice(ctx context.Context, to string, disputeNumber string, status string) error {
	body := fmt.Sprintf("<p>Dispute <strong>%s</strong> is now <strong>%s</strong>.</p>", disputeNumber, status)
	return s.SendCustom(ctx, to, fmt.Sprintf("Dispute %s: %s", disputeNumber, status), body)
}

func (s *SMTPService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)
	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// Nop drops every message.
type Nop struct{}

func (Nop) SendWelcome(context.Context, string, string) error               { return nil }
func (Nop) SendDisputeNotice(context.Context, string, string, string) error { return nil }
func (Nop) SendCustom(context.Context, string, string, string) error        { return nil }

// Sent is a message captured by Recorder.
type Sent struct {
	To      string
	Subject string
}

// Recorder captures messages instead of sending them.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

func (r *Recorder) SendWelcome(_ context.Context, email string, name string) error {
	return r.record(email, "welcome:"+name)
}

func (r *Recorder) SendDisputeNotice(_ context.Context, to string, disputeNumber string, status string) error {
	return r.record(to, "dispute:"+disputeNumber+":"+status)
}

func (r *Recorder) SendCustom(_ context.Context, to string, subject string, _ string) error {
	return r.record(to, subject)
}

func (r *Recorder) record(to, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{To: to, Subject: subject})
	return nil
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}
