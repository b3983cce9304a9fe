package notifier

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"talentgate/models"
)

// Sender delivers a single email message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Addr string // host:port of the relay
	From string
}

// Send delivers the message via the configured relay.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.Addr, nil, s.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender logs the message instead of delivering it. Used when no SMTP
// relay is configured.
type LogSender struct{}

// Send logs the message.
func (LogSender) Send(_ context.Context, to, subject, body string) error {
	log.Printf("notifier: (no SMTP configured) to=%s subject=%q body=%q", to, subject, body)
	return nil
}

const (
	deliveryAttempts = 3
	deliveryTimeout  = time.Minute
)

// Service builds invitation emails and delivers them through a Sender.
type Service struct {
	sender  Sender
	baseURL string
}

// NewService creates a notifier. baseURL is the externally reachable address
// candidates use to open assessment links.
func NewService(sender Sender, baseURL string) *Service {
	return &Service{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// NotifyInvitation delivers the assessment link in the background with a
// bounded retry. Delivery failure is logged, never surfaced to the issuer.
func (s *Service) NotifyInvitation(inv models.Invitation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if err := s.deliver(ctx, inv); err != nil {
			log.Printf("notifier: invitation %s: delivery to %s failed: %v", inv.ID, inv.CandidateEmail, err)
		}
	}()
}

func (s *Service) deliver(ctx context.Context, inv models.Invitation) error {
	link := s.AssessmentLink(inv.Token)
	subject := "You have been invited to take an assessment"
	body := fmt.Sprintf(
		"Hello,\r\n\r\nYou have been invited to complete an online assessment.\r\n\r\n"+
			"Open the link below to begin. The link is personal, works once, and expires on %s.\r\n\r\n%s\r\n",
		inv.ExpiresAt.UTC().Format(time.RFC1123), link,
	)

	return retry.Do(
		func() error { return s.sender.Send(ctx, inv.CandidateEmail, subject, body) },
		retry.Context(ctx),
		retry.Attempts(deliveryAttempts),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// AssessmentLink renders the candidate-facing link for a token.
func (s *Service) AssessmentLink(token string) string {
	return fmt.Sprintf("%s/assessment?token=%s", s.baseURL, url.QueryEscape(token))
}
