// Package notify delivers team transfer notifications to participants.
//
// A Dispatcher renders one message per pending transfer and hands it to a
// Sender. The SendGrid sender is used in production; the log sender stands
// in when no API key is configured.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// Message is a rendered notification addressed to one participant.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher implements transfer.Notifier on top of a Sender.
type Dispatcher struct {
	sender  Sender
	appName string
	logger  *slog.Logger

	mu        sync.Mutex
	delivered map[string]bool // transfer IDs sent as part of a failed batch
}

// NewDispatcher returns a Dispatcher sending through sender. appName prefixes
// every subject line.
func NewDispatcher(sender Sender, appName string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sender: sender, appName: appName, logger: logger, delivered: make(map[string]bool)}
}

// DispatchTransferNotifications sends one message per transfer. Every
// transfer is attempted; if any send fails the joined error is returned and
// the caller keeps its whole queue. Transfers already delivered in a failed
// batch are remembered by ID and skipped when the batch is retried, so a
// retry only re-sends what did not go out.
func (d *Dispatcher) DispatchTransferNotifications(ctx context.Context, transfers []model.PendingTransfer) (*model.DispatchResult, error) {
	if len(transfers) == 0 {
		return &model.DispatchResult{Message: "no pending transfers"}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	sent, skipped := 0, 0
	for _, t := range transfers {
		if d.delivered[t.ID] {
			skipped++
			continue
		}
		if t.Email == "" {
			errs = append(errs, fmt.Errorf("transfer %s: participant %s has no email", t.ID, t.ParticipantID))
			continue
		}
		if err := d.sender.Send(ctx, d.render(t)); err != nil {
			errs = append(errs, fmt.Errorf("transfer %s: %w", t.ID, err))
			continue
		}
		d.delivered[t.ID] = true
		sent++
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Warn("transfer notifications incomplete", "sent", sent, "skipped", skipped, "failed", len(errs))
		return nil, fmt.Errorf("dispatch transfer notifications: %w", err)
	}

	for _, t := range transfers {
		delete(d.delivered, t.ID)
	}
	d.logger.Info("transfer notifications sent", "count", sent, "skipped", skipped)
	return &model.DispatchResult{Message: fmt.Sprintf("%d transfer notification(s) sent", sent+skipped)}, nil
}

func (d *Dispatcher) render(t model.PendingTransfer) Message {
	subject := fmt.Sprintf("You have moved to %s", t.ToTeamName)
	if d.appName != "" {
		subject = "[" + d.appName + "] " + subject
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", greetingName(t.Name))
	fmt.Fprintf(&text, "The organisers have moved you from %s to %s.\n", t.FromTeamName, t.ToTeamName)
	text.WriteString("Please get in touch with your new teammates.\n")

	body := fmt.Sprintf("<p>Hi %s,</p><p>The organisers have moved you from <strong>%s</strong> to <strong>%s</strong>.</p><p>Please get in touch with your new teammates.</p>",
		html.EscapeString(greetingName(t.Name)), html.EscapeString(t.FromTeamName), html.EscapeString(t.ToTeamName))

	return Message{
		ToName:  t.Name,
		ToEmail: t.Email,
		Subject: subject,
		Text:    text.String(),
		HTML:    body,
	}
}

func greetingName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "there"
	}
	return name
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}
