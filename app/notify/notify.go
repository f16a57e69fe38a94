// Package notify delivers user-facing messages such as the welcome and
// password reset emails. Delivery is best effort.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "password_reset"
)

type Notification struct {
	Kind      Kind
	Recipient string
	Subject   string
	Body      string
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"kind":      n.Kind,
		"recipient": n.Recipient,
		"subject":   n.Subject,
	}).Info("notification sent")
	logrus.WithField("kind", n.Kind).Debug(n.Body)
	return nil
}
