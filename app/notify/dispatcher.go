package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

type AsyncRunner func(task func())

type DispatcherOption func(*Dispatcher)

// Dispatcher hands notifications to a Sender without blocking the caller.
// Each send gets its own context so it outlives the request that caused it.
type Dispatcher struct {
	sender      Sender
	timeout     time.Duration
	asyncRunner AsyncRunner
}

func NewDispatcher(sender Sender, timeout time.Duration, opts ...DispatcherOption) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d := &Dispatcher{
		sender:  sender,
		timeout: timeout,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func WithAsyncRunner(runner AsyncRunner) DispatcherOption {
	return func(d *Dispatcher) {
		if runner != nil {
			d.asyncRunner = runner
		}
	}
}

// Notify schedules n for delivery. Failures are logged and dropped.
func (d *Dispatcher) Notify(n Notification) {
	d.asyncRunner(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, n); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"kind":      n.Kind,
				"recipient": n.Recipient,
			}).Error("failed to send notification")
		}
	})
}
