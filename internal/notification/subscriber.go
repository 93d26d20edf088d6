package notification

import (
	"context"
	"fmt"

	"github.com/frahmantamala/dialer-dashboard/internal/core/events"
)

type subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// Subscribe wires the queue to the events that produce mail.
func (q *Queue) Subscribe(bus subscriber, otpMinutes int) {
	bus.Subscribe(events.EventTypeSignupRequested, func(_ context.Context, e events.Event) error {
		ev, ok := e.(*events.SignupRequestedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", e)
		}
		msg, err := VerificationEmail(ev.Email, ev.OTP, otpMinutes)
		if err != nil {
			return err
		}
		return q.Enqueue(msg)
	})
}
