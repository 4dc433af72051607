package notification

import (
	"context"
	"errors"
)

type fanout []Notifier

// Fanout delivers each message to every notifier, skipping nil ones, and
// joins their errors.
func Fanout(notifiers ...Notifier) Notifier {
	var f fanout
	for _, n := range notifiers {
		if n != nil {
			f = append(f, n)
		}
	}
	return f
}

func (f fanout) Send(ctx context.Context, message Message) error {
	var errs []error
	for _, n := range f {
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
