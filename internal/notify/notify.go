package notify

import "context"

// Notifier delivers a short alert to an external channel. A disabled channel
// (nil receiver, empty URL) reports an error from Send; callers treat
// delivery as best-effort.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans out to every notifier and reports the first failure. One broken
// channel does not stop the others.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
