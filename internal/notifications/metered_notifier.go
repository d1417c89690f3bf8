package notifications

import (
	"context"
	"errors"

	"github.com/geocoder89/bloodhub/internal/domain/request"
)

// MeteredNotifier reports the outcome of every send as "sent", "failed" or
// "circuit_open".
type MeteredNotifier struct {
	inner   Notifier
	observe func(result string)
}

func NewMeteredNotifier(inner Notifier, observe func(result string)) *MeteredNotifier {
	return &MeteredNotifier{inner: inner, observe: observe}
}

func (n *MeteredNotifier) RequestCreated(ctx context.Context, req request.Request) error {
	err := n.inner.RequestCreated(ctx, req)

	if n.observe != nil {
		switch {
		case err == nil:
			n.observe("sent")
		case errors.Is(err, ErrCircuitOpen):
			n.observe("circuit_open")
		default:
			n.observe("failed")
		}
	}

	return err
}
