package notifications

import (
	"context"

	"github.com/geocoder89/bloodhub/internal/domain/request"
)

// Notifier broadcasts newly created emergency requests to whoever listens.
type Notifier interface {
	RequestCreated(ctx context.Context, req request.Request) error
}

// Multi fans out to every notifier and returns the first error.
type Multi []Notifier

func (m Multi) RequestCreated(ctx context.Context, req request.Request) error {
	var first error
	for _, n := range m {
		if err := n.RequestCreated(ctx, req); err != nil && first == nil {
			first = err
		}
	}
	return first
}
