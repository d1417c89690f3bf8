package notifications

import (
	"context"
	"log/slog"

	"github.com/geocoder89/bloodhub/internal/domain/request"
)

type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier { return &LogNotifier{log: log} }

// RequestCreated logs the request without the phone number.
func (n *LogNotifier) RequestCreated(ctx context.Context, req request.Request) error {
	n.log.InfoContext(ctx, "notification.request_created",
		"request_id", req.ID,
		"blood_group", req.BloodGroup,
		"city", req.City,
		"state", req.State,
	)
	return nil
}
