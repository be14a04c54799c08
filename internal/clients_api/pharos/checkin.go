package pharos

import (
	"context"
	"time"

	"pharos-bot/internal/infra/log"

	"go.uber.org/zap"
)

type CheckInRequest struct {
	Address   string `json:"address"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// DailyCheckIn posts the daily check-in event for address.
// now only ends up in the payload timestamp.
func (c *Client) DailyCheckIn(ctx context.Context, address string, now time.Time) Result {
	start := time.Now()
	body := CheckInRequest{
		Address:   address,
		Action:    ActionCheckIn,
		Timestamp: now.Unix(),
	}

	resp, err := c.post(ctx, endpointCheckIn, body)
	result := newResult(ActionCheckIn, start, resp, err)

	if result.Succeeded {
		log.LogSuccess("Daily check-in succeeded",
			zap.String("address", address),
			zap.Int64("duration_ms", result.Duration.Milliseconds()))
	} else {
		log.LogError("Daily check-in failed: "+result.Message,
			zap.String("address", address),
			zap.Int("status_code", result.StatusCode))
	}
	return result
}
