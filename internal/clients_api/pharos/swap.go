package pharos

import (
	"context"
	"time"

	"pharos-bot/internal/infra/log"

	"go.uber.org/zap"
)

const (
	DefaultSwapAmount = "0.01"
	SwapFromToken     = "ETH"
	SwapToToken       = "USDT"
)

// SwapRequest amount stays a string, the backend parses it
type SwapRequest struct {
	FromToken string `json:"from_token"`
	ToToken   string `json:"to_token"`
	Amount    string `json:"amount"`
	Address   string `json:"address"`
}

// AutoSwap asks the backend to swap amount ETH to USDT for address.
// Nothing is signed or broadcast here.
func (c *Client) AutoSwap(ctx context.Context, address, amount string) Result {
	if amount == "" {
		amount = DefaultSwapAmount
	}
	start := time.Now()
	body := SwapRequest{
		FromToken: SwapFromToken,
		ToToken:   SwapToToken,
		Amount:    amount,
		Address:   address,
	}

	resp, err := c.post(ctx, endpointSwap, body)
	result := newResult(ActionSwap, start, resp, err)

	if result.Succeeded {
		log.LogSuccess("Auto swap succeeded, amount: "+amount+" "+SwapFromToken,
			zap.String("address", address),
			zap.Int64("duration_ms", result.Duration.Milliseconds()))
	} else {
		log.LogError("Auto swap failed: "+result.Message,
			zap.String("address", address),
			zap.String("amount", amount),
			zap.Int("status_code", result.StatusCode))
	}
	return result
}
