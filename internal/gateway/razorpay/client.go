// Package razorpay adapts the Razorpay orders API to payment.Gateway.
package razorpay

import (
	"context"
	"fmt"
	"log/slog"

	rzp "github.com/razorpay/razorpay-go"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/payment"
)

// orderCreator is the slice of the SDK the adapter uses.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Client struct {
	orders orderCreator
	logger *slog.Logger
}

func NewClient(keyID, keySecret string, logger *slog.Logger) *Client {
	return &Client{
		orders: rzp.NewClient(keyID, keySecret).Order,
		logger: logger.With("component", "razorpay"),
	}
}

type result struct {
	body map[string]interface{}
	err  error
}

// CreateOrderIntent creates a Razorpay order with automatic capture.
func (c *Client) CreateOrderIntent(ctx context.Context, amount int64, currency, receipt string) (payment.Intent, error) {
	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	// The SDK has no context support; abandon the call when ctx ends.
	done := make(chan result, 1)
	go func() {
		body, err := c.orders.Create(data, nil)
		done <- result{body: body, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return payment.Intent{}, apperr.Wrap(apperr.Unavailable, ctx.Err(), "payment gateway did not respond")
	case res = <-done:
	}

	if res.err != nil {
		c.logger.ErrorContext(ctx, "razorpay order create failed", "receipt", receipt, "error", res.err)
		return payment.Intent{}, apperr.Wrap(apperr.Unavailable, res.err, "payment gateway error")
	}
	return parseIntent(res.body)
}

func parseIntent(body map[string]interface{}) (payment.Intent, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return payment.Intent{}, apperr.E(apperr.Unavailable, "payment gateway returned no order id")
	}

	intent := payment.Intent{ID: id}
	intent.Currency, _ = body["currency"].(string)
	switch v := body["amount"].(type) {
	case float64:
		intent.Amount = int64(v)
	case int64:
		intent.Amount = v
	case int:
		intent.Amount = int64(v)
	default:
		return payment.Intent{}, apperr.E(apperr.Unavailable, "payment gateway returned amount %s", fmt.Sprint(v))
	}
	return intent, nil
}
