package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/razorpay/razorpay-go"
)

type RazorpayProvider struct {
	client *razorpay.Client
}

func NewRazorpayProvider(keyID, keySecret string) *RazorpayProvider {
	return &RazorpayProvider{client: razorpay.NewClient(keyID, keySecret)}
}

func (r *RazorpayProvider) Name() string {
	return "razorpay"
}

// ProcessPayment creates an order. Razorpay authorises the payment in the
// checkout widget, so the charge is reported as pending.
func (r *RazorpayProvider) ProcessPayment(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	notes := make(map[string]interface{}, len(request.Metadata))
	for key, value := range request.Metadata {
		notes[key] = value
	}

	orderData := map[string]interface{}{
		"amount":   int64(math.Round(request.Amount * 100)),
		"currency": strings.ToUpper(request.Currency),
		"receipt":  request.IdempotencyKey,
		"notes":    notes,
	}

	order, err := r.client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	id, _ := order["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order response has no id")
	}
	state, _ := order["status"].(string)
	currency, _ := order["currency"].(string)

	return &PaymentResponse{
		TransactionID: id,
		Status:        StatusPending,
		ProviderState: state,
		Amount:        numberField(order, "amount") / 100,
		Currency:      currency,
		CreatedAt:     int64(numberField(order, "created_at")),
		Metadata:      request.Metadata,
	}, nil
}

// numberField reads a JSON number from a decoded response map.
func numberField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
