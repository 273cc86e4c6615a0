package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeProvider struct {
	client *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeProvider{client: sc}
}

func (s *StripeProvider) Name() string {
	return "stripe"
}

// ProcessPayment creates and confirms a PaymentIntent for the installment.
func (s *StripeProvider) ProcessPayment(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(math.Round(request.Amount * 100))),
		Currency:      stripe.String(strings.ToLower(request.Currency)),
		PaymentMethod: stripe.String(request.PaymentMethodID),
		Description:   stripe.String(request.Description),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if request.CustomerID != "" {
		params.Customer = stripe.String(request.CustomerID)
	}
	params.Context = ctx
	if request.IdempotencyKey != "" {
		params.SetIdempotencyKey(request.IdempotencyKey)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentResponse{
		TransactionID: pi.ID,
		Status:        stripeStatus(pi.Status),
		ProviderState: string(pi.Status),
		Amount:        float64(pi.Amount) / 100,
		Currency:      strings.ToUpper(string(pi.Currency)),
		CreatedAt:     pi.Created,
		Metadata:      pi.Metadata,
	}, nil
}

func stripeStatus(status stripe.PaymentIntentStatus) string {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return StatusFailed
	default:
		return StatusPending
	}
}
