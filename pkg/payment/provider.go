package payment

import (
	"context"
	"fmt"
)

// NewProvider returns the provider named by the configuration.
func NewProvider(name, stripeSecret, razorpayKeyID, razorpaySecret string) (PaymentProvider, error) {
	switch name {
	case "stripe":
		if stripeSecret == "" {
			return nil, fmt.Errorf("stripe secret key is not configured")
		}
		return NewStripeProvider(stripeSecret), nil
	case "razorpay":
		if razorpayKeyID == "" || razorpaySecret == "" {
			return nil, fmt.Errorf("razorpay credentials are not configured")
		}
		return NewRazorpayProvider(razorpayKeyID, razorpaySecret), nil
	case "", "none":
		return NoopProvider{}, nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", name)
}

// NoopProvider rejects every charge. It is used when no processor is configured
// so staff can still record payments by hand.
type NoopProvider struct{}

func (NoopProvider) Name() string { return "none" }

func (NoopProvider) ProcessPayment(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	return nil, fmt.Errorf("no payment provider configured")
}
