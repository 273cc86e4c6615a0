package payment

import (
	"context"
)

// Charge statuses normalised across providers.
const (
	StatusSucceeded = "succeeded"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

type PaymentProvider interface {
	Name() string
	ProcessPayment(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error)
}

type PaymentRequest struct {
	IdempotencyKey  string            `json:"idempotency_key"`
	PaymentMethodID string            `json:"payment_method_id"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	Description     string            `json:"description"`
	CustomerID      string            `json:"customer_id"`
	Metadata        map[string]string `json:"metadata"`
}

type PaymentResponse struct {
	TransactionID string            `json:"transaction_id"`
	Status        string            `json:"status"`
	ProviderState string            `json:"provider_state"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	CreatedAt     int64             `json:"created_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func (r *PaymentResponse) Succeeded() bool {
	return r.Status == StatusSucceeded
}
