package validators

import (
	"bytes"
	"encoding/json"
	"fmt"

	"agencyportal/internal/models"
)

// AmountInput accepts a JSON number or a string such as "$1,500".
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or string: %w", err)
	}
	*a = AmountInput(n.String())
	return nil
}

type ApproveRequest struct {
	QuotedBudget AmountInput `json:"quoted_budget" validate:"required,currency_amount"`
}

// DecisionRequest carries the reason for a reject or hold.
type DecisionRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type ForceRequestStatusRequest struct {
	Status string `json:"status" validate:"required,request_status"`
	Reason string `json:"reason" validate:"required,max=2000"`
}

type ProjectStatusRequest struct {
	Status string `json:"status" validate:"required,project_status"`
}

type ForceProjectStatusRequest struct {
	Status string `json:"status" validate:"required,project_status"`
	Reason string `json:"reason" validate:"required,max=2000"`
}

type MarkPaidRequest struct {
	OutOfBand bool   `json:"out_of_band"`
	Reason    string `json:"reason" validate:"required_if=OutOfBand true,max=2000"`
}

type InitiatePaymentRequest struct {
	Installment     string `json:"installment" validate:"required,installment"`
	PaymentMethodID string `json:"payment_method_id" validate:"omitempty,max=255"`
}

type DiscountCodeRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateReminderInput is the admin payload for scheduling a payment reminder.
type CreateReminderInput struct {
	ProjectID string `json:"project_id" validate:"required,object_id"`
	models.CreateReminderRequest
}
