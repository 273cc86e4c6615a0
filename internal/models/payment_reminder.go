package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
	ReminderStatusPaid    ReminderStatus = "paid"
	ReminderStatusFailed  ReminderStatus = "failed"
)

// MaxReminderAttempts is how many failed dispatches a reminder gets before it
// is parked as failed.
const MaxReminderAttempts = 5

func (s ReminderStatus) IsValid() bool {
	switch s {
	case ReminderStatusPending, ReminderStatusSent, ReminderStatusPaid, ReminderStatusFailed:
		return true
	}
	return false
}

type PaymentReminder struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID   primitive.ObjectID `json:"project_id" bson:"project_id"`
	UserID      string             `json:"user_id" bson:"user_id"`
	UserEmail   string             `json:"user_email" bson:"user_email"`
	PaymentType Installment        `json:"payment_type" bson:"payment_type"`
	Amount      float64            `json:"amount" bson:"amount"`
	DueDate     time.Time          `json:"due_date" bson:"due_date"`
	Status      ReminderStatus     `json:"status" bson:"status"`
	SentAt      *time.Time         `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	Attempts    int                `json:"attempts" bson:"attempts"`
	LastError   string             `json:"last_error,omitempty" bson:"last_error,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

type CreateReminderRequest struct {
	PaymentType Installment `json:"payment_type" validate:"required,installment"`
	DueDate     time.Time   `json:"due_date" validate:"required"`
}

type ReminderFilter struct {
	Status    ReminderStatus
	ProjectID *primitive.ObjectID
	UserID    string
}
