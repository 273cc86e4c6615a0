package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusOnHold   RequestStatus = "on hold"
)

// requestTransitions lists the statuses reachable from each request status.
// Approved and rejected are terminal.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {RequestStatusApproved, RequestStatusRejected, RequestStatusOnHold},
	RequestStatusOnHold:  {RequestStatusApproved, RequestStatusRejected, RequestStatusPending},
}

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusOnHold:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseRequestStatus(value string) (RequestStatus, error) {
	status := RequestStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return status, nil
}

type Request struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID            string              `json:"user_id" bson:"user_id"`
	UserEmail         string              `json:"user_email" bson:"user_email"`
	WebsiteType       string              `json:"website_type" bson:"website_type"`
	Features          []string            `json:"features" bson:"features"`
	Deadline          string              `json:"deadline" bson:"deadline"`
	Budget            string              `json:"budget" bson:"budget"`
	Status            RequestStatus       `json:"status" bson:"status"`
	DesignPreferences string              `json:"design_preferences,omitempty" bson:"design_preferences,omitempty"`
	AdditionalNotes   string              `json:"additional_notes,omitempty" bson:"additional_notes,omitempty"`
	QuotedBudget      *float64            `json:"quoted_budget,omitempty" bson:"quoted_budget,omitempty"`
	RejectionReason   string              `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	HoldReason        string              `json:"hold_reason,omitempty" bson:"hold_reason,omitempty"`
	ProjectID         *primitive.ObjectID `json:"project_id,omitempty" bson:"project_id,omitempty"`
	StatusHistory     []StatusChange      `json:"status_history,omitempty" bson:"status_history,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

// StatusChange is one entry of a request or project audit trail.
type StatusChange struct {
	From      string    `json:"from" bson:"from"`
	To        string    `json:"to" bson:"to"`
	ChangedBy string    `json:"changed_by" bson:"changed_by"`
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty"`
	Forced    bool      `json:"forced,omitempty" bson:"forced,omitempty"`
	ChangedAt time.Time `json:"changed_at" bson:"changed_at"`
}

// RequestInput is the payload of the four-step intake form.
type RequestInput struct {
	WebsiteType       string   `json:"website_type" validate:"required,max=100"`
	Features          []string `json:"features" validate:"required,min=1,dive,required,max=100"`
	Deadline          string   `json:"deadline" validate:"required,max=50"`
	Budget            string   `json:"budget" validate:"required,max=50"`
	DesignPreferences string   `json:"design_preferences" validate:"max=5000"`
	AdditionalNotes   string   `json:"additional_notes" validate:"max=5000"`
}

type RequestFilter struct {
	Status RequestStatus
	UserID string
}
