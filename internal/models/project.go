package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string
type PaymentStatus string
type Installment string

const (
	ProjectStatusInProgress   ProjectStatus = "in progress"
	ProjectStatusClientReview ProjectStatus = "client review"
	ProjectStatusFinalReview  ProjectStatus = "final review"
	ProjectStatusCompleted    ProjectStatus = "completed"
	ProjectStatusOnHold       ProjectStatus = "on hold"

	PaymentStatusUnpaid      PaymentStatus = "unpaid"
	PaymentStatusDepositPaid PaymentStatus = "deposit paid"
	PaymentStatusFinalOnly   PaymentStatus = "final paid"
	PaymentStatusPaid        PaymentStatus = "paid"

	InstallmentDeposit Installment = "deposit"
	InstallmentFinal   Installment = "final"

	// PendingUserID marks a project whose owner has not signed in yet.
	PendingUserID = "pending"

	// DefaultProgress is shown for any status without a fixed percentage.
	DefaultProgress = 25
)

// projectStages is the forward order of the workflow. On hold sits outside it.
var projectStages = []ProjectStatus{
	ProjectStatusInProgress,
	ProjectStatusClientReview,
	ProjectStatusFinalReview,
	ProjectStatusCompleted,
}

var projectProgress = map[ProjectStatus]int{
	ProjectStatusInProgress:   25,
	ProjectStatusClientReview: 75,
	ProjectStatusFinalReview:  90,
	ProjectStatusCompleted:    100,
}

func (s ProjectStatus) IsValid() bool {
	return s == ProjectStatusOnHold || s.stage() >= 0
}

func (s ProjectStatus) stage() int {
	for i, stage := range projectStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Progress returns the display percentage for a status.
func (s ProjectStatus) Progress() int {
	if p, ok := projectProgress[s]; ok {
		return p
	}
	return DefaultProgress
}

// CanTransitionTo reports whether a regular status update may move a project
// from s to next. Stages only move forward (skipping is allowed), on hold is
// reachable from any unfinished stage, and a held project may resume at any
// unfinished stage. Completed is final. Same-status updates are allowed and
// treated as no-ops by callers.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	if s == ProjectStatusCompleted {
		return false
	}
	if next == ProjectStatusOnHold {
		return true
	}
	if s == ProjectStatusOnHold {
		return next != ProjectStatusCompleted
	}
	return next.stage() > s.stage()
}

func ParseProjectStatus(value string) (ProjectStatus, error) {
	status := ProjectStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return status, nil
}

func ProjectStatuses() []ProjectStatus {
	return append(append([]ProjectStatus{}, projectStages...), ProjectStatusOnHold)
}

func (i Installment) IsValid() bool {
	return i == InstallmentDeposit || i == InstallmentFinal
}

func ParseInstallment(value string) (Installment, error) {
	inst := Installment(strings.ToLower(strings.TrimSpace(value)))
	if !inst.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInstallment, value)
	}
	return inst, nil
}

// DerivePaymentStatus summarises the two installment flags.
func DerivePaymentStatus(depositPaid, finalPaid bool) PaymentStatus {
	switch {
	case depositPaid && finalPaid:
		return PaymentStatusPaid
	case depositPaid:
		return PaymentStatusDepositPaid
	case finalPaid:
		return PaymentStatusFinalOnly
	default:
		return PaymentStatusUnpaid
	}
}

type Project struct {
	ID               primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	RequestID        primitive.ObjectID   `json:"request_id" bson:"request_id"`
	UserID           string               `json:"user_id" bson:"user_id"`
	UserEmail        string               `json:"user_email" bson:"user_email"`
	WebsiteType      string               `json:"website_type" bson:"website_type"`
	Features         []string             `json:"features" bson:"features"`
	Deadline         string               `json:"deadline" bson:"deadline"`
	Budget           float64              `json:"budget" bson:"budget"`
	Status           ProjectStatus        `json:"status" bson:"status"`
	PaymentStatus    PaymentStatus        `json:"payment_status" bson:"payment_status"`
	DepositPaid      bool                 `json:"deposit_paid" bson:"deposit_paid"`
	FinalPaid        bool                 `json:"final_paid" bson:"final_paid"`
	DepositPaidAt    *time.Time           `json:"deposit_paid_at,omitempty" bson:"deposit_paid_at,omitempty"`
	FinalPaidAt      *time.Time           `json:"final_paid_at,omitempty" bson:"final_paid_at,omitempty"`
	AppliedDiscount  *AppliedDiscount     `json:"applied_discount,omitempty" bson:"applied_discount,omitempty"`
	PaymentOverrides []PaymentOverride    `json:"payment_overrides,omitempty" bson:"payment_overrides,omitempty"`
	Transactions     []PaymentTransaction `json:"transactions,omitempty" bson:"transactions,omitempty"`
	StatusHistory    []StatusChange       `json:"status_history,omitempty" bson:"status_history,omitempty"`
	CreatedAt        time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" bson:"updated_at"`
}

type AppliedDiscount struct {
	Code       string    `json:"code" bson:"code"`
	Percentage float64   `json:"percentage" bson:"percentage"`
	AppliedAt  time.Time `json:"applied_at" bson:"applied_at"`
}

// PaymentOverride records an installment marked paid outside the normal order.
type PaymentOverride struct {
	Installment Installment `json:"installment" bson:"installment"`
	Reason      string      `json:"reason" bson:"reason"`
	RecordedBy  string      `json:"recorded_by" bson:"recorded_by"`
	RecordedAt  time.Time   `json:"recorded_at" bson:"recorded_at"`
}

// PaymentTransaction is what the payment processor reported for a charge.
type PaymentTransaction struct {
	Installment   Installment `json:"installment" bson:"installment"`
	Provider      string      `json:"provider" bson:"provider"`
	TransactionID string      `json:"transaction_id" bson:"transaction_id"`
	Status        string      `json:"status" bson:"status"`
	Amount        float64     `json:"amount" bson:"amount"`
	Currency      string      `json:"currency" bson:"currency"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
}

func (p *Project) IsPaid(inst Installment) bool {
	if inst == InstallmentDeposit {
		return p.DepositPaid
	}
	return p.FinalPaid
}

func (p *Project) HasOwner() bool {
	return p.UserID != "" && p.UserID != PendingUserID
}

func (p *Project) DiscountPercentage() float64 {
	if p.AppliedDiscount == nil {
		return 0
	}
	return p.AppliedDiscount.Percentage
}

// ProjectView is a project with its derived display values.
type ProjectView struct {
	*Project
	Progress int               `json:"progress"`
	Payments *PaymentBreakdown `json:"payments"`
}

func NewProjectView(p *Project) *ProjectView {
	return &ProjectView{
		Project:  p,
		Progress: p.Status.Progress(),
		Payments: NewPaymentBreakdown(p),
	}
}

type ProjectFilter struct {
	Status        ProjectStatus
	PaymentStatus PaymentStatus
	UserID        string
}
