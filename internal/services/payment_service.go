package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"agencyportal/internal/metrics"
	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/payment"
	"agencyportal/pkg/websocket"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const markPaidAttempts = 3

// MarkPaidOptions lets staff record a final payment before the deposit.
type MarkPaidOptions struct {
	OutOfBand bool
	Reason    string
}

type PaymentResult struct {
	Transaction *models.PaymentTransaction `json:"transaction"`
	Project     *models.ProjectView        `json:"project"`
}

type PaymentService interface {
	Breakdown(ctx context.Context, projectID primitive.ObjectID, actor *Actor) (*models.PaymentBreakdown, error)
	MarkPaid(ctx context.Context, projectID primitive.ObjectID, installment models.Installment, opts MarkPaidOptions, actor *Actor) (*models.ProjectView, error)
	InitiatePayment(ctx context.Context, projectID primitive.ObjectID, installment models.Installment, paymentMethodID string, actor *Actor) (*PaymentResult, error)
}

type paymentService struct {
	tx            Transactor
	projectRepo   interfaces.ProjectRepository
	reminderRepo  interfaces.PaymentReminderRepository
	provider      payment.PaymentProvider
	notifications NotificationService
	currency      string
	clock         clock
	logger        *logger.Logger
}

func NewPaymentService(
	tx Transactor,
	projectRepo interfaces.ProjectRepository,
	reminderRepo interfaces.PaymentReminderRepository,
	provider payment.PaymentProvider,
	notifications NotificationService,
	currency string,
	log *logger.Logger,
) PaymentService {
	if currency == "" {
		currency = utils.DefaultCurrency
	}
	return &paymentService{
		tx:            tx,
		projectRepo:   projectRepo,
		reminderRepo:  reminderRepo,
		provider:      provider,
		notifications: notifications,
		currency:      strings.ToUpper(currency),
		logger:        log,
	}
}

func (s *paymentService) Breakdown(ctx context.Context, projectID primitive.ObjectID, actor *Actor) (*models.PaymentBreakdown, error) {
	project, err := loadProjectFor(ctx, s.projectRepo, projectID, actor)
	if err != nil {
		return nil, err
	}
	return models.NewPaymentBreakdown(project), nil
}

// MarkPaid is a no-op for an installment that is already paid.
func (s *paymentService) MarkPaid(ctx context.Context, projectID primitive.ObjectID, installment models.Installment, opts MarkPaidOptions, actor *Actor) (*models.ProjectView, error) {
	if !installment.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidInstallment, installment)
	}
	opts.Reason = strings.TrimSpace(opts.Reason)

	for attempt := 1; ; attempt++ {
		project, changed, err := s.markPaidOnce(ctx, projectID, installment, opts, actor)
		if errors.Is(err, models.ErrConflict) && attempt < markPaidAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}

		if changed {
			s.afterPaid(ctx, project, installment, opts.OutOfBand && installment == models.InstallmentFinal && !project.DepositPaid)
		}
		return models.NewProjectView(project), nil
	}
}

func (s *paymentService) markPaidOnce(ctx context.Context, projectID primitive.ObjectID, installment models.Installment, opts MarkPaidOptions, actor *Actor) (*models.Project, bool, error) {
	var (
		project *models.Project
		changed bool
	)

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		changed = false

		var err error
		project, err = s.projectRepo.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if project.IsPaid(installment) {
			return nil
		}

		now := s.clock.now()
		update := &interfaces.PaymentUpdate{
			Installment: installment,
			PaidAt:      now,
		}

		if installment == models.InstallmentFinal {
			update.ExpectOtherPaid = project.DepositPaid
			if !project.DepositPaid {
				if !opts.OutOfBand {
					return models.ErrDepositNotPaid
				}
				if opts.Reason == "" {
					return models.ErrReasonRequired
				}
				update.Override = &models.PaymentOverride{
					Installment: installment,
					Reason:      opts.Reason,
					RecordedBy:  actor.UserID,
					RecordedAt:  now,
				}
			}
		} else {
			update.ExpectOtherPaid = project.FinalPaid
		}

		project, err = s.projectRepo.MarkPaid(ctx, projectID, update)
		if err != nil {
			return err
		}
		if _, err := s.reminderRepo.MarkPaid(ctx, projectID, installment); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return project, changed, err
}

func (s *paymentService) afterPaid(ctx context.Context, project *models.Project, installment models.Installment, outOfBand bool) {
	amount := project.AmountDue(installment)

	metrics.PaymentsRecorded.WithLabelValues(string(installment), strconv.FormatBool(outOfBand)).Inc()
	s.logger.WithContext(ctx).LogPaymentEvent(project.ID.Hex(), string(installment)+"_paid", amount, s.currency)

	data := map[string]interface{}{
		"project_id":     project.ID.Hex(),
		"installment":    installment,
		"payment_status": project.PaymentStatus,
	}
	s.notifications.Broadcast(ctx, websocket.StaffRoom, utils.EventPaymentRecorded, data)

	if !project.HasOwner() {
		return
	}
	err := s.notifications.Notify(ctx, newNotification(project.UserID, models.NotificationTypePaymentReceived,
		"Payment received",
		fmt.Sprintf("We received your %s payment of %s.", installment, utils.FormatCurrency(amount, s.currency)),
		map[string]string{"project_id": project.ID.Hex(), "installment": string(installment)},
	))
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to notify payment")
	}
}

// InitiatePayment charges the discounted installment through the payment
// provider and records it as paid when the provider confirms the charge.
func (s *paymentService) InitiatePayment(ctx context.Context, projectID primitive.ObjectID, installment models.Installment, paymentMethodID string, actor *Actor) (*PaymentResult, error) {
	if !installment.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidInstallment, installment)
	}

	project, err := loadProjectFor(ctx, s.projectRepo, projectID, actor)
	if err != nil {
		return nil, err
	}
	if project.IsPaid(installment) {
		return nil, models.ErrAlreadyPaid
	}
	if installment == models.InstallmentFinal && !project.DepositPaid {
		return nil, models.ErrDepositNotPaid
	}

	amount := project.AmountDue(installment)
	if amount <= 0 {
		view, err := s.MarkPaid(ctx, projectID, installment, MarkPaidOptions{}, actor)
		if err != nil {
			return nil, err
		}
		return &PaymentResult{Project: view}, nil
	}

	resp, err := s.provider.ProcessPayment(ctx, &payment.PaymentRequest{
		IdempotencyKey:  uuid.NewString(),
		PaymentMethodID: paymentMethodID,
		Amount:          amount,
		Currency:        s.currency,
		Description:     fmt.Sprintf("%s website project %s payment", project.WebsiteType, installment),
		Metadata: map[string]string{
			"project_id":  project.ID.Hex(),
			"installment": string(installment),
			"user_id":     actor.UserID,
		},
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithProjectID(project.ID.Hex()).Error("Payment provider call failed")
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentFailed, err)
	}

	txn := &models.PaymentTransaction{
		Installment:   installment,
		Provider:      s.provider.Name(),
		TransactionID: resp.TransactionID,
		Status:        resp.Status,
		Amount:        amount,
		Currency:      s.currency,
		CreatedAt:     s.clock.now(),
	}
	if err := s.projectRepo.AddTransaction(ctx, project.ID, txn); err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).LogPaymentEvent(project.ID.Hex(), "charge_"+resp.Status, amount, s.currency)

	switch resp.Status {
	case payment.StatusFailed:
		return nil, fmt.Errorf("%w: provider reported %s", models.ErrPaymentFailed, resp.ProviderState)
	case payment.StatusSucceeded:
		view, err := s.MarkPaid(ctx, projectID, installment, MarkPaidOptions{}, actor)
		if err != nil {
			return nil, err
		}
		return &PaymentResult{Transaction: txn, Project: view}, nil
	}

	project.Transactions = append(project.Transactions, *txn)
	return &PaymentResult{Transaction: txn, Project: models.NewProjectView(project)}, nil
}
