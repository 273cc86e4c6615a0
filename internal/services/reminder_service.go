package services

import (
	"context"
	"fmt"
	"time"

	"agencyportal/internal/metrics"
	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DispatchReport counts what one dispatcher pass did.
type DispatchReport struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type ReminderService interface {
	Create(ctx context.Context, projectID primitive.ObjectID, req *models.CreateReminderRequest) (*models.PaymentReminder, error)
	List(ctx context.Context, filter models.ReminderFilter, params *utils.PaginationParams) ([]*models.PaymentReminder, int64, error)
	ListForUser(ctx context.Context, actor *Actor, params *utils.PaginationParams) ([]*models.PaymentReminder, int64, error)

	// Dispatch delivers reminders that are due. Reminders for installments
	// paid in the meantime are closed instead of sent.
	Dispatch(ctx context.Context, limit int) (*DispatchReport, error)
}

type reminderService struct {
	reminderRepo     interfaces.PaymentReminderRepository
	projectRepo      interfaces.ProjectRepository
	subscriptionRepo interfaces.UserSubscriptionRepository
	notifications    NotificationService
	sms              sms.SMSProvider
	smsFrom          string
	currency         string
	clock            clock
	logger           *logger.Logger
}

func NewReminderService(
	reminderRepo interfaces.PaymentReminderRepository,
	projectRepo interfaces.ProjectRepository,
	subscriptionRepo interfaces.UserSubscriptionRepository,
	notifications NotificationService,
	smsProvider sms.SMSProvider,
	smsFrom string,
	currency string,
	log *logger.Logger,
) ReminderService {
	if currency == "" {
		currency = utils.DefaultCurrency
	}
	return &reminderService{
		reminderRepo:     reminderRepo,
		projectRepo:      projectRepo,
		subscriptionRepo: subscriptionRepo,
		notifications:    notifications,
		sms:              smsProvider,
		smsFrom:          smsFrom,
		currency:         currency,
		logger:           log,
	}
}

func (s *reminderService) Create(ctx context.Context, projectID primitive.ObjectID, req *models.CreateReminderRequest) (*models.PaymentReminder, error) {
	if !req.PaymentType.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidInstallment, req.PaymentType)
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.IsPaid(req.PaymentType) {
		return nil, models.ErrAlreadyPaid
	}

	reminder := &models.PaymentReminder{
		ProjectID:   project.ID,
		UserID:      project.UserID,
		UserEmail:   project.UserEmail,
		PaymentType: req.PaymentType,
		Amount:      project.AmountDue(req.PaymentType),
		DueDate:     req.DueDate.UTC(),
		Status:      models.ReminderStatusPending,
		CreatedAt:   s.clock.now(),
	}
	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithProjectID(project.ID.Hex()).WithFields(map[string]interface{}{
		"installment": req.PaymentType,
		"due_date":    reminder.DueDate,
	}).Info("Payment reminder scheduled")
	return reminder, nil
}

func (s *reminderService) List(ctx context.Context, filter models.ReminderFilter, params *utils.PaginationParams) ([]*models.PaymentReminder, int64, error) {
	return s.reminderRepo.List(ctx, filter, params)
}

func (s *reminderService) ListForUser(ctx context.Context, actor *Actor, params *utils.PaginationParams) ([]*models.PaymentReminder, int64, error) {
	return s.reminderRepo.List(ctx, models.ReminderFilter{UserID: actor.UserID}, params)
}

func (s *reminderService) Dispatch(ctx context.Context, limit int) (*DispatchReport, error) {
	now := s.clock.now()
	due, err := s.reminderRepo.ListDue(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load due reminders: %w", err)
	}

	report := &DispatchReport{}
	for _, reminder := range due {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		outcome, err := s.dispatchOne(ctx, reminder, now)
		metrics.RemindersDispatched.WithLabelValues(outcome).Inc()
		switch outcome {
		case "sent":
			report.Sent++
		case "skipped":
			report.Skipped++
		default:
			report.Failed++
			log := s.logger.WithContext(ctx).WithError(err).WithField("reminder_id", reminder.ID.Hex())
			log.Warn("Failed to dispatch payment reminder")
			if rerr := s.reminderRepo.RecordFailure(ctx, reminder.ID, err.Error(), models.MaxReminderAttempts); rerr != nil {
				log.WithField("record_error", rerr.Error()).Warn("Failed to record reminder failure")
			}
		}
	}

	if len(due) > 0 {
		s.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"sent":    report.Sent,
			"skipped": report.Skipped,
			"failed":  report.Failed,
		}).Info("Payment reminders dispatched")
	}
	return report, nil
}

func (s *reminderService) dispatchOne(ctx context.Context, reminder *models.PaymentReminder, now time.Time) (string, error) {
	project, err := s.projectRepo.GetByID(ctx, reminder.ProjectID)
	if err != nil {
		return "failed", err
	}
	if project.IsPaid(reminder.PaymentType) {
		if _, err := s.reminderRepo.MarkPaid(ctx, project.ID, reminder.PaymentType); err != nil {
			return "failed", err
		}
		return "skipped", nil
	}

	// The owner may have signed in since the reminder was created.
	if project.HasOwner() {
		amount := project.AmountDue(reminder.PaymentType)
		message := fmt.Sprintf("Your %s payment of %s for the %s website is due on %s.",
			reminder.PaymentType,
			utils.FormatCurrency(amount, s.currency),
			project.WebsiteType,
			reminder.DueDate.Format("2006-01-02"),
		)

		err := s.notifications.Notify(ctx, newNotification(project.UserID, models.NotificationTypePaymentReminder,
			"Payment reminder", message,
			map[string]string{"project_id": project.ID.Hex(), "installment": string(reminder.PaymentType)},
		))
		if err != nil {
			return "failed", err
		}
		s.sendSMS(ctx, project.UserID, message)
	}

	if err := s.reminderRepo.MarkSent(ctx, reminder.ID, now); err != nil {
		return "failed", err
	}
	return "sent", nil
}

func (s *reminderService) sendSMS(ctx context.Context, userID, message string) {
	if s.sms == nil {
		return
	}
	log := s.logger.WithContext(ctx).WithUserID(userID)

	subs, err := s.subscriptionRepo.ListActive(ctx, userID, models.SubscriptionChannelSMS)
	if err != nil {
		log.WithError(err).Warn("Failed to load sms subscriptions")
		return
	}
	if len(subs) == 0 {
		return
	}

	requests := make([]*sms.SMSRequest, len(subs))
	for i, sub := range subs {
		requests[i] = &sms.SMSRequest{
			To:      sub.Token,
			From:    s.smsFrom,
			Message: message,
			Type:    "transactional",
		}
	}

	responses, err := s.sms.SendBulkSMS(ctx, requests)
	if err != nil {
		log.WithError(err).Warn("Failed to send sms reminders")
		return
	}
	for i, resp := range responses {
		if resp != nil && resp.Error != "" {
			log.WithField("to", utils.MaskPhone(requests[i].To)).WithField("error", resp.Error).Warn("SMS reminder not delivered")
		}
	}
}
