package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agencyportal/internal/metrics"
	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApprovalResult struct {
	Request *models.Request     `json:"request"`
	Project *models.ProjectView `json:"project"`
}

type ApprovalService interface {
	// Approve marks a request approved and provisions its project in one
	// transaction.
	Approve(ctx context.Context, requestID primitive.ObjectID, quotedBudget float64, actor *Actor) (*ApprovalResult, error)
	Reject(ctx context.Context, requestID primitive.ObjectID, reason string, actor *Actor) (*models.Request, error)
	Hold(ctx context.Context, requestID primitive.ObjectID, reason string, actor *Actor) (*models.Request, error)
	// ForceStatus sets any known status regardless of the transition table.
	ForceStatus(ctx context.Context, requestID primitive.ObjectID, status models.RequestStatus, reason string, actor *Actor) (*models.Request, error)
}

type approvalService struct {
	tx            Transactor
	requestRepo   interfaces.RequestRepository
	projectRepo   interfaces.ProjectRepository
	userRepo      interfaces.UserRepository
	notifRepo     interfaces.NotificationRepository
	notifications NotificationService
	clock         clock
	logger        *logger.Logger
}

func NewApprovalService(
	tx Transactor,
	requestRepo interfaces.RequestRepository,
	projectRepo interfaces.ProjectRepository,
	userRepo interfaces.UserRepository,
	notifRepo interfaces.NotificationRepository,
	notifications NotificationService,
	log *logger.Logger,
) ApprovalService {
	return &approvalService{
		tx:            tx,
		requestRepo:   requestRepo,
		projectRepo:   projectRepo,
		userRepo:      userRepo,
		notifRepo:     notifRepo,
		notifications: notifications,
		logger:        log,
	}
}

func (s *approvalService) Approve(ctx context.Context, requestID primitive.ObjectID, quotedBudget float64, actor *Actor) (*ApprovalResult, error) {
	if quotedBudget <= 0 {
		return nil, fmt.Errorf("%w: quoted budget must be positive", models.ErrInvalidAmount)
	}

	var (
		request      *models.Request
		project      *models.Project
		notification *models.Notification
		from         models.RequestStatus
	)

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		notification = nil

		var err error
		request, err = s.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		from = request.Status
		if !from.CanTransitionTo(models.RequestStatusApproved) {
			return fmt.Errorf("cannot approve a %s request: %w", from, models.ErrInvalidTransition)
		}

		owner, err := s.userRepo.GetByEmail(ctx, request.UserEmail)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}

		now := s.clock.now()
		project = &models.Project{
			RequestID:     request.ID,
			UserID:        projectOwnerID(request, owner),
			UserEmail:     request.UserEmail,
			WebsiteType:   request.WebsiteType,
			Features:      request.Features,
			Deadline:      request.Deadline,
			Budget:        quotedBudget,
			Status:        models.ProjectStatusInProgress,
			PaymentStatus: models.PaymentStatusUnpaid,
			StatusHistory: []models.StatusChange{{
				To:        string(models.ProjectStatusInProgress),
				ChangedBy: actor.UserID,
				ChangedAt: now,
			}},
		}
		if err := s.projectRepo.Create(ctx, project); err != nil {
			return err
		}

		change := models.StatusChange{
			From:      string(request.Status),
			To:        string(models.RequestStatusApproved),
			ChangedBy: actor.UserID,
			ChangedAt: now,
		}
		err = s.requestRepo.UpdateStatus(ctx, request.ID, &interfaces.RequestStatusUpdate{
			From:         request.Status,
			To:           models.RequestStatusApproved,
			QuotedBudget: &quotedBudget,
			ProjectID:    &project.ID,
			Change:       change,
		})
		if err != nil {
			return err
		}
		request.Status = models.RequestStatusApproved
		request.QuotedBudget = &quotedBudget
		request.ProjectID = &project.ID
		request.StatusHistory = append(request.StatusHistory, change)
		request.UpdatedAt = now

		if owner != nil {
			notification = newNotification(owner.ID, models.NotificationTypeRequestApproved,
				"Your project request was approved",
				fmt.Sprintf("Your %s website project is now in progress with a budget of %s.",
					request.WebsiteType, utils.FormatCurrency(quotedBudget, utils.DefaultCurrency)),
				map[string]string{"request_id": request.ID.Hex(), "project_id": project.ID.Hex()},
			)
			notification.CreatedAt = now
			if err := s.notifRepo.Create(ctx, notification); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RequestDecisions.WithLabelValues(string(models.RequestStatusApproved)).Inc()
	s.logger.WithContext(ctx).LogStatusChange("request", request.ID.Hex(), string(from), string(models.RequestStatusApproved), actor.UserID, false)

	if notification != nil {
		s.notifications.Deliver(ctx, notification)
	}
	s.broadcastDecision(ctx, request)

	return &ApprovalResult{Request: request, Project: models.NewProjectView(project)}, nil
}

func (s *approvalService) Reject(ctx context.Context, requestID primitive.ObjectID, reason string, actor *Actor) (*models.Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.ErrReasonRequired
	}
	return s.decide(ctx, requestID, models.RequestStatusRejected, reason, actor, false)
}

func (s *approvalService) Hold(ctx context.Context, requestID primitive.ObjectID, reason string, actor *Actor) (*models.Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.ErrReasonRequired
	}
	return s.decide(ctx, requestID, models.RequestStatusOnHold, reason, actor, false)
}

// ForceStatus cannot mark a request approved unless its project already
// exists; provisioning only happens through Approve.
func (s *approvalService) ForceStatus(ctx context.Context, requestID primitive.ObjectID, status models.RequestStatus, reason string, actor *Actor) (*models.Request, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.ErrReasonRequired
	}
	return s.decide(ctx, requestID, status, reason, actor, true)
}

func (s *approvalService) decide(ctx context.Context, requestID primitive.ObjectID, to models.RequestStatus, reason string, actor *Actor, forced bool) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	from := request.Status
	if from == to {
		return request, nil
	}

	if forced {
		if to == models.RequestStatusApproved && request.ProjectID == nil {
			return nil, fmt.Errorf("request has no project, approve it instead: %w", models.ErrInvalidTransition)
		}
	} else if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("cannot move request from %s to %s: %w", from, to, models.ErrInvalidTransition)
	}

	update := &interfaces.RequestStatusUpdate{
		From: from,
		To:   to,
		Change: models.StatusChange{
			From:      string(from),
			To:        string(to),
			ChangedBy: actor.UserID,
			Reason:    reason,
			Forced:    forced,
			ChangedAt: s.clock.now(),
		},
	}
	switch to {
	case models.RequestStatusRejected:
		update.RejectionReason = reason
		request.RejectionReason = reason
	case models.RequestStatusOnHold:
		update.HoldReason = reason
		request.HoldReason = reason
	}

	if err := s.requestRepo.UpdateStatus(ctx, request.ID, update); err != nil {
		return nil, err
	}
	request.Status = to
	request.StatusHistory = append(request.StatusHistory, update.Change)
	request.UpdatedAt = update.Change.ChangedAt

	metrics.RequestDecisions.WithLabelValues(string(to)).Inc()
	s.logger.WithContext(ctx).LogStatusChange("request", request.ID.Hex(), string(from), string(to), actor.UserID, forced)

	s.notifyDecision(ctx, request, reason)
	s.broadcastDecision(ctx, request)

	return request, nil
}

func (s *approvalService) notifyDecision(ctx context.Context, request *models.Request, reason string) {
	if request.UserID == "" || request.UserID == models.PendingUserID {
		return
	}

	var kind models.NotificationType
	var title string
	switch request.Status {
	case models.RequestStatusRejected:
		kind, title = models.NotificationTypeRequestRejected, "Your project request was declined"
	case models.RequestStatusOnHold:
		kind, title = models.NotificationTypeRequestOnHold, "Your project request is on hold"
	default:
		return
	}

	err := s.notifications.Notify(ctx, newNotification(request.UserID, kind, title, reason,
		map[string]string{"request_id": request.ID.Hex()}))
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to notify request owner")
	}
}

func (s *approvalService) broadcastDecision(ctx context.Context, request *models.Request) {
	data := map[string]interface{}{
		"request_id": request.ID.Hex(),
		"status":     request.Status,
	}
	if request.ProjectID != nil {
		data["project_id"] = request.ProjectID.Hex()
	}
	s.notifications.Broadcast(ctx, websocket.StaffRoom, utils.EventRequestDecided, data)
	if request.UserID != "" && request.UserID != models.PendingUserID {
		s.notifications.Broadcast(ctx, websocket.UserRoom(request.UserID), utils.EventRequestDecided, data)
	}
}

// projectOwnerID prefers the registered user with the request's email, then
// the submitter, and otherwise leaves the project pending reconciliation.
func projectOwnerID(request *models.Request, owner *models.User) string {
	if owner != nil {
		return owner.ID
	}
	if request.UserID != "" {
		return request.UserID
	}
	return models.PendingUserID
}
