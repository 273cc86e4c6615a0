package services

import (
	"context"
	"strings"

	"agencyportal/internal/metrics"
	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestService interface {
	Submit(ctx context.Context, actor *Actor, input *models.RequestInput) (*models.Request, error)
	ListForUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Request, int64, error)
	ListAll(ctx context.Context, filter models.RequestFilter, params *utils.PaginationParams) ([]*models.Request, int64, error)
	Get(ctx context.Context, id primitive.ObjectID, actor *Actor) (*models.Request, error)
}

type requestService struct {
	requestRepo   interfaces.RequestRepository
	notifications NotificationService
	logger        *logger.Logger
}

func NewRequestService(requestRepo interfaces.RequestRepository, notifications NotificationService, log *logger.Logger) RequestService {
	return &requestService{
		requestRepo:   requestRepo,
		notifications: notifications,
		logger:        log,
	}
}

func (s *requestService) Submit(ctx context.Context, actor *Actor, input *models.RequestInput) (*models.Request, error) {
	features := make([]string, 0, len(input.Features))
	for _, f := range input.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}

	request := &models.Request{
		UserID:            actor.UserID,
		UserEmail:         models.NormalizeEmail(actor.Email),
		WebsiteType:       strings.TrimSpace(input.WebsiteType),
		Features:          features,
		Deadline:          strings.TrimSpace(input.Deadline),
		Budget:            strings.TrimSpace(input.Budget),
		Status:            models.RequestStatusPending,
		DesignPreferences: input.DesignPreferences,
		AdditionalNotes:   input.AdditionalNotes,
	}
	if request.WebsiteType == "" || request.Deadline == "" || len(request.Features) == 0 {
		return nil, models.ErrInvalidInput
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	metrics.RequestsSubmitted.Inc()
	s.logger.WithContext(ctx).LogUserAction(actor.UserID, "request_submitted", map[string]interface{}{
		"request_id":   request.ID.Hex(),
		"website_type": request.WebsiteType,
	})

	s.notifications.Broadcast(ctx, websocket.StaffRoom, utils.EventRequestSubmitted, map[string]interface{}{
		"request_id":   request.ID.Hex(),
		"user_email":   request.UserEmail,
		"website_type": request.WebsiteType,
		"budget":       request.Budget,
	})

	return request, nil
}

func (s *requestService) ListForUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Request, int64, error) {
	return s.requestRepo.List(ctx, models.RequestFilter{UserID: userID}, params)
}

func (s *requestService) ListAll(ctx context.Context, filter models.RequestFilter, params *utils.PaginationParams) ([]*models.Request, int64, error) {
	return s.requestRepo.List(ctx, filter, params)
}

// Get hides requests of other users behind ErrNotFound.
func (s *requestService) Get(ctx context.Context, id primitive.ObjectID, actor *Actor) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(request.UserID, request.UserEmail) {
		return nil, models.ErrNotFound
	}
	return request, nil
}
