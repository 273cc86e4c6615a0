package services

import (
	"context"
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

type ProjectService interface {
	ListForUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.ProjectView, int64, error)
	ListAll(ctx context.Context, filter models.ProjectFilter, params *utils.PaginationParams) ([]*models.ProjectView, int64, error)
	Get(ctx context.Context, id primitive.ObjectID, actor *Actor) (*models.ProjectView, error)

	// SetStatus follows the transition table. Setting the current status
	// again changes nothing and notifies nobody.
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.ProjectStatus, actor *Actor) (*models.ProjectView, error)
	ForceStatus(ctx context.Context, id primitive.ObjectID, status models.ProjectStatus, reason string, actor *Actor) (*models.ProjectView, error)
}

type projectService struct {
	projectRepo   interfaces.ProjectRepository
	notifications NotificationService
	clock         clock
	logger        *logger.Logger
}

func NewProjectService(projectRepo interfaces.ProjectRepository, notifications NotificationService, log *logger.Logger) ProjectService {
	return &projectService{
		projectRepo:   projectRepo,
		notifications: notifications,
		logger:        log,
	}
}

func (s *projectService) ListForUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.ProjectView, int64, error) {
	return s.list(ctx, models.ProjectFilter{UserID: userID}, params)
}

func (s *projectService) ListAll(ctx context.Context, filter models.ProjectFilter, params *utils.PaginationParams) ([]*models.ProjectView, int64, error) {
	return s.list(ctx, filter, params)
}

func (s *projectService) list(ctx context.Context, filter models.ProjectFilter, params *utils.PaginationParams) ([]*models.ProjectView, int64, error) {
	projects, total, err := s.projectRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*models.ProjectView, len(projects))
	for i, p := range projects {
		views[i] = models.NewProjectView(p)
	}
	return views, total, nil
}

func (s *projectService) Get(ctx context.Context, id primitive.ObjectID, actor *Actor) (*models.ProjectView, error) {
	project, err := loadProjectFor(ctx, s.projectRepo, id, actor)
	if err != nil {
		return nil, err
	}
	return models.NewProjectView(project), nil
}

func (s *projectService) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ProjectStatus, actor *Actor) (*models.ProjectView, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}
	return s.changeStatus(ctx, id, status, "", actor, false)
}

func (s *projectService) ForceStatus(ctx context.Context, id primitive.ObjectID, status models.ProjectStatus, reason string, actor *Actor) (*models.ProjectView, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.ErrReasonRequired
	}
	return s.changeStatus(ctx, id, status, reason, actor, true)
}

func (s *projectService) changeStatus(ctx context.Context, id primitive.ObjectID, to models.ProjectStatus, reason string, actor *Actor, forced bool) (*models.ProjectView, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := project.Status
	if from == to {
		return models.NewProjectView(project), nil
	}
	if !forced && !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("cannot move project from %s to %s: %w", from, to, models.ErrInvalidTransition)
	}

	change := models.StatusChange{
		From:      string(from),
		To:        string(to),
		ChangedBy: actor.UserID,
		Reason:    reason,
		Forced:    forced,
		ChangedAt: s.clock.now(),
	}
	if err := s.projectRepo.UpdateStatus(ctx, project.ID, from, to, change); err != nil {
		return nil, err
	}
	project.Status = to
	project.StatusHistory = append(project.StatusHistory, change)
	project.UpdatedAt = change.ChangedAt

	metrics.ProjectStatusChanges.WithLabelValues(string(to)).Inc()
	s.logger.WithContext(ctx).LogStatusChange("project", project.ID.Hex(), string(from), string(to), actor.UserID, forced)

	s.notifyStatus(ctx, project)
	return models.NewProjectView(project), nil
}

func (s *projectService) notifyStatus(ctx context.Context, project *models.Project) {
	data := map[string]interface{}{
		"project_id": project.ID.Hex(),
		"status":     project.Status,
		"progress":   project.Status.Progress(),
	}
	s.notifications.Broadcast(ctx, websocket.StaffRoom, utils.EventProjectStatus, data)

	if !project.HasOwner() {
		return
	}
	s.notifications.Broadcast(ctx, websocket.UserRoom(project.UserID), utils.EventProjectStatus, data)

	err := s.notifications.Notify(ctx, newNotification(project.UserID, models.NotificationTypeProjectStatus,
		"Project update",
		fmt.Sprintf("Your %s project is now %s (%d%%).", project.WebsiteType, project.Status, project.Status.Progress()),
		map[string]string{"project_id": project.ID.Hex(), "status": string(project.Status)},
	))
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to notify project owner")
	}
}

// loadProjectFor hides projects of other users behind ErrNotFound.
func loadProjectFor(ctx context.Context, repo interfaces.ProjectRepository, id primitive.ObjectID, actor *Actor) (*models.Project, error) {
	project, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(project.UserID, project.UserEmail) {
		return nil, models.ErrNotFound
	}
	return project, nil
}
