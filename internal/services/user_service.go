package services

import (
	"context"
	"fmt"

	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"
)

type UserService interface {
	// EnsureUser creates the user on first sign-in, records the login and
	// hands over projects and requests waiting for this email.
	EnsureUser(ctx context.Context, identity *models.Identity) (*models.SessionInfo, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	IsAdmin(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error)
	SetRole(ctx context.Context, id string, role models.UserRole, actor *Actor) (*models.User, error)
}

type userService struct {
	userRepo     interfaces.UserRepository
	projectRepo  interfaces.ProjectRepository
	requestRepo  interfaces.RequestRepository
	reminderRepo interfaces.PaymentReminderRepository
	clock        clock
	logger       *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, projectRepo interfaces.ProjectRepository, requestRepo interfaces.RequestRepository, reminderRepo interfaces.PaymentReminderRepository, log *logger.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		projectRepo:  projectRepo,
		requestRepo:  requestRepo,
		reminderRepo: reminderRepo,
		logger:       log,
	}
}

func (s *userService) EnsureUser(ctx context.Context, identity *models.Identity) (*models.SessionInfo, error) {
	if identity.UID == "" || identity.Email == "" {
		return nil, fmt.Errorf("%w: identity has no uid or email", models.ErrInvalidInput)
	}

	user, created, err := s.userRepo.Upsert(ctx, identity, s.clock.now())
	if err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ReconcileOwner(ctx, user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.AssignOwnerByEmail(ctx, user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	reminders, err := s.reminderRepo.ReconcileOwner(ctx, user.Email, user.ID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithContext(ctx).WithUserID(user.ID)
	if created {
		log.WithField("provider", identity.Provider).Info("User created on first sign-in")
	}
	if projects > 0 || requests > 0 || reminders > 0 {
		log.WithFields(map[string]interface{}{
			"projects":  projects,
			"requests":  requests,
			"reminders": reminders,
		}).Info("Reconciled pending ownership")
	}

	return &models.SessionInfo{
		User:                user,
		Created:             created,
		ReconciledProjects:  projects,
		ReconciledRequests:  requests,
		ReconciledReminders: reminders,
	}, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userRepo.GetByEmail(ctx, models.NormalizeEmail(email))
}

func (s *userService) IsAdmin(ctx context.Context, id string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *userService) List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, params)
}

// SetRole refuses to let admins demote themselves.
func (s *userService) SetRole(ctx context.Context, id string, role models.UserRole, actor *Actor) (*models.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: role %q", models.ErrInvalidInput, role)
	}
	if id == actor.UserID && role != models.UserRoleAdmin {
		return nil, fmt.Errorf("cannot remove your own admin role: %w", models.ErrForbidden)
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogSecurityEvent("role_changed", "medium", map[string]interface{}{
		"user_id":    id,
		"role":       role,
		"changed_by": actor.UserID,
	})
	return s.userRepo.GetByID(ctx, id)
}
