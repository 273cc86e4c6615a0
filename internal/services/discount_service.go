package services

import (
	"context"
	"errors"
	"fmt"

	"agencyportal/internal/metrics"
	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountService interface {
	// Validate returns nil without a reason when the code cannot be used.
	Validate(ctx context.Context, code, email string) (*models.DiscountCode, error)
	// Apply redeems one use of the code and attaches it to the project. It is
	// refused with ErrAlreadyPaid once either installment has been paid.
	Apply(ctx context.Context, projectID primitive.ObjectID, code string, actor *Actor) (*models.ProjectView, error)

	Create(ctx context.Context, req *models.CreateDiscountCodeRequest, actor *Actor) (*models.DiscountCode, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error)
	List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.DiscountCode, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.UpdateDiscountCodeRequest) (*models.DiscountCode, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error)
}

type discountService struct {
	tx           Transactor
	discountRepo interfaces.DiscountCodeRepository
	projectRepo  interfaces.ProjectRepository
	clock        clock
	logger       *logger.Logger
}

func NewDiscountService(tx Transactor, discountRepo interfaces.DiscountCodeRepository, projectRepo interfaces.ProjectRepository, log *logger.Logger) DiscountService {
	return &discountService{
		tx:           tx,
		discountRepo: discountRepo,
		projectRepo:  projectRepo,
		logger:       log,
	}
}

func (s *discountService) Validate(ctx context.Context, code, email string) (*models.DiscountCode, error) {
	normalized := models.NormalizeDiscountCode(code)
	if normalized == "" {
		return nil, nil
	}

	discount, err := s.discountRepo.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !discount.IsRedeemableBy(email, s.clock.now()) {
		return nil, nil
	}
	return discount, nil
}

func (s *discountService) Apply(ctx context.Context, projectID primitive.ObjectID, code string, actor *Actor) (*models.ProjectView, error) {
	var project *models.Project

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		project, err = loadProjectFor(ctx, s.projectRepo, projectID, actor)
		if err != nil {
			return err
		}
		// Paid installments keep the price they were collected at.
		if project.DepositPaid || project.FinalPaid {
			return fmt.Errorf("%w: discounts cannot be applied once a payment is recorded", models.ErrAlreadyPaid)
		}

		now := s.clock.now()
		discount, err := s.discountRepo.Redeem(ctx, code, actor.Email, now)
		if err != nil {
			return err
		}

		applied := &models.AppliedDiscount{
			Code:       discount.Code,
			Percentage: discount.Percentage,
			AppliedAt:  now,
		}
		if err := s.projectRepo.SetAppliedDiscount(ctx, project.ID, applied); err != nil {
			return err
		}
		project.AppliedDiscount = applied
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrDiscountUnavailable) {
			metrics.DiscountRedemptions.WithLabelValues("unavailable").Inc()
		}
		return nil, err
	}

	metrics.DiscountRedemptions.WithLabelValues("applied").Inc()
	s.logger.WithContext(ctx).LogUserAction(actor.UserID, "discount_applied", map[string]interface{}{
		"project_id": project.ID.Hex(),
		"code":       project.AppliedDiscount.Code,
		"percentage": project.AppliedDiscount.Percentage,
	})

	return models.NewProjectView(project), nil
}

func (s *discountService) Create(ctx context.Context, req *models.CreateDiscountCodeRequest, actor *Actor) (*models.DiscountCode, error) {
	if req.Percentage < 0 || req.Percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be between 0 and 100", models.ErrInvalidInput)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	code := &models.DiscountCode{
		Code:         req.Code,
		Description:  req.Description,
		Percentage:   req.Percentage,
		MaxUses:      req.MaxUses,
		ExpiryDate:   req.ExpiryDate.UTC(),
		IsActive:     active,
		IsPublic:     req.IsPublic,
		AllowedUsers: req.AllowedUsers,
		CreatedBy:    actor.UserID,
	}
	if err := s.discountRepo.Create(ctx, code); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogUserAction(actor.UserID, "discount_code_created", map[string]interface{}{"code": code.Code})
	return code, nil
}

func (s *discountService) Get(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error) {
	return s.discountRepo.GetByID(ctx, id)
}

func (s *discountService) List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.DiscountCode, int64, error) {
	return s.discountRepo.List(ctx, activeOnly, params)
}

func (s *discountService) Update(ctx context.Context, id primitive.ObjectID, req *models.UpdateDiscountCodeRequest) (*models.DiscountCode, error) {
	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Percentage != nil {
		if *req.Percentage < 0 || *req.Percentage > 100 {
			return nil, fmt.Errorf("%w: percentage must be between 0 and 100", models.ErrInvalidInput)
		}
		updates["percentage"] = *req.Percentage
	}
	if req.MaxUses != nil {
		updates["max_uses"] = *req.MaxUses
	}
	if req.ExpiryDate != nil {
		updates["expiry_date"] = req.ExpiryDate.UTC()
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.AllowedUsers != nil {
		updates["allowed_users"] = req.AllowedUsers
	}
	if len(updates) == 0 {
		return s.discountRepo.GetByID(ctx, id)
	}
	return s.discountRepo.Update(ctx, id, updates)
}

func (s *discountService) Deactivate(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error) {
	return s.discountRepo.Update(ctx, id, map[string]interface{}{"is_active": false})
}
