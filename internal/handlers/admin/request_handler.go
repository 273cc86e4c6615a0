package admin

import (
	"context"

	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/internal/validators"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestHandler struct {
	requestService  services.RequestService
	approvalService services.ApprovalService
	logger          *logger.Logger
}

func NewRequestHandler(requestService services.RequestService, approvalService services.ApprovalService, log *logger.Logger) *RequestHandler {
	return &RequestHandler{
		requestService:  requestService,
		approvalService: approvalService,
		logger:          log,
	}
}

// List returns every request, optionally filtered by ?status=
func (h *RequestHandler) List(c *gin.Context) {
	var filter models.RequestFilter
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseRequestStatus(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid status filter")
			return
		}
		filter.Status = status
	}
	filter.UserID = c.Query("user_id")
	params := utils.GetPaginationParams(c)

	requests, total, err := h.requestService.ListAll(c.Request.Context(), filter, params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Requests")
		return
	}

	utils.PaginatedResponse(c, "Requests retrieved successfully", requests, len(requests), params, total)
}

// Approve quotes the request and provisions its project in one step.
func (h *RequestHandler) Approve(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "request")
	if !ok {
		return
	}

	var req validators.ApproveRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	budget, err := utils.ParseCurrencyAmount(string(req.QuotedBudget))
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"quoted_budget": "must be a positive amount"})
		return
	}

	result, err := h.approvalService.Approve(c.Request.Context(), id, budget, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Request")
		return
	}

	utils.SuccessResponse(c, "Request approved and project created", result)
}

func (h *RequestHandler) Reject(c *gin.Context) {
	h.decide(c, h.approvalService.Reject, "Request rejected")
}

func (h *RequestHandler) Hold(c *gin.Context) {
	h.decide(c, h.approvalService.Hold, "Request put on hold")
}

func (h *RequestHandler) decide(c *gin.Context, action func(ctx context.Context, id primitive.ObjectID, reason string, actor *services.Actor) (*models.Request, error), message string) {
	id, ok := shared.ObjectIDParam(c, "id", "request")
	if !ok {
		return
	}

	var req validators.DecisionRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	request, err := action(c.Request.Context(), id, req.Reason, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Request")
		return
	}

	utils.SuccessResponse(c, message, request)
}

// ForceStatus bypasses the transition table; the reason is kept in history.
func (h *RequestHandler) ForceStatus(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "request")
	if !ok {
		return
	}

	var req validators.ForceRequestStatusRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	status, err := models.ParseRequestStatus(req.Status)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Request")
		return
	}

	request, err := h.approvalService.ForceStatus(c.Request.Context(), id, status, req.Reason, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Request")
		return
	}

	utils.SuccessResponse(c, "Request status forced", request)
}
