package client

import (
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService services.RequestService
	logger         *logger.Logger
}

func NewRequestHandler(requestService services.RequestService, log *logger.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         log,
	}
}

// Submit stores a new website request in pending status
func (h *RequestHandler) Submit(c *gin.Context) {
	var input models.RequestInput
	if !shared.BindJSON(c, &input) {
		return
	}

	request, err := h.requestService.Submit(c.Request.Context(), middleware.CurrentActor(c), &input)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Request")
		return
	}

	utils.CreatedResponse(c, "Request submitted successfully", request)
}

func (h *RequestHandler) ListMine(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	requests, total, err := h.requestService.ListForUser(c.Request.Context(), middleware.CurrentActor(c).UserID, params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Requests")
		return
	}

	utils.PaginatedResponse(c, "Requests retrieved successfully", requests, len(requests), params, total)
}

func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "request")
	if !ok {
		return
	}

	request, err := h.requestService.Get(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Request")
		return
	}

	utils.SuccessResponse(c, "Request retrieved successfully", request)
}
