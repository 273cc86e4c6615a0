package admin

import (
	"strconv"

	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type DiscountHandler struct {
	discountService services.DiscountService
	logger          *logger.Logger
}

func NewDiscountHandler(discountService services.DiscountService, log *logger.Logger) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		logger:          log,
	}
}

func (h *DiscountHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	params := utils.GetPaginationParams(c)

	codes, total, err := h.discountService.List(c.Request.Context(), activeOnly, params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Discount codes")
		return
	}

	utils.PaginatedResponse(c, "Discount codes retrieved successfully", codes, len(codes), params, total)
}

func (h *DiscountHandler) Create(c *gin.Context) {
	var req models.CreateDiscountCodeRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	code, err := h.discountService.Create(c.Request.Context(), &req, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Discount code")
		return
	}

	utils.CreatedResponse(c, "Discount code created successfully", code)
}

func (h *DiscountHandler) Get(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "discount code")
	if !ok {
		return
	}

	code, err := h.discountService.Get(c.Request.Context(), id)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Discount code")
		return
	}

	utils.SuccessResponse(c, "Discount code retrieved successfully", code)
}

func (h *DiscountHandler) Update(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "discount code")
	if !ok {
		return
	}

	var req models.UpdateDiscountCodeRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	code, err := h.discountService.Update(c.Request.Context(), id, &req)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Discount code")
		return
	}

	utils.SuccessResponse(c, "Discount code updated successfully", code)
}

// Deactivate keeps the code for history; it simply stops validating.
func (h *DiscountHandler) Deactivate(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "discount code")
	if !ok {
		return
	}

	code, err := h.discountService.Deactivate(c.Request.Context(), id)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Discount code")
		return
	}

	utils.SuccessResponse(c, "Discount code deactivated", code)
}
