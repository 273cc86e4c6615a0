package client

import (
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/internal/validators"
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

// Validate answers with the code, or null data when the caller cannot use it.
func (h *DiscountHandler) Validate(c *gin.Context) {
	var req validators.DiscountCodeRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	code, err := h.discountService.Validate(c.Request.Context(), req.Code, middleware.CurrentActor(c).Email)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Discount code")
		return
	}
	if code == nil {
		utils.SuccessResponse(c, "Discount code is not valid", nil)
		return
	}

	utils.SuccessResponse(c, "Discount code is valid", code)
}
