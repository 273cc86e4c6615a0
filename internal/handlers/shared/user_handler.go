package shared

import (
	"agencyportal/internal/middleware"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
	logger      *logger.Logger
}

func NewUserHandler(userService services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      log,
	}
}

// GetMe returns the caller's profile including role
func (h *UserHandler) GetMe(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	user, err := h.userService.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		HandleServiceError(c, h.logger, err, "User")
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", user)
}
