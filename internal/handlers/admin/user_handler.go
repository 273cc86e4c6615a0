package admin

import (
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
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

func (h *UserHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.List(c.Request.Context(), params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Users")
		return
	}

	utils.PaginatedResponse(c, "Users retrieved successfully", users, len(users), params, total)
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req models.UpdateRoleRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetRole(c.Request.Context(), c.Param("id"), req.Role, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "User")
		return
	}

	utils.SuccessResponse(c, "User role updated", user)
}
