package client

import (
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	reminderService services.ReminderService
	logger          *logger.Logger
}

func NewReminderHandler(reminderService services.ReminderService, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		logger:          log,
	}
}

func (h *ReminderHandler) ListMine(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	reminders, total, err := h.reminderService.ListForUser(c.Request.Context(), middleware.CurrentActor(c), params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Reminders")
		return
	}

	utils.PaginatedResponse(c, "Reminders retrieved successfully", reminders, len(reminders), params, total)
}
