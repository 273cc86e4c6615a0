package admin

import (
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/internal/validators"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
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

func (h *ReminderHandler) List(c *gin.Context) {
	var filter models.ReminderFilter
	if raw := c.Query("status"); raw != "" {
		status := models.ReminderStatus(raw)
		if !status.IsValid() {
			utils.BadRequestResponse(c, "Invalid status filter")
			return
		}
		filter.Status = status
	}
	if raw := c.Query("project_id"); raw != "" {
		projectID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid project ID")
			return
		}
		filter.ProjectID = &projectID
	}
	params := utils.GetPaginationParams(c)

	reminders, total, err := h.reminderService.List(c.Request.Context(), filter, params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Reminders")
		return
	}

	utils.PaginatedResponse(c, "Reminders retrieved successfully", reminders, len(reminders), params, total)
}

func (h *ReminderHandler) Create(c *gin.Context) {
	var req validators.CreateReminderInput
	if !shared.BindJSON(c, &req) {
		return
	}

	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid project ID")
		return
	}

	reminder, err := h.reminderService.Create(c.Request.Context(), projectID, &req.CreateReminderRequest)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.CreatedResponse(c, "Reminder scheduled successfully", reminder)
}
