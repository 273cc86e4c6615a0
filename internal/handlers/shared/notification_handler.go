package shared

import (
	"strconv"

	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService services.NotificationService
	logger              *logger.Logger
}

func NewNotificationHandler(notificationService services.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              log,
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	params := utils.GetPaginationParams(c)
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	notifications, total, err := h.notificationService.List(c.Request.Context(), actor.UserID, unreadOnly, params)
	if err != nil {
		HandleServiceError(c, h.logger, err, "Notifications")
		return
	}

	utils.PaginatedResponse(c, "Notifications retrieved successfully", notifications, len(notifications), params, total)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := ObjectIDParam(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, middleware.CurrentActor(c).UserID); err != nil {
		HandleServiceError(c, h.logger, err, "Notification")
		return
	}

	utils.SuccessResponse(c, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		HandleServiceError(c, h.logger, err, "Notifications")
		return
	}

	utils.SuccessResponse(c, "Notifications marked as read", gin.H{"updated": updated})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		HandleServiceError(c, h.logger, err, "Notifications")
		return
	}

	utils.SuccessResponse(c, "Unread count retrieved", gin.H{"count": count})
}

// Subscribe registers an FCM token or an SMS phone number for the caller.
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if !BindJSON(c, &req) {
		return
	}

	sub, err := h.notificationService.Subscribe(c.Request.Context(), middleware.CurrentActor(c).UserID, &req)
	if err != nil {
		HandleServiceError(c, h.logger, err, "Subscription")
		return
	}

	utils.CreatedResponse(c, "Subscribed successfully", sub)
}

func (h *NotificationHandler) Unsubscribe(c *gin.Context) {
	id, ok := ObjectIDParam(c, "id", "subscription")
	if !ok {
		return
	}

	if err := h.notificationService.Unsubscribe(c.Request.Context(), id, middleware.CurrentActor(c).UserID); err != nil {
		HandleServiceError(c, h.logger, err, "Subscription")
		return
	}

	utils.SuccessResponse(c, "Unsubscribed successfully", nil)
}

func (h *NotificationHandler) ListSubscriptions(c *gin.Context) {
	subs, err := h.notificationService.ListSubscriptions(c.Request.Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		HandleServiceError(c, h.logger, err, "Subscriptions")
		return
	}

	utils.SuccessResponse(c, "Subscriptions retrieved successfully", subs)
}
