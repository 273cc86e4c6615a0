package routes

import (
	"agencyportal/internal/handlers/admin"
	"agencyportal/internal/handlers/client"
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the API mounts. Auth and WebSocket are
// optional and their routes are skipped when nil.
type Handlers struct {
	Auth          *shared.AuthHandler
	User          *shared.UserHandler
	Notification  *shared.NotificationHandler
	Request       *client.RequestHandler
	Project       *client.ProjectHandler
	Discount      *client.DiscountHandler
	Reminder      *client.ReminderHandler
	AdminRequest  *admin.RequestHandler
	AdminProject  *admin.ProjectHandler
	AdminDiscount *admin.DiscountHandler
	AdminReminder *admin.ReminderHandler
	AdminUser     *admin.UserHandler
	WebSocket     *websocket.Handler
}

// SetupAPIRoutes mounts the versioned API under r. auth must be the
// AuthRequired middleware.
func SetupAPIRoutes(r *gin.RouterGroup, h *Handlers, auth gin.HandlerFunc, oauthEnabled bool) {
	SetupAuthRoutes(r, h.Auth, auth, oauthEnabled)

	protected := r.Group("")
	protected.Use(auth)
	SetupClientRoutes(protected, h)

	if h.WebSocket != nil {
		protected.GET("/ws", h.WebSocket.HandleWebSocket)
	}

	adminGroup := r.Group("/admin")
	adminGroup.Use(auth, middleware.AdminRequired())
	SetupAdminRoutes(adminGroup, h)
}

func SetupAuthRoutes(r *gin.RouterGroup, h *shared.AuthHandler, auth gin.HandlerFunc, oauthEnabled bool) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/session", auth, h.Session)

		if oauthEnabled {
			authGroup.GET("/google/login", h.GoogleLogin)
			authGroup.GET("/google/callback", h.GoogleCallback)
			authGroup.POST("/refresh", h.Refresh)
		}
	}
}

// SetupClientRoutes expects r to already require authentication.
func SetupClientRoutes(r *gin.RouterGroup, h *Handlers) {
	r.GET("/users/me", h.User.GetMe)

	requests := r.Group("/requests")
	{
		requests.POST("", h.Request.Submit)
		requests.GET("", h.Request.ListMine)
		requests.GET("/:id", h.Request.Get)
	}

	projects := r.Group("/projects")
	{
		projects.GET("", h.Project.ListMine)
		projects.GET("/:id", h.Project.Get)
		projects.GET("/:id/payments", h.Project.GetPayments)
		projects.POST("/:id/payments", h.Project.InitiatePayment)
		projects.POST("/:id/discount", h.Project.ApplyDiscount)
		projects.GET("/:id/invoices/:installment", h.Project.GetInvoice)
	}

	r.POST("/discounts/validate", h.Discount.Validate)
	r.GET("/reminders", h.Reminder.ListMine)

	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.PUT("/read-all", h.Notification.MarkAllRead)
		notifications.PUT("/:id/read", h.Notification.MarkRead)
	}

	subscriptions := r.Group("/subscriptions")
	{
		subscriptions.GET("", h.Notification.ListSubscriptions)
		subscriptions.POST("", h.Notification.Subscribe)
		subscriptions.DELETE("/:id", h.Notification.Unsubscribe)
	}
}

// SetupAdminRoutes expects r to already require an admin caller.
func SetupAdminRoutes(r *gin.RouterGroup, h *Handlers) {
	requests := r.Group("/requests")
	{
		requests.GET("", h.AdminRequest.List)
		requests.POST("/:id/approve", h.AdminRequest.Approve)
		requests.POST("/:id/reject", h.AdminRequest.Reject)
		requests.POST("/:id/hold", h.AdminRequest.Hold)
		requests.POST("/:id/force-status", h.AdminRequest.ForceStatus)
	}

	projects := r.Group("/projects")
	{
		projects.GET("", h.AdminProject.List)
		projects.PUT("/:id/status", h.AdminProject.UpdateStatus)
		projects.POST("/:id/force-status", h.AdminProject.ForceStatus)
		projects.POST("/:id/payments/:installment/paid", h.AdminProject.MarkPaid)
	}

	discounts := r.Group("/discounts")
	{
		discounts.GET("", h.AdminDiscount.List)
		discounts.POST("", h.AdminDiscount.Create)
		discounts.GET("/:id", h.AdminDiscount.Get)
		discounts.PUT("/:id", h.AdminDiscount.Update)
		discounts.DELETE("/:id", h.AdminDiscount.Deactivate)
	}

	reminders := r.Group("/reminders")
	{
		reminders.GET("", h.AdminReminder.List)
		reminders.POST("", h.AdminReminder.Create)
	}

	users := r.Group("/users")
	{
		users.GET("", h.AdminUser.List)
		users.PUT("/:id/role", h.AdminUser.UpdateRole)
	}
}
