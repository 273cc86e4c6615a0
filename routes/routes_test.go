package routes

import (
	"net/http"
	"testing"

	"agencyportal/internal/handlers/admin"
	"agencyportal/internal/handlers/client"
	"agencyportal/internal/handlers/shared"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newHandlers() *Handlers {
	log := logger.NewNop()
	return &Handlers{
		Auth:          shared.NewAuthHandler(nil, nil, log),
		User:          shared.NewUserHandler(nil, log),
		Notification:  shared.NewNotificationHandler(nil, log),
		Request:       client.NewRequestHandler(nil, log),
		Project:       client.NewProjectHandler(nil, nil, nil, nil, log),
		Discount:      client.NewDiscountHandler(nil, log),
		Reminder:      client.NewReminderHandler(nil, log),
		AdminRequest:  admin.NewRequestHandler(nil, nil, log),
		AdminProject:  admin.NewProjectHandler(nil, nil, log),
		AdminDiscount: admin.NewDiscountHandler(nil, log),
		AdminReminder: admin.NewReminderHandler(nil, log),
		AdminUser:     admin.NewUserHandler(nil, log),
	}
}

func registered(oauth bool) map[string]bool {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupAPIRoutes(r.Group("/api/v1"), newHandlers(), func(c *gin.Context) { c.Next() }, oauth)

	routes := make(map[string]bool)
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	return routes
}

func TestSetupAPIRoutes(t *testing.T) {
	routes := registered(true)

	for _, want := range []string{
		"POST /api/v1/auth/session",
		"GET /api/v1/auth/google/login",
		"GET /api/v1/auth/google/callback",
		"GET /api/v1/users/me",
		"POST /api/v1/requests",
		"GET /api/v1/requests/:id",
		"GET /api/v1/projects/:id/payments",
		"POST /api/v1/projects/:id/payments",
		"POST /api/v1/projects/:id/discount",
		"GET /api/v1/projects/:id/invoices/:installment",
		"POST /api/v1/discounts/validate",
		"GET /api/v1/reminders",
		"PUT /api/v1/notifications/read-all",
		"DELETE /api/v1/subscriptions/:id",
		"POST /api/v1/admin/requests/:id/approve",
		"POST /api/v1/admin/requests/:id/force-status",
		"PUT /api/v1/admin/projects/:id/status",
		"POST /api/v1/admin/projects/:id/payments/:installment/paid",
		"DELETE /api/v1/admin/discounts/:id",
		"POST /api/v1/admin/reminders",
		"PUT /api/v1/admin/users/:id/role",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	assert.False(t, routes[http.MethodGet+" /api/v1/ws"], "websocket route needs a handler")
}

func TestOAuthRoutesSkippedWhenDisabled(t *testing.T) {
	routes := registered(false)

	assert.True(t, routes["POST /api/v1/auth/session"])
	assert.False(t, routes["GET /api/v1/auth/google/login"])
	assert.False(t, routes["POST /api/v1/auth/refresh"])
}
