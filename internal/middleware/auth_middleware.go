package middleware

import (
	"context"
	"errors"
	"strings"

	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/pkg/identity"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthRequired.
const (
	ContextUserID  = "user_id"
	ContextEmail   = "email"
	ContextIsAdmin = "is_admin"
	ContextClaims  = "identity_claims"
)

// RoleResolver reports whether a user holds the admin role.
type RoleResolver interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AuthRequired verifies the bearer token and loads the caller's role. Users
// without a profile yet are treated as clients.
func AuthRequired(verifier identity.Verifier, roles RoleResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.ErrorResponse(c, 401, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			log.WithContext(c.Request.Context()).LogSecurityEvent("invalid_token", "low", map[string]interface{}{
				"path":  c.FullPath(),
				"error": err.Error(),
			})
			utils.ErrorResponse(c, 401, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		isAdmin, err := roles.IsAdmin(c.Request.Context(), claims.UID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			log.WithContext(c.Request.Context()).WithError(err).Error("Failed to resolve user role")
			utils.InternalServerErrorResponse(c)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UID)
		c.Set(ContextEmail, models.NormalizeEmail(claims.Email))
		c.Set(ContextIsAdmin, isAdmin)
		c.Set(ContextClaims, claims)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), claims.UID))

		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so those may pass the token in the query instead.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			token := c.Query("token")
			return token, token != ""
		}
		return "", false
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return "", false
	}
	return token, true
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			utils.ErrorResponse(c, 403, "FORBIDDEN", "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor builds the service-layer caller from the request context.
func CurrentActor(c *gin.Context) *services.Actor {
	return &services.Actor{
		UserID:  c.GetString(ContextUserID),
		Email:   c.GetString(ContextEmail),
		IsAdmin: c.GetBool(ContextIsAdmin),
	}
}

// CurrentClaims returns the verified token claims, or nil outside AuthRequired.
func CurrentClaims(c *gin.Context) *identity.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*identity.Claims)
	return claims
}
