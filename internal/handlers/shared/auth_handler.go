package shared

import (
	"net/http"

	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/internal/validators"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
	logger      *logger.Logger
}

// NewAuthHandler accepts a nil authService when OAuth sign-in is disabled.
func NewAuthHandler(authService services.AuthService, userService services.UserService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		logger:      log,
	}
}

// Session bootstraps the signed-in user: creates the profile on first visit
// and hands over anything submitted or approved under their email.
func (h *AuthHandler) Session(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		utils.UnauthorizedResponse(c)
		return
	}

	session, err := h.userService.EnsureUser(c.Request.Context(), &models.Identity{
		UID:         claims.UID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Phone:       claims.Phone,
		Provider:    claims.Provider,
	})
	if err != nil {
		HandleServiceError(c, h.logger, err, "User")
		return
	}

	if session.Created {
		utils.CreatedResponse(c, "Welcome", session)
		return
	}
	utils.SuccessResponse(c, "Session established", session)
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	url, err := h.authService.LoginURL(c.Request.Context())
	if err != nil {
		HandleServiceError(c, h.logger, err, "Login")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		utils.BadRequestResponse(c, "Sign-in was cancelled: "+errParam)
		return
	}

	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		utils.BadRequestResponse(c, "Missing state or code")
		return
	}

	result, err := h.authService.Callback(c.Request.Context(), state, code)
	if err != nil {
		HandleServiceError(c, h.logger, err, "Login")
		return
	}

	utils.SuccessResponse(c, "Signed in", result)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req validators.RefreshTokenRequest
	if !BindJSON(c, &req) {
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		HandleServiceError(c, h.logger, err, "Token")
		return
	}

	utils.SuccessResponse(c, "Token refreshed", tokens)
}
