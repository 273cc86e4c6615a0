package shared

import (
	"errors"
	"net/http"

	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/internal/validators"
	"agencyportal/pkg/identity"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{models.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{models.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{models.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
	{models.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{models.ErrConflict, http.StatusConflict, "CONFLICT"},
	{models.ErrAlreadyPaid, http.StatusConflict, "ALREADY_PAID"},
	{models.ErrDepositNotPaid, http.StatusConflict, "DEPOSIT_NOT_PAID"},
	{models.ErrDiscountUnavailable, http.StatusUnprocessableEntity, "DISCOUNT_UNAVAILABLE"},
	{models.ErrPaymentFailed, http.StatusPaymentRequired, "PAYMENT_FAILED"},
	{models.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{models.ErrInvalidInstallment, http.StatusBadRequest, "INVALID_INSTALLMENT"},
	{models.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{models.ErrReasonRequired, http.StatusBadRequest, "REASON_REQUIRED"},
	{models.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{services.ErrInvalidOAuthState, http.StatusBadRequest, "INVALID_OAUTH_STATE"},
	{identity.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
}

// HandleServiceError writes the response for an error returned by a service.
// Unknown errors are logged and reported as 500 without details.
func HandleServiceError(c *gin.Context, log *logger.Logger, err error, resource string) {
	for _, m := range serviceErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status == http.StatusNotFound {
			utils.NotFoundResponse(c, resource)
			return
		}
		utils.ErrorResponse(c, m.status, m.code, err.Error())
		return
	}

	log.WithContext(c.Request.Context()).WithError(err).WithField("resource", resource).Error("Request failed")
	utils.InternalServerErrorResponse(c)
}

// BindJSON decodes and validates the body, writing the 400 itself on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return false
	}
	if errs := validators.ValidateStruct(dst); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Map())
		return false
	}
	return true
}

// ObjectIDParam parses a hex id path parameter.
func ObjectIDParam(c *gin.Context, name, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+resource+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}
