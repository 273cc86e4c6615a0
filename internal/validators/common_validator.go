package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	validate *validator.Validate

	discountCodeRegex = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)
)

func init() {
	validate = validator.New()

	// Report json field names so errors match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("currency_amount", validateCurrencyAmount)
	validate.RegisterValidation("project_status", validateProjectStatus)
	validate.RegisterValidation("request_status", validateRequestStatus)
	validate.RegisterValidation("installment", validateInstallment)
	validate.RegisterValidation("discount_code", validateDiscountCode)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Map is the field -> message form used in API error details.
func (v ValidationErrors) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "body", Tag: "invalid", Message: err.Error()}}
	}
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", err.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "phone_number":
		return "Invalid phone number format"
	case "currency_amount":
		return "Amount must be a positive number"
	case "project_status":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), joinStatuses(models.ProjectStatuses()))
	case "request_status":
		return fmt.Sprintf("%s must be one of: pending, approved, rejected, on hold", err.Field())
	case "installment":
		return "Installment must be deposit or final"
	case "discount_code":
		return "Code must be 3-32 letters, digits, dashes or underscores"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func joinStatuses(statuses []models.ProjectStatus) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return utils.IsValidPhone(phone)
}

func validateCurrencyAmount(fl validator.FieldLevel) bool {
	amount, err := utils.ParseCurrencyAmount(fl.Field().String())
	return err == nil && amount > 0
}

func validateProjectStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseProjectStatus(fl.Field().String())
	return err == nil
}

func validateRequestStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseRequestStatus(fl.Field().String())
	return err == nil
}

func validateInstallment(fl validator.FieldLevel) bool {
	_, err := models.ParseInstallment(fl.Field().String())
	return err == nil
}

func validateDiscountCode(fl validator.FieldLevel) bool {
	return discountCodeRegex.MatchString(models.NormalizeDiscountCode(fl.Field().String()))
}

func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
