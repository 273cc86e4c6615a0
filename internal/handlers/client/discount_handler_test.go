package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubDiscounts struct {
	codes     map[string]*models.DiscountCode
	paid      bool
	seenEmail string
}

func (s *stubDiscounts) Validate(ctx context.Context, code, email string) (*models.DiscountCode, error) {
	s.seenEmail = email
	return s.codes[models.NormalizeDiscountCode(code)], nil
}

func (s *stubDiscounts) Apply(ctx context.Context, projectID primitive.ObjectID, code string, actor *services.Actor) (*models.ProjectView, error) {
	if s.paid {
		return nil, models.ErrAlreadyPaid
	}
	d := s.codes[models.NormalizeDiscountCode(code)]
	if d == nil {
		return nil, models.ErrDiscountUnavailable
	}
	return models.NewProjectView(&models.Project{
		ID:              projectID,
		Budget:          1000,
		Status:          models.ProjectStatusInProgress,
		AppliedDiscount: &models.AppliedDiscount{Code: d.Code, Percentage: d.Percentage},
	}), nil
}

func (s *stubDiscounts) Create(ctx context.Context, req *models.CreateDiscountCodeRequest, actor *services.Actor) (*models.DiscountCode, error) {
	return nil, models.ErrForbidden
}

func (s *stubDiscounts) Get(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error) {
	return nil, models.ErrNotFound
}

func (s *stubDiscounts) List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.DiscountCode, int64, error) {
	return nil, 0, nil
}

func (s *stubDiscounts) Update(ctx context.Context, id primitive.ObjectID, req *models.UpdateDiscountCodeRequest) (*models.DiscountCode, error) {
	return nil, models.ErrNotFound
}

func (s *stubDiscounts) Deactivate(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error) {
	return nil, models.ErrNotFound
}

func newClientRouter(discounts services.DiscountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "client-1")
		c.Set(middleware.ContextEmail, "client@example.com")
	})

	dh := NewDiscountHandler(discounts, logger.NewNop())
	ph := NewProjectHandler(nil, nil, discounts, nil, logger.NewNop())
	r.POST("/discounts/validate", dh.Validate)
	r.POST("/projects/:id/discount", ph.ApplyDiscount)
	r.GET("/projects/:id/invoices/:installment", ph.GetInvoice)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateDiscount(t *testing.T) {
	discounts := &stubDiscounts{codes: map[string]*models.DiscountCode{
		"SPRING20": {Code: "SPRING20", Percentage: 20},
	}}
	r := newClientRouter(discounts)

	w := postJSON(r, "/discounts/validate", `{"code":"spring20"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"SPRING20"`)
	assert.Equal(t, "client@example.com", discounts.seenEmail)

	w = postJSON(r, "/discounts/validate", `{"code":"EXPIRED"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":null`)

	w = postJSON(r, "/discounts/validate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyDiscount(t *testing.T) {
	discounts := &stubDiscounts{codes: map[string]*models.DiscountCode{
		"SPRING20": {Code: "SPRING20", Percentage: 20},
	}}
	r := newClientRouter(discounts)
	id := primitive.NewObjectID().Hex()

	w := postJSON(r, "/projects/"+id+"/discount", `{"code":"SPRING20"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"percentage":20`)

	w = postJSON(r, "/projects/"+id+"/discount", `{"code":"NOPE"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	discounts.paid = true
	w = postJSON(r, "/projects/"+id+"/discount", `{"code":"SPRING20"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_PAID")
}

func TestGetInvoiceRejectsUnknownInstallment(t *testing.T) {
	r := newClientRouter(&stubDiscounts{})

	req := httptest.NewRequest(http.MethodGet, "/projects/"+primitive.NewObjectID().Hex()+"/invoices/third", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
