package client

import (
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/models"
	"agencyportal/internal/services"
	"agencyportal/internal/utils"
	"agencyportal/internal/validators"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService  services.ProjectService
	paymentService  services.PaymentService
	discountService services.DiscountService
	invoiceService  services.InvoiceService
	logger          *logger.Logger
}

func NewProjectHandler(
	projectService services.ProjectService,
	paymentService services.PaymentService,
	discountService services.DiscountService,
	invoiceService services.InvoiceService,
	log *logger.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectService:  projectService,
		paymentService:  paymentService,
		discountService: discountService,
		invoiceService:  invoiceService,
		logger:          log,
	}
}

func (h *ProjectHandler) ListMine(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.ListForUser(c.Request.Context(), middleware.CurrentActor(c).UserID, params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Projects")
		return
	}

	utils.PaginatedResponse(c, "Projects retrieved successfully", projects, len(projects), params, total)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Project retrieved successfully", project)
}

// GetPayments returns the deposit/final split with paid flags
func (h *ProjectHandler) GetPayments(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	breakdown, err := h.paymentService.Breakdown(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Payment breakdown retrieved successfully", breakdown)
}

// InitiatePayment charges an installment through the configured gateway.
func (h *ProjectHandler) InitiatePayment(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req validators.InitiatePaymentRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	installment, err := models.ParseInstallment(req.Installment)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Installment")
		return
	}

	result, err := h.paymentService.InitiatePayment(c.Request.Context(), id, installment, req.PaymentMethodID, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Payment initiated", result)
}

func (h *ProjectHandler) ApplyDiscount(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req validators.DiscountCodeRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	project, err := h.discountService.Apply(c.Request.Context(), id, req.Code, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Discount applied successfully", project)
}

func (h *ProjectHandler) GetInvoice(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	installment, err := models.ParseInstallment(c.Param("installment"))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Installment")
		return
	}

	link, err := h.invoiceService.Generate(c.Request.Context(), id, installment, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Invoice generated successfully", link)
}
