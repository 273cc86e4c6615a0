package admin

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
	projectService services.ProjectService
	paymentService services.PaymentService
	logger         *logger.Logger
}

func NewProjectHandler(projectService services.ProjectService, paymentService services.PaymentService, log *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		paymentService: paymentService,
		logger:         log,
	}
}

// List supports ?status= and ?payment_status= filters
func (h *ProjectHandler) List(c *gin.Context) {
	var filter models.ProjectFilter
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseProjectStatus(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid status filter")
			return
		}
		filter.Status = status
	}
	if raw := c.Query("payment_status"); raw != "" {
		filter.PaymentStatus = models.PaymentStatus(raw)
	}
	filter.UserID = c.Query("user_id")
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.ListAll(c.Request.Context(), filter, params)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Projects")
		return
	}

	utils.PaginatedResponse(c, "Projects retrieved successfully", projects, len(projects), params, total)
}

func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req validators.ProjectStatusRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	status, err := models.ParseProjectStatus(req.Status)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	project, err := h.projectService.SetStatus(c.Request.Context(), id, status, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Project status updated", project)
}

func (h *ProjectHandler) ForceStatus(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req validators.ForceProjectStatusRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	status, err := models.ParseProjectStatus(req.Status)
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	project, err := h.projectService.ForceStatus(c.Request.Context(), id, status, req.Reason, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Project status forced", project)
}

// MarkPaid records an installment settled outside the gateway. Paying the
// final before the deposit needs out_of_band with a reason.
func (h *ProjectHandler) MarkPaid(c *gin.Context) {
	id, ok := shared.ObjectIDParam(c, "id", "project")
	if !ok {
		return
	}

	installment, err := models.ParseInstallment(c.Param("installment"))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Installment")
		return
	}

	var req validators.MarkPaidRequest
	if c.Request.ContentLength != 0 && !shared.BindJSON(c, &req) {
		return
	}

	project, err := h.paymentService.MarkPaid(c.Request.Context(), id, installment, services.MarkPaidOptions{
		OutOfBand: req.OutOfBand,
		Reason:    req.Reason,
	}, middleware.CurrentActor(c))
	if err != nil {
		shared.HandleServiceError(c, h.logger, err, "Project")
		return
	}

	utils.SuccessResponse(c, "Installment marked as paid", project)
}
