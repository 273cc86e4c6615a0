package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/invoice"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type InvoiceService interface {
	// Generate renders the invoice for one installment, stores it and
	// returns a download link.
	Generate(ctx context.Context, projectID primitive.ObjectID, installment models.Installment, actor *Actor) (*InvoiceLink, error)
}

type invoiceService struct {
	projectRepo interfaces.ProjectRepository
	renderer    *invoice.Renderer
	storage     storage.StorageProvider
	issuer      string
	currency    string
	clock       clock
	logger      *logger.Logger
}

func NewInvoiceService(projectRepo interfaces.ProjectRepository, renderer *invoice.Renderer, store storage.StorageProvider, issuer, currency string, log *logger.Logger) InvoiceService {
	if issuer == "" {
		issuer = utils.AppName
	}
	if currency == "" {
		currency = utils.DefaultCurrency
	}
	return &invoiceService{
		projectRepo: projectRepo,
		renderer:    renderer,
		storage:     store,
		issuer:      issuer,
		currency:    currency,
		logger:      log,
	}
}

func (s *invoiceService) Generate(ctx context.Context, projectID primitive.ObjectID, installment models.Installment, actor *Actor) (*InvoiceLink, error) {
	if !installment.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidInstallment, installment)
	}

	project, err := loadProjectFor(ctx, s.projectRepo, projectID, actor)
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	doc := s.buildInvoice(project, installment, now)

	data, err := s.renderer.RenderBytes(doc)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("invoices/%s/%s-%s.pdf", project.ID.Hex(), installment, uuid.NewString())
	_, err = s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(data),
		ContentType:  "application/pdf",
		Size:         int64(len(data)),
		CacheControl: "private, max-age=0",
		Metadata: map[string]string{
			"project_id":  project.ID.Hex(),
			"installment": string(installment),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}

	url, err := s.storage.GetURL(ctx, key, utils.InvoiceURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign invoice url: %w", err)
	}

	s.logger.WithContext(ctx).WithProjectID(project.ID.Hex()).WithField("invoice", doc.Number).Info("Invoice generated")

	return &InvoiceLink{
		Key:       key,
		URL:       url,
		ExpiresAt: now.Add(utils.InvoiceURLExpiry),
	}, nil
}

func (s *invoiceService) buildInvoice(project *models.Project, installment models.Installment, now time.Time) *invoice.Invoice {
	deposit, final := models.SplitBudget(project.Budget)
	base := deposit
	paidAt := project.DepositPaidAt
	if installment == models.InstallmentFinal {
		base = final
		paidAt = project.FinalPaidAt
	}

	lines := []invoice.Line{{
		Description: fmt.Sprintf("%s website, %s installment (50%% of %s)",
			project.WebsiteType, installment, utils.FormatCurrency(project.Budget, s.currency)),
		Amount: utils.FormatCurrency(base, s.currency),
	}}

	due := project.AmountDue(installment)
	if project.AppliedDiscount != nil {
		lines = append(lines, invoice.Line{
			Description: fmt.Sprintf("Discount %s (%g%%)", project.AppliedDiscount.Code, project.AppliedDiscount.Percentage),
			Amount:      "-" + utils.FormatCurrency(base-due, s.currency),
		})
	}

	return &invoice.Invoice{
		Number:        fmt.Sprintf("%s-%s-%s", strings.ToUpper(project.ID.Hex()[18:]), strings.ToUpper(string(installment[0])), now.Format("20060102")),
		IssuedAt:      now,
		Issuer:        s.issuer,
		CustomerEmail: project.UserEmail,
		ProjectRef:    project.ID.Hex(),
		WebsiteType:   project.WebsiteType,
		Features:      project.Features,
		Lines:         lines,
		Total:         utils.FormatCurrency(due, s.currency),
		Paid:          project.IsPaid(installment),
		PaidAt:        paidAt,
		Notes:         "Deadline: " + project.Deadline,
	}
}
