package invoice

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	paidAt := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	data, err := NewRenderer().RenderBytes(&Invoice{
		Number:        "INV-0001",
		IssuedAt:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Issuer:        "AgencyPortal",
		CustomerEmail: "client@example.com",
		ProjectRef:    "665f1c",
		WebsiteType:   "business",
		Features:      []string{"responsive", "seo"},
		Lines: []Line{
			{Description: "Deposit (50%)", Amount: "€750.00"},
			{Description: "Discount SPRING20 (20%)", Amount: "-€150.00"},
		},
		Total:  "€600.00",
		Paid:   true,
		PaidAt: &paidAt,
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 500)
}
