package validators

import (
	"encoding/json"
	"testing"
	"time"

	"agencyportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountInputAcceptsNumbersAndStrings(t *testing.T) {
	var req ApproveRequest
	require.NoError(t, json.Unmarshal([]byte(`{"quoted_budget": 1500}`), &req))
	assert.Equal(t, AmountInput("1500"), req.QuotedBudget)

	require.NoError(t, json.Unmarshal([]byte(`{"quoted_budget": "$1,500.00"}`), &req))
	assert.Empty(t, ValidateStruct(&req))

	require.Error(t, json.Unmarshal([]byte(`{"quoted_budget": true}`), &req))
}

func TestApproveRequestRejectsBadAmounts(t *testing.T) {
	for _, amount := range []AmountInput{"", "abc", "0", "-10"} {
		errs := ValidateStruct(&ApproveRequest{QuotedBudget: amount})
		require.Len(t, errs, 1, "amount %q", amount)
		assert.Equal(t, "quoted_budget", errs[0].Field)
	}
}

func TestStatusTags(t *testing.T) {
	assert.Empty(t, ValidateStruct(&ProjectStatusRequest{Status: "client review"}))
	assert.Empty(t, ValidateStruct(&ProjectStatusRequest{Status: "On Hold"}))

	errs := ValidateStruct(&ProjectStatusRequest{Status: "shipped"})
	require.Len(t, errs, 1)
	assert.Equal(t, "project_status", errs[0].Tag)
	assert.Contains(t, errs[0].Message, "client review")

	assert.Empty(t, ValidateStruct(&ForceRequestStatusRequest{Status: "on hold", Reason: "x"}))
	assert.NotEmpty(t, ValidateStruct(&ForceRequestStatusRequest{Status: "archived", Reason: "x"}))
}

func TestMarkPaidRequiresReasonOutOfBand(t *testing.T) {
	assert.Empty(t, ValidateStruct(&MarkPaidRequest{}))

	errs := ValidateStruct(&MarkPaidRequest{OutOfBand: true})
	require.Len(t, errs, 1)
	assert.Equal(t, "reason", errs[0].Field)

	assert.Empty(t, ValidateStruct(&MarkPaidRequest{OutOfBand: true, Reason: "bank transfer"}))
}

func TestModelTags(t *testing.T) {
	dueDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	errs := ValidateStruct(&models.RequestInput{WebsiteType: "business", Deadline: "2025-06-01", Budget: "1000-2500"})
	require.Len(t, errs, 1)
	assert.Equal(t, "features", errs[0].Field)

	assert.Empty(t, ValidateStruct(&models.CreateReminderRequest{PaymentType: "deposit", DueDate: dueDate}))
	assert.NotEmpty(t, ValidateStruct(&models.CreateReminderRequest{PaymentType: "bonus", DueDate: dueDate}))

	assert.NotEmpty(t, ValidateStruct(&models.CreateDiscountCodeRequest{Code: "no spaces!", Percentage: 10, MaxUses: 1, ExpiryDate: dueDate}))
	assert.Empty(t, ValidateStruct(&models.CreateDiscountCodeRequest{Code: "spring-25", Percentage: 10, MaxUses: 1, ExpiryDate: dueDate}))
}
