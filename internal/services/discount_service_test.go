package services

import (
	"context"
	"testing"
	"time"

	"agencyportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discountCode(code string, mutate func(*models.DiscountCode)) *models.DiscountCode {
	d := &models.DiscountCode{
		Code:       code,
		Percentage: 20,
		MaxUses:    10,
		ExpiryDate: time.Now().Add(24 * time.Hour),
		IsActive:   true,
		IsPublic:   true,
	}
	if mutate != nil {
		mutate(d)
	}
	return d
}

func TestValidateDiscount(t *testing.T) {
	env := newTestEnv(t)
	env.withDiscounts(
		discountCode("SAVE20", nil),
		discountCode("EXPIRED", func(d *models.DiscountCode) { d.ExpiryDate = time.Now().Add(-time.Hour) }),
		discountCode("USEDUP", func(d *models.DiscountCode) { d.CurrentUses = d.MaxUses }),
		discountCode("OFF", func(d *models.DiscountCode) { d.IsActive = false }),
		discountCode("VIP", func(d *models.DiscountCode) {
			d.IsPublic = false
			d.AllowedUsers = []string{"client@example.com"}
		}),
	)
	svc := env.discountSvc
	ctx := context.Background()

	tests := []struct {
		code  string
		email string
		valid bool
	}{
		{"save20", "anyone@example.com", true},
		{"  SAVE20 ", "", true},
		{"EXPIRED", "anyone@example.com", false},
		{"USEDUP", "anyone@example.com", false},
		{"OFF", "anyone@example.com", false},
		{"VIP", "Client@Example.com", true},
		{"VIP", "anyone@example.com", false},
		{"MISSING", "anyone@example.com", false},
		{"", "anyone@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.email, func(t *testing.T) {
			got, err := svc.Validate(ctx, tt.code, tt.email)
			require.NoError(t, err)
			if tt.valid {
				require.NotNil(t, got)
				assert.Equal(t, 20.0, got.Percentage)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.withDiscounts(
		discountCode("SAVE20", func(d *models.DiscountCode) { d.MaxUses = 1 }),
		discountCode("SAVE50", func(d *models.DiscountCode) { d.Percentage = 50 }),
	)
	project := env.seedProject(1000)

	view, err := env.discountSvc.Apply(ctx, project.ID, "save20", clientActor)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", view.AppliedDiscount.Code)
	assert.Equal(t, 400.0, view.Payments.DiscountedDeposit)
	assert.Equal(t, 1, env.discounts.items["SAVE20"].CurrentUses)

	other := env.seedProject(2000)
	_, err = env.discountSvc.Apply(ctx, other.ID, "SAVE20", clientActor)
	assert.ErrorIs(t, err, models.ErrDiscountUnavailable)
	assert.Nil(t, env.projects.items[other.ID].AppliedDiscount)

	// the last applied code wins
	view, err = env.discountSvc.Apply(ctx, project.ID, "SAVE50", clientActor)
	require.NoError(t, err)
	assert.Equal(t, 250.0, view.Payments.DiscountedDeposit)

	stranger := &Actor{UserID: "someone-else", Email: "other@example.com"}
	_, err = env.discountSvc.Apply(ctx, project.ID, "SAVE50", stranger)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1, env.discounts.items["SAVE50"].CurrentUses)
}

func TestApplyDiscountAfterPaymentIsRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.withDiscounts(discountCode("HALF", func(d *models.DiscountCode) { d.Percentage = 50 }))
	project := env.seedProject(1000)

	_, err := env.paymentSvc.MarkPaid(ctx, project.ID, models.InstallmentDeposit, MarkPaidOptions{}, adminActor)
	require.NoError(t, err)

	_, err = env.discountSvc.Apply(ctx, project.ID, "HALF", clientActor)
	assert.ErrorIs(t, err, models.ErrAlreadyPaid)
	assert.Zero(t, env.discounts.items["HALF"].CurrentUses)

	breakdown, err := env.paymentSvc.Breakdown(ctx, project.ID, clientActor)
	require.NoError(t, err)
	assert.Equal(t, 500.0, breakdown.AmountPaid)
	assert.Equal(t, 500.0, breakdown.TotalDue)
	assert.Empty(t, breakdown.DiscountCode)
}

func TestCreateAndDeactivateDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.discountSvc.Create(ctx, &models.CreateDiscountCodeRequest{Code: "BAD", Percentage: 120, MaxUses: 1}, adminActor)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	created, err := env.discountSvc.Create(ctx, &models.CreateDiscountCodeRequest{
		Code:       "launch10",
		Percentage: 10,
		MaxUses:    5,
		ExpiryDate: time.Now().Add(time.Hour),
		IsPublic:   true,
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "LAUNCH10", created.Code)
	assert.True(t, created.IsActive)
	assert.Equal(t, adminActor.UserID, created.CreatedBy)

	_, err = env.discountSvc.Create(ctx, &models.CreateDiscountCodeRequest{Code: "LAUNCH10", Percentage: 5, MaxUses: 1}, adminActor)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	deactivated, err := env.discountSvc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	got, err := env.discountSvc.Validate(ctx, "LAUNCH10", "anyone@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
