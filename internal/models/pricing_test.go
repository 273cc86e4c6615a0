package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitBudgetSumsToBudget(t *testing.T) {
	budgets := []float64{0, 1, 750, 1000, 1500, 1000.01, 2499.99, 0.03}

	for _, budget := range budgets {
		deposit, final := SplitBudget(budget)
		assert.InDelta(t, budget, deposit+final, 1e-9, "budget %v", budget)
	}

	assert.Equal(t, 500.0, DepositAmount(1000))
	assert.Equal(t, 500.0, FinalAmount(1000))
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		amount     float64
		percentage float64
		want       float64
	}{
		{500, 20, 400},
		{500, 0, 500},
		{500, 100, 0},
		{750, 15, 637.5},
		{99.99, 10, 89.99},
		{500, 150, 0},
		{500, -10, 500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyDiscount(tt.amount, tt.percentage), "%v at %v%%", tt.amount, tt.percentage)
	}
}

func TestPaymentBreakdownWithDiscount(t *testing.T) {
	p := &Project{
		Budget:          1000,
		DepositPaid:     true,
		AppliedDiscount: &AppliedDiscount{Code: "SPRING20", Percentage: 20, AppliedAt: time.Now()},
	}

	b := NewPaymentBreakdown(p)

	assert.Equal(t, 500.0, b.DepositAmount)
	assert.Equal(t, 500.0, b.FinalAmount)
	assert.Equal(t, 400.0, b.DiscountedDeposit)
	assert.Equal(t, 400.0, b.DiscountedFinal)
	assert.Equal(t, 400.0, b.AmountPaid)
	assert.Equal(t, 400.0, b.TotalDue)
	assert.Equal(t, "SPRING20", b.DiscountCode)
	assert.Equal(t, PaymentStatusDepositPaid, b.PaymentStatus)

	assert.Equal(t, 400.0, p.AmountDue(InstallmentFinal))
}

func TestDiscountCodeRedeemable(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	base := DiscountCode{
		Code:        "VIP",
		Percentage:  10,
		MaxUses:     5,
		CurrentUses: 1,
		ExpiryDate:  now.Add(24 * time.Hour),
		IsActive:    true,
		IsPublic:    true,
	}

	valid := base
	assert.True(t, valid.IsRedeemableBy("", now))

	expired := base
	expired.ExpiryDate = now.Add(-time.Minute)
	assert.False(t, expired.IsRedeemableBy("", now))

	exhausted := base
	exhausted.CurrentUses = exhausted.MaxUses
	assert.False(t, exhausted.IsRedeemableBy("", now))

	inactive := base
	inactive.IsActive = false
	assert.False(t, inactive.IsRedeemableBy("", now))

	private := base
	private.IsPublic = false
	private.AllowedUsers = []string{"Client@Example.com"}
	assert.True(t, private.IsRedeemableBy("client@example.com", now))
	assert.False(t, private.IsRedeemableBy("other@example.com", now))
	assert.False(t, private.IsRedeemableBy("", now))
}

func TestNormalizeDiscountCode(t *testing.T) {
	assert.Equal(t, "SPRING20", NormalizeDiscountCode("  spring20 "))
}
