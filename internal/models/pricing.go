package models

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

type PaymentBreakdown struct {
	Budget             float64       `json:"budget"`
	DepositAmount      float64       `json:"deposit_amount"`
	FinalAmount        float64       `json:"final_amount"`
	DiscountCode       string        `json:"discount_code,omitempty"`
	DiscountPercentage float64       `json:"discount_percentage"`
	DiscountedDeposit  float64       `json:"discounted_deposit"`
	DiscountedFinal    float64       `json:"discounted_final"`
	TotalDue           float64       `json:"total_due"`
	AmountPaid         float64       `json:"amount_paid"`
	DepositPaid        bool          `json:"deposit_paid"`
	FinalPaid          bool          `json:"final_paid"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
}

// SplitBudget returns the deposit and final installments. The deposit is half
// the budget rounded to cents and the final installment is the remainder, so
// the two always add up to the budget.
func SplitBudget(budget float64) (deposit, final float64) {
	b := decimal.NewFromFloat(budget)
	d := b.Mul(half).Round(2)
	return d.InexactFloat64(), b.Sub(d).InexactFloat64()
}

func DepositAmount(budget float64) float64 {
	deposit, _ := SplitBudget(budget)
	return deposit
}

func FinalAmount(budget float64) float64 {
	_, final := SplitBudget(budget)
	return final
}

// ApplyDiscount returns amount*(100-percentage)/100 rounded to cents.
// Percentages outside 0..100 are clamped.
func ApplyDiscount(amount, percentage float64) float64 {
	pct := decimal.NewFromFloat(percentage)
	if pct.LessThan(decimal.Zero) {
		pct = decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}

	return decimal.NewFromFloat(amount).
		Mul(hundred.Sub(pct)).
		Div(hundred).
		Round(2).
		InexactFloat64()
}

// AmountDue is the discounted amount of one installment.
func (p *Project) AmountDue(inst Installment) float64 {
	deposit, final := SplitBudget(p.Budget)
	amount := deposit
	if inst == InstallmentFinal {
		amount = final
	}
	return ApplyDiscount(amount, p.DiscountPercentage())
}

func NewPaymentBreakdown(p *Project) *PaymentBreakdown {
	deposit, final := SplitBudget(p.Budget)
	pct := p.DiscountPercentage()

	b := &PaymentBreakdown{
		Budget:             p.Budget,
		DepositAmount:      deposit,
		FinalAmount:        final,
		DiscountPercentage: pct,
		DiscountedDeposit:  ApplyDiscount(deposit, pct),
		DiscountedFinal:    ApplyDiscount(final, pct),
		DepositPaid:        p.DepositPaid,
		FinalPaid:          p.FinalPaid,
		PaymentStatus:      DerivePaymentStatus(p.DepositPaid, p.FinalPaid),
	}
	if p.AppliedDiscount != nil {
		b.DiscountCode = p.AppliedDiscount.Code
	}

	paid := decimal.Zero
	due := decimal.Zero
	if p.DepositPaid {
		paid = paid.Add(decimal.NewFromFloat(b.DiscountedDeposit))
	} else {
		due = due.Add(decimal.NewFromFloat(b.DiscountedDeposit))
	}
	if p.FinalPaid {
		paid = paid.Add(decimal.NewFromFloat(b.DiscountedFinal))
	} else {
		due = due.Add(decimal.NewFromFloat(b.DiscountedFinal))
	}
	b.AmountPaid = paid.InexactFloat64()
	b.TotalDue = due.InexactFloat64()

	return b
}
