package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var SupportedCurrencies = map[string]Currency{
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar"},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro"},
	"GBP": {Code: "GBP", Symbol: "£", Name: "British Pound"},
	"CAD": {Code: "CAD", Symbol: "C$", Name: "Canadian Dollar"},
	"AUD": {Code: "AUD", Symbol: "A$", Name: "Australian Dollar"},
	"INR": {Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
}

// currencySymbols is ordered so prefixed dollar signs are stripped before "$".
var currencySymbols = []string{"C$", "A$", "$", "€", "£", "₹"}

func FormatCurrency(amount float64, currencyCode string) string {
	currency, exists := SupportedCurrencies[strings.ToUpper(currencyCode)]
	if !exists {
		currency = SupportedCurrencies[DefaultCurrency]
	}

	amount = math.Round(amount*100) / 100
	return fmt.Sprintf("%s%.2f", currency.Symbol, amount)
}

// ParseCurrencyAmount accepts what staff type into a quote field: "1500",
// "$1,500.00", "1500 USD".
func ParseCurrencyAmount(amountStr string) (float64, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(amountStr))
	for code := range SupportedCurrencies {
		cleaned = strings.TrimSuffix(cleaned, code)
	}
	for _, symbol := range currencySymbols {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return 0, errors.New("empty amount")
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid amount %q", amountStr)
	}

	return amount, nil
}

func ValidateCurrencyCode(code string) bool {
	_, exists := SupportedCurrencies[strings.ToUpper(code)]
	return exists
}

// ToMinorUnits converts an amount to cents for payment processors.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
