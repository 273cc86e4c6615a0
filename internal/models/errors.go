package models

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidInstallment  = errors.New("invalid installment")
	ErrForbidden           = errors.New("forbidden")
	ErrDiscountUnavailable = errors.New("discount code is not available")
	ErrDepositNotPaid      = errors.New("deposit must be paid before the final installment")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrConflict            = errors.New("concurrent update")
	ErrAlreadyPaid         = errors.New("installment already paid")
	ErrReasonRequired      = errors.New("a reason is required")
	ErrInvalidInput        = errors.New("invalid input")
)
