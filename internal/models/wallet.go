package models

import (
	"github.com/shopspring/decimal"

	apperrors "valutatrade/internal/errors"
)

// Wallet holds a single-currency balance for a user. The currency code is
// fixed at creation and the balance is an exact decimal that never goes
// negative. A user has at most one wallet per currency.
type Wallet struct {
	Base
	UserID       uint            `gorm:"not null;uniqueIndex:idx_wallet_user_currency" json:"user_id"`
	CurrencyCode string          `gorm:"size:8;not null;uniqueIndex:idx_wallet_user_currency" json:"currency_code"`
	Balance      decimal.Decimal `gorm:"type:decimal(38,18);not null;default:0" json:"balance"`
}

// SetBalance replaces the wallet balance. It re-validates non-negativity
// even when called directly; Deposit and Withdraw route through it.
func (w *Wallet) SetBalance(value decimal.Decimal) error {
	if value.IsNegative() {
		return apperrors.ErrNegativeBalance
	}
	w.Balance = value
	return nil
}

// Deposit adds a positive amount to the balance. On failure the balance
// is unchanged.
func (w *Wallet) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Deposit amount must be positive")
	}
	return w.SetBalance(w.Balance.Add(amount))
}

// Withdraw removes a positive amount from the balance. Fails with
// INSUFFICIENT_FUNDS if the amount exceeds the balance; on any failure
// the balance is unchanged.
func (w *Wallet) Withdraw(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Withdrawal amount must be positive")
	}
	if amount.GreaterThan(w.Balance) {
		return apperrors.ErrInsufficientFunds
	}
	return w.SetBalance(w.Balance.Sub(amount))
}
