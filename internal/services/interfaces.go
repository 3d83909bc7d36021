package services

import (
	"github.com/shopspring/decimal"

	"valutatrade/internal/models"
	"valutatrade/internal/pagination"
	"valutatrade/internal/rates"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(username, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
	ChangePassword(userID uint, currentPassword, newPassword string) error
	UpdateUsername(userID uint, newUsername string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// Conversion describes the outcome of a buy or sell operation: the amount
// withdrawn from the source wallet and the converted amount deposited into
// the destination wallet.
type Conversion struct {
	FromWallet *models.Wallet  `json:"from_wallet"`
	ToWallet   *models.Wallet  `json:"to_wallet"`
	Amount     decimal.Decimal `json:"amount"`
	Converted  decimal.Decimal `json:"converted"`
}

// PortfolioServicer defines the contract for portfolio-related business logic.
// A portfolio is the set of per-currency wallets owned by one user.
type PortfolioServicer interface {
	AddCurrency(userID uint, currencyCode string) (*models.Wallet, error)
	GetWallet(userID uint, currencyCode string) (*models.Wallet, error)
	GetUserWallets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error)
	GetTotalValue(userID uint, baseCurrency string) (decimal.Decimal, error)
	Deposit(userID uint, currencyCode string, amount decimal.Decimal) (*models.Wallet, error)
	Withdraw(userID uint, currencyCode string, amount decimal.Decimal) (*models.Wallet, error)
	BuyCurrency(userID uint, amount decimal.Decimal, fromCurrency, toCurrency string) (*Conversion, error)
	SellCurrency(userID uint, amount decimal.Decimal, fromCurrency, toCurrency string) (*Conversion, error)
	Rates() rates.Table
}
