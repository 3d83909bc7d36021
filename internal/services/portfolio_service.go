package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "valutatrade/internal/errors"
	"valutatrade/internal/models"
	"valutatrade/internal/pagination"
	"valutatrade/internal/rates"
)

// portfolioService handles wallet and conversion business logic. The
// exchange-rate table is injected at construction and never mutated.
type portfolioService struct {
	db    *gorm.DB
	rates rates.Table
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, table rates.Table) PortfolioServicer {
	return &portfolioService{db: db, rates: table}
}

// Rates returns the exchange-rate table this service was built with.
func (s *portfolioService) Rates() rates.Table {
	return s.rates
}

// AddCurrency creates a zero-balance wallet for the given currency. Fails
// if the currency is unknown to the rate table or the user already owns a
// wallet for it.
func (s *portfolioService) AddCurrency(userID uint, currencyCode string) (*models.Wallet, error) {
	code := strings.ToUpper(currencyCode)

	if !s.rates.Has(code) {
		return nil, apperrors.WithMessage(apperrors.ErrUnknownCurrency, "Unknown currency code "+code)
	}

	var count int64
	s.db.Model(&models.Wallet{}).Where("user_id = ? AND currency_code = ?", userID, code).Count(&count)
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateWallet, "A wallet for "+code+" already exists")
	}

	wallet := &models.Wallet{
		UserID:       userID,
		CurrencyCode: code,
		Balance:      decimal.Zero,
	}
	if err := s.db.Create(wallet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return wallet, nil
}

// GetWallet retrieves one wallet by currency code.
func (s *portfolioService) GetWallet(userID uint, currencyCode string) (*models.Wallet, error) {
	return getWallet(s.db, userID, currencyCode)
}

func getWallet(tx *gorm.DB, userID uint, currencyCode string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("user_id = ? AND currency_code = ?", userID, strings.ToUpper(currencyCode)).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrWalletNotFound,
				"No wallet for currency "+strings.ToUpper(currencyCode))
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// GetUserWallets retrieves a paginated list of the user's wallets ordered
// by currency code. Each call returns freshly loaded rows, so callers can
// never mutate service-internal state.
func (s *portfolioService) GetUserWallets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error) {
	page.Defaults()

	base := s.db.Model(&models.Wallet{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var wallets []models.Wallet
	if err := base.Scopes(pagination.Paginate(page)).
		Order("currency_code ASC").
		Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(wallets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTotalValue sums the value of every wallet expressed in the base
// currency: balance * rate[currency] / rate[base]. Wallets whose currency
// is missing from the rate table are skipped. An empty portfolio is worth
// zero in any valid base currency.
func (s *portfolioService) GetTotalValue(userID uint, baseCurrency string) (decimal.Decimal, error) {
	base := strings.ToUpper(baseCurrency)
	baseRate, ok := s.rates.Rate(base)
	if !ok {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrUnknownCurrency, "Unknown base currency "+base)
	}

	var wallets []models.Wallet
	if err := s.db.Where("user_id = ?", userID).Find(&wallets).Error; err != nil {
		return decimal.Decimal{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	for _, wallet := range wallets {
		rate, ok := s.rates.Rate(wallet.CurrencyCode)
		if !ok {
			continue
		}
		total = total.Add(wallet.Balance.Mul(rate).Div(baseRate))
	}
	return total, nil
}

// Deposit adds a positive amount to the wallet for the given currency.
func (s *portfolioService) Deposit(userID uint, currencyCode string, amount decimal.Decimal) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		wallet, txErr = getWallet(tx, userID, currencyCode)
		if txErr != nil {
			return txErr
		}
		if txErr = wallet.Deposit(amount); txErr != nil {
			return txErr
		}
		return saveBalance(tx, wallet)
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Withdraw removes a positive amount from the wallet for the given currency.
func (s *portfolioService) Withdraw(userID uint, currencyCode string, amount decimal.Decimal) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		wallet, txErr = getWallet(tx, userID, currencyCode)
		if txErr != nil {
			return txErr
		}
		if txErr = wallet.Withdraw(amount); txErr != nil {
			return txErr
		}
		return saveBalance(tx, wallet)
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// BuyCurrency withdraws the amount from the source wallet, converts it
// via rate[from]/rate[to], and deposits the result into the destination
// wallet. The whole operation runs inside a database transaction, so a
// failure at any step leaves both wallets untouched.
func (s *portfolioService) BuyCurrency(userID uint, amount decimal.Decimal, fromCurrency, toCurrency string) (*Conversion, error) {
	return s.convert(userID, amount, fromCurrency, toCurrency, false)
}

// SellCurrency is structurally identical to BuyCurrency but additionally
// pre-checks the source balance before touching any state.
func (s *portfolioService) SellCurrency(userID uint, amount decimal.Decimal, fromCurrency, toCurrency string) (*Conversion, error) {
	return s.convert(userID, amount, fromCurrency, toCurrency, true)
}

func (s *portfolioService) convert(userID uint, amount decimal.Decimal, fromCurrency, toCurrency string, precheckFunds bool) (*Conversion, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "Conversion amount must be positive")
	}

	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)
	if from == to {
		return nil, apperrors.ErrSameCurrencyTrade
	}

	var result *Conversion
	err := s.db.Transaction(func(tx *gorm.DB) error {
		fromWallet, err := getWallet(tx, userID, from)
		if err != nil {
			return err
		}
		toWallet, err := getWallet(tx, userID, to)
		if err != nil {
			return err
		}

		if precheckFunds && fromWallet.Balance.LessThan(amount) {
			return apperrors.ErrInsufficientFunds
		}

		if err := fromWallet.Withdraw(amount); err != nil {
			return err
		}

		converted, err := s.rates.Convert(amount, from, to)
		if err != nil {
			return err
		}

		if err := toWallet.Deposit(converted); err != nil {
			return err
		}

		if err := saveBalance(tx, fromWallet); err != nil {
			return err
		}
		if err := saveBalance(tx, toWallet); err != nil {
			return err
		}

		result = &Conversion{
			FromWallet: fromWallet,
			ToWallet:   toWallet,
			Amount:     amount,
			Converted:  converted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func saveBalance(tx *gorm.DB, wallet *models.Wallet) error {
	if err := tx.Model(wallet).Update("balance", wallet.Balance).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
