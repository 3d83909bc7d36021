package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"valutatrade/internal/models"
)

// TestPassword is the default password for fixture users.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	username := fmt.Sprintf("user%d", nextID())
	return CreateTestUserWithUsername(t, db, username)
}

// CreateTestUserWithUsername creates a user with the given username and the
// default fixture password.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	salt, err := models.NewSalt()
	if err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}

	user := &models.User{
		Username: username,
		Salt:     salt,
	}
	if err := user.ChangePassword(TestPassword); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestWallet creates a wallet with the given currency and zero balance.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID uint, currencyCode string) *models.Wallet {
	t.Helper()
	return CreateTestWalletWithBalance(t, db, userID, currencyCode, decimal.Zero)
}

// CreateTestWalletWithBalance creates a wallet with the given balance.
func CreateTestWalletWithBalance(t *testing.T, db *gorm.DB, userID uint, currencyCode string, balance decimal.Decimal) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:       userID,
		CurrencyCode: currencyCode,
		Balance:      balance,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}
