package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	apperrors "valutatrade/internal/errors"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 4

// User represents a ledger user. The stored credential is the lowercase hex
// SHA-256 digest of the password concatenated with the per-user salt. The
// scheme matches the historical on-disk format and is kept for compatibility;
// it is not a password-hardening KDF.
type User struct {
	Base
	Username            string     `gorm:"uniqueIndex;not null" json:"username"`
	HashedPassword      string     `gorm:"size:64;not null" json:"-"`
	Salt                string     `gorm:"size:32;not null" json:"-"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	Wallets             []Wallet   `gorm:"foreignKey:UserID" json:"wallets,omitempty"`
}

// UserInfo is the public view of a user. It never contains the password
// hash or the salt.
type UserInfo struct {
	UserID           uint   `json:"user_id"`
	Username         string `json:"username"`
	RegistrationDate string `json:"registration_date"`
}

// NewSalt generates a random per-user salt as a hex string.
func NewSalt() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// HashPassword computes the credential digest for the given password
// using this user's salt.
func (u *User) HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password + u.Salt))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether the candidate password matches the
// stored credential. It never fails and has no side effects.
func (u *User) VerifyPassword(candidate string) bool {
	return u.HashPassword(candidate) == u.HashedPassword
}

// ChangePassword replaces the stored credential with the digest of the
// new password. The password must be at least MinPasswordLength characters.
func (u *User) ChangePassword(newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperrors.ErrPasswordTooShort
	}
	u.HashedPassword = u.HashPassword(newPassword)
	return nil
}

// SetUsername updates the display name. Empty names are rejected.
func (u *User) SetUsername(name string) error {
	if name == "" {
		return apperrors.ErrEmptyUsername
	}
	u.Username = name
	return nil
}

// Info returns the public view of the user. The registration date is
// rendered as an ISO-8601 (RFC 3339) string.
func (u *User) Info() UserInfo {
	return UserInfo{
		UserID:           u.ID,
		Username:         u.Username,
		RegistrationDate: u.CreatedAt.Format(time.RFC3339),
	}
}
