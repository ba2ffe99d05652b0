package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenPurpose string

const (
	EmailVerification TokenPurpose = "email_verification"
	PasswordReset     TokenPurpose = "password_reset"
	EmailChange       TokenPurpose = "email_change"
)

// CredentialToken is a single-use, time-limited secret bound to a user and a
// purpose: a 6-digit code for email verification and email change, or the
// sha256 hash of an opaque reset token. Rows are never deleted; a consumed
// token keeps its UsedAt timestamp as an audit trail.
type CredentialToken struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Secret  string       `gorm:"type:text;not null;index"`
	Purpose TokenPurpose `gorm:"type:varchar(32);not null;index"`

	// NewEmail is set only for email_change tokens.
	NewEmail *string `gorm:"type:varchar(255)"`

	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time

	CreatedAt time.Time
}

func (t *CredentialToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Consumed reports whether the token reached its terminal state. Expiry is a
// separate, orthogonal gate: an expired token stays unconsumed until it is
// superseded or explicitly consumed.
func (t *CredentialToken) Consumed() bool {
	return t.UsedAt != nil
}

func (t *CredentialToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
