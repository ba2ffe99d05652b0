package repository

import (
	"context"
	"errors"
	"time"

	"estatemap/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CredentialTokenRepository interface {
	// Issue marks every unconsumed token for (user, purpose) as used and
	// inserts the new token in the same transaction, so at most one
	// unconsumed token per (user, purpose) exists at any time.
	Issue(ctx context.Context, token *entity.CredentialToken) error

	// FindUnusedByUserAndSecret looks up an unconsumed token scoped to the
	// user. Expiry is deliberately not part of the query: the service
	// reports expired tokens distinctly and leaves them unconsumed.
	FindUnusedByUserAndSecret(ctx context.Context, userID uuid.UUID, purpose entity.TokenPurpose, secret string) (*entity.CredentialToken, error)

	// FindUnusedBySecret is the user-less lookup used for password reset,
	// where the caller only holds the bare token.
	FindUnusedBySecret(ctx context.Context, purpose entity.TokenPurpose, secret string) (*entity.CredentialToken, error)

	// Consume flips used_at with a single conditional update. It reports
	// false when the token was already consumed by a racing caller.
	Consume(ctx context.Context, tokenID uuid.UUID, at time.Time) (bool, error)

	CountUnusedByUser(ctx context.Context, userID uuid.UUID, purpose entity.TokenPurpose) (int64, error)
}

type credentialTokenRepository struct {
	db *gorm.DB
}

func NewCredentialTokenRepository(db *gorm.DB) CredentialTokenRepository {
	return &credentialTokenRepository{db: db}
}

func (r *credentialTokenRepository) Issue(ctx context.Context, token *entity.CredentialToken) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entity.CredentialToken{}).
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", token.UserID, token.Purpose).
			Update("used_at", &now).
			Error
		if err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *credentialTokenRepository) FindUnusedByUserAndSecret(
	ctx context.Context,
	userID uuid.UUID,
	purpose entity.TokenPurpose,
	secret string,
) (*entity.CredentialToken, error) {

	var token entity.CredentialToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ? AND secret = ? AND used_at IS NULL", userID, purpose, secret).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *credentialTokenRepository) FindUnusedBySecret(
	ctx context.Context,
	purpose entity.TokenPurpose,
	secret string,
) (*entity.CredentialToken, error) {

	var token entity.CredentialToken
	err := r.db.WithContext(ctx).
		Where("purpose = ? AND secret = ? AND used_at IS NULL", purpose, secret).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *credentialTokenRepository) Consume(ctx context.Context, tokenID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.CredentialToken{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", &at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *credentialTokenRepository) CountUnusedByUser(
	ctx context.Context,
	userID uuid.UUID,
	purpose entity.TokenPurpose,
) (int64, error) {

	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.CredentialToken{}).
		Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
		Count(&count).
		Error
	return count, err
}
