package service

import (
	"context"
	"time"

	"estatemap/internal/entity"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email, firstName, code string, expiresIn time.Duration) error
	SendPasswordResetEmail(ctx context.Context, email, firstName, token string, expiresIn time.Duration) error
	SendWelcomeEmail(ctx context.Context, email, firstName string) error
	SendEmailChangeCode(ctx context.Context, newEmail, firstName, oldEmail, code string, expiresIn time.Duration) error
	SendEmailChangedNotice(ctx context.Context, oldEmail, firstName, newEmail string) error
}

// BlobStore is the object-store collaborator: the services decide bytes and
// key naming, the store decides mechanics.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type AccessTokenIssuer interface {
	IssueAccessToken(user entity.User, sessionID uuid.UUID) (string, time.Duration, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
