package service

import (
	"context"
	"strings"
	"time"

	"estatemap/internal/entity"
	"estatemap/internal/repository"
	"estatemap/internal/utils"

	"github.com/google/uuid"
)

const (
	codeDigits      = 6
	resetTokenBytes = 32
)

type TokenConfig struct {
	VerificationCodeTTL time.Duration
	EmailChangeCodeTTL  time.Duration
	ResetTokenTTL       time.Duration
}

// IssuedToken pairs the stored row with the raw secret that goes into the
// outbound email. The raw reset token is never persisted, only its hash.
type IssuedToken struct {
	Token  *entity.CredentialToken
	Secret string
}

// TokenService owns the credential-token lifecycle: issuing a token
// supersedes every unconsumed predecessor of the same (user, purpose), and
// consumption is a single conditional update so two racing consumers can
// never both succeed.
type TokenService struct {
	tokens repository.CredentialTokenRepository
	clock  Clock
	config TokenConfig
}

func NewTokenService(tokens repository.CredentialTokenRepository, clock Clock, config TokenConfig) *TokenService {
	return &TokenService{
		tokens: tokens,
		clock:  clock,
		config: config,
	}
}

func (s *TokenService) Issue(
	ctx context.Context,
	userID uuid.UUID,
	purpose entity.TokenPurpose,
	newEmail *string,
) (*IssuedToken, error) {

	var secret, stored string
	switch purpose {
	case entity.EmailVerification, entity.EmailChange:
		code, err := utils.GenerateNumericCode(codeDigits)
		if err != nil {
			return nil, err
		}
		secret, stored = code, code
	case entity.PasswordReset:
		raw, err := utils.GenerateRandomToken(resetTokenBytes)
		if err != nil {
			return nil, err
		}
		secret, stored = raw, utils.HashToken(raw)
	default:
		return nil, ErrInvalidInput
	}

	if purpose == entity.EmailChange {
		if newEmail == nil || strings.TrimSpace(*newEmail) == "" {
			return nil, ErrInvalidInput
		}
	} else if newEmail != nil {
		return nil, ErrInvalidInput
	}

	token := &entity.CredentialToken{
		UserID:    userID,
		Secret:    stored,
		Purpose:   purpose,
		NewEmail:  newEmail,
		ExpiresAt: s.clock.Now().Add(s.TTL(purpose)),
	}
	if err := s.tokens.Issue(ctx, token); err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, Secret: secret}, nil
}

// ValidateAndConsumeCode resolves a 6-digit code scoped to (user, purpose).
// An expired token is reported as such and deliberately left unconsumed, so
// it stays visible in the audit trail until superseded.
func (s *TokenService) ValidateAndConsumeCode(
	ctx context.Context,
	userID uuid.UUID,
	purpose entity.TokenPurpose,
	code string,
) (*entity.CredentialToken, error) {

	if purpose == entity.PasswordReset {
		return nil, ErrInvalidInput
	}
	token, err := s.tokens.FindUnusedByUserAndSecret(ctx, userID, purpose, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	return s.consume(ctx, token)
}

// ValidateAndConsumeResetToken resolves a bare reset token; at reset time
// the caller has no user scope, so lookup is by hashed value alone.
func (s *TokenService) ValidateAndConsumeResetToken(ctx context.Context, rawToken string) (*entity.CredentialToken, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrTokenNotFound
	}
	token, err := s.tokens.FindUnusedBySecret(ctx, entity.PasswordReset, utils.HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	return s.consume(ctx, token)
}

func (s *TokenService) consume(ctx context.Context, token *entity.CredentialToken) (*entity.CredentialToken, error) {
	if token == nil {
		return nil, ErrTokenNotFound
	}
	now := s.clock.Now()
	if token.ExpiredAt(now) {
		return nil, ErrTokenExpired
	}
	consumed, err := s.tokens.Consume(ctx, token.ID, now)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// A concurrent request consumed it between lookup and update.
		return nil, ErrTokenNotFound
	}
	token.UsedAt = &now
	return token, nil
}

func (s *TokenService) TTL(purpose entity.TokenPurpose) time.Duration {
	switch purpose {
	case entity.PasswordReset:
		if s.config.ResetTokenTTL > 0 {
			return s.config.ResetTokenTTL
		}
		return 24 * time.Hour
	case entity.EmailChange:
		if s.config.EmailChangeCodeTTL > 0 {
			return s.config.EmailChangeCodeTTL
		}
		return 15 * time.Minute
	default:
		if s.config.VerificationCodeTTL > 0 {
			return s.config.VerificationCodeTTL
		}
		return 15 * time.Minute
	}
}
