package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estatemap/internal/entity"
	"estatemap/internal/repository"
	"estatemap/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *TokenService

	emailSender  EmailSender
	passwordHash PasswordHasher
	accessTokens AccessTokenIssuer
	clock        Clock
	logger       *logrus.Logger
	config       AuthConfig
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *TokenService,
	emailSender EmailSender,
	passwordHash PasswordHasher,
	accessTokens AccessTokenIssuer,
	clock Clock,
	logger *logrus.Logger,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		tokens:       tokens,
		emailSender:  emailSender,
		passwordHash: passwordHash,
		accessTokens: accessTokens,
		clock:        clock,
		logger:       logger,
		config:       config,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil {
		if user.EmailVerifiedAt != nil {
			return ErrEmailAlreadyRegistered
		}
		return s.sendVerificationCode(ctx, user)
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return err
	}

	newUser := &entity.User{
		Email:        email,
		PasswordHash: &hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         entity.UserRoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		return err
	}

	return s.sendVerificationCode(ctx, newUser)
}

func (s *AuthService) VerifyEmail(ctx context.Context, email string, code string) error {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrTokenNotFound
	}

	if _, err := s.tokens.ValidateAndConsumeCode(ctx, user.ID, entity.EmailVerification, code); err != nil {
		return err
	}

	if err := s.users.VerifyEmail(ctx, user.ID); err != nil {
		return err
	}

	if s.emailSender != nil {
		if err := s.emailSender.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
			s.logWarn(err, "welcome email dispatch failed", user.ID)
		}
	}
	return nil
}

// ResendVerificationCode reissues the code, superseding any previous one.
// Unknown or already verified addresses are ignored quietly.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerifiedAt != nil {
		return nil
	}
	return s.sendVerificationCode(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		// Burn a comparison so missing users cost the same as bad passwords.
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		return nil, ErrInvalidCredentials
	}

	if !s.passwordHash.Verify(*user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	if user.EmailVerifiedAt == nil {
		return nil, ErrEmailNotVerified
	}

	return s.createSessionAndTokens(ctx, user, input.IPAddress, input.UserAgent)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.FindActiveByTokenHash(ctx, utils.HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	newRefreshToken, newRefreshHash, newRefreshExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RotateToken(ctx, session.ID, newRefreshHash, newRefreshExpiry); err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     newRefreshToken,
		RefreshExpiresIn: int64(newRefreshExpiry.Sub(s.clock.Now()).Seconds()),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.RevokeAllByUser(ctx, userID)
}

// RequestPasswordReset always reports success to its caller: the response
// must not reveal whether the address exists. Dispatch failures are logged
// and swallowed for the same reason.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerifiedAt == nil {
		return nil
	}

	issued, err := s.tokens.Issue(ctx, user.ID, entity.PasswordReset, nil)
	if err != nil {
		return err
	}

	if s.emailSender != nil {
		ttl := s.tokens.TTL(entity.PasswordReset)
		if err := s.emailSender.SendPasswordResetEmail(ctx, user.Email, user.FirstName, issued.Secret, ttl); err != nil {
			s.logWarn(err, "password reset email dispatch failed", user.ID)
		}
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, newPassword string) error {
	if strings.TrimSpace(rawToken) == "" || strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}

	token, err := s.tokens.ValidateAndConsumeResetToken(ctx, rawToken)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = &hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	return s.sessions.RevokeAllByUser(ctx, user.ID)
}

// RequestEmailChange issues a code bound to the proposed address and mails
// it there. Unlike every other flow, a dispatch failure is surfaced: without
// that email the user has no way to complete the change.
func (s *AuthService) RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	email := utils.NormalizeEmail(newEmail)
	if email == "" {
		return ErrInvalidInput
	}
	if email == user.Email {
		return ErrInvalidInput
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	issued, err := s.tokens.Issue(ctx, user.ID, entity.EmailChange, &email)
	if err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrEmailDispatchFailed
	}
	ttl := s.tokens.TTL(entity.EmailChange)
	if err := s.emailSender.SendEmailChangeCode(ctx, email, user.FirstName, user.Email, issued.Secret, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDispatchFailed, err)
	}
	return nil
}

func (s *AuthService) ConfirmEmailChange(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := s.tokens.ValidateAndConsumeCode(ctx, user.ID, entity.EmailChange, code)
	if err != nil {
		return err
	}
	if token.NewEmail == nil {
		return ErrTokenNotFound
	}
	newEmail := *token.NewEmail

	// The address was free when the code was issued; re-check now in case
	// another account claimed it in between.
	existing, err := s.users.FindByEmail(ctx, newEmail)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != user.ID {
		return ErrEmailTaken
	}

	oldEmail := user.Email
	if err := s.users.UpdateEmail(ctx, user.ID, newEmail); err != nil {
		return err
	}

	if s.emailSender != nil {
		if err := s.emailSender.SendEmailChangedNotice(ctx, oldEmail, user.FirstName, newEmail); err != nil {
			s.logWarn(err, "email change notice dispatch failed", user.ID)
		}
	}
	return nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]entity.User, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *AuthService) sendVerificationCode(ctx context.Context, user *entity.User) error {
	issued, err := s.tokens.Issue(ctx, user.ID, entity.EmailVerification, nil)
	if err != nil {
		return err
	}
	if s.emailSender != nil {
		ttl := s.tokens.TTL(entity.EmailVerification)
		if err := s.emailSender.SendVerificationEmail(ctx, user.Email, user.FirstName, issued.Secret, ttl); err != nil {
			s.logWarn(err, "verification email dispatch failed", user.ID)
		}
	}
	return nil
}

func (s *AuthService) createSessionAndTokens(ctx context.Context, user *entity.User, ipAddress, userAgent *string) (*LoginResult, error) {
	refreshToken, refreshHash, refreshExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		UserID:    user.ID,
		TokenHash: refreshHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: refreshExpiry,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: int64(refreshExpiry.Sub(s.clock.Now()).Seconds()),
	}, nil
}

func (s *AuthService) buildRefreshToken() (string, string, time.Time, error) {
	rawToken, err := utils.GenerateRandomToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt := s.clock.Now().Add(s.refreshTokenTTL())
	return rawToken, utils.HashToken(rawToken), expiresAt, nil
}

func (s *AuthService) refreshTokenTTL() time.Duration {
	if s.config.RefreshTokenTTL > 0 {
		return s.config.RefreshTokenTTL
	}
	return 30 * 24 * time.Hour
}

func (s *AuthService) logWarn(err error, message string, userID uuid.UUID) {
	if s.logger == nil {
		return
	}
	s.logger.WithError(err).WithField("user_id", userID).Warn(message)
}
