package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cashflow/internal/auth"
	"cashflow/internal/logging"
	"cashflow/internal/models"
	"cashflow/internal/repository"
)

const (
	// ResetCodeTTL is how long a recovery code may be validated.
	ResetCodeTTL = 10 * time.Minute
	// RecoveryTokenTTL is how long a validated code's token may reset the
	// password. It runs independently of the code's own expiry.
	RecoveryTokenTTL = 15 * time.Minute
)

// AuthService runs registration, login and the password recovery flow:
// request code, validate code, reset password. It keeps no state of its own.
type AuthService struct {
	users     repository.UserRepository
	codes     repository.ResetCodeRepository
	hasher    auth.PasswordHasher
	tokens    *auth.TokenIssuer
	mailer    EmailSender
	log       logging.Logger
	v         *validator.Validate
	newCode   auth.CodeGenerator
	now       func() time.Time
	accessTTL time.Duration
}

type AuthOption func(*AuthService)

// WithClock sets the time source used for code expiry.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func WithCodeGenerator(gen auth.CodeGenerator) AuthOption {
	return func(s *AuthService) { s.newCode = gen }
}

func NewAuthService(
	users repository.UserRepository,
	codes repository.ResetCodeRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	mailer EmailSender,
	log logging.Logger,
	accessTTL time.Duration,
	opts ...AuthOption,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	s := &AuthService{
		users:     users,
		codes:     codes,
		hasher:    hasher,
		tokens:    tokens,
		mailer:    mailer,
		log:       log.With("component", "auth"),
		v:         newValidator(),
		newCode:   auth.GenerateCode,
		now:       time.Now,
		accessTTL: accessTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. A taken email is reported through the
// returned status, not as an error; malformed input is a KindValidation error.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.RegistrationStatus, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(s.v, req); err != nil {
		return models.RegistrationStatus{}, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return models.RegistrationStatus{Success: false, Message: msgEmailTaken}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.RegistrationStatus{}, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return models.RegistrationStatus{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		Surname:      req.Surname,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.RegistrationStatus{Success: false, Message: msgEmailTaken}, nil
		}
		return models.RegistrationStatus{}, err
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)

	if err := s.mailer.Send(u.Email, subjectAccountCreated, accountCreatedBody(u.Name)); err != nil {
		s.log.Warn(ctx, "failed to send account created email", "user_id", u.ID, "err", err)
	}

	return models.RegistrationStatus{Success: true, Message: "user registered"}, nil
}

// Login checks the credentials and issues an access token. Unknown email and
// wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(s.v, req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindInvalidCredential, msgInvalidCredentials, nil)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, newError(KindInvalidCredential, msgInvalidCredentials, nil)
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	token, _, err := s.tokens.Sign(u.ID, u.Email, auth.AudienceAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL / time.Second),
		User:        u.Public(),
	}, nil
}

// RequestRecoveryCode issues a six digit code for the account and mails it.
// The code is persisted before delivery and stays valid if delivery fails.
func (s *AuthService) RequestRecoveryCode(ctx context.Context, req models.ForgotPasswordRequest) (models.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(s.v, req); err != nil {
		return models.MessageResponse{}, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.MessageResponse{}, newError(KindNotFound, msgUserNotFound, nil)
		}
		return models.MessageResponse{}, fmt.Errorf("failed to look up user: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return models.MessageResponse{}, err
	}

	now := s.now().UTC()
	rc := &models.ResetCode{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Email:     req.Email,
		Code:      code,
		ExpiresAt: now.Add(ResetCodeTTL),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.codes.Create(ctx, rc); err != nil {
		return models.MessageResponse{}, err
	}

	if err := s.mailer.Send(req.Email, subjectRecoveryCode, recoveryCodeBody(code, ResetCodeTTL)); err != nil {
		return models.MessageResponse{}, fmt.Errorf("failed to send recovery code: %w", err)
	}

	s.log.Info(ctx, "recovery code issued", "user_id", u.ID, "expires_at", rc.ExpiresAt)
	return models.MessageResponse{Message: "recovery code sent"}, nil
}

// ValidateCode exchanges a live recovery code for a short-lived recovery
// token. The code itself is left untouched and can be validated again until
// a reset completes or it expires.
func (s *AuthService) ValidateCode(ctx context.Context, req models.ValidateCodeRequest) (models.ValidateCodeResponse, error) {
	if err := validate(s.v, req); err != nil {
		return models.ValidateCodeResponse{}, err
	}

	rc, err := s.codes.FindUnusedByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.ValidateCodeResponse{}, newError(KindInvalidCredential, msgInvalidCode, nil)
		}
		return models.ValidateCodeResponse{}, err
	}
	if !rc.IsValid(s.now()) {
		return models.ValidateCodeResponse{}, newError(KindInvalidCredential, msgExpiredCode, nil)
	}

	token, _, err := s.tokens.Sign(rc.UserID, "", auth.AudiencePasswordReset, RecoveryTokenTTL)
	if err != nil {
		return models.ValidateCodeResponse{}, err
	}

	s.log.Info(ctx, "recovery code validated", "user_id", rc.UserID, "reset_code_id", rc.ID)
	return models.ValidateCodeResponse{Message: "code is valid", Token: token}, nil
}

// ResetPassword commits a new password for the user named by a recovery
// token and retires every outstanding recovery code of that user. The
// confirmation email is best effort.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (models.MessageResponse, error) {
	if err := validate(s.v, req); err != nil {
		return models.MessageResponse{}, err
	}

	claims, err := s.tokens.Verify(req.Token, auth.AudiencePasswordReset)
	if err != nil {
		return models.MessageResponse{}, newError(KindInvalidCredential, msgInvalidToken, err)
	}
	userID := claims.UserID()

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.MessageResponse{}, newError(KindNotFound, msgUserNotFound, nil)
		}
		return models.MessageResponse{}, err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return models.MessageResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.MessageResponse{}, newError(KindNotFound, msgUserNotFound, nil)
		}
		return models.MessageResponse{}, err
	}

	retired, err := s.codes.RetireAllForUser(ctx, userID)
	if err != nil {
		return models.MessageResponse{}, err
	}

	s.log.Info(ctx, "password reset", "user_id", userID, "retired_codes", retired)

	if err := s.mailer.Send(u.Email, subjectPasswordReset, passwordResetBody()); err != nil {
		s.log.Warn(ctx, "failed to send password reset confirmation", "user_id", userID, "err", err)
	}

	return models.MessageResponse{Message: "password reset successfully"}, nil
}
