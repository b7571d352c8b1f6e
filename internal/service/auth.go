package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/config"
	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/mailer"
	"github.com/emilythestrangee/readshelf/backend/internal/models"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

const resetTokenLength = 32

// SignupInput is the signup contract.
type SignupInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Name     *string `json:"name" validate:"omitnil,min=1,max=100"`
}

// LoginInput is the login contract.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ForgotPasswordInput is the forgot-password contract.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput is the reset-password contract.
type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthUser is the user returned alongside a freshly issued token.
type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name"`
}

// Session is an authenticated user plus its bearer token.
type Session struct {
	User  AuthUser `json:"user"`
	Token string   `json:"token"`
}

// Claims are the JWT claims of a bearer token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService issues, resolves and revokes bearer tokens and handles
// password resets.
type AuthService struct {
	db         *gorm.DB
	cfg        config.AuthConfig
	mailer     mailer.Mailer
	validator  *validation.Validator
	log        *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(db *gorm.DB, cfg config.AuthConfig, m mailer.Mailer, v *validation.Validator, log *zap.Logger) *AuthService {
	return &AuthService{
		db:         db,
		cfg:        cfg,
		mailer:     m,
		validator:  v,
		log:        log.Named("auth"),
		bcryptCost: bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Signup creates an account and signs the new user in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if s.cfg.JWTSecret == "" {
		return nil, apperrors.ServerConfig("server configuration error")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var session *Session
	err = database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if n > 0 {
			return apperrors.Conflict("email already in use")
		}

		user := models.User{Email: in.Email, PasswordHash: string(hash), Name: in.Name}
		if err := tx.Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict("email already in use")
			}
			return fmt.Errorf("create user: %w", err)
		}

		session, err = s.issue(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", zap.Stringer("user_id", session.User.ID))
	return session, nil
}

// Login verifies the credentials and issues a new token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if s.cfg.JWTSecret == "" {
		return nil, apperrors.ServerConfig("server configuration error")
	}

	session, err := s.issue(s.db.WithContext(ctx), &user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.Stringer("user_id", user.ID))
	return session, nil
}

// Logout revokes token. Revoking an unknown or already revoked token is
// not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&models.Token{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", s.now()).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user. The token must carry a
// valid signature, be on record, and be neither revoked nor expired.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if s.cfg.JWTSecret == "" {
		return nil, apperrors.ServerConfig("server configuration error")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}

	var record models.Token
	err = s.db.WithContext(ctx).Joins("User").
		Where("tokens.token = ? AND tokens.revoked_at IS NULL AND tokens.expires_at > ?", token, s.now()).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Unauthorized("invalid token")
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}

	if record.User.ID.String() != claims.Subject {
		return nil, apperrors.Unauthorized("invalid token")
	}
	return &record.User, nil
}

// ForgotPassword creates a reset token for email and mails it. It reports
// success whether or not the address belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	token, err := gonanoid.New(resetTokenLength)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	reset := models.PasswordReset{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.PasswordResetTTL),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&reset).Error; err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}

	s.log.Info("password reset requested", zap.Stringer("user_id", user.ID))
	return nil
}

// ResetPassword sets a new password using a reset token. The token is
// consumed and every outstanding bearer token of the user is revoked.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := s.validator.Validate(in); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var userID uuid.UUID
	err = database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		now := s.now()

		var reset models.PasswordReset
		err := tx.Where("token = ? AND expires_at > ? AND used_at IS NULL", in.Token, now).Take(&reset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Validation("invalid or expired reset token")
		}
		if err != nil {
			return fmt.Errorf("find password reset: %w", err)
		}
		userID = reset.UserID

		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password_hash", string(hash)).Error; err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		res := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", now)
		if res.Error != nil {
			return fmt.Errorf("mark reset used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("invalid or expired reset token")
		}

		err = tx.Model(&models.Token{}).
			Where("user_id = ? AND revoked_at IS NULL", reset.UserID).
			Update("revoked_at", now).Error
		if err != nil {
			return fmt.Errorf("revoke tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("password reset", zap.Stringer("user_id", userID))
	return nil
}

// issue signs a token for user and records it through db.
func (s *AuthService) issue(db *gorm.DB, user *models.User) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)

	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	record := models.Token{Token: signed, UserID: user.ID, ExpiresAt: expiresAt}
	if err := db.Omit(clause.Associations).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &Session{
		User:  AuthUser{ID: user.ID, Email: user.Email, Name: user.Name},
		Token: signed,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
