package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"pantrytrack/models"
	"pantrytrack/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 8
	resetCodeLen   = 6
	resetCodeTTL   = 15 * time.Minute
)

type UserView struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type AuthService struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
	mailer utils.Mailer
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration, mailer utils.Mailer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{db: db, secret: secret, ttl: ttl, mailer: mailer, log: log, now: time.Now}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (AuthResult, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, invalid("a valid email is required")
	}
	if len(password) < minPasswordLen {
		return AuthResult{}, invalid("password must be at least %d characters", minPasswordLen)
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}
	user := models.User{Email: email, Password: hashed, FullName: strings.TrimSpace(fullName)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return AuthResult{}, utils.FriendlyDBError(err, "account", email)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID uint) (UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return UserView{}, notFound(err, "user")
	}
	return userView(user), nil
}

func (s *AuthService) issue(user models.User) (AuthResult, error) {
	token, err := utils.GenerateJWT(user.ID, user.Email, s.secret, s.ttl)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: userView(user)}, nil
}

func userView(u models.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

// ForgotPassword emails a short reset code. Unknown addresses succeed
// silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if s.mailer == nil {
		return fmt.Errorf("email delivery: %w", ErrUnavailable)
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := utils.GenerateRandomToken(resetCodeLen)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"reset_token":     code,
		"reset_token_exp": s.now().Add(resetCodeTTL),
	}).Error
	if err != nil {
		return err
	}
	if err := utils.SendResetEmail(ctx, s.mailer, user.Email, code); err != nil {
		s.log.Error("send reset email", zap.Uint("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("%w: could not send reset email", ErrUnavailable)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if user.ResetToken == "" || user.ResetToken != code || s.now().After(user.ResetTokenExp) {
		return invalid("reset code is invalid or expired")
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password":        hashed,
		"reset_token":     "",
		"reset_token_exp": time.Time{},
	}).Error
}
