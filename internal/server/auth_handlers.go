package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/coldread-dev/coldread/internal/auth"
	"github.com/coldread-dev/coldread/internal/metrics"
	"github.com/coldread-dev/coldread/internal/models"
	"github.com/coldread-dev/coldread/internal/tasks"
)

// ForgotPasswordMessage is returned for every forgot-password request
const ForgotPasswordMessage = "If an account exists for this email, a password reset link has been sent."

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
	FullName string `json:"full_name" validate:"max=200"`
}

// ForgotPasswordRequest represents a password reset email request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

// VerifyEmailRequest represents an email verification
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	Token string      `json:"token"`
	User  *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	SubscriptionTier    string    `json:"subscription_tier"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	EmailVerified       bool      `json:"email_verified"`
	CreatedAt           time.Time `json:"created_at"`
}

func newUserDetail(u *models.User) *UserDetail {
	return &UserDetail{
		ID:                  u.ID,
		Email:               u.Email,
		FullName:            u.FullName,
		SubscriptionTier:    u.SubscriptionTier,
		OnboardingCompleted: u.OnboardingCompleted,
		EmailVerified:       u.EmailVerified,
		CreatedAt:           u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var user models.User
	err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondInternal(c)
		return
	}
	if err != nil || auth.VerifyPassword(req.Password, user.PasswordHash) != nil {
		s.metrics.AuthEvent(metrics.EventLogin, false)
		respondDetail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.signer.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondInternal(c)
		return
	}

	s.metrics.AuthEvent(metrics.EventLogin, true)
	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: newUserDetail(&user)})
}

func (s *Server) signup(c *gin.Context) {
	var req SignupRequest
	if !s.bindJSON(c, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		respondInternal(c)
		return
	}
	if count > 0 {
		s.metrics.AuthEvent(metrics.EventSignup, false)
		respondDetail(c, http.StatusConflict, "Email already registered")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondInternal(c)
		return
	}

	user := &models.User{
		Email:            email,
		PasswordHash:     passwordHash,
		FullName:         strings.TrimSpace(req.FullName),
		SubscriptionTier: models.TierFree,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		respondInternal(c)
		return
	}

	token, err := s.signer.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondInternal(c)
		return
	}

	// A lost verification email can be re-requested, so signup still succeeds
	if err := s.sendActionEmail(c.Request.Context(), user, models.PurposeEmailVerify); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to queue verification email")
	}

	s.metrics.AuthEvent(metrics.EventSignup, true)
	s.logger.Info().Str("user_id", user.ID).Msg("User signed up")

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: newUserDetail(user)})
}

func (s *Server) getCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, newUserDetail(user))
}

// forgotPassword answers identically whether or not the account exists
func (s *Server) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var user models.User
	err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	switch {
	case err == nil:
		if err := s.sendActionEmail(c.Request.Context(), &user, models.PurposePasswordReset); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to queue password reset email")
		}
		s.metrics.AuthEvent(metrics.EventForgotPassword, true)
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.metrics.AuthEvent(metrics.EventForgotPassword, false)
	default:
		s.logger.Error().Err(err).Msg("Failed to find user")
	}

	c.JSON(http.StatusOK, gin.H{"message": ForgotPasswordMessage})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !s.bindJSON(c, &req) {
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondInternal(c)
		return
	}

	var userID string
	err = s.redeemActionToken(req.Token, models.PurposePasswordReset, func(tx *gorm.DB, tok *models.ActionToken) error {
		userID = tok.UserID
		if err := tx.Model(&models.User{}).Where("id = ?", tok.UserID).
			Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		// Other outstanding reset links die with this one
		return tx.Model(&models.ActionToken{}).
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", tok.UserID, models.PurposePasswordReset).
			Update("used_at", s.now()).Error
	})
	if errors.Is(err, errTokenInvalid) {
		s.metrics.AuthEvent(metrics.EventResetPassword, false)
		respondDetail(c, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to reset password")
		respondInternal(c)
		return
	}

	s.metrics.AuthEvent(metrics.EventResetPassword, true)
	s.logger.Info().Str("user_id", userID).Msg("Password reset")

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (s *Server) verifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var userID string
	err := s.redeemActionToken(req.Token, models.PurposeEmailVerify, func(tx *gorm.DB, tok *models.ActionToken) error {
		userID = tok.UserID
		return tx.Model(&models.User{}).Where("id = ?", tok.UserID).
			Update("email_verified", true).Error
	})
	if errors.Is(err, errTokenInvalid) {
		s.metrics.AuthEvent(metrics.EventVerifyEmail, false)
		respondDetail(c, http.StatusBadRequest, "Invalid or expired verification token")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to verify email")
		respondInternal(c)
		return
	}

	s.metrics.AuthEvent(metrics.EventVerifyEmail, true)
	s.logger.Info().Str("user_id", userID).Msg("Email verified")

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

var errTokenInvalid = errors.New("invalid or expired token")

// redeemActionToken marks a token used and runs apply in the same
// transaction. Unknown, expired, used or wrong-purpose tokens yield
// errTokenInvalid.
func (s *Server) redeemActionToken(raw, purpose string, apply func(tx *gorm.DB, tok *models.ActionToken) error) error {
	now := s.now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		var tok models.ActionToken
		err := tx.Where("token_hash = ? AND purpose = ?", auth.HashActionToken(raw), purpose).First(&tok).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errTokenInvalid
		}
		if err != nil {
			return err
		}
		if !tok.Usable(now) {
			return errTokenInvalid
		}

		res := tx.Model(&models.ActionToken{}).
			Where("id = ? AND used_at IS NULL", tok.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errTokenInvalid
		}

		return apply(tx, &tok)
	})
}

// sendActionEmail stores a new action token for user and queues the email
// carrying it.
func (s *Server) sendActionEmail(ctx context.Context, user *models.User, purpose string) error {
	raw, hash, err := auth.NewActionToken()
	if err != nil {
		return err
	}

	ttl := auth.EmailVerifyTTL
	if purpose == models.PurposePasswordReset {
		ttl = auth.PasswordResetTTL
	}

	tok := &models.ActionToken{
		UserID:    user.ID,
		Purpose:   purpose,
		TokenHash: hash,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.db.Create(tok).Error; err != nil {
		return err
	}

	payload := tasks.EmailPayload{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Token:    raw,
	}

	var task *asynq.Task
	if purpose == models.PurposePasswordReset {
		task, err = tasks.NewSendPasswordResetEmailTask(payload)
	} else {
		task, err = tasks.NewSendVerificationEmailTask(payload)
	}
	if err != nil {
		return err
	}

	_, err = s.tasks.EnqueueContext(ctx, task)
	return err
}
