package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/coldread-dev/coldread/internal/tasks"
)

// HandleSendVerificationEmail delivers an email verification link
func HandleSendVerificationEmail(ctx context.Context, t *asynq.Task, mailer *Mailer, logger zerolog.Logger) error {
	payload, err := tasks.ParseEmailPayload(t)
	if err != nil {
		// Retrying a malformed payload can't help
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := mailer.SendVerification(payload.Email, payload.FullName, payload.Token); err != nil {
		logger.Error().Err(err).Str("user_id", payload.UserID).Msg("Verification email failed")
		return err
	}

	logger.Info().Str("user_id", payload.UserID).Msg("Verification email delivered")
	return nil
}

// HandleSendPasswordResetEmail delivers a password reset link
func HandleSendPasswordResetEmail(ctx context.Context, t *asynq.Task, mailer *Mailer, logger zerolog.Logger) error {
	payload, err := tasks.ParseEmailPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := mailer.SendPasswordReset(payload.Email, payload.FullName, payload.Token); err != nil {
		logger.Error().Err(err).Str("user_id", payload.UserID).Msg("Password reset email failed")
		return err
	}

	logger.Info().Str("user_id", payload.UserID).Msg("Password reset email delivered")
	return nil
}
