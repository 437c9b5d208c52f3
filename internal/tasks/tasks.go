package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Account emails
	TypeSendVerificationEmail  = "email:verify"
	TypeSendPasswordResetEmail = "email:password_reset"

	// Usage bookkeeping
	TypeResetUsagePeriod = "usage:reset_period"
)

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// EmailPayload is the payload for account email tasks. Token is the raw
// action token; only its hash is persisted.
type EmailPayload struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Token    string `json:"token"`
}

// NewSendVerificationEmailTask creates a task to email a verification link
func NewSendVerificationEmailTask(p EmailPayload) (*asynq.Task, error) {
	return newEmailTask(TypeSendVerificationEmail, p)
}

// NewSendPasswordResetEmailTask creates a task to email a password reset link
func NewSendPasswordResetEmailTask(p EmailPayload) (*asynq.Task, error) {
	return newEmailTask(TypeSendPasswordResetEmail, p)
}

func newEmailTask(typ string, p EmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(typ, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(5)), nil
}

// ParseEmailPayload parses an email task payload
func ParseEmailPayload(task *asynq.Task) (EmailPayload, error) {
	var payload EmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.Email == "" || payload.Token == "" {
		return payload, fmt.Errorf("email task payload missing email or token")
	}
	return payload, nil
}

// NewResetUsagePeriodTask creates a task that starts a new usage period
func NewResetUsagePeriodTask() *asynq.Task {
	return asynq.NewTask(TypeResetUsagePeriod, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}
