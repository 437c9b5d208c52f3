package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailTasks(t *testing.T) {
	p := EmailPayload{UserID: "u1", Email: "ada@example.com", FullName: "Ada", Token: "tok"}

	verify, err := NewSendVerificationEmailTask(p)
	require.NoError(t, err)
	assert.Equal(t, TypeSendVerificationEmail, verify.Type())

	reset, err := NewSendPasswordResetEmailTask(p)
	require.NoError(t, err)
	assert.Equal(t, TypeSendPasswordResetEmail, reset.Type())

	got, err := ParseEmailPayload(reset)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParseEmailPayload_Invalid(t *testing.T) {
	_, err := ParseEmailPayload(asynq.NewTask(TypeSendVerificationEmail, []byte("{")))
	assert.Error(t, err)

	_, err = ParseEmailPayload(asynq.NewTask(TypeSendVerificationEmail, []byte(`{"email":"a@b.com"}`)))
	assert.Error(t, err)
}

func TestResetUsagePeriodTask(t *testing.T) {
	assert.Equal(t, TypeResetUsagePeriod, NewResetUsagePeriodTask().Type())
}
