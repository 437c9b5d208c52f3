package workers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/coldread-dev/coldread/internal/config"
	"github.com/coldread-dev/coldread/internal/models"
	"github.com/coldread-dev/coldread/internal/tasks"
)

// captureSender records messages instead of dialing SMTP
type captureSender struct {
	mu   sync.Mutex
	msgs []*gomail.Message
	err  error
}

func (s *captureSender) DialAndSend(msgs ...*gomail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

type captureQueue struct {
	tasks []*asynq.Task
}

func (q *captureQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP:  config.HTTPConfig{AppBaseURL: "https://app.example.com"},
		Email: config.EmailConfig{From: "coldread <no-reply@example.com>"},
	}
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "worker.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func emailTask(t *testing.T, typ string) *asynq.Task {
	t.Helper()
	p := tasks.EmailPayload{UserID: "u1", Email: "ada@example.com", FullName: "Ada", Token: "tok/+="}
	var (
		task *asynq.Task
		err  error
	)
	if typ == tasks.TypeSendPasswordResetEmail {
		task, err = tasks.NewSendPasswordResetEmailTask(p)
	} else {
		task, err = tasks.NewSendVerificationEmailTask(p)
	}
	require.NoError(t, err)
	return task
}

func TestHandleSendVerificationEmail(t *testing.T) {
	sender := &captureSender{}
	mailer := NewMailer(testConfig(), zerolog.Nop(), WithSender(sender))

	err := HandleSendVerificationEmail(context.Background(), emailTask(t, tasks.TypeSendVerificationEmail), mailer, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, sender.msgs, 1)
	msg := sender.msgs[0]
	assert.Equal(t, []string{"ada@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"coldread <no-reply@example.com>"}, msg.GetHeader("From"))
	assert.Contains(t, msg.GetHeader("Subject")[0], "Confirm")
}

func TestHandleSendPasswordResetEmail_SenderError(t *testing.T) {
	sender := &captureSender{err: errors.New("connection refused")}
	mailer := NewMailer(testConfig(), zerolog.Nop(), WithSender(sender))

	err := HandleSendPasswordResetEmail(context.Background(), emailTask(t, tasks.TypeSendPasswordResetEmail), mailer, zerolog.Nop())
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleEmail_MalformedPayloadSkipsRetry(t *testing.T) {
	mailer := NewMailer(testConfig(), zerolog.Nop(), WithSender(&captureSender{}))

	err := HandleSendVerificationEmail(context.Background(), asynq.NewTask(tasks.TypeSendVerificationEmail, []byte("{}")), mailer, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestMailer_LinkEscapesToken(t *testing.T) {
	m := NewMailer(testConfig(), zerolog.Nop())
	assert.Equal(t, "https://app.example.com/reset-password?token=tok%2F%2B%3D", m.link("/reset-password", "tok/+="))
}

func TestMailer_LogsWithoutSMTP(t *testing.T) {
	m := NewMailer(testConfig(), zerolog.Nop())
	_, ok := m.sender.(logSender)
	assert.True(t, ok)
	assert.NoError(t, m.SendVerification("ada@example.com", "", "tok"))
}

func TestCheckUsageReset(t *testing.T) {
	db := openDB(t)
	schedule, err := ParseSchedule("0 0 1 * *")
	require.NoError(t, err)

	start := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Config{JWTSecret: "s", UsagePeriodStart: start}).Error)

	q := &captureQueue{}
	ctx := context.Background()

	// First check only schedules
	assert.False(t, CheckUsageReset(ctx, q, db, schedule, start, zerolog.Nop()))

	var settings models.Config
	require.NoError(t, db.First(&settings).Error)
	require.NotNil(t, settings.NextUsageResetAt)
	assert.True(t, settings.NextUsageResetAt.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	// Not due yet
	assert.False(t, CheckUsageReset(ctx, q, db, schedule, start.Add(time.Hour), zerolog.Nop()))
	assert.Empty(t, q.tasks)

	// Due
	due := time.Date(2026, 4, 1, 0, 0, 30, 0, time.UTC)
	assert.True(t, CheckUsageReset(ctx, q, db, schedule, due, zerolog.Nop()))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.TypeResetUsagePeriod, q.tasks[0].Type())

	// Advanced, so no duplicate
	assert.False(t, CheckUsageReset(ctx, q, db, schedule, due.Add(time.Minute), zerolog.Nop()))
	assert.Len(t, q.tasks, 1)
}

func TestHandleResetUsagePeriod(t *testing.T) {
	db := openDB(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Config{JWTSecret: "s", UsagePeriodStart: start}).Error)

	later := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	err := HandleResetUsagePeriod(context.Background(), tasks.NewResetUsagePeriodTask(), db,
		func() time.Time { return later }, zerolog.Nop())
	require.NoError(t, err)

	var settings models.Config
	require.NoError(t, db.First(&settings).Error)
	assert.True(t, settings.UsagePeriodStart.Equal(later))
}

func TestHandleResetUsagePeriod_NoSettings(t *testing.T) {
	db := openDB(t)

	err := HandleResetUsagePeriod(context.Background(), tasks.NewResetUsagePeriodTask(), db, time.Now, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestParseSchedule_Invalid(t *testing.T) {
	_, err := ParseSchedule("every tuesday")
	assert.Error(t, err)
}
