package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/testutil"
)

const cleanBody = "This is a perfectly reasonable body with enough characters."

type fakeArchiver struct {
	mu    sync.Mutex
	snaps []RejectedContent
}

func (f *fakeArchiver) Archive(ctx context.Context, snap RejectedContent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, snap)
	return archiveObjectName(snap), nil
}

type fakeAlerter struct {
	mu         sync.Mutex
	recipients []string
	items      []models.FlaggedContent
}

func (f *fakeAlerter) SendFlaggedContentAlert(ctx context.Context, recipients []string, item models.FlaggedContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipients = recipients
	f.items = append(f.items, item)
	return nil
}

type testEnv struct {
	db            *gorm.DB
	flags         *SQLUserFlagStore
	archive       *fakeArchiver
	alerts        *fakeAlerter
	moderation    *ModerationService
	questions     *QuestionService
	answers       *AnswerService
	votes         *VoteService
	tags          *TagService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	logger := testutil.Logger()
	env := &testEnv{
		db:      db,
		flags:   NewSQLUserFlagStore(db),
		archive: &fakeArchiver{},
		alerts:  &fakeAlerter{},
	}
	actions := &ModerationActions{Flags: env.flags, Archive: env.archive, Logger: logger}
	env.moderation = NewModerationService(db, NewContentFilter(nil), actions, env.alerts, logger)
	env.questions = NewQuestionService(db, env.moderation, logger)
	env.answers = NewAnswerService(db, env.moderation, logger)
	env.votes = NewVoteService(db, logger)
	env.tags = NewTagService(db)
	env.notifications = NewNotificationService(db)
	return env
}

func (e *testEnv) user(t *testing.T, name string) models.Viewer {
	t.Helper()
	return testutil.Viewer(testutil.CreateUser(t, e.db, name, false))
}

func (e *testEnv) admin(t *testing.T, name string) models.Viewer {
	t.Helper()
	return testutil.Viewer(testutil.CreateUser(t, e.db, name, true))
}

func (e *testEnv) ask(t *testing.T, author models.Viewer, title, body string, tags ...string) *models.QuestionSummary {
	t.Helper()
	req := &models.CreateQuestionRequest{Title: title, Body: body, Tags: tags}
	require.Empty(t, req.Validate())
	q, err := e.questions.Create(context.Background(), author, req)
	require.NoError(t, err)
	return q
}

func (e *testEnv) answer(t *testing.T, author models.Viewer, questionID, body string) *models.AnswerView {
	t.Helper()
	req := &models.CreateAnswerRequest{QuestionID: questionID, Body: body}
	require.Empty(t, req.Validate())
	a, err := e.answers.Create(context.Background(), author, req)
	require.NoError(t, err)
	return a
}

func (e *testEnv) pendingRecord(t *testing.T, contentID string) models.ModerationRecord {
	t.Helper()
	var rec models.ModerationRecord
	require.NoError(t, e.db.Where("content_id = ?", contentID).First(&rec).Error)
	return rec
}

func (e *testEnv) notificationsFor(t *testing.T, userID string, kind models.NotificationKind) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, e.db.Where("user_id = ? AND kind = ?", userID, kind).Order("created_at").Find(&out).Error)
	return out
}
