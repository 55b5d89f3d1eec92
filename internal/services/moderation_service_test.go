package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

func TestFlaggedQuestionIsHeldForReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin1 := env.admin(t, "admin1")
	admin2 := env.admin(t, "admin2")
	author := env.user(t, "author")
	reader := env.user(t, "reader")

	q := env.ask(t, author, "Why is my stupid loop so slow?", "This crap runs forever and I cannot see why it never ends.")
	assert.Equal(t, models.StatusPending, q.Status)

	var recs []models.ModerationRecord
	require.NoError(t, env.db.Where("content_id = ?", q.ID).Find(&recs).Error)
	require.Len(t, recs, 1)
	assert.Equal(t, models.StatusPending, recs[0].Decision)
	assert.Equal(t, models.SubjectQuestion, recs[0].ContentType)
	assert.Equal(t, []string{"stupid", "crap"}, recs[0].Terms())

	for _, admin := range []models.Viewer{admin1, admin2} {
		got := env.notificationsFor(t, admin.ID, models.NotifyModeration)
		require.Len(t, got, 1)
		assert.Equal(t, "Content Flagged for Review", got[0].Title)
	}
	assert.Empty(t, env.notificationsFor(t, author.ID, models.NotifyModeration))

	require.Len(t, env.alerts.items, 1)
	assert.ElementsMatch(t, []string{"admin1@example.com", "admin2@example.com"}, env.alerts.recipients)

	_, err := env.questions.Get(ctx, reader, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.questions.Get(ctx, models.Viewer{}, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	detail, err := env.questions.Get(ctx, admin1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, detail.Status)

	list, err := env.questions.List(ctx, reader, &models.ListQuestionsQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = env.questions.List(ctx, admin1, &models.ListQuestionsQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCleanQuestionIsApproved(t *testing.T) {
	env := newTestEnv(t)

	admin := env.admin(t, "admin")
	author := env.user(t, "author")

	q := env.ask(t, author, "How do I read a file line by line?", cleanBody)
	assert.Equal(t, models.StatusApproved, q.Status)

	var count int64
	require.NoError(t, env.db.Model(&models.ModerationRecord{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.notificationsFor(t, admin.ID, models.NotifyModeration))
	assert.Empty(t, env.alerts.items)
}

func TestWordMatchingDoesNotFlagSubstrings(t *testing.T) {
	env := newTestEnv(t)

	author := env.user(t, "author")
	q := env.ask(t, author, "Classes and assessments in Go?", "Scrapping the hellish assignment, damnation aside, what should I use?")
	assert.Equal(t, models.StatusApproved, q.Status)
}

func TestFlaggedAnswerApprovalScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.admin(t, "admin")
	owner := env.user(t, "owner")
	helper := env.user(t, "helper")
	reader := env.user(t, "reader")

	q := env.ask(t, owner, "How do I parse JSON into a map?", cleanBody)
	a := env.answer(t, helper, q.ID, "Only an idiot would not use json.Unmarshal into map[string]any here.")
	assert.Equal(t, models.StatusPending, a.Status)

	assert.Empty(t, env.notificationsFor(t, owner.ID, models.NotifyAnswer), "owner hears nothing while pending")
	require.Len(t, env.notificationsFor(t, admin.ID, models.NotifyModeration), 1)

	detail, err := env.questions.Get(ctx, reader, q.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Answers)
	assert.Equal(t, int64(0), detail.AnswerCount)

	flagged, err := env.moderation.ListFlagged(ctx, admin)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, a.ID, flagged[0].ContentID)
	assert.Equal(t, "Answer to: How do I parse JSON into a map?", flagged[0].ContentTitle)
	assert.Equal(t, "helper", flagged[0].Author.Username)
	assert.Equal(t, []string{"idiot"}, flagged[0].FlaggedWords)

	res, err := env.moderation.Decide(ctx, admin, flagged[0].ModerationID, &models.ReviewRequest{Decision: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, res.Status)
	assert.Equal(t, admin.ID, *res.Record.ReviewerID)
	assert.NotNil(t, res.Record.ReviewedAt)

	detail, err = env.questions.Get(ctx, reader, q.ID)
	require.NoError(t, err)
	require.Len(t, detail.Answers, 1)
	assert.Equal(t, models.StatusApproved, detail.Answers[0].Status)

	assert.Len(t, env.notificationsFor(t, owner.ID, models.NotifyAnswer), 1, "owner notified on approval")
	review := env.notificationsFor(t, helper.ID, models.NotifyReview)
	require.Len(t, review, 1)
	assert.Equal(t, "Content Approved", review[0].Title)

	flagged, err = env.moderation.ListFlagged(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestRejectIsTerminalAndRecordsStrike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.admin(t, "admin")
	author := env.user(t, "author")
	reader := env.user(t, "reader")

	q := env.ask(t, author, "Buy cheap followers, total scam", cleanBody)
	rec := env.pendingRecord(t, q.ID)

	_, err := env.moderation.Decide(ctx, author, rec.ID, &models.ReviewRequest{Decision: models.StatusApproved})
	assert.ErrorIs(t, err, ErrForbidden)

	res, err := env.moderation.Decide(ctx, admin, rec.ID, &models.ReviewRequest{Decision: models.StatusRejected, Notes: "advertising"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, res.Status)

	_, err = env.moderation.Decide(ctx, admin, rec.ID, &models.ReviewRequest{Decision: models.StatusApproved})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = env.moderation.Decide(ctx, admin, "missing", &models.ReviewRequest{Decision: models.StatusApproved})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.questions.Get(ctx, reader, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.questions.Get(ctx, author, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	detail, err := env.questions.Get(ctx, admin, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, detail.Status)

	review := env.notificationsFor(t, author.ID, models.NotifyReview)
	require.Len(t, review, 1)
	assert.Equal(t, "Content Rejected", review[0].Title)
	assert.Contains(t, review[0].Message, "advertising")

	flag, err := env.moderation.UserFlags(ctx, admin, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, flag.Strikes)
	assert.Contains(t, flag.LastReason, "scam")

	require.Len(t, env.archive.snaps, 1)
	snap := env.archive.snaps[0]
	assert.Equal(t, q.ID, snap.ContentID)
	assert.Equal(t, author.ID, snap.AuthorID)
	assert.Equal(t, admin.ID, snap.ReviewerID)
	assert.Equal(t, "advertising", snap.Notes)
}

func TestUserFlagsAccumulate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.admin(t, "admin")
	author := env.user(t, "author")

	flag, err := env.moderation.UserFlags(ctx, admin, author.ID)
	require.NoError(t, err)
	assert.Zero(t, flag.Strikes)

	for _, text := range []string{"First spam question title", "Second spam question title"} {
		q := env.ask(t, author, text, cleanBody)
		_, err := env.moderation.Decide(ctx, admin, env.pendingRecord(t, q.ID).ID, &models.ReviewRequest{Decision: models.StatusRejected})
		require.NoError(t, err)
	}

	flag, err = env.moderation.UserFlags(ctx, admin, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, flag.Strikes)

	_, err = env.moderation.UserFlags(ctx, admin, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.moderation.UserFlags(ctx, author, author.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestModerationStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.admin(t, "admin")
	author := env.user(t, "author")

	approved := env.ask(t, author, "Is this spam filter too strict?", cleanBody)
	rejected := env.ask(t, author, "Damn, why does this not compile?", cleanBody)
	env.ask(t, author, "This stupid test is flaky again", cleanBody)
	clean := env.ask(t, author, "How do I embed files in a binary?", cleanBody)
	env.answer(t, admin, clean.ID, "Use the embed package with a //go:embed directive.")

	_, err := env.moderation.Decide(ctx, admin, env.pendingRecord(t, approved.ID).ID, &models.ReviewRequest{Decision: models.StatusApproved})
	require.NoError(t, err)
	_, err = env.moderation.Decide(ctx, admin, env.pendingRecord(t, rejected.ID).ID, &models.ReviewRequest{Decision: models.StatusRejected})
	require.NoError(t, err)

	stats, err := env.moderation.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStats{
		Pending:   1,
		Approved:  1,
		Rejected:  1,
		Total:     3,
		Users:     2,
		Questions: 4,
		Answers:   1,
	}, *stats)

	_, err = env.moderation.Stats(ctx, author)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.moderation.ListFlagged(ctx, author)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestApprovedQuestionAnnouncesMentions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.admin(t, "admin")
	author := env.user(t, "author")
	friend := env.user(t, "friend")

	q := env.ask(t, author, "@friend is this crap idiomatic?", cleanBody)
	assert.Empty(t, env.notificationsFor(t, friend.ID, models.NotifyMention))

	_, err := env.moderation.Decide(ctx, admin, env.pendingRecord(t, q.ID).ID, &models.ReviewRequest{Decision: models.StatusApproved})
	require.NoError(t, err)

	assert.Len(t, env.notificationsFor(t, friend.ID, models.NotifyMention), 1)
}

func TestAnswersUnderHeldQuestionWaitForApproval(t *testing.T) {
	const (
		flaggedAnswer = "@bob only an idiot skips profiling, run pprof first."
		cleanAnswer   = "@bob run pprof first and look at the allocation profile."
	)

	tests := []struct {
		name   string
		body   string
		review []models.SubjectType
	}{
		{"answer approved before question", flaggedAnswer, []models.SubjectType{models.SubjectAnswer, models.SubjectQuestion}},
		{"question approved before answer", flaggedAnswer, []models.SubjectType{models.SubjectQuestion, models.SubjectAnswer}},
		{"clean answer posted while question held", cleanAnswer, []models.SubjectType{models.SubjectQuestion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			admin := env.admin(t, "admin")
			owner := env.user(t, "owner")
			bob := env.user(t, "bob")

			q := env.ask(t, owner, "Why is this crap loop so slow?", cleanBody)
			require.Equal(t, models.StatusPending, q.Status)
			a := env.answer(t, admin, q.ID, tt.body)

			assertSilent := func(stage string) {
				assert.Empty(t, env.notificationsFor(t, owner.ID, models.NotifyAnswer), stage)
				assert.Empty(t, env.notificationsFor(t, bob.ID, models.NotifyMention), stage)
			}
			assertSilent("after posting")

			contentID := map[models.SubjectType]string{
				models.SubjectQuestion: q.ID,
				models.SubjectAnswer:   a.ID,
			}
			for i, kind := range tt.review {
				rec := env.pendingRecord(t, contentID[kind])
				_, err := env.moderation.Decide(ctx, admin, rec.ID, &models.ReviewRequest{Decision: models.StatusApproved})
				require.NoError(t, err)
				if i < len(tt.review)-1 {
					assertSilent("after approving the " + string(kind))
				}
			}

			answered := env.notificationsFor(t, owner.ID, models.NotifyAnswer)
			require.Len(t, answered, 1)
			require.NotNil(t, answered[0].AnswerID)
			assert.Equal(t, a.ID, *answered[0].AnswerID)
			assert.Len(t, env.notificationsFor(t, bob.ID, models.NotifyMention), 1)
		})
	}
}
