package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/field-survey/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	for i := 0; i < 2; i++ {
		db, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}

func TestOperator(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, ok, err := store.LoadOperator(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveOperator(ctx, model.Operator{SurveyorName: "Ravi", SurveyorMobile: "900"}))
	require.NoError(t, store.SaveOperator(ctx, model.Operator{SurveyorName: "Ravi K", SurveyorMobile: "901"}))

	op, ok, err := store.LoadOperator(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.Operator{SurveyorName: "Ravi K", SurveyorMobile: "901"}, op)
}

func TestAttempts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordAttempt(ctx, model.SubmissionAttempt{
		ID: "a1", SessionID: "s1", Time: base, Outcome: model.OutcomeFailed,
		Message: "Error connecting to the server.", InterviewerName: "Asha", Ward: "Devasandra",
	}))
	require.NoError(t, store.RecordAttempt(ctx, model.SubmissionAttempt{
		ID: "a2", SessionID: "s1", Time: base.Add(time.Minute), Outcome: model.OutcomeSubmitted,
		InterviewerName: "Asha", Ward: "Devasandra",
	}))
	require.NoError(t, store.RecordAttempt(ctx, model.SubmissionAttempt{
		ID: "a3", SessionID: "s2", Time: base.Add(2 * time.Minute), Outcome: model.OutcomeSubmitted,
	}))

	attempts, err := store.RecentAttempts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "a3", attempts[0].ID)
	assert.Equal(t, "a2", attempts[1].ID)
	assert.Equal(t, model.OutcomeSubmitted, attempts[1].Outcome)
	assert.True(t, base.Add(time.Minute).Equal(attempts[1].Time))

	attempts, err = store.RecentAttempts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, "Error connecting to the server.", attempts[2].Message)

	err = store.RecordAttempt(ctx, model.SubmissionAttempt{ID: "a4", Outcome: "lost"})
	assert.Error(t, err)
}
