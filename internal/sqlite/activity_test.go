package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.ActivityEntry{
		SessionID:    "s1",
		ActivityType: activity.TypeSessionCreated,
		Summary:      "created session",
	}
	pollID := "p1"
	entry2 := &activity.ActivityEntry{
		SessionID:    "s1",
		PollID:       &pollID,
		ActivityType: activity.TypePollFinalized,
		Summary:      "finalized poll",
		Details:      `{"poll":{"id":"p1"}}`,
	}

	require.NoError(t, repo.Log(ctx, entry1))
	require.NoError(t, repo.Log(ctx, entry2))
	require.NotZero(t, entry1.ID)
	require.False(t, entry1.CreatedAt.IsZero())

	entries, err := repo.List(ctx, activity.ListActivityOptions{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, "p1", *entries[0].PollID)
	require.Equal(t, entry2.Details, entries[0].Details)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Nil(t, entries[1].PollID)
}

func TestActivityRepository_Filters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	pollID := "p1"
	for _, entry := range []*activity.ActivityEntry{
		{SessionID: "s1", ActivityType: activity.TypePollStarted, PollID: &pollID, Summary: "a"},
		{SessionID: "s1", ActivityType: activity.TypeVotesCleared, Summary: "b"},
		{SessionID: "s2", ActivityType: activity.TypePollStarted, Summary: "c"},
	} {
		require.NoError(t, repo.Log(ctx, entry))
	}

	started := activity.TypePollStarted
	entries, err := repo.List(ctx, activity.ListActivityOptions{ActivityType: &started})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = repo.List(ctx, activity.ListActivityOptions{SessionID: "s1", PollID: &pollID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a", entries[0].Summary)

	entries, err = repo.List(ctx, activity.ListActivityOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "b", entries[0].Summary)

	entries, err = repo.List(ctx, activity.ListActivityOptions{Offset: 2})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a", entries[0].Summary)
}
