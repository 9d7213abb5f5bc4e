package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/domain/session"
	"github.com/rpggio/rateroom/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, id string, isLive bool) *session.Session {
	t.Helper()
	sess := session.New(id, "Session "+id, isLive, time.Now().UTC())
	p, err := poll.New(id+"-p1", poll.Input{
		Creator:    "ann",
		MediaItems: []poll.MediaItem{{URL: "https://example.com/a.png", Type: poll.MediaImage}},
	})
	require.NoError(t, err)
	sess.AddPoll(p)
	return sess
}

func TestSessionRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	sess := newTestSession(t, "s1", true)
	sess.Voters["v1"] = "Ann"
	require.NoError(t, repo.Create(ctx, sess))
	require.ErrorIs(t, repo.Create(ctx, sess), repository.ErrAlreadyExists)

	loaded, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Session s1", loaded.Name)
	require.Len(t, loaded.Polls, 1)
	require.Equal(t, "Ann", loaded.Voters["v1"])
	require.Equal(t, session.NotStarted, loaded.CurrentPollIndex)
	require.NotNil(t, loaded.ExposeVotes)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_UpdateChecksVersion(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	sess := newTestSession(t, "s1", true)
	require.NoError(t, repo.Create(ctx, sess))

	sess.Status = session.StatusPresenting
	sess.Version = 1
	require.NoError(t, repo.Update(ctx, sess, 0))

	stale := newTestSession(t, "s1", true)
	stale.Version = 1
	require.ErrorIs(t, repo.Update(ctx, stale, 0), repository.ErrConflict)

	loaded, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, int64(1), loaded.Version)
	require.Equal(t, session.StatusPresenting, loaded.Status)

	missing := newTestSession(t, "s2", true)
	require.ErrorIs(t, repo.Update(ctx, missing, 0), repository.ErrNotFound)
}

func TestSessionRepository_ExpiredIsNotFound(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	sess := newTestSession(t, "s1", true)
	past := time.Now().Add(-time.Minute)
	sess.ExpiresAt = &past
	require.NoError(t, repo.Create(ctx, sess))

	_, err := repo.Get(ctx, "s1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, sess, 0), repository.ErrNotFound)

	n, err := repo.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSessionRepository_PurgeKeepsSavedAndFresh(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	fresh := newTestSession(t, "live", true)
	future := time.Now().Add(time.Hour)
	fresh.ExpiresAt = &future
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, newTestSession(t, "saved", false)))

	n, err := repo.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = repo.Get(ctx, "live")
	require.NoError(t, err)
}

func TestSessionRepository_ListSavedAndDelete(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	require.NoError(t, repo.Create(ctx, newTestSession(t, "live", true)))
	require.NoError(t, repo.Create(ctx, newTestSession(t, "saved", false)))

	infos, err := repo.ListSaved(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "saved", infos[0].ID)
	require.Equal(t, 1, infos[0].PollCount)
	require.Equal(t, session.StatusDraft, infos[0].Status)

	require.NoError(t, repo.Delete(ctx, "saved"))
	require.ErrorIs(t, repo.Delete(ctx, "saved"), repository.ErrNotFound)

	infos, err = repo.ListSaved(ctx)
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestSessionRepository_ServiceRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	activityRepo := NewActivityRepository(db)
	svc := session.NewService(
		NewSessionRepository(db),
		activity.NewService(activityRepo, nil),
		session.Settings{LiveTTL: time.Hour},
		nil,
	)

	sess, err := svc.Create(ctx, "Friday", true)
	require.NoError(t, err)
	p, err := svc.AddPoll(ctx, sess.ID, poll.Input{
		Creator:    "ann",
		MediaItems: []poll.MediaItem{{URL: "https://example.com/a.png", Type: poll.MediaImage}},
	})
	require.NoError(t, err)
	_, err = svc.StartPoll(ctx, sess.ID, 0)
	require.NoError(t, err)

	voterID, err := svc.RegisterVoter(ctx, sess.ID, "Bob")
	require.NoError(t, err)
	res, err := svc.CastVote(ctx, sess.ID, p.ID, voterID, 9)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalVotes)
	require.Equal(t, 9.0, res.Average)

	loaded, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), loaded.Version)

	entries, err := activityRepo.List(ctx, activity.ListActivityOptions{SessionID: sess.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, activity.TypePollStarted, entries[0].ActivityType)
	require.Equal(t, activity.TypeSessionCreated, entries[1].ActivityType)
}
