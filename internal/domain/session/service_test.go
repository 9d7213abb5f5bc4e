package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/domain/session"
	"github.com/rpggio/rateroom/internal/repository"
	"github.com/rpggio/rateroom/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService(repo *mocks.SessionRepository, log session.ActivityLogger, settings session.Settings) *session.Service {
	return session.NewService(repo, log, settings, nil,
		session.WithClock(func() time.Time { return t0 }),
		session.WithIDGenerator(ids("id")),
	)
}

func activityOf(kind activity.ActivityType) any {
	return mock.MatchedBy(func(e *activity.ActivityEntry) bool { return e.ActivityType == kind })
}

func TestSessionService_CreateLive(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	log := &mocks.ActivityLogger{}
	repo.On("Create", ctx, mock.AnythingOfType("*session.Session")).Return(nil)
	log.On("LogActivity", ctx, activityOf(activity.TypeSessionCreated)).Return(nil)

	svc := newService(repo, log, session.Settings{LiveTTL: time.Hour, DefaultExpectedAttendance: 12})
	sess, err := svc.Create(ctx, "  Friday  ", true)
	require.NoError(t, err)
	require.Equal(t, "id1", sess.ID)
	require.Equal(t, "Friday", sess.Name)
	require.Equal(t, 12, sess.ExpectedAttendance)
	require.NotNil(t, sess.ExpiresAt)
	require.Equal(t, t0.Add(time.Hour), *sess.ExpiresAt)
	log.AssertExpectations(t)
}

func TestSessionService_CreateSavedDoesNotExpire(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := newService(repo, nil, session.Settings{LiveTTL: time.Hour})
	sess, err := svc.Create(ctx, "Archive", false)
	require.NoError(t, err)
	require.Nil(t, sess.ExpiresAt)
}

func TestSessionService_CreateValidation(t *testing.T) {
	svc := newService(&mocks.SessionRepository{}, nil, session.Settings{})
	_, err := svc.Create(context.Background(), " ", true)
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestSessionService_GetMapsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "gone").Return(nil, repository.ErrNotFound)

	svc := newService(repo, nil, session.Settings{})
	_, err := svc.Get(ctx, "gone")
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	repo.On("Delete", ctx, "gone").Return(repository.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "gone"), session.ErrSessionNotFound)
}

func TestSessionService_CastVoteRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}

	started := func() *session.Session {
		sess := newSession(t, 1)
		sess.Voters["v1"] = "Ann"
		require.NoError(t, sess.StartPoll(0, t0))
		return sess
	}
	repo.On("Get", ctx, "s1").Return(started(), nil).Once()
	repo.On("Get", ctx, "s1").Return(started(), nil).Once()
	repo.On("Update", ctx, mock.Anything, int64(0)).Return(repository.ErrConflict).Once()
	repo.On("Update", ctx, mock.Anything, int64(0)).Return(nil).Once()

	svc := newService(repo, nil, session.Settings{})
	res, err := svc.CastVote(ctx, "s1", "p1", "v1", 7)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalVotes)
	require.Equal(t, 7.0, res.Average)
	repo.AssertNumberOfCalls(t, "Update", 2)
}

func TestSessionService_ConflictGivesUp(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "s1").Return(newSession(t, 1), nil)
	repo.On("Update", ctx, mock.Anything, mock.Anything).Return(repository.ErrConflict)

	svc := newService(repo, nil, session.Settings{})
	_, err := svc.ClearVotes(ctx, "s1")
	require.ErrorIs(t, err, session.ErrConflict)
	repo.AssertNumberOfCalls(t, "Update", 5)
}

func TestSessionService_ValidationErrorSkipsWrite(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "s1").Return(withVoters(newSession(t, 1), "v1"), nil)

	svc := newService(repo, nil, session.Settings{})
	_, err := svc.CastVote(ctx, "s1", "p1", "v1", 12)
	require.ErrorIs(t, err, poll.ErrInvalidRating)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_MutateBumpsVersionAndExpiry(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	sess := newSession(t, 1)
	sess.Version = 3
	repo.On("Get", ctx, "s1").Return(sess, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(s *session.Session) bool {
		return s.Version == 4 && s.ExpiresAt != nil && s.ExpiresAt.Equal(t0.Add(30*time.Minute))
	}), int64(3)).Return(nil)

	svc := newService(repo, nil, session.Settings{LiveTTL: 30 * time.Minute})
	_, err := svc.Pause(ctx, "s1")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSessionService_AdvanceAuthorization(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	svc := newService(repo, nil, session.Settings{AuthorizedActors: []string{"Stream Bot"}})

	_, err := svc.Advance(ctx, "s1", "mallory")
	require.ErrorIs(t, err, session.ErrForbidden)
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)

	sess := newSession(t, 2)
	require.NoError(t, sess.StartPoll(0, t0))
	repo.On("Get", ctx, "s1").Return(sess, nil)
	repo.On("Update", ctx, mock.Anything, mock.Anything).Return(nil)

	got, err := svc.Advance(ctx, "s1", "stream bot")
	require.NoError(t, err)
	require.Equal(t, 1, got.CurrentPollIndex)
}

func TestSessionService_AdvanceEmitsFinalizedPoll(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	log := &mocks.ActivityLogger{}

	sess := newSession(t, 1)
	sess.Voters["v1"] = "Ann"
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", "v1", 8, t0))
	repo.On("Get", ctx, "s1").Return(sess, nil)
	repo.On("Update", ctx, mock.Anything, mock.Anything).Return(nil)

	log.On("LogActivity", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypePollFinalized &&
			e.PollID != nil && *e.PollID == "p1" &&
			e.Details != ""
	})).Return(nil).Once()
	log.On("LogActivity", ctx, activityOf(activity.TypeSessionCompleted)).Return(nil).Once()

	svc := newService(repo, log, session.Settings{})
	got, err := svc.Advance(ctx, "s1", "")
	require.NoError(t, err)
	require.Equal(t, session.StatusCompleted, got.Status)
	log.AssertExpectations(t)
}

func TestSessionService_ActivityFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	log := &mocks.ActivityLogger{}
	repo.On("Get", ctx, "s1").Return(newSession(t, 1), nil)
	repo.On("Update", ctx, mock.Anything, mock.Anything).Return(nil)
	log.On("LogActivity", ctx, mock.Anything).Return(errors.New("db locked"))

	svc := newService(repo, log, session.Settings{})
	_, err := svc.ClearVotes(ctx, "s1")
	require.NoError(t, err)
}

func TestSessionService_IngestPoll(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "s1").Return(newSession(t, 0), nil)
	repo.On("Update", ctx, mock.MatchedBy(func(s *session.Session) bool { return len(s.Polls) == 1 }), int64(0)).Return(nil)

	svc := newService(repo, nil, session.Settings{})
	p, err := svc.IngestPoll(ctx, poll.IngestRequest{
		SessionID: "s1",
		Creator:   "dana",
		Links:     []string{"https://youtu.be/abc123", "https://example.com/cat.png"},
	})
	require.NoError(t, err)
	require.Equal(t, "id1", p.ID)
	require.Len(t, p.MediaItems, 2)
	require.Equal(t, poll.MediaVideo, p.MediaItems[0].Type)

	_, err = svc.IngestPoll(ctx, poll.IngestRequest{Creator: "dana"})
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestSessionService_MarkReadyAndCountdown(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	log := &mocks.ActivityLogger{}
	sess := newSession(t, 1)
	repo.On("Get", ctx, "s1").Return(sess, nil)
	repo.On("Update", ctx, mock.Anything, mock.Anything).Return(nil)
	log.On("LogActivity", ctx, activityOf(activity.TypeCountdownStarted)).Return(nil).Once()

	svc := newService(repo, log, session.Settings{})
	status, err := svc.MarkReady(ctx, "s1", "Ann")
	require.NoError(t, err)
	require.Equal(t, "id1", status.VoterID)

	status, err = svc.StartCountdown(ctx, "s1")
	require.NoError(t, err)
	require.True(t, status.CountdownStarted)

	_, err = svc.StartCountdown(ctx, "s1")
	require.NoError(t, err)
	log.AssertExpectations(t)
}

func TestSessionService_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("PurgeExpired", ctx, t0).Return(2, nil)

	svc := newService(repo, nil, session.Settings{})
	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
