package session_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/rateroom/internal/domain/ledger"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/domain/session"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

func ids(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func intPtr(v int) *int { return &v }

func newSession(t *testing.T, polls int) *session.Session {
	t.Helper()
	sess := session.New("s1", "Friday", true, t0)
	for i := 0; i < polls; i++ {
		p, err := poll.New(fmt.Sprintf("p%d", i+1), poll.Input{
			Creator:    fmt.Sprintf("creator%d", i+1),
			MediaItems: []poll.MediaItem{{URL: "https://example.com/a.png", Type: poll.MediaImage}},
		})
		require.NoError(t, err)
		sess.AddPoll(p)
	}
	return sess
}

// withVoters registers each id under the name "Viewer <id>".
func withVoters(sess *session.Session, ids ...string) *session.Session {
	for _, id := range ids {
		sess.Voters[id] = "Viewer " + id
	}
	return sess
}

func TestNew_Defaults(t *testing.T) {
	sess := session.New("s1", "Friday", false, t0)
	require.Equal(t, session.StatusDraft, sess.Status)
	require.Equal(t, session.NotStarted, sess.CurrentPollIndex)
	require.Equal(t, session.NotStarted, sess.PausedAtPollIndex)
	require.Equal(t, session.DefaultExpectedAttendance, sess.Expected())
	require.NotNil(t, sess.Votes)
	require.NotNil(t, sess.ExposeVotes)
}

func TestStartPoll(t *testing.T) {
	sess := newSession(t, 2)

	require.NoError(t, sess.StartPoll(1, t0))
	require.Equal(t, session.StatusPresenting, sess.Status)
	require.Equal(t, 1, sess.CurrentPollIndex)
	require.Equal(t, t0, *sess.Polls[1].StartTime)
	require.Contains(t, sess.Votes, "p2")

	require.ErrorIs(t, sess.StartPoll(2, t0), session.ErrPollNotFound)
	require.ErrorIs(t, sess.StartPoll(-1, t0), session.ErrPollNotFound)
}

func TestStartPoll_KeepsExistingLedger(t *testing.T) {
	sess := withVoters(newSession(t, 1), "v1")
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", "v1", 7, t0))

	require.NoError(t, sess.StartPoll(0, t0.Add(time.Second)))
	require.Equal(t, 1, sess.Votes.Count("p1"))
}

func TestAdvance_ClearsPerPollStateAndCompletes(t *testing.T) {
	sess := withVoters(newSession(t, 2), "v1")
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.VoteExpose("p1", "v1"))
	sess.StartCountdown(t0)
	sess.RequestSkip()
	require.NoError(t, sess.PauseTimer(t0.Add(10*time.Second)))

	completed, err := sess.Advance(t0.Add(20 * time.Second))
	require.NoError(t, err)
	require.False(t, completed)
	require.Equal(t, 1, sess.CurrentPollIndex)
	require.NotContains(t, sess.ExposeVotes, "p1")
	require.False(t, sess.TimerPaused)
	require.Zero(t, sess.PausedTimeLeft)
	require.False(t, sess.CountdownStarted)
	require.Nil(t, sess.CountdownStartTime)
	require.False(t, sess.SkipRequested)

	completed, err = sess.Advance(t0.Add(30 * time.Second))
	require.NoError(t, err)
	require.True(t, completed)
	require.Equal(t, session.StatusCompleted, sess.Status)
	require.Equal(t, session.NotStarted, sess.CurrentPollIndex)
}

func TestPauseResume_DropsFromPausedPoll(t *testing.T) {
	sess := withVoters(newSession(t, 3), "v1")
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", "v1", 8, t0))
	_, err := sess.Advance(t0)
	require.NoError(t, err)
	require.NoError(t, sess.CastVote("p2", "v1", 4, t0))

	sess.Pause()
	require.Equal(t, session.StatusPaused, sess.Status)
	require.Equal(t, 1, sess.PausedAtPollIndex)

	sess.Resume(false)
	require.Equal(t, session.StatusPresenting, sess.Status)
	require.Contains(t, sess.Votes, "p1")
	require.NotContains(t, sess.Votes, "p2")

	require.NoError(t, sess.StartPoll(1, t0))
	require.Equal(t, 0, sess.Votes.Count("p2"))
}

func TestResume_Restart(t *testing.T) {
	sess := withVoters(newSession(t, 2), "v1")
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", "v1", 8, t0))
	sess.Pause()

	sess.Resume(true)
	require.Equal(t, session.StatusDraft, sess.Status)
	require.Equal(t, session.NotStarted, sess.CurrentPollIndex)
	require.Equal(t, session.NotStarted, sess.PausedAtPollIndex)
	require.Empty(t, sess.Votes)
}

func TestClearVotes(t *testing.T) {
	sess := withVoters(newSession(t, 1), "v1")
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", "v1", 8, t0))
	require.NoError(t, sess.VoteExpose("p1", "v1"))
	sess.StartCountdown(t0)

	sess.ClearVotes()
	require.Empty(t, sess.Votes)
	require.Empty(t, sess.ExposeVotes)
	require.False(t, sess.CountdownStarted)
	require.Equal(t, 0, sess.CurrentPollIndex)
}

func TestTimerPauseResume(t *testing.T) {
	sess := withVoters(newSession(t, 1), "v1")
	require.NoError(t, sess.StartPoll(0, t0))

	require.NoError(t, sess.PauseTimer(t0.Add(15*time.Second)))
	require.True(t, sess.TimerPaused)
	require.Equal(t, 45, sess.PausedTimeLeft)

	// votes still land while frozen, long after the original deadline
	require.NoError(t, sess.CastVote("p1", "v1", 5, t0.Add(5*time.Minute)))

	resumeAt := t0.Add(10 * time.Minute)
	require.NoError(t, sess.ResumeTimer(resumeAt))
	require.False(t, sess.TimerPaused)
	left, timed := sess.Polls[0].TimeLeft(resumeAt, poll.Window{})
	require.True(t, timed)
	require.Equal(t, 45, left)
}

func TestTimerPause_RequiresActivePoll(t *testing.T) {
	sess := newSession(t, 1)
	require.ErrorIs(t, sess.PauseTimer(t0), session.ErrInvalidInput)
	require.ErrorIs(t, sess.ResumeTimer(t0), session.ErrInvalidInput)
}

func TestApplySettings(t *testing.T) {
	sess := newSession(t, 0)
	on := true
	require.NoError(t, sess.ApplySettings(session.SettingsUpdate{ExpectedAttendance: intPtr(4), AutoAdvanceOn: &on}))
	require.Equal(t, 4, sess.Expected())
	require.True(t, sess.AutoAdvanceOn)

	require.ErrorIs(t, sess.ApplySettings(session.SettingsUpdate{ExpectedAttendance: intPtr(0)}), session.ErrInvalidInput)
}

func TestCastVote_Validation(t *testing.T) {
	sess := withVoters(newSession(t, 2), "v1")
	require.NoError(t, sess.StartPoll(0, t0))

	require.ErrorIs(t, sess.CastVote("p1", "", 5, t0), session.ErrInvalidInput)
	require.ErrorIs(t, sess.CastVote("p1", "ghost", 5, t0), session.ErrInvalidInput)
	require.ErrorIs(t, sess.CastVote("nope", "v1", 5, t0), session.ErrPollNotFound)
	require.ErrorIs(t, sess.CastVote("p1", "v1", 11, t0), poll.ErrInvalidRating)
	require.ErrorIs(t, sess.CastVote("p1", "v1", 2.5, t0), poll.ErrInvalidRating)
	require.ErrorIs(t, sess.CastVote("p2", "v1", 5, t0), ledger.ErrPollNotActive)
	require.ErrorIs(t, sess.CastVote("p1", "v1", 5, t0.Add(61*time.Second)), poll.ErrVotingClosed)
}

func TestCastVote_UpsertAndLastVoter(t *testing.T) {
	sess := newSession(t, 1)
	require.NoError(t, sess.StartPoll(0, t0))
	id, err := sess.RegisterVoter("Ann", ids("v"))
	require.NoError(t, err)

	require.NoError(t, sess.CastVote("p1", id, 3, t0))
	require.NoError(t, sess.CastVote("p1", id, 9, t0.Add(time.Second)))
	require.Equal(t, 1, sess.Votes.Count("p1"))
	require.Equal(t, 9, sess.Votes["p1"][id])
	require.Equal(t, "Ann", sess.Polls[0].LastVoter.Name)
	require.Equal(t, t0.Add(time.Second), sess.Polls[0].LastVoter.Timestamp)
}

func TestCastVote_AutoAdvanceIgnoresTimerUntilCountdown(t *testing.T) {
	sess := withVoters(newSession(t, 1), "v1", "v2")
	on := true
	require.NoError(t, sess.ApplySettings(session.SettingsUpdate{AutoAdvanceOn: &on}))
	require.NoError(t, sess.StartPoll(0, t0))

	late := t0.Add(5 * time.Minute)
	require.NoError(t, sess.CastVote("p1", "v1", 5, late))

	sess.StartCountdown(late)
	require.ErrorIs(t, sess.CastVote("p1", "v2", 5, late), poll.ErrVotingClosed)
}

func TestRegisterVoter_ReusesExactName(t *testing.T) {
	sess := newSession(t, 0)
	next := ids("v")

	first, err := sess.RegisterVoter("Ann", next)
	require.NoError(t, err)
	again, err := sess.RegisterVoter(" Ann ", next)
	require.NoError(t, err)
	other, err := sess.RegisterVoter("ann", next)
	require.NoError(t, err)

	require.Equal(t, first, again)
	require.NotEqual(t, first, other)
	require.Len(t, sess.Voters, 2)

	_, err = sess.RegisterVoter("  ", next)
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestReadyRoom(t *testing.T) {
	sess := newSession(t, 1)
	require.NoError(t, sess.ApplySettings(session.SettingsUpdate{ExpectedAttendance: intPtr(5)}))
	next := ids("v")

	for i, name := range []string{"Ann", "Bob", "Cid"} {
		status, err := sess.MarkReady(name, next)
		require.NoError(t, err)
		require.NotEmpty(t, status.VoterID)
		require.Equal(t, i+1, status.ReadyCount)
		require.Equal(t, 4, status.Threshold)
		require.False(t, status.ThresholdReached)
	}

	_, err := sess.MarkReady("Ann", next)
	require.ErrorIs(t, err, session.ErrNameTaken)

	status, err := sess.MarkReady("Dee", next)
	require.NoError(t, err)
	require.True(t, status.ThresholdReached)
	require.Equal(t, []string{"Ann", "Bob", "Cid", "Dee"}, status.ReadyVoters)

	sess.ClearReady()
	require.Zero(t, sess.ReadyStatus().ReadyCount)
	_, err = sess.MarkReady("Ann", next)
	require.NoError(t, err)
}

func TestStartCountdown_Idempotent(t *testing.T) {
	sess := newSession(t, 0)
	require.True(t, sess.StartCountdown(t0))
	require.False(t, sess.StartCountdown(t0.Add(time.Minute)))
	require.Equal(t, t0, *sess.CountdownStartTime)
}

func TestThresholds(t *testing.T) {
	cases := []struct {
		expected, ready, expose int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{5, 4, 3},
		{10, 8, 5},
		{11, 9, 6},
		{12, 10, 6},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ready, session.ReadyThreshold(tc.expected), "ready %d", tc.expected)
		require.Equal(t, tc.expose, session.ExposeThreshold(tc.expected), "expose %d", tc.expected)
	}
}

func TestExpose_RevealsNonVoters(t *testing.T) {
	sess := newSession(t, 1)
	require.NoError(t, sess.ApplySettings(session.SettingsUpdate{ExpectedAttendance: intPtr(4)}))
	next := ids("v")
	ann, _ := sess.RegisterVoter("Ann", next)
	bob, _ := sess.RegisterVoter("Bob", next)
	_, _ = sess.RegisterVoter("Cid", next)
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", ann, 6, t0))

	require.NoError(t, sess.VoteExpose("p1", ann))
	require.NoError(t, sess.VoteExpose("p1", ann))
	status, err := sess.ExposeStatus("p1", ann)
	require.NoError(t, err)
	require.Equal(t, 1, status.Votes)
	require.True(t, status.HasVoted)
	require.False(t, status.ShouldReveal)
	require.Nil(t, status.Exposed)

	require.NoError(t, sess.VoteExpose("p1", bob))
	status, err = sess.ExposeStatus("p1", "")
	require.NoError(t, err)
	require.True(t, status.ShouldReveal)
	require.False(t, status.HasVoted)
	require.Equal(t, session.ExposeNonVoters, status.Exposed.Type)
	require.Equal(t, []string{"Bob", "Cid"}, status.Exposed.Names)
}

func TestExpose_RevealsLastVoterWhenEveryoneVoted(t *testing.T) {
	sess := newSession(t, 1)
	require.NoError(t, sess.ApplySettings(session.SettingsUpdate{ExpectedAttendance: intPtr(2)}))
	next := ids("v")
	ann, _ := sess.RegisterVoter("Ann", next)
	bob, _ := sess.RegisterVoter("Bob", next)
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", ann, 6, t0))
	require.NoError(t, sess.CastVote("p1", bob, 2, t0.Add(time.Second)))
	require.NoError(t, sess.VoteExpose("p1", ann))

	status, err := sess.ExposeStatus("p1", ann)
	require.NoError(t, err)
	require.True(t, status.ShouldReveal)
	require.Equal(t, session.ExposeLastVoter, status.Exposed.Type)
	require.Equal(t, "Bob", status.Exposed.Name)
}

func TestExpose_HeldBackInAutoAdvanceUntilCountdown(t *testing.T) {
	sess := withVoters(newSession(t, 1), "v1")
	on := true
	require.NoError(t, sess.ApplySettings(session.SettingsUpdate{ExpectedAttendance: intPtr(2), AutoAdvanceOn: &on}))
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.VoteExpose("p1", "v1"))

	status, err := sess.ExposeStatus("p1", "v1")
	require.NoError(t, err)
	require.True(t, status.ThresholdReached)
	require.False(t, status.ShouldReveal)

	sess.StartCountdown(t0)
	status, err = sess.ExposeStatus("p1", "v1")
	require.NoError(t, err)
	require.True(t, status.ShouldReveal)
}

func TestCastVote_RejectsUnregisteredVoters(t *testing.T) {
	sess := newSession(t, 1)
	require.NoError(t, sess.StartPoll(0, t0))

	for _, id := range []string{"fake-1", "fake-2", "fake-3"} {
		require.ErrorIs(t, sess.CastVote("p1", id, 10, t0), session.ErrInvalidInput)
	}
	require.Zero(t, sess.Votes.Count("p1"))
	require.Nil(t, sess.Polls[0].LastVoter)
}

func TestExpose_RejectsUnregisteredVoters(t *testing.T) {
	sess := newSession(t, 1)
	require.NoError(t, sess.ApplySettings(session.SettingsUpdate{ExpectedAttendance: intPtr(3)}))
	require.NoError(t, sess.StartPoll(0, t0))

	for _, id := range []string{"fake-1", "fake-2", "fake-3"} {
		require.ErrorIs(t, sess.VoteExpose("p1", id), session.ErrInvalidInput)
	}
	status, err := sess.ExposeStatus("p1", "")
	require.NoError(t, err)
	require.Zero(t, status.Votes)
	require.False(t, status.ShouldReveal)
}

func TestExpose_UnknownPoll(t *testing.T) {
	sess := newSession(t, 0)
	require.ErrorIs(t, sess.VoteExpose("p9", "v1"), session.ErrPollNotFound)
	_, err := sess.ExposeStatus("p9", "v1")
	require.ErrorIs(t, err, session.ErrPollNotFound)
}

func TestPolls_DeleteDuplicateReorder(t *testing.T) {
	sess := withVoters(newSession(t, 3), "v1")
	require.NoError(t, sess.StartPoll(2, t0))
	require.NoError(t, sess.CastVote("p3", "v1", 5, t0))

	dup, err := sess.DuplicatePoll("p1", "p1b")
	require.NoError(t, err)
	require.Equal(t, "p1b", dup.ID)
	require.Nil(t, dup.StartTime)
	require.Equal(t, []string{"p1", "p1b", "p2", "p3"}, pollIDs(sess))

	require.NoError(t, sess.ReorderPolls([]string{"p3", "p2", "p1b", "p1"}))
	require.Equal(t, []string{"p3", "p2", "p1b", "p1"}, pollIDs(sess))
	require.ErrorIs(t, sess.ReorderPolls([]string{"p3"}), session.ErrInvalidInput)
	require.ErrorIs(t, sess.ReorderPolls([]string{"p3", "p2", "p1", "p1"}), session.ErrPollNotFound)

	require.NoError(t, sess.DeletePoll("p3"))
	require.NotContains(t, sess.Votes, "p3")
	require.ErrorIs(t, sess.DeletePoll("p3"), session.ErrPollNotFound)
}

func TestDeletePoll_ResetsIndexPastEnd(t *testing.T) {
	sess := newSession(t, 2)
	require.NoError(t, sess.StartPoll(1, t0))
	require.NoError(t, sess.DeletePoll("p2"))
	require.Equal(t, session.NotStarted, sess.CurrentPollIndex)
}

func TestUpdatePoll_KeepsIdentity(t *testing.T) {
	sess := withVoters(newSession(t, 1), "v1")
	require.NoError(t, sess.StartPoll(0, t0))
	require.NoError(t, sess.CastVote("p1", "v1", 5, t0))

	p, err := sess.UpdatePoll("p1", poll.Input{
		Creator:    "dana",
		Company:    "acme corp",
		MediaItems: []poll.MediaItem{{URL: "https://example.com/b.mp4", Type: poll.MediaVideo}},
		Timer:      intPtr(30),
	})
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.Equal(t, "Acme Corp", p.Company)
	require.Equal(t, 30, p.Timer)
	require.NotNil(t, p.LastVoter)
}

func TestChat_KeepsRecentMessages(t *testing.T) {
	sess := newSession(t, 0)
	sess.Voters["v1"] = "Ann"

	for i := 0; i < session.MaxChatMessages+5; i++ {
		_, err := sess.PostChat(fmt.Sprintf("m%d", i), "v1", "ignored", fmt.Sprintf("hello %d", i), t0)
		require.NoError(t, err)
	}
	require.Len(t, sess.ChatMessages, session.MaxChatMessages)
	require.Equal(t, "m5", sess.ChatMessages[0].ID)
	require.Equal(t, "Ann", sess.ChatMessages[0].Name)

	_, err := sess.PostChat("x", "", "", "   ", t0)
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestFeedbackDigest(t *testing.T) {
	sess := newSession(t, 0)
	_, err := sess.AddFeedback("Ann", "more cats", t0)
	require.NoError(t, err)
	_, err = sess.AddFeedback("", "louder audio", t0)
	require.NoError(t, err)

	require.Equal(t, 2, sess.FeedbackCount)
	digest := sess.FeedbackDigest()
	require.Contains(t, digest, "Feedback for Friday (2 total)")
	require.Contains(t, digest, "Ann: more cats")
	require.Contains(t, digest, "Anonymous: louder audio")
}

func pollIDs(sess *session.Session) []string {
	out := make([]string, len(sess.Polls))
	for i, p := range sess.Polls {
		out[i] = p.ID
	}
	return out
}
