package poll_test

import (
	"testing"
	"time"

	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestNew_DefaultsAndCanonicalCompany(t *testing.T) {
	p, err := poll.New("p1", poll.Input{
		Creator:    "  Ana ",
		Company:    "acme   widgets inc",
		MediaItems: []poll.MediaItem{{URL: "https://x.test/a.png", Type: poll.MediaImage}},
	})
	require.NoError(t, err)
	require.Equal(t, "Ana", p.Creator)
	require.Equal(t, "Acme Widgets Inc", p.Company)
	require.Equal(t, poll.DefaultTimer, p.Timer)
	require.Nil(t, p.StartTime)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   poll.Input
	}{
		{name: "missing creator", in: poll.Input{MediaItems: []poll.MediaItem{{URL: "https://x.test/a.png", Type: poll.MediaImage}}}},
		{name: "no media", in: poll.Input{Creator: "Ana"}},
		{name: "bad media type", in: poll.Input{Creator: "Ana", MediaItems: []poll.MediaItem{{URL: "https://x.test/a", Type: "audio"}}}},
		{name: "negative timer", in: poll.Input{Creator: "Ana", Timer: intPtr(-1), MediaItems: []poll.MediaItem{{URL: "https://x.test/a.png", Type: poll.MediaImage}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := poll.New("p1", tc.in)
			require.ErrorIs(t, err, poll.ErrInvalidInput)
		})
	}
}

func TestApply_PreservesIdentityAndLastVoter(t *testing.T) {
	p, err := poll.New("p1", poll.Input{
		Creator:    "Ana",
		MediaItems: []poll.MediaItem{{URL: "https://x.test/a.png", Type: poll.MediaImage}},
	})
	require.NoError(t, err)
	now := time.Now()
	p.Start(now)
	p.RecordVoter("Bo", now)

	require.NoError(t, p.Apply(poll.Input{
		Creator:    "Cy",
		Timer:      intPtr(30),
		MediaItems: []poll.MediaItem{{URL: "https://x.test/b.mp4", Type: poll.MediaVideo}},
	}))
	require.Equal(t, "p1", p.ID)
	require.Equal(t, "Cy", p.Creator)
	require.Equal(t, 30, p.Timer)
	require.NotNil(t, p.StartTime)
	require.Equal(t, "Bo", p.LastVoter.Name)
}

func TestDuplicate_DropsRunState(t *testing.T) {
	p, err := poll.New("p1", poll.Input{
		Creator:      "Ana",
		ExposeThemV2: true,
		MediaItems:   []poll.MediaItem{{URL: "https://x.test/a.png", Type: poll.MediaImage}},
	})
	require.NoError(t, err)
	p.Start(time.Now())
	p.RecordVoter("Bo", time.Now())

	dup := p.Duplicate("p2")
	require.Equal(t, "p2", dup.ID)
	require.Equal(t, p.MediaItems, dup.MediaItems)
	require.True(t, dup.ExposeThemV2)
	require.Nil(t, dup.StartTime)
	require.Nil(t, dup.LastVoter)

	dup.MediaItems[0].URL = "changed"
	require.Equal(t, "https://x.test/a.png", p.MediaItems[0].URL)
}

func TestRecordVoter_DefaultsToUnknown(t *testing.T) {
	p := &poll.Poll{ID: "p1"}
	p.RecordVoter("  ", time.Now())
	require.Equal(t, "Unknown", p.LastVoter.Name)
}

func TestCheckVotingOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &poll.Poll{ID: "p1", Timer: 60}
	p.Start(start)

	require.NoError(t, p.CheckVotingOpen(start.Add(30*time.Second), poll.Window{}))
	require.ErrorIs(t, p.CheckVotingOpen(start.Add(60*time.Second), poll.Window{}), poll.ErrVotingClosed)
	require.ErrorIs(t, p.CheckVotingOpen(start.Add(5*time.Minute), poll.Window{}), poll.ErrVotingClosed)

	// auto-advance keeps the poll open until the countdown begins
	late := start.Add(5 * time.Minute)
	require.NoError(t, p.CheckVotingOpen(late, poll.Window{AutoAdvanceOn: true}))
	require.ErrorIs(t, p.CheckVotingOpen(late, poll.Window{AutoAdvanceOn: true, CountdownStarted: true}), poll.ErrVotingClosed)

	// a paused timer freezes the remaining time
	require.NoError(t, p.CheckVotingOpen(late, poll.Window{TimerPaused: true, PausedTimeLeft: 12}))
	require.ErrorIs(t, p.CheckVotingOpen(late, poll.Window{TimerPaused: true}), poll.ErrVotingClosed)
}

func TestCheckVotingOpen_Untimed(t *testing.T) {
	p := &poll.Poll{ID: "p1", Timer: 0}
	p.Start(time.Now().Add(-time.Hour))
	require.NoError(t, p.CheckVotingOpen(time.Now(), poll.Window{}))

	notStarted := &poll.Poll{ID: "p2", Timer: 60}
	left, timed := notStarted.TimeLeft(time.Now(), poll.Window{})
	require.False(t, timed)
	require.Zero(t, left)
}

func TestValidateRating(t *testing.T) {
	for _, v := range []float64{0, 5, 10} {
		got, err := poll.ValidateRating(v)
		require.NoError(t, err)
		require.Equal(t, int(v), got)
	}
	for _, v := range []float64{-1, 11, 7.5} {
		_, err := poll.ValidateRating(v)
		require.ErrorIs(t, err, poll.ErrInvalidRating)
	}
}
