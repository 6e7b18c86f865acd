package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/padkit/internal/dispatch"
	"github.com/zjrosen/padkit/internal/engine"
	"github.com/zjrosen/padkit/internal/source"
)

// fakeBoard records injected triggers and serves a fixed busy set.
type fakeBoard struct {
	injected []int
	busy     []int
}

func (b *fakeBoard) Inject(sourceID int) bool {
	b.injected = append(b.injected, sourceID)
	return true
}

func (b *fakeBoard) BusySources(context.Context) []int { return b.busy }

func testSources() []source.Source {
	return []source.Source{
		{ID: 0, Name: "kick", Mode: source.ModeInterrupt, Self: source.SelfIgnore, Priority: 3},
		{ID: 1, Name: "loop", Mode: source.ModeOverlay, Self: source.SelfRestart, Priority: 1},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestUpdate_NumberKeyInjectsTrigger(t *testing.T) {
	board := &fakeBoard{}
	m := New(board, nil, testSources())

	_, _ = m.Update(keyMsg("2"))
	require.Equal(t, []int{1}, board.injected)
}

func TestUpdate_OutOfRangeKeyIgnored(t *testing.T) {
	board := &fakeBoard{}
	m := New(board, nil, testSources())

	_, _ = m.Update(keyMsg("9"))
	require.Empty(t, board.injected)
}

func TestUpdate_BusyMsgMarksSources(t *testing.T) {
	m := New(&fakeBoard{}, nil, testSources())

	updated, _ := m.Update(busyMsg([]int{1}))
	model := updated.(Model)
	require.False(t, model.busy[0])
	require.True(t, model.busy[1])

	// A later snapshot replaces the set entirely.
	updated, _ = model.Update(busyMsg(nil))
	model = updated.(Model)
	require.False(t, model.busy[1])
}

func TestUpdate_EventMsgRecordsOutcome(t *testing.T) {
	m := New(&fakeBoard{}, make(chan dispatch.Event), testSources())

	ev := dispatch.Event{
		Result: engine.Result{Source: 0, Status: engine.StatusBlocked},
		Origin: dispatch.OriginInject,
		At:     time.Now(),
	}
	updated, cmd := m.Update(eventMsg(ev))
	model := updated.(Model)

	require.Equal(t, engine.StatusBlocked, model.last[0].Status)
	require.Len(t, model.recent, 1)
	require.NotNil(t, cmd, "must keep listening for events")
}

func TestUpdate_RecentLogIsBounded(t *testing.T) {
	m := New(&fakeBoard{}, make(chan dispatch.Event), testSources())

	var model tea.Model = m
	for i := 0; i < recentLines+4; i++ {
		model, _ = model.(Model).Update(eventMsg(dispatch.Event{
			Result: engine.Result{Source: 0, Status: engine.StatusStarted},
			At:     time.Now(),
		}))
	}
	require.Len(t, model.(Model).recent, recentLines)
}

func TestView_ShowsPolicyAndBusyMarkers(t *testing.T) {
	m := New(&fakeBoard{}, nil, testSources())
	updated, _ := m.Update(busyMsg([]int{0}))

	view := ansi.Strip(updated.(Model).View())
	require.Contains(t, view, "kick")
	require.Contains(t, view, "interrupt/ignore p3")
	require.Contains(t, view, "loop")
	require.Contains(t, view, "overlay/restart p1")
	require.Contains(t, view, "●")
	require.Contains(t, view, "○")
}

func TestSoundboard_QuitKey(t *testing.T) {
	events := make(chan dispatch.Event)
	m := New(&fakeBoard{}, events, testSources())

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return ansi.Strip(string(bts)) != ""
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}
