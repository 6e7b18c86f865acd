// Package tui is the keyboard soundboard: number keys trigger sources
// through the dispatcher, and the view mirrors what the arbitration
// engine decided. It is the way to play off-Pi, and doubles as a policy
// debugger next to real buttons.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/padkit/internal/dispatch"
	"github.com/zjrosen/padkit/internal/engine"
	"github.com/zjrosen/padkit/internal/source"
)

const (
	refreshInterval = 100 * time.Millisecond
	recentLines     = 6
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	playStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	idleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
)

type eventMsg dispatch.Event

type busyMsg []int

type tickMsg time.Time

// Board is the dispatcher surface the model needs; narrowed for tests.
type Board interface {
	Inject(sourceID int) bool
	BusySources(ctx context.Context) []int
}

// Model is the bubbletea model for the soundboard.
type Model struct {
	board   Board
	events  <-chan dispatch.Event
	sources []source.Source

	busy   map[int]bool
	last   map[int]engine.Result
	recent []string

	keys     keyMap
	help     help.Model
	showHelp bool
	width    int
}

// New creates a soundboard model over the given dispatcher surface and
// event stream.
func New(board Board, events <-chan dispatch.Event, sources []source.Source) Model {
	return Model{
		board:   board,
		events:  events,
		sources: sources,
		busy:    make(map[int]bool),
		last:    make(map[int]engine.Result),
		keys:    newKeyMap(),
		help:    help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

func waitForEvent(ch <-chan dispatch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.Trigger):
			n, err := strconv.Atoi(msg.String())
			if err == nil && n >= 1 && n <= len(m.sources) {
				m.board.Inject(n - 1)
			}
		}

	case eventMsg:
		res := dispatch.Event(msg).Result
		m.last[res.Source] = res
		m.recent = append(m.recent, formatEvent(dispatch.Event(msg)))
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}
		return m, waitForEvent(m.events)

	case busyMsg:
		m.busy = make(map[int]bool, len(msg))
		for _, id := range msg {
			m.busy[id] = true
		}

	case tickMsg:
		return m, tea.Batch(m.snapshot(), tick())
	}
	return m, nil
}

// snapshot asks the dispatcher for the live busy set without touching
// pool state from the UI goroutine.
func (m Model) snapshot() tea.Cmd {
	board := m.board
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshInterval/2)
		defer cancel()
		return busyMsg(board.BusySources(ctx))
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("padkit soundboard"))
	b.WriteString("\n\n")

	nameWidth := 0
	for _, src := range m.sources {
		if w := runewidth.StringWidth(src.Name); w > nameWidth {
			nameWidth = w
		}
	}

	for i, src := range m.sources {
		marker := idleStyle.Render("○")
		if m.busy[src.ID] {
			marker = playStyle.Render("●")
		}
		line := fmt.Sprintf("  %d %s %s  %s/%s p%d",
			i+1, marker,
			runewidth.FillRight(src.Name, nameWidth),
			src.Mode, src.Self, src.Priority)
		if res, ok := m.last[src.ID]; ok {
			line += dimStyle.Render("  " + outcomeLabel(res))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.recent) > 0 {
		b.WriteString("\n")
		for _, line := range m.recent {
			if m.width > 2 {
				line = truncate.StringWithTail(line, uint(m.width-2), "…")
			}
			b.WriteString(dimStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

func outcomeLabel(res engine.Result) string {
	switch res.Status {
	case engine.StatusStarted:
		if res.Restarted {
			return "restarted"
		}
		return "started"
	case engine.StatusNoSample, engine.StatusDropped, engine.StatusError:
		return warnStyle.Render(res.Status.String())
	default:
		return res.Status.String()
	}
}

func formatEvent(ev dispatch.Event) string {
	line := fmt.Sprintf("%s source %d %s",
		ev.At.Format("15:04:05"), ev.Result.Source, ev.Result.Status)
	if len(ev.Result.Stopped) > 0 {
		line += fmt.Sprintf(" (stopped %v)", ev.Result.Stopped)
	}
	return line
}
