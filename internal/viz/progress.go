package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg reports that done of total simulations have finished.
type ProgressMsg struct {
	Done  int
	Total int
}

// FinishedMsg ends the progress display. Err is the run's result.
type FinishedMsg struct {
	Err error
}

// Progress is a Bubble Tea model showing how far a run has got.
type Progress struct {
	title     string
	done      int
	total     int
	frame     int
	started   time.Time
	elapsed   time.Duration
	finished  bool
	cancelled bool
	err       error
	now       func() time.Time
}

func NewProgress(title string, total int) Progress {
	return Progress{title: title, total: total, started: time.Now(), now: time.Now}
}

func (m Progress) Init() tea.Cmd { return nil }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.done = msg.Done
		if msg.Total > 0 {
			m.total = msg.Total
		}
		m.frame++
		m.elapsed = m.now().Sub(m.started)
	case FinishedMsg:
		m.finished = true
		m.err = msg.Err
		m.elapsed = m.now().Sub(m.started)
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Progress) View() string {
	fraction := 0.0
	if m.total > 0 {
		fraction = float64(m.done) / float64(m.total)
	}

	var b strings.Builder
	switch {
	case m.finished && m.err != nil:
		b.WriteString(StatusFail.Render("✗ "))
	case m.finished:
		b.WriteString(StatusOK.Render("✓ "))
	default:
		b.WriteString(Title.Render(Spinner(m.frame) + " "))
	}
	b.WriteString(Title.Render(m.title))
	b.WriteString("  ")
	b.WriteString(ProgressBar(fraction, 30))
	b.WriteString(fmt.Sprintf("  %d/%d", m.done, m.total))
	b.WriteString(Subtle.Render(fmt.Sprintf("  %s", m.elapsed.Round(time.Millisecond))))
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(StatusFail.Render(m.err.Error()))
	}
	b.WriteString("\n")
	return b.String()
}

// Cancelled reports whether the user quit before the run finished.
func (m Progress) Cancelled() bool { return m.cancelled }

func (m Progress) Done() int { return m.done }
