package tui

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/higgsanim/internal/anim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const (
	barWidth     = 40
	historyWidth = 60
)

var sparks = []rune("▁▂▃▄▅▆▇█")

type frameMsg struct {
	index int
	scan  float64
	peak  float64
	ymax  float64
}

type doneMsg struct{ err error }

type model struct {
	title   string
	total   int
	current int
	scan    float64
	peak    float64
	ymax    float64
	history []float64
	started time.Time
	err     error
	done    bool
	cancel  context.CancelFunc
}

func newModel(title string, total int, cancel context.CancelFunc) model {
	return model{
		title:   title,
		total:   total,
		history: make([]float64, 0, historyWidth),
		started: time.Now(),
		cancel:  cancel,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			return m, tea.Quit
		}
	case frameMsg:
		m.current = msg.index + 1
		m.scan = msg.scan
		m.peak = msg.peak
		m.ymax = msg.ymax
		ratio := 0.0
		if msg.ymax > 0 {
			ratio = msg.peak / msg.ymax
		}
		m.history = append(m.history, ratio)
		if len(m.history) > historyWidth {
			m.history = m.history[1:]
		}
	case doneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(cyan.Bold(true).Render(m.title))
	b.WriteString("\n\n")

	filled := 0
	if m.total > 0 {
		filled = barWidth * m.current / m.total
	}
	b.WriteString(green.Render(strings.Repeat("█", filled)))
	b.WriteString(dim.Render(strings.Repeat("░", barWidth-filled)))
	b.WriteString(white.Render(fmt.Sprintf(" %d/%d", m.current, m.total)))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s   %s %s\n",
		dim.Render("m_A"), white.Render(fmt.Sprintf("%.2f GeV", m.scan)),
		dim.Render("peak"), white.Render(fmt.Sprintf("%.4g / %.4g", m.peak, m.ymax)))
	b.WriteString(magenta.Render(sparkline(m.history)))
	b.WriteString("\n")

	elapsed := time.Since(m.started).Round(time.Millisecond)
	switch {
	case m.err != nil:
		b.WriteString(yellow.Render("failed: " + m.err.Error()))
	case m.done:
		b.WriteString(green.Render(fmt.Sprintf("done in %v", elapsed)))
	default:
		b.WriteString(dim.Render(fmt.Sprintf("%v  q to cancel", elapsed)))
	}
	b.WriteString("\n")
	return b.String()
}

// sparkline maps ratios in [0, 1] onto block characters.
func sparkline(values []float64) string {
	out := make([]rune, len(values))
	for i, v := range values {
		k := int(v * float64(len(sparks)-1))
		if k < 0 {
			k = 0
		}
		if k >= len(sparks) {
			k = len(sparks) - 1
		}
		out[i] = sparks[k]
	}
	return string(out)
}

// Progress shows a live progress view while a driver renders. It is an
// anim.Observer; cancel is called when the user quits.
type Progress struct {
	program *tea.Program
	exited  chan struct{}
}

func NewProgress(title string, total int, out io.Writer, cancel context.CancelFunc) *Progress {
	p := &Progress{exited: make(chan struct{})}
	p.program = tea.NewProgram(newModel(title, total, cancel), tea.WithOutput(out))
	return p
}

// Start runs the view in the background.
func (p *Progress) Start() {
	go func() {
		defer close(p.exited)
		p.program.Run()
	}()
}

func (p *Progress) OnFrame(f *anim.Frame, _ image.Image) error {
	p.program.Send(frameMsg{index: f.Index, scan: f.ScanValue, peak: f.Peak(), ymax: f.YMax})
	return nil
}

// Finish shows the outcome and waits for the view to exit.
func (p *Progress) Finish(err error) {
	p.program.Send(doneMsg{err: err})
	<-p.exited
}
