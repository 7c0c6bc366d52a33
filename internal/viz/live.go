package viz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/factorytwin/internal/optim"
)

type (
	IterationMsg optim.Iteration
	DoneMsg      struct {
		Result *optim.Result
		Err    error
	}
	tickMsg time.Time
)

// Feed carries driver iterations from the solving goroutine to the live
// view. It implements optim.Observer. Sends stop blocking once the view
// has quit.
type Feed struct {
	ch   chan tea.Msg
	quit chan struct{}
	once sync.Once
}

func NewFeed(buffer int) *Feed {
	return &Feed{
		ch:   make(chan tea.Msg, buffer),
		quit: make(chan struct{}),
	}
}

func (f *Feed) OnIteration(it optim.Iteration) { f.send(IterationMsg(it)) }

// Done delivers the final result.
func (f *Feed) Done(res *optim.Result, err error) { f.send(DoneMsg{Result: res, Err: err}) }

func (f *Feed) Stop() { f.once.Do(func() { close(f.quit) }) }

func (f *Feed) send(msg tea.Msg) {
	select {
	case f.ch <- msg:
	case <-f.quit:
	}
}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-f.ch:
			return msg
		case <-f.quit:
			return nil
		}
	}
}

// LiveModel shows solver progress while a solve runs.
type LiveModel struct {
	title     string
	budget    int
	feed      *Feed
	cancel    context.CancelFunc
	last      *optim.Iteration
	objective []float64
	rejected  int
	frame     int
	showPlot  bool
	done      *DoneMsg
	canceled  bool
}

func NewLiveModel(title string, budget int, feed *Feed, cancel context.CancelFunc) LiveModel {
	return LiveModel{
		title:    title,
		budget:   budget,
		feed:     feed,
		cancel:   cancel,
		showPlot: true,
	}
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(m.feed.wait(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			m.feed.Stop()
			return m, tea.Quit
		case "p":
			m.showPlot = !m.showPlot
		}
	case IterationMsg:
		it := optim.Iteration(msg)
		m.last = &it
		if it.Accepted {
			m.objective = append(m.objective, it.Objective)
		} else {
			m.rejected++
		}
		return m, m.feed.wait()
	case DoneMsg:
		m.done = &msg
		m.feed.Stop()
		return m, tea.Quit
	case tickMsg:
		m.frame++
		if m.done == nil {
			return m, tick()
		}
	}
	return m, nil
}

// Canceled reports whether the user quit before the solve finished.
func (m LiveModel) Canceled() bool { return m.canceled }

func (m LiveModel) View() string {
	var b strings.Builder

	state := StatusOK.Render(AnimatedSpinner(m.frame) + " solving")
	if m.done != nil {
		state = StatusOK.Render("done")
		if m.done.Err != nil {
			state = StatusFail.Render("failed: " + m.done.Err.Error())
		}
	} else if m.canceled {
		state = StatusWarn.Render("canceling")
	}
	b.WriteString(Title.Render(m.title) + "  " + state + "\n\n")

	if m.last == nil {
		b.WriteString(Subtle.Render("evaluating initial design") + "\n")
	} else {
		it := m.last
		b.WriteString(row("iteration", fmt.Sprintf("%d / %d", it.Index, m.budget)) + "\n")
		b.WriteString(ProgressBar(float64(it.Index)/float64(max(m.budget, 1)), 40) + "\n\n")
		b.WriteString(row("objective", format(it.Objective)) + "\n")
		b.WriteString(row("max violation", format(it.MaxViolation)) + "\n")
		b.WriteString(row("step norm", format(it.StepNorm)) + "\n")
		b.WriteString(row("step length", format(it.StepLength)) + "\n")
		b.WriteString(row("penalty", format(it.Penalty)) + "\n")
		b.WriteString(row("passes", fmt.Sprintf("%d", it.Passes)) + "\n")
		b.WriteString(row("rejected steps", fmt.Sprintf("%d", m.rejected)) + "\n\n")
		b.WriteString(SparklineChart(m.objective, 40) + "\n")
	}

	if m.showPlot && len(m.objective) > 1 {
		b.WriteString("\n" + asciigraph.Plot(m.objective,
			asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption("objective")) + "\n")
	}

	b.WriteString("\n" + KeyHint.Render("q: cancel  p: toggle plot"))
	return Panel.Render(b.String())
}
