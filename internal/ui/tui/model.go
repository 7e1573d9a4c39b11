package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/ui/benchmarks"
)

// maxLogLines is how many task log lines the view keeps.
const maxLogLines = 8

// StepView is one task step for display.
type StepView struct {
	Name   string
	Done   bool
	Active bool
	Failed bool
}

// Model is the Bubble Tea model for the task view.
type Model struct {
	Title string
	Kind  tasks.Kind

	Steps    []StepView
	Status   tasks.Status
	Progress int
	Logs     []string
	Message  string
	TaskErr  string

	// Step timing for the ETA.
	History            []benchmarks.StepRecord
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	SpinnerFrame int

	Width  int
	Height int
	Err    error
	Done   bool

	now func() time.Time
}

// NewTaskModel creates a model for watching one task.
func NewTaskModel(title string, kind tasks.Kind) Model {
	order := benchmarks.StepOrder(kind)
	steps := make([]StepView, len(order))
	for i, name := range order {
		steps[i] = StepView{Name: name}
	}
	return Model{
		Title:            title,
		Kind:             kind,
		Steps:            steps,
		StartTime:        time.Now(),
		PerformanceScale: 1.0,
		now:              time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case SnapshotMsg:
		if msg.NotFound {
			m.Err = fmt.Errorf("task not found")
			return m, tea.Quit
		}
		m.applySnapshot(msg.Snapshot)
		switch m.Status {
		case tasks.StatusCompleted:
			m.Done = true
			return m, tea.Quit
		case tasks.StatusFailed:
			m.Err = fmt.Errorf("%s", m.TaskErr)
			return m, tea.Quit
		}

	case TickMsg:
		m.SpinnerFrame++
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func (m *Model) applySnapshot(s tasks.Snapshot) {
	prev := m.currentStep()
	m.Status = s.Status
	m.Progress = s.Progress
	m.Message = s.Message
	m.TaskErr = s.Error
	m.Logs = tail(s.Logs, maxLogLines)

	for i := range m.Steps {
		idx := i + 1
		m.Steps[i].Done = idx < s.Step || (s.Status == tasks.StatusCompleted && idx <= s.Step)
		m.Steps[i].Active = idx == s.Step && s.Status == tasks.StatusRunning
		m.Steps[i].Failed = idx == s.Step && s.Status == tasks.StatusFailed
	}

	if cur := m.currentStep(); cur != prev {
		m.recordTransition(prev, cur)
	}
}

// currentStep returns the name of the active step, or "".
func (m *Model) currentStep() string {
	for _, s := range m.Steps {
		if s.Active {
			return s.Name
		}
	}
	return ""
}

func (m *Model) recordTransition(prev, cur string) {
	now := m.clock()
	if prev != "" {
		for i := range m.History {
			if m.History[i].Step == prev && !m.History[i].Ended() {
				m.History[i].EndedAt = now
			}
		}
	}
	if cur != "" {
		m.History = append(m.History, benchmarks.StepRecord{Step: cur, StartedAt: now})
	}
}

func (m *Model) updateETA() {
	cur := m.currentStep()
	if cur == "" {
		m.EstimatedRemaining = 0
		return
	}
	var elapsed time.Duration
	for _, rec := range m.History {
		if rec.Step == cur && !rec.Ended() {
			elapsed = m.clock().Sub(rec.StartedAt)
			break
		}
	}
	m.PerformanceScale = benchmarks.PerformanceScale(cur, elapsed, m.History)
	m.EstimatedRemaining = benchmarks.EstimateRemainingWithScale(m.Kind, cur, elapsed, m.History, m.PerformanceScale)
}

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return append([]string(nil), lines...)
	}
	return append([]string(nil), lines[len(lines)-n:]...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
