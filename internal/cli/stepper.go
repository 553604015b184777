package cli

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iamoneai/laneflow/pkg/engine"
	"github.com/iamoneai/laneflow/pkg/flow"
)

// Stepper styles
var (
	stepPendingStyle   = lipgloss.NewStyle().Foreground(colorGray)
	stepRunningStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	stepCompletedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	stepErrorStyle     = lipgloss.NewStyle().Foreground(colorRed)
	stepSkippedStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// runStepped drives a run one node per keypress through a bubbletea
// program. Returns the finalized result even when the user stops early.
func (c *CLI) runStepped(ctx context.Context, eng *engine.Engine, doc *flow.Document, input map[string]any, mode engine.Mode) (*engine.Result, error) {
	run, err := eng.NewRun(doc, input, engine.Options{Mode: mode})
	if err != nil {
		return nil, err
	}

	model := newStepModel(ctx, doc, run)
	prog := tea.NewProgram(model)
	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(stepModel); ok && m.stopped {
		run.Stop()
		run.Step(ctx)
	}
	return run.Result(), nil
}

// stepMsg signals that one Step call finished.
type stepMsg struct{ more bool }

// stepModel is the bubbletea model for interactive step-through runs.
type stepModel struct {
	ctx   context.Context
	run   *engine.Run
	order []string          // display order: node ids
	names map[string]string // node id -> display name

	finished bool
	stopped  bool
	stepping bool
}

func newStepModel(ctx context.Context, doc *flow.Document, run *engine.Run) stepModel {
	m := stepModel{
		ctx:   ctx,
		run:   run,
		names: make(map[string]string),
	}
	for _, n := range doc.Nodes() {
		m.order = append(m.order, n.ID)
		name := n.Name
		if name == "" {
			name = n.ID
		}
		m.names[n.ID] = name
	}
	return m
}

func (m stepModel) Init() tea.Cmd {
	return nil
}

func (m stepModel) step() tea.Cmd {
	return func() tea.Msg {
		return stepMsg{more: m.run.Step(m.ctx)}
	}
}

func (m stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.finished {
				m.stopped = true
			}
			return m, tea.Quit
		case " ", "enter":
			if m.finished {
				return m, tea.Quit
			}
			if m.stepping {
				return m, nil
			}
			m.stepping = true
			return m, m.step()
		default:
			if m.finished {
				return m, tea.Quit
			}
		}
	case stepMsg:
		m.stepping = false
		if !msg.more {
			m.finished = true
		}
		return m, nil
	}
	return m, nil
}

func (m stepModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Step Execution"))
	b.WriteString("\n")
	if m.finished {
		b.WriteString(StyleDim.Render("finished · any key to exit"))
	} else {
		b.WriteString(StyleDim.Render("space/⏎ step · q stop"))
	}
	b.WriteString("\n\n")

	for _, id := range m.order {
		state := m.run.StateOf(id)
		line := m.names[id]
		switch state {
		case engine.StateRunning, engine.StatePending:
			line = stepRunningStyle.Render("▸ " + line + " …")
		case engine.StateCompleted:
			line = stepCompletedStyle.Render(iconSuccess+" ") + line
		case engine.StateError:
			line = stepErrorStyle.Render(iconError+" ") + line
		case engine.StateSkipped:
			line = stepSkippedStyle.Render("- " + line + " (skipped)")
		default:
			line = stepPendingStyle.Render("· " + line)
		}
		b.WriteString("  " + line + "\n")
	}

	return b.String()
}
