// Package tui provides a live terminal view of a closed-loop tracking run.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"mpctrack/internal/integrators"
	"mpctrack/internal/model"
	"mpctrack/internal/tracker"
	"mpctrack/internal/traj"
)

const (
	canvasW        = 72
	canvasH        = 18
	historyEntries = 400
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type tickMsg time.Time

// Model steps the controller against the plant on every tick and renders the
// path, the vehicle, and the cross-track error history.
type Model struct {
	ctrl    *tracker.Controller
	plant   *model.Bicycle
	stepper *integrators.RK4
	path    traj.Trajectory

	state    [model.StateDim]float64
	dt       float64
	t        float64
	cycles   int
	running  bool
	failed   error
	errHist  []float64
	lastCmd  tracker.Command
	finished bool
}

func NewModel(ctrl *tracker.Controller, plant *model.Bicycle, path traj.Trajectory, dt float64) *Model {
	m := &Model{
		ctrl:    ctrl,
		plant:   plant,
		stepper: integrators.NewRK4(),
		path:    path,
		dt:      dt,
		running: true,
		errHist: make([]float64, 0, historyEntries),
	}
	if len(path.Points) > 0 {
		p := path.Points[0]
		m.state = [model.StateDim]float64{p.X, p.Y, p.Heading.Angle(), p.Velocity}
	}
	return m
}

func (m *Model) Init() tea.Cmd { return m.tick() }

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case tickMsg:
		if m.running && m.failed == nil && !m.finished {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	if len(m.path.Points) == 0 {
		m.finished = true
		return
	}
	cmd, err := m.ctrl.Cycle(m.state[:])
	if err != nil {
		m.failed = err
		return
	}
	m.lastCmd = cmd
	u := [model.ControlDim]float64{cmd.Accel, cmd.Steer}
	m.stepper.Step(m.plant, m.state[:], m.state[:], u[:], m.dt)
	m.t += m.dt
	m.cycles++

	ct := m.ctrl.CrossTrackError(m.state[0], m.state[1])
	m.errHist = append(m.errHist, ct)
	if len(m.errHist) > historyEntries {
		m.errHist = m.errHist[1:]
	}

	last := m.path.Points[len(m.path.Points)-1]
	if math.Hypot(m.state[0]-last.X, m.state[1]-last.Y) < 0.5 && math.Abs(m.state[3]) < 0.2 {
		m.finished = true
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("mpctrack live"))
	b.WriteByte('\n')
	b.WriteString(m.renderCanvas())
	b.WriteByte('\n')

	status := "running"
	if !m.running {
		status = "paused"
	}
	if m.finished {
		status = "done"
	}
	b.WriteString(statsStyle.Render(fmt.Sprintf(
		"t=%6.1fs cycles=%5d  pos=(%7.2f,%7.2f) v=%5.2f m/s  accel=%+5.2f steer=%+5.3f  [%s]",
		m.t, m.cycles, m.state[0], m.state[1], m.state[3], m.lastCmd.Accel, m.lastCmd.Steer, status)))
	b.WriteByte('\n')

	if m.failed != nil {
		b.WriteString(errorStyle.Render("error: " + m.failed.Error()))
		b.WriteByte('\n')
	} else if len(m.errHist) > 1 {
		b.WriteString(asciigraph.Plot(m.errHist,
			asciigraph.Height(6), asciigraph.Width(canvasW),
			asciigraph.Caption("cross-track error [m]")))
		b.WriteByte('\n')
	}

	b.WriteString(helpStyle.Render("space pause/resume · q quit"))
	return b.String()
}

func (m *Model) renderCanvas() string {
	canvas := make([][]rune, canvasH)
	for i := range canvas {
		canvas[i] = make([]rune, canvasW)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	minX, maxX, minY, maxY := m.bounds()
	put := func(x, y float64, c rune) {
		cx := int((x - minX) / (maxX - minX) * float64(canvasW-1))
		cy := canvasH - 1 - int((y-minY)/(maxY-minY)*float64(canvasH-1))
		if cx >= 0 && cx < canvasW && cy >= 0 && cy < canvasH {
			canvas[cy][cx] = c
		}
	}

	for _, p := range m.path.Points {
		put(p.X, p.Y, '·')
	}
	put(m.state[0], m.state[1], '█')

	var b strings.Builder
	for _, row := range canvas {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = m.state[0], m.state[0]
	minY, maxY = m.state[1], m.state[1]
	for _, p := range m.path.Points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	// Pad degenerate spans so projection never divides by zero.
	if maxX-minX < 1 {
		minX, maxX = minX-0.5, maxX+0.5
	}
	if maxY-minY < 1 {
		minY, maxY = minY-0.5, maxY+0.5
	}
	return
}

// Run starts the live view and blocks until the user quits.
func Run(ctrl *tracker.Controller, plant *model.Bicycle, path traj.Trajectory, dt float64) error {
	_, err := tea.NewProgram(NewModel(ctrl, plant, path, dt)).Run()
	return err
}
