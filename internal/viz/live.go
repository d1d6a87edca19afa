package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 300
	trailCapacity   = 400
	maxSpeed        = 256
	frameInterval   = time.Second / 30
)

// planes are the projections the canvas can show, as pairs of axes.
var (
	planes     = [3][2]int{{0, 1}, {0, 2}, {1, 2}}
	planeNames = [3]string{"x-y", "x-z", "y-z"}
)

type TickMsg time.Time

// StartFunc begins a fresh run of the scenario on screen. It is called
// again on reset.
type StartFunc func() (*sim.Run, error)

// Model steps a hovering run and draws the spacecraft over the asteroid
// outline with height and distance histories beside it.
type Model struct {
	title    string
	scenario *sim.Scenario
	start    StartFunc
	run      *sim.Run
	err      error

	canvas   *Canvas
	theme    Theme
	styles   styles
	plane    int
	speed    int
	running  bool
	showHelp bool

	heights []float64
	offsets []float64
	trail   []vector.Vector3D

	params    map[string]float64
	paramKeys []string
	selected  int
}

func NewModel(title string, sc *sim.Scenario, start StartFunc) (Model, error) {
	run, err := start()
	if err != nil {
		return Model{}, err
	}
	theme := Themes[0]
	m := Model{
		title:    title,
		scenario: sc,
		start:    start,
		run:      run,
		canvas:   NewCanvas(width, height),
		theme:    theme,
		styles:   newStyles(theme),
		speed:    1,
		running:  true,
		heights:  make([]float64, 0, historyCapacity),
		offsets:  make([]float64, 0, historyCapacity),
		trail:    make([]vector.Vector3D, 0, trailCapacity),
	}
	m.loadParams()
	m.sample()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "p":
			m.plane = (m.plane + 1) % len(planes)
		case "t":
			m.theme = m.theme.next()
			m.styles = newStyles(m.theme)
		case "+", "=", "up", "k":
			m.speed = min(maxSpeed, m.speed*2)
		case "-", "_", "down", "j":
			m.speed = max(1, m.speed/2)
		case "tab":
			m.cycleParam()
		case "]":
			m.adjustParam(1.05)
		case "[":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance takes up to speed control steps.
func (m *Model) advance() {
	for i := 0; i < m.speed && !m.run.Done(); i++ {
		if err := m.run.Step(); err != nil {
			m.err = err
			m.running = false
			return
		}
		m.sample()
	}
}

func (m *Model) sample() {
	pos := m.run.State().Position()
	m.heights = push(m.heights, m.scenario.Asteroid.HeightAtPosition(pos).Norm(), historyCapacity)
	m.offsets = push(m.offsets, pos.Sub(m.scenario.Target).Norm(), historyCapacity)
	m.trail = append(m.trail, pos)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
}

func push(xs []float64, v float64, capacity int) []float64 {
	xs = append(xs, v)
	if len(xs) > capacity {
		xs = xs[1:]
	}
	return xs
}

// loadParams reads the tunable parameters of the current controller.
func (m *Model) loadParams() {
	m.params, m.paramKeys = nil, nil
	t, ok := m.run.Controller().(dynamo.Configurable)
	if !ok {
		return
	}
	m.params = t.GetParams()
	for k := range m.params {
		m.paramKeys = append(m.paramKeys, k)
	}
	sort.Strings(m.paramKeys)
	if m.selected >= len(m.paramKeys) {
		m.selected = 0
	}
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if t, ok := m.run.Controller().(dynamo.Configurable); ok {
		if err := t.SetParam(key, val); err != nil {
			m.err = err
			return
		}
	}
	m.params[key] = val
}

func (m *Model) reset() {
	run, err := m.start()
	if err != nil {
		m.err = err
		return
	}
	m.run = run
	m.err = nil
	m.heights = m.heights[:0]
	m.offsets = m.offsets[:0]
	m.trail = m.trail[:0]
	m.loadParams()
	m.sample()
}

// draw projects the asteroid outline, the trail, the target and the
// spacecraft onto the current plane.
func (m *Model) draw() {
	m.canvas.Clear()
	cw, ch := m.canvas.Dots()
	i, j := planes[m.plane][0], planes[m.plane][1]

	semi := m.scenario.Asteroid.SemiAxis()
	extent := math.Max(semi[i], semi[j])
	for _, p := range append(m.trail, m.scenario.Target) {
		extent = math.Max(extent, math.Max(math.Abs(p[i]), math.Abs(p[j])))
	}
	scale := float64(min(cw, ch)) / 2 / (1.1 * extent)
	cx, cy := cw/2, ch/2
	screen := func(p vector.Vector3D) (int, int) {
		return cx + int(p[i]*scale), cy - int(p[j]*scale)
	}

	m.canvas.DrawEllipse(cx, cy, semi[i]*scale, semi[j]*scale)
	for _, p := range m.trail {
		m.canvas.Set(screen(p))
	}
	tx, ty := screen(m.scenario.Target)
	m.canvas.DrawLine(tx-2, ty, tx+2, ty)
	m.canvas.DrawLine(tx, ty-2, tx, ty+2)
	m.canvas.Dot(screen(m.run.State().Position()))
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.bad.Render("ERROR " + m.err.Error())
	case m.run.Status() == sim.Faulted:
		return m.styles.bad.Render("FAULTED " + m.run.Record().Fault.Error())
	case m.run.Status() == sim.Completed:
		return m.styles.running.Render("COMPLETED")
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	}
	return m.styles.running.Render(fmt.Sprintf("RUNNING x%d", m.speed))
}

func (m Model) View() string {
	m.draw()
	s := m.styles
	state := m.run.State()

	var b strings.Builder
	b.WriteString(s.header.Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString(m.status() + "\n\n")

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("height (m)"))
		b.WriteString(s.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		b.WriteString(s.label.Render(label) + s.value.Render(value) + "\n")
	}
	thrust := m.run.Thrust()
	row("Time", fmt.Sprintf("%.1f s", m.run.Time()))
	row("Height", fmt.Sprintf("%.2f m", last(m.heights)))
	row("Offset", fmt.Sprintf("%.3f m", last(m.offsets)))
	row("Speed", fmt.Sprintf("%.4f m/s", state.Velocity().Norm()))
	row("Thrust", fmt.Sprintf("%.2f %.2f %.2f N", thrust[0], thrust[1], thrust[2]))
	row("Mass", fmt.Sprintf("%.3f kg", state.Mass()))
	row("Plane", planeNames[m.plane])

	initial, minimum := m.scenario.Initial.Mass(), m.scenario.MinimumMass
	fuel := 0.0
	if initial > minimum {
		fuel = (state.Mass() - minimum) / (initial - minimum)
	}
	b.WriteString(s.label.Render("Fuel") + s.ProgressBar(fuel, 20) + "\n\n")

	if len(m.paramKeys) > 0 {
		key := m.paramKeys[m.selected]
		row("Tuning", fmt.Sprintf("%s = %.4g (%d/%d)", key, m.params[key], m.selected+1, len(m.paramKeys)))
	}

	b.WriteString(s.Separator(40) + "\n")
	b.WriteString(s.help.Render("SP:Pause R:Reset Q:Quit\nP:Plane T:Theme +/-:Speed ?:Help\nTab:Param [ ]:Tune"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, s.canvas.Render(m.canvas.String()), s.panel.Render(b.String()))
	if m.showHelp {
		return s.panel.Render(helpText) + "\n" + main
	}
	return main
}

const helpText = `Space   pause or resume
R       restart the run
P       cycle projection plane
T       cycle themes
+/-     double or halve steps per frame
Tab     select controller parameter
[ ]     scale parameter by 0.95 or 1.05
?       toggle this help
Q       quit`

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

// Run shows the live view until the user quits.
func Run(title string, sc *sim.Scenario, start StartFunc) error {
	m, err := NewModel(title, sc, start)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
