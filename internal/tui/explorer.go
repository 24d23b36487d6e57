package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pairsim/internal/compute"
	"github.com/san-kum/pairsim/internal/config"
	"github.com/san-kum/pairsim/internal/experiment"
	"github.com/san-kum/pairsim/internal/params"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var familyInfo = map[string]string{
	"ewald":   "real-space screened coulomb",
	"fourier": "r^-12 plus fourier series",
	"morse":   "anharmonic bond, polydisperse",
	"lj":      "lennard-jones 12-6",
	"table":   "tabulated, linear interpolation",
}

type state int

const (
	stateMenu state = iota
	stateExplore
)

type entryKind int

const (
	kindScalar entryKind = iota
	kindElement
	kindRange
	kindCharge
	kindDiameter
)

// entry is one adjustable number. Record entries map back to a key (and
// element index for list keys); the rest drive the sampling.
type entry struct {
	name  string
	key   string
	index int
	kind  entryKind
	value float64
}

type model struct {
	state    state
	cursor   int
	reg      *experiment.Registry
	families []string

	family  *experiment.Family
	pairKey string
	base    params.Record
	entries []entry
	fixed   []string

	shift     bool
	showForce bool
	yScale    float64
	samples   []compute.Sample
	err       error

	paramCursor int
	editing     bool
	editBuf     string

	width  int
	height int
}

func NewExplorer(reg *experiment.Registry) *model {
	return &model{
		state:    stateMenu,
		reg:      reg,
		families: reg.List(),
		shift:    true,
		yScale:   1,
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == stateExplore {
			m.resample()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateExplore:
		return m.exploreKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.families)-1 {
			m.cursor++
		}
	case "enter", " ":
		if err := m.load(m.families[m.cursor]); err != nil {
			m.err = err
			return m, nil
		}
		m.state = stateExplore
		return m, tea.ClearScreen
	}
	return m, nil
}

func (m model) exploreKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%g", &val); err == nil {
				m.entries[m.paramCursor].value = val
				m.resample()
			}
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
		m.err = nil
		return m, tea.ClearScreen
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.entries)-1 {
			m.paramCursor++
		}
	case "enter":
		m.editing = true
		m.editBuf = fmt.Sprintf("%g", m.entries[m.paramCursor].value)
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "s":
		m.shift = !m.shift
		m.resample()
	case "f":
		m.showForce = !m.showForce
	case "+", "=":
		m.yScale = math.Min(m.yScale*2, 1024)
	case "-", "_":
		m.yScale = math.Max(m.yScale/2, 1.0/1024)
	}
	return m, nil
}

// nudge moves the selected entry by 5% of its magnitude, or 0.1 when it
// is zero.
func (m *model) nudge(dir float64) {
	e := &m.entries[m.paramCursor]
	step := 0.05 * math.Abs(e.value)
	if step == 0 {
		step = 0.1
	}
	e.value += dir * step
	m.resample()
}

// load seeds the explorer with the first pair of the family's first
// preset.
func (m *model) load(name string) error {
	fam, err := m.reg.Get(name)
	if err != nil {
		return err
	}
	presets := config.ListPresets(name)
	if len(presets) == 0 {
		return fmt.Errorf("no preset for family %s", name)
	}
	cfg := config.GetPreset(name, presets[0])

	keys := make([]string, 0, len(cfg.PairParams))
	for k := range cfg.PairParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	a, b, err := params.SplitPairKey(keys[0])
	if err != nil {
		return err
	}
	rcut := cfg.RCutFor(a, b)

	m.family = fam
	m.pairKey = keys[0]
	m.base = cfg.PairParams[keys[0]]
	m.entries = m.entries[:0]
	m.fixed = m.fixed[:0]
	m.paramCursor = 0
	m.yScale = 1
	m.err = nil

	recKeys := params.Record(m.base).Keys()
	for _, key := range recKeys {
		if v, err := params.Scalar(m.base, name, key); err == nil {
			m.entries = append(m.entries, entry{name: key, key: key, kind: kindScalar, value: v})
			continue
		}
		list, err := params.ScalarList(m.base, name, key)
		if err != nil || len(list) > 4 {
			m.fixed = append(m.fixed, key)
			continue
		}
		for i, v := range list {
			m.entries = append(m.entries, entry{name: fmt.Sprintf("%s[%d]", key, i), key: key, index: i, kind: kindElement, value: v})
		}
	}

	m.entries = append(m.entries,
		entry{name: "r_from", kind: kindRange, index: 0, value: 0.3 * rcut},
		entry{name: "r_cut", kind: kindRange, index: 1, value: rcut},
	)
	if fam.Capabilities.Charge {
		qi, qj := 1.0, -1.0
		if len(cfg.System.Charges) == 1 {
			qj = cfg.System.Charges[0]
			qi = qj
		}
		m.entries = append(m.entries,
			entry{name: "q_i", kind: kindCharge, index: 0, value: qi},
			entry{name: "q_j", kind: kindCharge, index: 1, value: qj},
		)
	}
	if fam.Capabilities.Diameter {
		m.entries = append(m.entries,
			entry{name: "d_i", kind: kindDiameter, index: 0, value: 1},
			entry{name: "d_j", kind: kindDiameter, index: 1, value: 1},
		)
	}
	m.resample()
	return nil
}

// record rebuilds the pair record from the base and the edited entries.
func (m *model) record() params.Record {
	rec := make(params.Record, len(m.base))
	for k, v := range m.base {
		rec[k] = v
	}
	lists := make(map[string][]float64)
	for _, e := range m.entries {
		switch e.kind {
		case kindScalar:
			rec[e.key] = e.value
		case kindElement:
			if _, ok := lists[e.key]; !ok {
				lists[e.key], _ = params.ScalarList(m.base, m.family.Name, e.key)
			}
			lists[e.key][e.index] = e.value
		}
	}
	for k, v := range lists {
		rec[k] = v
	}
	return rec
}

func (m *model) sampling() (rmin, rcut float64, attrs compute.PairAttrs) {
	attrs.Diameter = [2]float64{1, 1}
	for _, e := range m.entries {
		switch e.kind {
		case kindRange:
			if e.index == 0 {
				rmin = e.value
			} else {
				rcut = e.value
			}
		case kindCharge:
			attrs.Charge[e.index] = e.value
		case kindDiameter:
			attrs.Diameter[e.index] = e.value
		}
	}
	return rmin, rcut, attrs
}

func (m *model) plotWidth() int {
	w := m.width - 14
	if w < 40 {
		w = 40
	}
	return w
}

func (m *model) resample() {
	if m.family == nil {
		return
	}
	rmin, rcut, attrs := m.sampling()
	if rcut <= rmin {
		m.samples = nil
		m.err = fmt.Errorf("r_cut must exceed r_from")
		return
	}
	m.samples, m.err = m.family.Curve(m.record(), rmin, rcut, m.plotWidth(), m.shift, attrs)
}

// yLimit picks a clipping window around the interesting part of the
// curve: three times the well depth, or the energy halfway out when the
// curve is purely repulsive.
func (m model) yLimit() float64 {
	well := 0.0
	for _, s := range m.samples {
		if s.OK {
			well = math.Min(well, s.Energy)
		}
	}
	lim := 3 * math.Abs(well)
	if lim == 0 && len(m.samples) > 0 {
		lim = 2 * math.Abs(m.samples[len(m.samples)/2].Energy)
	}
	if lim == 0 || math.IsNaN(lim) || math.IsInf(lim, 0) {
		lim = 1
	}
	return lim * m.yScale
}

func (m model) series() (energy, force []float64) {
	lim := m.yLimit()
	clip := func(v float64) float64 { return math.Max(-lim, math.Min(lim, v)) }
	energy = make([]float64, len(m.samples))
	force = make([]float64, len(m.samples))
	for i, s := range m.samples {
		if !s.OK {
			continue
		}
		energy[i] = clip(s.Energy)
		force[i] = clip(s.Force)
	}
	return energy, force
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateExplore:
		return m.viewExplore()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("p a i r s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.families {
		desc := familyInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dimmer.Render(desc) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter explore   q quit") + "\n")
	return b.String()
}

func (m model) viewExplore() string {
	var b strings.Builder

	shift := dim.Render("unshifted")
	if m.shift {
		shift = yellow.Render("shifted")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n", cyan.Render("●"), cyan.Render(m.family.Name), dim.Render(m.pairKey), shift))
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 40)) + "\n")

	for i, e := range m.entries {
		val := fmt.Sprintf("%10.4g", e.value)
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("   " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-8s", e.name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("     " + dim.Render(fmt.Sprintf("%-8s", e.name)) + dim.Render(val) + "\n")
		}
	}
	for _, key := range m.fixed {
		b.WriteString("     " + dimmer.Render(fmt.Sprintf("%-8s %10s", key, "(fixed)")) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	case len(m.samples) < 2:
		b.WriteString("   " + dim.Render("no samples") + "\n")
	default:
		b.WriteString(m.plot() + "\n")
	}

	b.WriteString("\n" + dim.Render("   ↑↓ select  ←→ adjust  enter edit  s shift  f force  ±zoom  q back") + "\n")
	return b.String()
}

func (m model) plot() string {
	energy, force := m.series()
	h := m.height - len(m.entries) - 12
	if h < 8 {
		h = 8
	}
	rmin, rcut, _ := m.sampling()
	caption := fmt.Sprintf("U(r), r in [%.3g, %.3g), |y| <= %.3g", rmin, rcut, m.yLimit())
	if m.showForce {
		return asciigraph.PlotMany([][]float64{energy, force},
			asciigraph.Height(h),
			asciigraph.Width(m.plotWidth()),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
			asciigraph.Caption(caption+"  green U, yellow F"))
	}
	return asciigraph.Plot(energy,
		asciigraph.Height(h),
		asciigraph.Width(m.plotWidth()),
		asciigraph.Caption(caption))
}

// Run opens the explorer. A non-empty family skips the menu.
func Run(reg *experiment.Registry, family string) error {
	m := NewExplorer(reg)
	if family != "" {
		if err := m.load(family); err != nil {
			return err
		}
		m.state = stateExplore
		for i, name := range m.families {
			if name == family {
				m.cursor = i
			}
		}
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
