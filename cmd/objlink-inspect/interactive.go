package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/bridge"
	"github.com/objlink/objlink/object"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F87AF")).
			Padding(0, 1)

	memberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F87AF"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectClass modelState = iota
	stateSelectMember
	stateInputArgs
	stateShowResult
)

type memberInfo struct {
	name       string
	candidates []*object.Method
	value      any
}

func (mi memberInfo) callable() bool { return mi.candidates != nil }

type inspectModel struct {
	b       *bridge.Bridge
	err     error
	width   int
	result  string
	classes []string
	class   *object.Class
	members []memberInfo
	inputs  []textinput.Model
	selClass  int
	selMember int
	focusIdx  int
	state     modelState
}

type callResultMsg struct {
	err    error
	result string
}

func newInspectModel(b *bridge.Bridge, width int) *inspectModel {
	return &inspectModel{
		b:       b,
		width:   width,
		classes: b.Registry().Names(),
		state:   stateSelectClass,
	}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateInputArgs || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "up", "k":
			m.moveCursor(-1)

		case "down", "j":
			m.moveCursor(1)

		case "enter":
			switch m.state {
			case stateSelectClass:
				m.enterClass()

			case stateSelectMember:
				mi := m.members[m.selMember]
				if !mi.callable() {
					m.result = fmt.Sprintf("%v", mi.value)
					m.state = stateShowResult
					break
				}
				m.prepareInputs(mi)
				if len(m.inputs) == 0 {
					return m, m.callMember
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callMember

			case stateShowResult:
				m.state = stateSelectMember
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateSelectMember:
				m.state = stateSelectClass
				m.class = nil
				m.members = nil
			case stateInputArgs:
				m.state = stateSelectMember
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectMember
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *inspectModel) moveCursor(delta int) {
	switch m.state {
	case stateSelectClass:
		m.selClass = clamp(m.selClass+delta, len(m.classes))
	case stateSelectMember:
		m.selMember = clamp(m.selMember+delta, len(m.members))
	}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (m *inspectModel) enterClass() {
	if len(m.classes) == 0 {
		return
	}
	cls, ok := m.b.Registry().Lookup(m.classes[m.selClass])
	if !ok {
		return
	}
	m.class = cls
	m.members = nil
	m.selMember = 0

	if len(cls.Constructors()) > 0 {
		m.members = append(m.members, memberInfo{
			name:       object.ConstructorName,
			candidates: cls.Constructors(),
		})
	}
	for _, name := range cls.MemberNames() {
		switch mem := cls.Resolve(name).(type) {
		case object.Field:
			m.members = append(m.members, memberInfo{name: name, value: mem.Value})
		case object.MethodCandidates:
			// Instance methods need a receiver; only static sets are
			// callable from the class browser.
			if len(mem.Methods) > 0 {
				m.members = append(m.members, memberInfo{name: name, candidates: mem.Methods})
			}
		}
	}
	m.state = stateSelectMember
}

// prepareInputs builds one text input per parameter of the first
// candidate, which is also the one linear-scan dispatch tries first.
func (m *inspectModel) prepareInputs(mi memberInfo) {
	if len(mi.candidates) == 0 {
		m.inputs = nil
		return
	}
	params := mi.candidates[0].Params()
	m.inputs = make([]textinput.Model, len(params))
	for i, p := range params {
		ti := textinput.New()
		ti.Placeholder = p.String()
		ti.Prompt = fmt.Sprintf("arg%d: ", i+1)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *inspectModel) callMember() tea.Msg {
	mi := m.members[m.selMember]

	raw := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		raw[i] = input.Value()
	}
	args := parseArgs(strings.Join(raw, ","))

	var (
		result any
		err    error
	)
	if mi.name == object.ConstructorName {
		result, err = m.b.NewInstance(m.b.Main(), m.class, args...)
	} else {
		var cb objlink.Callable
		cb, err = m.b.Method(m.class, mi.name, "")
		if err == nil {
			result, err = cb(args...)
		}
	}
	if err != nil {
		if thrown := m.b.Catched(); thrown != nil {
			return callResultMsg{err: fmt.Errorf("%v (host throwable: %v)", err, thrown)}
		}
		return callResultMsg{err: err}
	}
	return callResultMsg{result: fmt.Sprintf("%v", m.b.ToScriptValue(result))}
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Object Link Inspector"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectClass:
		b.WriteString("Select a class:\n\n")
		for i, name := range m.classes {
			if i == m.selClass {
				b.WriteString(selectedStyle.Render("> " + name))
			} else {
				b.WriteString("  " + name)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("up/down select, enter open, q quit"))

	case stateSelectMember:
		b.WriteString(fmt.Sprintf("Class %s\n\n", memberStyle.Render(m.class.Name())))
		for i, mi := range m.members {
			line := m.formatMember(mi)
			if i == m.selMember {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter call/read, esc back, q quit"))

	case stateInputArgs:
		mi := m.members[m.selMember]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", memberStyle.Render(mi.name)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field, enter call, esc back"))

	case stateShowResult:
		mi := m.members[m.selMember]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", memberStyle.Render(mi.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue, q quit"))
	}

	out := b.String()
	if m.width > 0 {
		out = lipgloss.NewStyle().MaxWidth(m.width).Render(out)
	}
	return out
}

func (m *inspectModel) formatMember(mi memberInfo) string {
	if !mi.callable() {
		return mi.name + " = " + typeStyle.Render(fmt.Sprintf("%v", mi.value))
	}
	sigs := make([]string, len(mi.candidates))
	for i, c := range mi.candidates {
		sigs[i] = "(" + c.Signature() + ")"
	}
	return memberStyle.Render(mi.name) + typeStyle.Render(strings.Join(sigs, " | "))
}

func runInteractive(b *bridge.Bridge) error {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	p := tea.NewProgram(newInspectModel(b, width), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
