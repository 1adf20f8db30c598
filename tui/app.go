// ABOUTME: Top-level Bubble Tea AppModel for the interactive formula workbench.
// ABOUTME: Implements tea.Model (Init, Update, View) with per-keystroke validation and completion.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/galton/editor"
	"github.com/2389-research/galton/formula"
	"github.com/2389-research/galton/model"
	"github.com/2389-research/galton/suggest"
)

// AppModel is the Bubble Tea model for editing one model's formulas.
// Tab cycles through nodes, the input edits the current node's formula,
// and every keystroke re-runs validation and completion ranking.
type AppModel struct {
	session *editor.Session
	global  *editor.ContextStore

	input textinput.Model

	modelName string
	nodeIDs   []string
	nodeIdx   int
	nodeName  string
	nodeKind  model.NodeKind

	issues   []formula.Issue
	matches  []suggest.Suggestion
	selected int
	diags    int
	status   string

	width  int
	height int
}

// NewAppModel creates an AppModel over an open session. The global
// context store may be nil when no server-wide variables exist.
func NewAppModel(sess *editor.Session, global *editor.ContextStore) AppModel {
	ti := textinput.New()
	ti.Prompt = "= "
	ti.Placeholder = "formula..."
	ti.Focus()

	m := AppModel{
		session:  sess,
		global:   global,
		input:    ti,
		selected: -1,
	}

	sess.RLock()
	m.modelName = sess.Model.Name
	for _, n := range sess.Model.Nodes {
		m.nodeIDs = append(m.nodeIDs, n.ID)
	}
	sess.RUnlock()

	m.loadCurrent()
	return m
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputWidth := m.width - 8
		if inputWidth > 0 {
			m.input.Width = inputWidth
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// handleKeyMsg processes keyboard input: navigation and commit keys are
// intercepted, everything else feeds the text input.
func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.selected >= 0 {
			m.selected = -1
			return m, nil
		}
		return m, tea.Quit

	case "tab":
		m.cycleNode(1)
		return m, nil

	case "shift+tab":
		m.cycleNode(-1)
		return m, nil

	case "down", "ctrl+n":
		if len(m.matches) > 0 {
			m.selected = (m.selected + 1) % len(m.matches)
		}
		return m, nil

	case "up":
		if len(m.matches) > 0 {
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.matches) - 1
			}
		}
		return m, nil

	case "enter":
		if m.selected >= 0 && m.selected < len(m.matches) {
			m.applyCompletion(m.matches[m.selected])
			return m, nil
		}
		m.commit()
		return m, nil

	case "ctrl+z":
		if err := m.session.Undo(); err != nil {
			m.status = err.Error()
		} else {
			m.loadCurrent()
			m.status = "undone"
		}
		return m, nil

	case "ctrl+y":
		if err := m.session.Redo(); err != nil {
			m.status = err.Error()
		} else {
			m.loadCurrent()
			m.status = "redone"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refresh()
	return m, cmd
}

// View implements tea.Model. Renders the node header, the formula
// input, validation feedback, the suggestion dropdown, and a status bar.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.width < 40 || m.height < 10 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x10.", m.width, m.height)
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render("galton formula workbench"))
	b.WriteString("\n")

	if len(m.nodeIDs) == 0 {
		b.WriteString("Model has no nodes.\n")
	} else {
		b.WriteString(fmt.Sprintf("%s %s  %s\n",
			NodeNameStyle.Render(m.nodeName),
			NodeKindStyle.Render("("+string(m.nodeKind)+")"),
			NodeKindStyle.Render(fmt.Sprintf("node %d/%d", m.nodeIdx+1, len(m.nodeIDs)))))
	}

	b.WriteString(InputBoxStyle.Render(m.input.View()))
	b.WriteString("\n")

	if len(m.issues) == 0 && strings.TrimSpace(m.input.Value()) != "" {
		b.WriteString(OKStyle.Render("valid"))
		b.WriteString("\n")
	}
	for _, issue := range m.issues {
		b.WriteString(StyleForIssue(issue.Kind).Render("x " + issue.Message))
		b.WriteString("\n")
	}

	for i, sug := range m.matches {
		line := sug.Display
		if sug.Detail != "" {
			line += "  " + SuggestionDetailStyle.Render(sug.Detail)
		}
		if i == m.selected {
			b.WriteString(SelectedSuggestionStyle.Render("> " + sug.Display))
			if sug.Detail != "" {
				b.WriteString("  " + SuggestionDetailStyle.Render(sug.Detail))
			}
		} else {
			b.WriteString(SuggestionStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	statusLine := fmt.Sprintf("%s | %d nodes | %d diagnostics", m.modelName, len(m.nodeIDs), m.diags)
	if m.status != "" {
		statusLine += " | " + m.status
	}
	b.WriteString(StatusBarStyle.Render(statusLine))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("tab next node | enter save | up/down suggestions | ctrl+z undo | ctrl+y redo | esc quit"))

	return b.String()
}

// cycleNode moves to the next or previous node and reloads the input.
func (m *AppModel) cycleNode(step int) {
	if len(m.nodeIDs) == 0 {
		return
	}
	m.nodeIdx = (m.nodeIdx + step + len(m.nodeIDs)) % len(m.nodeIDs)
	m.loadCurrent()
}

// loadCurrent fills the input with the current node's display formula
// and recomputes feedback.
func (m *AppModel) loadCurrent() {
	if len(m.nodeIDs) == 0 {
		return
	}
	id := m.nodeIDs[m.nodeIdx]

	display := ""
	m.session.RLock()
	if n := m.session.Model.FindNode(id); n != nil {
		m.nodeName = n.EffectiveName()
		m.nodeKind = n.Kind
		if n.Formula != "" {
			display = formula.ToDisplay(n.Formula, m.session.Model.IDToName())
		}
	}
	m.session.RUnlock()

	m.input.SetValue(display)
	m.input.CursorEnd()
	m.refresh()
}

// refresh re-runs validation and completion ranking for the input text.
func (m *AppModel) refresh() {
	m.status = ""
	m.issues = nil
	m.matches = nil
	m.selected = -1
	if len(m.nodeIDs) == 0 {
		return
	}
	id := m.nodeIDs[m.nodeIdx]

	check, err := m.session.CheckFormula(id, m.input.Value(), m.globalKeys())
	if err != nil {
		m.status = err.Error()
		return
	}
	m.issues = check.Issues

	m.session.RLock()
	m.diags = len(m.session.Diagnostics)
	m.session.RUnlock()

	// Position is a rune index, so slice runes rather than bytes.
	runes := []rune(m.input.Value())
	cursor := m.input.Position()
	if cursor > len(runes) {
		cursor = len(runes)
	}
	q := formula.PartialToken(string(runes[:cursor]))
	if q == "" {
		return
	}

	syms, err := m.session.ScopeFor(id, m.globalKeys())
	if err != nil {
		return
	}
	candidates := append(suggest.FromSymbols(syms), suggest.FunctionCandidates()...)
	m.matches = suggest.Rank(q, candidates, suggest.CompactMaxResults)
}

// applyCompletion replaces the partial token under the cursor with the
// suggestion's insert text.
func (m *AppModel) applyCompletion(sug suggest.Suggestion) {
	runes := []rune(m.input.Value())
	cursor := m.input.Position()
	if cursor > len(runes) {
		cursor = len(runes)
	}
	partial := formula.PartialToken(string(runes[:cursor]))
	start := cursor - len([]rune(partial))

	m.input.SetValue(string(runes[:start]) + sug.Insert + string(runes[cursor:]))
	m.input.SetCursor(start + len([]rune(sug.Insert)))

	m.refresh()
	// Keep the dropdown closed after completing so the next enter commits.
	m.matches = nil
	m.selected = -1
}

// commit stores the input as the current node's formula.
func (m *AppModel) commit() {
	if len(m.nodeIDs) == 0 {
		return
	}
	id := m.nodeIDs[m.nodeIdx]

	check, err := m.session.SetFormula(id, m.input.Value(), m.globalKeys())
	if err != nil {
		m.status = err.Error()
		return
	}

	m.session.RLock()
	m.diags = len(m.session.Diagnostics)
	m.session.RUnlock()

	if len(check.Issues) > 0 {
		m.status = fmt.Sprintf("stored with %d issue(s)", len(check.Issues))
	} else {
		m.status = "stored"
	}
}

func (m *AppModel) globalKeys() []string {
	if m.global == nil {
		return nil
	}
	return m.global.Keys()
}
