// Package ui puts the task list widget on a terminal.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasklist-go/internal/widget"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	mouse     bool
	altScreen bool
}

// WithMouse enables click handling. Clicks are only tracked together with
// the alternate screen, where the layout starts at the top row.
func WithMouse(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.mouse = enabled
	}
}

// WithAltScreen controls whether the TUI takes over the whole terminal.
func WithAltScreen(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.altScreen = enabled
	}
}

func newTUIConfig(opts ...TUIOption) *tuiConfig {
	c := &tuiConfig{
		mouse:     true,
		altScreen: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// mouseEnabled reports whether mouse reporting is turned on. Inline
// rendering starts at an unknown terminal row, so hit testing would be off.
func (c *tuiConfig) mouseEnabled() bool {
	return c.mouse && c.altScreen
}

// RunTUI runs the widget until the user quits or ctx is cancelled.
func RunTUI(ctx context.Context, w *widget.Widget, opts ...TUIOption) error {
	c := newTUIConfig(opts...)

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.altScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if c.mouseEnabled() {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(NewModel(w), programOpts...)
	_, err := program.Run()
	return err
}

type focusArea int

const (
	focusInput focusArea = iota
	focusList
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	deleteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	buttonStyle  = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// Screen geometry, in cells. Mouse hit testing depends on these.
const (
	headerLines = 3 // title, underline, blank
	rowPrefix   = 6 // cursor marker (2) and checkbox "[x] " (4)
)

// Model is the bubbletea model wrapping a widget.
type Model struct {
	widget   *widget.Widget
	input    textinput.Model
	focus    focusArea
	cursor   int
	width    int
	showHelp bool
	quitting bool
}

// NewModel creates a model with the add field focused.
func NewModel(w *widget.Widget) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = widget.InputPlaceholder
	input.CharLimit = 256
	input.Width = 40
	input.SetValue(w.State().Input)
	input.Focus()
	return &Model{
		widget: w,
		input:  input,
		focus:  focusInput,
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - len(m.input.Prompt) - len(widget.AddLabel) - 4; w > 10 {
			m.input.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.focus == focusList {
			return m.updateList(msg)
		}
		return m.updateInput(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		m.submit()
		return m, nil
	case "tab", "down":
		if len(m.widget.View().Rows) > 0 {
			return m, m.focusOn(focusList)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.widget.SetInput(m.input.Value())
	return m, cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.widget.View().Rows
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(rows)-1, 0)
	case " ", "space", "enter":
		if m.cursor < len(rows) {
			m.activate(widget.RowTarget(rows[m.cursor].TaskID))
		}
	case "x", "d", "delete", "backspace":
		if m.cursor < len(rows) {
			m.activate(widget.DeleteTarget(rows[m.cursor].TaskID))
		}
	case "tab", "esc", "i", "a":
		return m, m.focusOn(focusInput)
	case "h", "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp && m.focus == focusList:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case msg.Button == tea.MouseButtonWheelDown && m.focus == focusList:
		if m.cursor < len(m.widget.View().Rows)-1 {
			m.cursor++
		}
		return m, nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	h := m.hitTest(msg.X, msg.Y)
	switch {
	case h.input:
		return m, m.focusOn(focusInput)
	case h.target.Kind == widget.TargetNone:
		return m, nil
	case h.target.Kind == widget.TargetAdd:
		m.submit()
		return m, nil
	}
	m.cursor = h.row
	m.activate(h.target)
	return m, nil
}

// submit adds the input text as a task.
func (m *Model) submit() {
	m.widget.SetInput(m.input.Value())
	if changed, _ := m.widget.KeyDown("enter"); changed {
		m.input.SetValue(m.widget.State().Input)
	}
}

// activate runs a row target and keeps the cursor on a valid row.
// Save failures surface through the widget's warning line.
func (m *Model) activate(target widget.Target) {
	_, _ = m.widget.Activate(target)
	n := len(m.widget.View().Rows)
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if n == 0 && m.focus == focusList {
		m.focusOn(focusInput)
	}
}

func (m *Model) focusOn(area focusArea) tea.Cmd {
	m.focus = area
	if area == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

// layout is the line and column map of the rendered screen.
type layout struct {
	rowTop    int
	rows      int
	inputLine int
	addCol    int
}

func (m *Model) layout(v widget.View) layout {
	l := layout{rowTop: headerLines, rows: len(v.Rows)}
	listLines := len(v.Rows)
	if listLines == 0 {
		listLines = 1 // empty list notice
	}
	l.inputLine = l.rowTop + listLines + 1
	l.addCol = lipgloss.Width(m.input.View()) + 1
	return l
}

type hit struct {
	target widget.Target
	row    int
	input  bool
}

// hitTest resolves a click to exactly one target. Inside a row the delete
// control takes precedence over the row itself.
func (m *Model) hitTest(x, y int) hit {
	v := m.widget.View()
	l := m.layout(v)

	if y >= l.rowTop && y < l.rowTop+l.rows {
		i := y - l.rowTop
		row := v.Rows[i]
		start := rowPrefix + lipgloss.Width(singleLine(row.Text)) + 1
		end := start + lipgloss.Width(row.DeleteLabel) + 2
		if x >= start && x < end {
			return hit{target: widget.DeleteTarget(row.TaskID), row: i}
		}
		return hit{target: widget.RowTarget(row.TaskID), row: i}
	}
	if y == l.inputLine {
		end := l.addCol + lipgloss.Width(v.AddLabel) + 2
		if x >= l.addCol && x < end {
			return hit{target: widget.AddTarget()}
		}
		if x < l.addCol {
			return hit{input: true}
		}
	}
	return hit{}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.widget.View()

	var b strings.Builder
	writeTitle(&b, v.Title)
	writeRows(&b, v.Rows, m.cursor, m.focus == focusList)
	b.WriteString("\n")
	b.WriteString(m.input.View() + " " + buttonStyle.Render("["+v.AddLabel+"]") + "\n")
	if v.Warning != "" {
		b.WriteString(warningStyle.Render("! "+v.Warning) + "\n")
	}
	b.WriteString("\n")
	if m.showHelp {
		writeHelp(&b)
	}
	writeFooter(&b, v, m.focus)
	return b.String()
}

func writeTitle(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)) + "\n\n")
}

func writeRows(b *strings.Builder, rows []widget.Row, cursor int, listFocused bool) {
	if len(rows) == 0 {
		b.WriteString(helpStyle.Render("  Nothing to do.") + "\n")
		return
	}
	for i, row := range rows {
		marker := "  "
		if listFocused && i == cursor {
			marker = cursorStyle.Render("> ")
		}
		box, text := "[ ] ", singleLine(row.Text)
		if row.Completed {
			box = "[x] "
			text = doneStyle.Render(text)
		}
		b.WriteString(marker + box + text + " " + deleteStyle.Render("["+row.DeleteLabel+"]") + "\n")
	}
}

// lineBreaks keeps every task on one screen line.
var lineBreaks = strings.NewReplacer("\r\n", "⏎", "\n", "⏎", "\r", "⏎", "\t", " ")

// singleLine is the text a row shows for a task.
func singleLine(text string) string {
	return lineBreaks.Replace(text)
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  enter        Add task (input) / toggle (list)\n")
	b.WriteString("  tab          Switch between input and list\n")
	b.WriteString("  up/down, k/j Move in the list\n")
	b.WriteString("  space        Toggle task\n")
	b.WriteString("  x, d, del    Delete task\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  h, ?         Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder, v widget.View, focus focusArea) {
	done := 0
	for _, row := range v.Rows {
		if row.Completed {
			done++
		}
	}
	hint := "tab for list | esc to quit"
	if focus == focusList {
		hint = "h for help | q to quit"
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d tasks, %d done | %s", len(v.Rows), done, hint)) + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
