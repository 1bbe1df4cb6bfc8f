package widget

import "strings"

// Fixed labels of the widget surface.
const (
	Title            = "To do list"
	InputPlaceholder = "Add a new task"
	AddLabel         = "Add"
	DeleteLabel      = "X"
)

// View is the visual tree produced by Render.
type View struct {
	Title    string
	Rows     []Row
	Input    InputView
	AddLabel string
	Warning  string
}

// Row is one rendered task.
type Row struct {
	TaskID      string
	Text        string
	Completed   bool
	DeleteLabel string
}

// InputView is the rendered add field.
type InputView struct {
	Value       string
	Placeholder string
}

// TargetKind identifies a clickable part of the view.
type TargetKind int

const (
	TargetNone TargetKind = iota
	// TargetRow is a task row outside its delete control; it toggles.
	TargetRow
	// TargetDelete is a row's delete control; it deletes and never toggles.
	TargetDelete
	// TargetAdd is the add button.
	TargetAdd
)

func (k TargetKind) String() string {
	switch k {
	case TargetRow:
		return "row"
	case TargetDelete:
		return "delete"
	case TargetAdd:
		return "add"
	default:
		return "none"
	}
}

// Target is the single region an activation resolved to.
type Target struct {
	Kind   TargetKind
	TaskID string
}

// RowTarget returns the toggle target of a task row.
func RowTarget(id string) Target {
	return Target{Kind: TargetRow, TaskID: id}
}

// DeleteTarget returns the delete target of a task row.
func DeleteTarget(id string) Target {
	return Target{Kind: TargetDelete, TaskID: id}
}

// AddTarget returns the add button target.
func AddTarget() Target {
	return Target{Kind: TargetAdd}
}

// Render projects state onto a view. It has no side effects.
func Render(s State) View {
	rows := make([]Row, len(s.Tasks))
	for i, task := range s.Tasks {
		rows[i] = Row{
			TaskID:      task.ID,
			Text:        task.Text,
			Completed:   task.Completed,
			DeleteLabel: DeleteLabel,
		}
	}
	return View{
		Title: Title,
		Rows:  rows,
		Input: InputView{
			Value:       s.Input,
			Placeholder: InputPlaceholder,
		},
		AddLabel: AddLabel,
		Warning:  s.Warning,
	}
}

// String renders the view as plain text, one element per line.
func (v View) String() string {
	var b strings.Builder
	b.WriteString(v.Title + "\n")
	for _, row := range v.Rows {
		mark := " "
		if row.Completed {
			mark = "x"
		}
		b.WriteString("[" + mark + "] " + row.Text + " [" + row.DeleteLabel + "]\n")
	}
	if v.Input.Value != "" {
		b.WriteString("> " + v.Input.Value)
	} else {
		b.WriteString("> " + v.Input.Placeholder)
	}
	b.WriteString(" [" + v.AddLabel + "]\n")
	if v.Warning != "" {
		b.WriteString("! " + v.Warning + "\n")
	}
	return b.String()
}
