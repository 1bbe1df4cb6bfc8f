// Package widget implements the to-do list widget without any terminal.
//
// State is an explicit value. Reducers on State are pure and return the next
// state plus a flag telling the caller whether anything changed and a
// re-render is due. Widget layers persistence and logging on top of them.
package widget

import (
	"github.com/nibzard/tasklist-go/internal/todo"
)

// State is everything the widget renders from.
type State struct {
	// Tasks in insertion order.
	Tasks todo.List
	// Input is the current text of the add field.
	Input string
	// Warning is the last non-fatal persistence problem, cleared by the next
	// successful save.
	Warning string
}

// Clone returns a copy that shares no task storage with s.
func (s State) Clone() State {
	s.Tasks = s.Tasks.Clone()
	return s
}

// SetInput replaces the add field's text.
func (s State) SetInput(text string) (State, bool) {
	if s.Input == text {
		return s, false
	}
	s.Input = text
	return s, true
}

// Add appends a task built from the input text and clears the input.
// An empty input leaves the state untouched.
func (s State) Add(id string) (State, bool) {
	if s.Input == "" {
		return s, false
	}
	s.Tasks = s.Tasks.Append(todo.NewTaskWithID(id, s.Input))
	s.Input = ""
	return s, true
}

// Toggle flips the completion flag of task id.
func (s State) Toggle(id string) (State, bool) {
	tasks, found := s.Tasks.Toggle(id)
	if !found {
		return s, false
	}
	s.Tasks = tasks
	return s, true
}

// Delete removes every task with the given id. The list is always replaced,
// so the result reports a change even when nothing matched.
func (s State) Delete(id string) (State, int) {
	tasks, removed := s.Tasks.Remove(id)
	s.Tasks = tasks
	return s, removed
}
