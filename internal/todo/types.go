// Package todo defines the task list model and its stored encoding.
package todo

// Task represents a single entry in the to-do list.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// NewTaskWithID creates an open task with the given identifier.
func NewTaskWithID(id, text string) Task {
	return Task{ID: id, Text: text}
}

// List is an ordered sequence of tasks in insertion order.
//
// Methods never modify the receiver; mutating operations return a new list.
type List []Task

// Clone returns a copy of the list that shares no backing array with l.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Append returns a new list with task added at the end.
func (l List) Append(task Task) List {
	out := make(List, len(l), len(l)+1)
	copy(out, l)
	return append(out, task)
}

// Remove returns a new list without any task whose ID equals id.
// The second result reports how many tasks were removed.
func (l List) Remove(id string) (List, int) {
	out := make(List, 0, len(l))
	for _, task := range l {
		if task.ID == id {
			continue
		}
		out = append(out, task)
	}
	return out, len(l) - len(out)
}

// Toggle returns a new list with the completion flag of task id flipped.
// If id is not present, the list is returned unchanged and found is false.
func (l List) Toggle(id string) (List, bool) {
	idx := l.Index(id)
	if idx < 0 {
		return l, false
	}
	out := l.Clone()
	out[idx].Completed = !out[idx].Completed
	return out, true
}

// Index returns the position of task id, or -1.
func (l List) Index(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with the given ID.
func (l List) Find(id string) (Task, bool) {
	if idx := l.Index(id); idx >= 0 {
		return l[idx], true
	}
	return Task{}, false
}

// Equal reports whether both lists hold the same tasks in the same order.
// A nil list equals an empty one.
func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Counts returns the number of open and completed tasks.
func (l List) Counts() (open, done int) {
	for _, task := range l {
		if task.Completed {
			done++
		} else {
			open++
		}
	}
	return open, done
}
