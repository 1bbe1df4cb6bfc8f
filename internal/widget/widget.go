package widget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/storage"
	"github.com/nibzard/tasklist-go/internal/todo"
)

// ErrUnreadable is returned by handlers that would save over a stored value
// the widget failed to read when it was created.
var ErrUnreadable = errors.New("stored list could not be read; refusing to overwrite it")

// Widget owns the task list state and mirrors it to a store.
//
// A Widget is not safe for concurrent use. Handlers return whether the view
// must be re-rendered; a non-nil error means a persistence write failed, in
// which case the in-memory state is kept and State().Warning is set.
type Widget struct {
	store         storage.Store
	key           string
	logger        *log.Logger
	newID         func() string
	persistToggle bool
	state         State
	// readErr is set when the initial read failed, as opposed to finding no
	// value. Saves are refused while it is set.
	readErr error
}

// Option configures a Widget.
type Option func(*Widget)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *log.Logger) Option {
	return func(w *Widget) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new tasks.
func WithIDGenerator(fn func() string) Option {
	return func(w *Widget) {
		if fn != nil {
			w.newID = fn
		}
	}
}

// WithPersistToggle makes Toggle save the list like Add and Delete do.
func WithPersistToggle(enabled bool) Option {
	return func(w *Widget) {
		w.persistToggle = enabled
	}
}

// New creates a widget and loads the list stored under key.
// A missing, unreadable, or malformed value yields an empty list. When the
// store itself failed to return the value, the widget keeps working in
// memory but never writes, and State().Warning says so.
func New(store storage.Store, key string, opts ...Option) *Widget {
	w := &Widget{
		store:  store,
		key:    key,
		logger: logging.Discard(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("key", key)
	w.state.Tasks = w.load()
	return w
}

// State returns a copy of the current state.
func (w *Widget) State() State {
	return w.state.Clone()
}

// Tasks returns a copy of the current list.
func (w *Widget) Tasks() todo.List {
	return w.state.Tasks.Clone()
}

// View renders the current state.
func (w *Widget) View() View {
	return Render(w.state)
}

// SetInput updates the add field's text.
func (w *Widget) SetInput(text string) bool {
	var changed bool
	w.state, changed = w.state.SetInput(text)
	return changed
}

// Add creates a task from the input text, clears the input, and saves.
// Empty input is a no-op.
func (w *Widget) Add() (bool, error) {
	if w.state.Input == "" {
		return false, nil
	}
	next, _ := w.state.Add(w.newID())
	w.state = next
	added := next.Tasks[len(next.Tasks)-1]
	w.logger.Info("task added", "id", added.ID, "count", len(next.Tasks))
	return true, w.save()
}

// Toggle flips the completion flag of task id. It does not save unless the
// widget was created with WithPersistToggle.
func (w *Widget) Toggle(id string) (bool, error) {
	next, changed := w.state.Toggle(id)
	if !changed {
		w.logger.Debug("toggle ignored, no such task", "id", id)
		return false, nil
	}
	w.state = next
	task, _ := next.Tasks.Find(id)
	w.logger.Debug("task toggled", "id", id, "completed", task.Completed)
	if !w.persistToggle {
		return true, nil
	}
	return true, w.save()
}

// Delete removes task id and saves. Unknown ids leave the list unchanged but
// still save it.
func (w *Widget) Delete(id string) (bool, error) {
	next, removed := w.state.Delete(id)
	w.state = next
	w.logger.Info("task deleted", "id", id, "removed", removed, "count", len(next.Tasks))
	return true, w.save()
}

// KeyDown handles a key pressed in the add field. Enter with a non-empty
// input adds a task; every other key is ignored here.
func (w *Widget) KeyDown(key string) (bool, error) {
	if !strings.EqualFold(key, "enter") || w.state.Input == "" {
		return false, nil
	}
	return w.Add()
}

// Activate dispatches a click that resolved to target.
func (w *Widget) Activate(target Target) (bool, error) {
	switch target.Kind {
	case TargetRow:
		return w.Toggle(target.TaskID)
	case TargetDelete:
		return w.Delete(target.TaskID)
	case TargetAdd:
		return w.Add()
	default:
		return false, nil
	}
}

func (w *Widget) load() todo.List {
	value, ok, err := w.store.GetItem(w.key)
	if err != nil {
		w.readErr = err
		w.state.Warning = fmt.Sprintf("could not read saved tasks, changes will not be saved: %v", err)
		w.logger.Warn("read stored list, starting empty and read-only", "err", err)
		return todo.List{}
	}
	if !ok {
		w.logger.Debug("no stored list, starting empty")
		return todo.List{}
	}
	tasks, err := todo.Decode(value)
	if err != nil {
		w.logger.Warn("stored list is malformed, starting empty", "err", err)
		return todo.List{}
	}
	w.logger.Info("loaded stored list", "count", len(tasks))
	return tasks
}

func (w *Widget) save() error {
	if w.readErr != nil {
		w.state.Warning = fmt.Sprintf("not saved, the stored list could not be read: %v", w.readErr)
		w.logger.Warn("save skipped, stored list was unreadable", "err", w.readErr)
		return fmt.Errorf("save task list: %w", ErrUnreadable)
	}
	value, err := todo.Encode(w.state.Tasks)
	if err == nil {
		err = w.store.SetItem(w.key, value)
	}
	if err != nil {
		w.state.Warning = fmt.Sprintf("could not save tasks: %v", err)
		w.logger.Warn("save failed, keeping in-memory list", "err", err)
		return fmt.Errorf("save task list: %w", err)
	}
	w.state.Warning = ""
	return nil
}
