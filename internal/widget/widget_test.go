package widget

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibzard/tasklist-go/internal/storage"
	"github.com/nibzard/tasklist-go/internal/todo"
)

const testKey = "to-do-list"

// spyStore counts writes and can be told to fail them.
type spyStore struct {
	*storage.MemoryStore
	writes    int
	failWrite error
	failRead  error
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *spyStore) GetItem(key string) (string, bool, error) {
	if s.failRead != nil {
		return "", false, s.failRead
	}
	return s.MemoryStore.GetItem(key)
}

func (s *spyStore) SetItem(key, value string) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	s.writes++
	return s.MemoryStore.SetItem(key, value)
}

func (s *spyStore) stored(t *testing.T) todo.List {
	t.Helper()
	v, ok, err := s.MemoryStore.GetItem(testKey)
	require.NoError(t, err)
	require.True(t, ok, "expected a stored value")
	l, err := todo.Decode(v)
	require.NoError(t, err)
	return l
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newWidget(t *testing.T, store storage.Store, opts ...Option) *Widget {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return New(store, testKey, opts...)
}

func addTask(t *testing.T, w *Widget, text string) {
	t.Helper()
	w.SetInput(text)
	changed, err := w.Add()
	require.NoError(t, err)
	require.True(t, changed)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(s *spyStore)
		want        todo.List
		wantWarning string
	}{
		{
			name:  "absent key",
			setup: func(s *spyStore) {},
			want:  todo.List{},
		},
		{
			name: "valid list",
			setup: func(s *spyStore) {
				s.MemoryStore.SetItem(testKey, `[{"id":"a","text":"buy milk","completed":true}]`)
			},
			want: todo.List{{ID: "a", Text: "buy milk", Completed: true}},
		},
		{
			name: "unparseable value",
			setup: func(s *spyStore) {
				s.MemoryStore.SetItem(testKey, `{broken`)
			},
			want: todo.List{},
		},
		{
			name: "schema mismatch",
			setup: func(s *spyStore) {
				s.MemoryStore.SetItem(testKey, `[{"id":"a"}]`)
			},
			want: todo.List{},
		},
		{
			name: "duplicate ids",
			setup: func(s *spyStore) {
				s.MemoryStore.SetItem(testKey, `[{"id":"a","text":"x","completed":false},{"id":"a","text":"y","completed":false}]`)
			},
			want: todo.List{},
		},
		{
			name: "read error",
			setup: func(s *spyStore) {
				s.failRead = errors.New("disk gone")
			},
			want:        todo.List{},
			wantWarning: "disk gone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newSpyStore()
			tt.setup(store)

			w := newWidget(t, store)
			assert.True(t, tt.want.Equal(w.Tasks()), "got %v", w.Tasks())
			assert.NotNil(t, w.Tasks())
			assert.Zero(t, store.writes, "loading must not write")
			if tt.wantWarning == "" {
				assert.Empty(t, w.State().Warning)
			} else {
				assert.Contains(t, w.State().Warning, tt.wantWarning)
			}
		})
	}
}

func TestIdempotentReload(t *testing.T) {
	lists := []todo.List{
		{},
		{{ID: "1", Text: "one"}},
		{{ID: "1", Text: "one", Completed: true}, {ID: "2", Text: "two"}, {ID: "3", Text: "three", Completed: true}},
	}
	for i, l := range lists {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			store := storage.NewMemoryStore()
			value, err := todo.Encode(l)
			require.NoError(t, err)
			require.NoError(t, store.SetItem(testKey, value))

			w := New(store, testKey)
			assert.True(t, l.Equal(w.Tasks()), "got %v want %v", w.Tasks(), l)
		})
	}
}

func TestAdd(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "existing")
	before := len(w.Tasks())

	w.SetInput("buy milk")
	changed, err := w.Add()
	require.NoError(t, err)
	assert.True(t, changed)

	tasks := w.Tasks()
	require.Len(t, tasks, before+1)
	last := tasks[len(tasks)-1]
	assert.Equal(t, "buy milk", last.Text)
	assert.False(t, last.Completed)
	assert.Equal(t, "id-2", last.ID)
	assert.Empty(t, w.State().Input, "input is cleared after add")

	assert.True(t, tasks.Equal(store.stored(t)), "persisted list matches memory")
	assert.Equal(t, 2, store.writes)
}

func TestAddUniqueIDs(t *testing.T) {
	w := New(storage.NewMemoryStore(), testKey)
	for i := 0; i < 20; i++ {
		addTask(t, w, fmt.Sprintf("task %d", i))
	}
	seen := map[string]bool{}
	for _, task := range w.Tasks() {
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestAddEmptyIsNoop(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "a")
	before, _, _ := store.MemoryStore.GetItem(testKey)
	writes := store.writes

	changed, err := w.Add()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, w.Tasks(), 1)
	assert.Equal(t, writes, store.writes, "no persistence write")

	after, _, _ := store.MemoryStore.GetItem(testKey)
	assert.Equal(t, before, after)
}

func TestAddEmptyKeepsIDSequence(t *testing.T) {
	w := newWidget(t, storage.NewMemoryStore())
	for i := 0; i < 3; i++ {
		changed, err := w.Add()
		require.NoError(t, err)
		require.False(t, changed)
	}
	addTask(t, w, "first")
	assert.Equal(t, "id-1", w.Tasks()[0].ID)
}

func TestAddKeepsWhitespaceText(t *testing.T) {
	w := newWidget(t, storage.NewMemoryStore())
	addTask(t, w, "  ")
	assert.Equal(t, "  ", w.Tasks()[0].Text, "only the empty string is rejected")
}

func TestDelete(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "a")
	addTask(t, w, "b")
	addTask(t, w, "c")

	changed, err := w.Delete("id-2")
	require.NoError(t, err)
	assert.True(t, changed)

	tasks := w.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, -1, tasks.Index("id-2"))
	assert.Equal(t, []string{"a", "c"}, []string{tasks[0].Text, tasks[1].Text})
	assert.True(t, tasks.Equal(store.stored(t)))
}

func TestDeleteUnknownStillPersists(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "a")
	writes := store.writes

	_, err := w.Delete("nope")
	require.NoError(t, err)
	assert.Len(t, w.Tasks(), 1)
	assert.Equal(t, writes+1, store.writes)
}

func TestToggleFlipsOnlyTarget(t *testing.T) {
	w := newWidget(t, storage.NewMemoryStore())
	addTask(t, w, "A")
	addTask(t, w, "B")

	changed, err := w.Toggle("id-1")
	require.NoError(t, err)
	assert.True(t, changed)

	tasks := w.Tasks()
	assert.True(t, tasks[0].Completed)
	assert.False(t, tasks[1].Completed)

	_, err = w.Toggle("id-1")
	require.NoError(t, err)
	assert.False(t, w.Tasks()[0].Completed)
}

func TestToggleDoesNotPersist(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "a")
	writes := store.writes

	_, err := w.Toggle("id-1")
	require.NoError(t, err)

	assert.Equal(t, writes, store.writes)
	assert.False(t, store.stored(t)[0].Completed, "stored value still shows the task open")
	assert.True(t, w.Tasks()[0].Completed)
}

func TestTogglePersistOption(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store, WithPersistToggle(true))
	addTask(t, w, "a")

	_, err := w.Toggle("id-1")
	require.NoError(t, err)
	assert.True(t, store.stored(t)[0].Completed)
}

func TestToggleUnknown(t *testing.T) {
	w := newWidget(t, storage.NewMemoryStore())
	addTask(t, w, "a")
	changed, err := w.Toggle("nope")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestKeyDown(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		key         string
		wantChanged bool
		wantLen     int
	}{
		{"enter with text", "buy milk", "enter", true, 1},
		{"Enter spelled like a DOM key", "buy milk", "Enter", true, 1},
		{"enter with empty input", "", "enter", false, 0},
		{"other key", "buy milk", "a", false, 0},
		{"tab", "buy milk", "tab", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWidget(t, storage.NewMemoryStore())
			w.SetInput(tt.input)
			changed, err := w.KeyDown(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Len(t, w.Tasks(), tt.wantLen)
		})
	}
}

func TestActivate(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "a")
	addTask(t, w, "b")

	changed, err := w.Activate(RowTarget("id-1"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, w.Tasks()[0].Completed)

	changed, err = w.Activate(DeleteTarget("id-2"))
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, w.Tasks(), 1)
	assert.True(t, w.Tasks()[0].Completed, "delete must not toggle anything")

	w.SetInput("c")
	changed, err = w.Activate(AddTarget())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, w.Tasks(), 2)

	changed, err = w.Activate(Target{})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDeleteControlDoesNotToggle(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "a")
	addTask(t, w, "b")

	_, err := w.Activate(DeleteTarget("id-1"))
	require.NoError(t, err)

	tasks := w.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "b", tasks[0].Text)
	assert.False(t, tasks[0].Completed)
}

func TestScenario(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)

	addTask(t, w, "a")
	addTask(t, w, "b")
	_, err := w.Toggle("id-1")
	require.NoError(t, err)
	_, err = w.Delete("id-2")
	require.NoError(t, err)

	want := todo.List{{ID: "id-1", Text: "a", Completed: true}}
	assert.True(t, want.Equal(w.Tasks()), "memory: %v", w.Tasks())
	assert.True(t, want.Equal(store.stored(t)), "storage: %v", store.stored(t))

	reloaded := New(store, testKey)
	assert.True(t, want.Equal(reloaded.Tasks()))
}

func TestSaveFailureKeepsState(t *testing.T) {
	store := newSpyStore()
	w := newWidget(t, store)
	addTask(t, w, "a")

	store.failWrite = errors.New("quota exceeded")
	w.SetInput("b")
	changed, err := w.Add()
	require.Error(t, err)
	assert.ErrorIs(t, err, store.failWrite)
	assert.True(t, changed, "view still needs a re-render")

	assert.Len(t, w.Tasks(), 2, "in-memory state is kept")
	assert.Empty(t, w.State().Input)
	assert.Contains(t, w.State().Warning, "quota exceeded")
	assert.Contains(t, w.View().Warning, "quota exceeded")
	assert.Len(t, store.stored(t), 1, "storage still has the last good value")

	store.failWrite = nil
	_, err = w.Delete("id-1")
	require.NoError(t, err)
	assert.Empty(t, w.State().Warning, "a successful save clears the warning")
	assert.True(t, w.Tasks().Equal(store.stored(t)))
}

func TestUnreadableStoreIsNeverOverwritten(t *testing.T) {
	store := newSpyStore()
	require.NoError(t, store.MemoryStore.SetItem(testKey, "ENC[age:someone-else]"))
	store.failRead = errors.New("decrypt failed")
	w := newWidget(t, store)
	store.failRead = nil

	w.SetInput("new")
	changed, err := w.Add()
	assert.True(t, changed)
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.Len(t, w.Tasks(), 1, "in-memory state still changes")
	assert.Contains(t, w.View().Warning, "not saved")

	_, err = w.Delete("id-1")
	assert.ErrorIs(t, err, ErrUnreadable)

	assert.Zero(t, store.writes)
	v, _, _ := store.MemoryStore.GetItem(testKey)
	assert.Equal(t, "ENC[age:someone-else]", v)
}

func TestStateIsCopied(t *testing.T) {
	w := newWidget(t, storage.NewMemoryStore())
	addTask(t, w, "a")

	s := w.State()
	s.Tasks[0].Text = "changed"
	tasks := w.Tasks()
	tasks[0].Completed = true

	assert.Equal(t, "a", w.Tasks()[0].Text)
	assert.False(t, w.Tasks()[0].Completed)
}

func TestSetInput(t *testing.T) {
	w := newWidget(t, storage.NewMemoryStore())
	assert.True(t, w.SetInput("x"))
	assert.False(t, w.SetInput("x"))
	assert.Equal(t, "x", w.View().Input.Value)
}
