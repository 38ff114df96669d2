package tui

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/gql"
	"github.com/Makepad-fr/tada/internal/model"
)

type call struct {
	op    string
	id    string
	title string
	patch gql.TodoPatch
}

// fakeService behaves like a tiny endpoint and records every call.
type fakeService struct {
	mu     sync.Mutex
	todos  []model.Todo
	nextID int
	calls  []call
	fail   error
}

func (f *fakeService) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.fail
}

func (f *fakeService) Todos(ctx context.Context) ([]model.Todo, error) {
	if err := f.record(call{op: gql.OpTodos}); err != nil {
		return nil, err
	}
	return append([]model.Todo(nil), f.todos...), nil
}

func (f *fakeService) CreateTodo(ctx context.Context, title string) (model.Todo, error) {
	if err := f.record(call{op: gql.OpCreateTodo, title: title}); err != nil {
		return model.Todo{}, err
	}
	f.nextID++
	t := model.Todo{ID: "new-" + strconv.Itoa(f.nextID), Title: title}
	f.todos = append(f.todos, t)
	return t, nil
}

func (f *fakeService) UpdateTodo(ctx context.Context, id string, patch gql.TodoPatch) (model.Todo, error) {
	if err := f.record(call{op: gql.OpUpdateTodo, id: id, patch: patch}); err != nil {
		return model.Todo{}, err
	}
	for i := range f.todos {
		if f.todos[i].ID == id {
			if patch.Title != nil {
				f.todos[i].Title = *patch.Title
			}
			if patch.Done != nil {
				f.todos[i].Done = *patch.Done
			}
			return f.todos[i], nil
		}
	}
	return model.Todo{}, errors.New("not found")
}

func (f *fakeService) DeleteTodo(ctx context.Context, id string) (string, error) {
	if err := f.record(call{op: gql.OpDeleteTodo, id: id}); err != nil {
		return "", err
	}
	for i := range f.todos {
		if f.todos[i].ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			break
		}
	}
	return id, nil
}

func (f *fakeService) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

// drain runs cmd and every command it produces, feeding the messages back
// into the model, the way the Bubble Tea runtime would.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 50, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case todosLoadedMsg, todoSavedMsg, todoDeletedMsg, errMsg:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m
}

// flatten runs cmd and any batched commands once, without feeding results back.
func flatten(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, flatten(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m, cmd
}

func loaded(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := New(context.Background(), svc)
	return drain(t, m, m.Init())
}

func TestInitLoadsTodos(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk"}, {ID: "2", Title: "Walk dog", Done: true}}}
	m := loaded(t, svc)

	assert.Equal(t, gql.OpTodos, svc.last().op)
	require.Len(t, m.list.Items(), 2)
	assert.Equal(t, listItem{ID: "2", Text: "Walk dog", Done: true}, m.list.Items()[1])
	assert.Contains(t, m.list.Title, "Total")
}

func TestCreateFormIssuesMutationAndClearsInput(t *testing.T) {
	svc := &fakeService{}
	m := loaded(t, svc)

	m, _ = send(t, m, keyRunes("a"))
	require.Equal(t, modeAdd, m.mode)
	m, _ = send(t, m, keyRunes("Buy milk"))
	assert.Equal(t, "Buy milk", m.ti.Value())

	m, cmd := send(t, m, keyEnter)
	assert.Equal(t, "", m.ti.Value())
	assert.Equal(t, modeBrowse, m.mode)
	require.NotNil(t, cmd)

	m = drain(t, m, cmd)
	got := svc.last()
	assert.Equal(t, gql.OpCreateTodo, got.op)
	assert.Equal(t, "Buy milk", got.title)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "Buy milk", m.list.Items()[0].(listItem).Text)
}

func TestCreateFormRejectsEmptyTitle(t *testing.T) {
	svc := &fakeService{}
	m := loaded(t, svc)
	calls := len(svc.calls)

	m, _ = send(t, m, keyRunes("a"), keyRunes("   "))
	m, cmd := send(t, m, keyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, modeAdd, m.mode)
	assert.NotEmpty(t, m.formErr)
	assert.Len(t, svc.calls, calls)
}

func TestCreateFormEscCancels(t *testing.T) {
	svc := &fakeService{}
	m := loaded(t, svc)

	m, _ = send(t, m, keyRunes("a"), keyRunes("draft"), keyEsc)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "", m.ti.Value())
}

func TestToggleIssuesUpdateWithInvertedDone(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk", Done: false}}}
	m := loaded(t, svc)

	m, cmd := send(t, m, keySpace)
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)

	got := svc.last()
	assert.Equal(t, gql.OpUpdateTodo, got.op)
	assert.Equal(t, "1", got.id)
	require.NotNil(t, got.patch.Done)
	assert.True(t, *got.patch.Done)
	assert.Equal(t, "Buy milk", *got.patch.Title)
	assert.True(t, m.list.Items()[0].(listItem).Done)

	m, cmd = send(t, m, keySpace)
	drain(t, m, cmd)
	assert.False(t, *svc.last().patch.Done)
}

func TestEditIssuesUpdateWithNewTitle(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk", Done: true}}}
	m := loaded(t, svc)

	m, _ = send(t, m, keyRunes("e"))
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "Buy milk", m.ti.Value())

	m.ti.SetValue("Buy oat milk")
	m, cmd := send(t, m, keyEnter)
	m = drain(t, m, cmd)

	got := svc.last()
	assert.Equal(t, gql.OpUpdateTodo, got.op)
	assert.Equal(t, "Buy oat milk", *got.patch.Title)
	assert.True(t, *got.patch.Done)
	assert.Equal(t, "Buy oat milk", m.list.Items()[0].(listItem).Text)
}

func TestDeleteRemovesOptimisticallyAndUndoRestores(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk", Done: true}, {ID: "2", Title: "Walk dog"}}}
	m := loaded(t, svc)

	m, cmd := send(t, m, keyRunes("d"))
	assert.Len(t, m.list.Items(), 1, "item leaves the list before the mutation completes")
	m = drain(t, m, cmd)
	assert.Equal(t, gql.OpDeleteTodo, svc.last().op)
	assert.Equal(t, "1", svc.last().id)

	m, cmd = send(t, m, keyRunes("u"))
	m = drain(t, m, cmd)
	require.Len(t, m.list.Items(), 2)
	restored := m.list.Items()[1].(listItem)
	assert.Equal(t, "Buy milk", restored.Text)
	assert.True(t, restored.Done)
	assert.NotEqual(t, "1", restored.ID)
}

func TestFailedMutationShowsErrorAndRefetches(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk"}}}
	m := loaded(t, svc)

	m, cmd := send(t, m, keyRunes("d"))
	assert.Empty(t, m.list.Items())

	svc.fail = errors.New("boom")
	var errSeen bool
	for _, msg := range flatten(cmd) {
		if em, ok := msg.(errMsg); ok {
			errSeen = true
			m, cmd = send(t, m, em)
		}
	}
	require.True(t, errSeen)
	assert.Error(t, m.lastErr)
	assert.Contains(t, m.View(), "boom")

	svc.fail = nil
	m = drain(t, m, cmd)
	assert.Equal(t, gql.OpTodos, svc.last().op)
	assert.Len(t, m.list.Items(), 1, "refetch restores the server view")
}

func TestQuit(t *testing.T) {
	m := loaded(t, &fakeService{})
	_, cmd := send(t, m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWindowResize(t *testing.T) {
	m := loaded(t, &fakeService{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 96, m.list.Width())
	assert.Equal(t, 35, m.list.Height())
}

func TestFailedLoadDoesNotRefetch(t *testing.T) {
	svc := &fakeService{fail: errors.New("connection refused")}
	m := New(context.Background(), svc)
	m = drain(t, m, m.Init())

	assert.Len(t, svc.calls, 1, "a failed load is reported, not retried")
	assert.Error(t, m.lastErr)
	assert.Contains(t, m.View(), "connection refused")
}

func TestFailedMutationWithUnreachableEndpointSettles(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk"}}}
	m := loaded(t, svc)

	svc.fail = errors.New("connection refused")
	m, cmd := send(t, m, keyRunes("d"))
	m = drain(t, m, cmd)

	require.Len(t, svc.calls, 3)
	assert.Equal(t, gql.OpDeleteTodo, svc.calls[1].op)
	assert.Equal(t, gql.OpTodos, svc.calls[2].op)
	assert.Error(t, m.lastErr)
}

func TestUndoAfterFailedDeleteDoesNothing(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk"}}}
	m := loaded(t, svc)

	svc.fail = errors.New("boom")
	m, cmd := send(t, m, keyRunes("d"))
	for _, msg := range flatten(cmd) {
		if em, ok := msg.(errMsg); ok {
			m, cmd = send(t, m, em)
		}
	}
	svc.fail = nil
	m = drain(t, m, cmd)
	require.Len(t, m.list.Items(), 1)
	calls := len(svc.calls)

	m, cmd = send(t, m, keyRunes("u"))
	drain(t, m, cmd)
	assert.Len(t, svc.calls, calls)
	for _, c := range svc.calls {
		assert.NotEqual(t, gql.OpCreateTodo, c.op)
	}
}

func TestRefreshClearsError(t *testing.T) {
	svc := &fakeService{todos: []model.Todo{{ID: "1", Title: "Buy milk"}}, fail: errors.New("boom")}
	m := New(context.Background(), svc)
	m = drain(t, m, m.Init())
	require.Error(t, m.lastErr)

	svc.fail = nil
	m, cmd := send(t, m, keyRunes("r"))
	m = drain(t, m, cmd)
	assert.NoError(t, m.lastErr)
	assert.NotContains(t, m.View(), "boom")
	assert.Len(t, m.list.Items(), 1)
}
