package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada/internal/cache"
	"github.com/Makepad-fr/tada/internal/gql"
	"github.com/Makepad-fr/tada/internal/model"
)

// Service is the subset of the GraphQL client the UI talks to.
type Service interface {
	Todos(ctx context.Context) ([]model.Todo, error)
	CreateTodo(ctx context.Context, title string) (model.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch gql.TodoPatch) (model.Todo, error)
	DeleteTodo(ctx context.Context, id string) (string, error)
}

// Network completions.
type (
	// resync marks the reload that follows a failed mutation.
	todosLoadedMsg struct {
		todos  []model.Todo
		resync bool
	}
	todoSavedMsg   struct{ todo model.Todo }
	todoDeletedMsg struct{ todo model.Todo }
	errMsg         struct {
		op  string
		err error
	}
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// listItem adapts a Todo to bubbles/list.Item
type listItem struct {
	ID   string
	Text string
	Done bool
}

func (i listItem) Title() string       { return i.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// single-line rows
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := mutedStyle.Render(boxUnchecked)
	text := it.Text
	if it.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

// Model is the Bubble Tea model for the interactive todo list.
// Every change goes through a mutation; the list only mirrors the cache.
type Model struct {
	ctx   context.Context
	svc   Service
	store *cache.Store

	list list.Model
	ti   textinput.Model // shared by the add and edit forms

	mode    mode
	editID  string
	formErr string

	status  string
	lastErr error

	// single-level undo, armed once the endpoint confirms a delete
	deleted *model.Todo

	width, height int
}

func New(ctx context.Context, svc Service) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings[:3] }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New todo title..."
	ti.CharLimit = 200

	m := Model{
		ctx:    ctx,
		svc:    svc,
		store:  cache.New(),
		list:   l,
		ti:     ti,
		status: "loading...",
	}
	m.list.Title = m.header()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, svc Service) error {
	p := tea.NewProgram(New(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return m.loadCmd(false) }

// -------------- commands ----------------

func (m Model) loadCmd(resync bool) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		todos, err := svc.Todos(ctx)
		if err != nil {
			return errMsg{gql.OpTodos, err}
		}
		return todosLoadedMsg{todos, resync}
	}
}

func (m Model) createCmd(title string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		t, err := svc.CreateTodo(ctx, title)
		if err != nil {
			return errMsg{gql.OpCreateTodo, err}
		}
		return todoSavedMsg{t}
	}
}

func (m Model) updateCmd(id string, patch gql.TodoPatch) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		t, err := svc.UpdateTodo(ctx, id, patch)
		if err != nil {
			return errMsg{gql.OpUpdateTodo, err}
		}
		return todoSavedMsg{t}
	}
}

func (m Model) deleteCmd(t model.Todo) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		if _, err := svc.DeleteTodo(ctx, t.ID); err != nil {
			return errMsg{gql.OpDeleteTodo, err}
		}
		return todoDeletedMsg{t}
	}
}

// restoreCmd re-creates a deleted todo. The endpoint assigns a new ID.
func (m Model) restoreCmd(t model.Todo) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		created, err := svc.CreateTodo(ctx, t.Title)
		if err != nil {
			return errMsg{gql.OpCreateTodo, err}
		}
		if t.Done {
			created, err = svc.UpdateTodo(ctx, created.ID, gql.TodoPatch{Done: gql.Bool(true)})
			if err != nil {
				return errMsg{gql.OpUpdateTodo, err}
			}
		}
		return todoSavedMsg{created}
	}
}

// -------------- update ----------------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case todosLoadedMsg:
		m.store.Replace(msg.todos)
		m.status = fmt.Sprintf("loaded %d todos", len(msg.todos))
		// a resync keeps the mutation error that caused it on screen
		if !msg.resync {
			m.lastErr = nil
		}
		return m, m.refresh()

	case todoSavedMsg:
		m.store.Upsert(msg.todo)
		m.status = "saved"
		m.lastErr = nil
		return m, m.refresh()

	case todoDeletedMsg:
		m.store.Remove(msg.todo.ID)
		t := msg.todo
		m.deleted = &t
		m.status = "deleted"
		m.lastErr = nil
		return m, m.refresh()

	case errMsg:
		log.WithError(msg.err).WithField("op", msg.op).Warn("todo request failed")
		m.lastErr = msg.err
		if msg.op == gql.OpTodos {
			m.status = "load failed, press r to retry"
			return m, nil
		}
		// The failed mutation may have left the view out of sync with the
		// endpoint; refetch the list once.
		return m, m.loadCmd(true)
	}

	switch m.mode {
	case modeAdd, modeEdit:
		return m.updateForm(msg)
	}
	return m.updateBrowse(msg)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			title := strings.TrimSpace(m.ti.Value())
			if title == "" {
				m.formErr = "Title cannot be empty"
				return m, nil
			}
			var cmd tea.Cmd
			if m.mode == modeAdd {
				cmd = m.createCmd(title)
			} else {
				patch := gql.TodoPatch{Title: gql.String(title)}
				if cur, ok := m.store.Get(m.editID); ok {
					patch.Done = gql.Bool(cur.Done)
				}
				cmd = m.updateCmd(m.editID, patch)
			}
			m.closeForm()
			return m, cmd
		case "esc":
			m.closeForm()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, isKey := msg.(tea.KeyMsg)
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.list.FilterState() == list.Unfiltered {
			return m, tea.Quit
		}
	case " ", "space":
		if it, ok := m.selected(); ok {
			return m, m.updateCmd(it.ID, gql.TodoPatch{
				Done:  gql.Bool(!it.Done),
				Title: gql.String(it.Text),
			})
		}
		return m, nil
	case "d":
		if it, ok := m.selected(); ok {
			t, found := m.store.Get(it.ID)
			if !found {
				t = model.Todo{ID: it.ID, Title: it.Text, Done: it.Done}
			}
			m.store.Remove(it.ID)
			return m, tea.Batch(m.refresh(), m.deleteCmd(t))
		}
		return m, nil
	case "a":
		m.openForm(modeAdd, "", "")
		return m, nil
	case "e":
		if it, ok := m.selected(); ok {
			m.openForm(modeEdit, it.ID, it.Text)
		}
		return m, nil
	case "u":
		if m.deleted != nil {
			t := *m.deleted
			m.deleted = nil
			return m, m.restoreCmd(t)
		}
		return m, nil
	case "r":
		m.status = "refreshing..."
		return m, m.loadCmd(false)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

func (m *Model) openForm(md mode, id, value string) {
	m.mode = md
	m.editID = id
	m.formErr = ""
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	if md == modeEdit {
		m.ti.Placeholder = "Edit todo title..."
	} else {
		m.ti.Placeholder = "New todo title..."
	}
	m.ti.Focus()
	m.resize()
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.editID = ""
	m.formErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

// refresh rebuilds the list items from the cache.
func (m *Model) refresh() tea.Cmd {
	todos := m.store.List()
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, listItem{ID: t.ID, Text: t.Title, Done: t.Done})
	}
	m.list.Title = m.header()
	return m.list.SetItems(items)
}

func (m Model) header() string {
	done, pending := m.store.Stats()
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), done+pending,
	)
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 5
	if m.mode != modeBrowse {
		h -= 4
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

// -------------- view ----------------

func (m Model) View() string {
	content := m.list.View()
	if m.mode != modeBrowse {
		title := "Add todo"
		if m.mode == modeEdit {
			title = "Edit todo"
		}
		if m.formErr != "" {
			title += " - " + errorStyle.Render(m.formErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	content += "\n" + m.statusLine()
	return frameStyle.Render(content)
}

func (m Model) statusLine() string {
	if m.lastErr != nil {
		return errorStyle.Render("✖ " + m.lastErr.Error())
	}
	return mutedStyle.Render(m.status)
}
