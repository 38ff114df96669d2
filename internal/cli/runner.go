package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/gql"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options tune output behavior from root flags and carry the wired dependencies.
type Options struct {
	Group    bool // list grouped by pending/done
	Endpoint string

	Service tui.Service
	Tokens  *auth.Store
	In      io.Reader // token prompt input; defaults to os.Stdin

	// Interactive runs the TUI; tests replace it.
	Interactive func(ctx context.Context, svc tui.Service) error
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return doList(ctx, opt)

	case "tui":
		run := opt.Interactive
		if run == nil {
			run = tui.Run
		}
		if err := run(ctx, opt.Service); err != nil {
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <title...>")
			return 2
		}
		return doAdd(ctx, opt, strings.Join(a, " "))

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: todo done <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("done: not a number: " + a[0])
			return 2
		}
		return doToggle(ctx, opt, n)

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: todo edit <index> <title...>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("edit: not a number: " + a[0])
			return 2
		}
		return doEdit(ctx, opt, n, strings.Join(a[1:], " "))

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return doRemove(ctx, opt, n)

	case "auth":
		if len(a) == 0 {
			ui.Fail("usage: todo auth <login|logout|status>")
			return 2
		}
		switch a[0] {
		case "login":
			return doAuthLogin(opt)
		case "logout":
			return doAuthLogout(opt)
		case "status":
			return doAuthStatus(opt)
		}
		ui.Fail("usage: todo auth <login|logout|status>")
		return 2
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr())
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprint(ui.Stdout(), `todo - a GraphQL todo client

Usage:
  todo [flags] <subcommand> [args]

Flags:
  -endpoint <url>    GraphQL endpoint (env TODO_ENDPOINT)
  -group             Group ls output by pending/done
  -theme <name>      classic | neon | mono (env TODO_THEME)
  -timeout <dur>     Per-request timeout, e.g. 5s (env TODO_TIMEOUT_SEC)
  -debug             Write debug logs to todo.log (env TODO_DEBUG)

Subcommands:
  ls                      List todos
  tui                     Interactive list (a add, e edit, space toggle, d delete, u undo)
  add <title...>          Create a todo (title can be multiple words)
  done <index>            Toggle done for the todo at 1-based index
  edit <index> <title...> Rename the todo at 1-based index
  rm <index>              Delete the todo at 1-based index
  auth <login|logout|status>  Bearer token sent with every request

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo rm 3
`)
}

// -------------- subcommand impls ----------------

func doList(ctx context.Context, opt Options) int {
	todos, err := opt.Service.Todos(ctx)
	if err != nil {
		ui.Fail("list: " + err.Error())
		return 1
	}

	d, p := model.Stats(todos)
	th := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(th.Title, "Todos"),
		ui.C(th.Success, th.SymDone), d,
		ui.C(th.Pending, th.SymUnchecked), p,
		ui.C(th.Accent, "Total"), len(todos),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(th.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if opt.Group {
		lines = append(lines, groupLines(todos)...)
	} else {
		lines = append(lines, flatLines(todos)...)
	}
	lines = append(lines, "")
	if opt.Endpoint != "" {
		lines = append(lines, ui.C(th.Muted, "endpoint: "+opt.Endpoint))
	}
	lines = append(lines, ui.C(th.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(lines)
	return 0
}

func doAdd(ctx context.Context, opt Options, title string) int {
	title = strings.TrimSpace(title)
	if title == "" {
		ui.Fail("add: empty title")
		return 2
	}
	if _, err := opt.Service.CreateTodo(ctx, title); err != nil {
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.OK("added")
	return 0
}

func doToggle(ctx context.Context, opt Options, userIndex int) int {
	t, code := resolveIndex(ctx, opt, userIndex)
	if code != 0 {
		return code
	}
	patch := gql.TodoPatch{Done: gql.Bool(!t.Done), Title: gql.String(t.Title)}
	if _, err := opt.Service.UpdateTodo(ctx, t.ID, patch); err != nil {
		ui.Fail("done: " + err.Error())
		return 1
	}
	ui.OK("toggled")
	return 0
}

func doEdit(ctx context.Context, opt Options, userIndex int, title string) int {
	title = strings.TrimSpace(title)
	if title == "" {
		ui.Fail("edit: empty title")
		return 2
	}
	t, code := resolveIndex(ctx, opt, userIndex)
	if code != 0 {
		return code
	}
	patch := gql.TodoPatch{Title: gql.String(title), Done: gql.Bool(t.Done)}
	if _, err := opt.Service.UpdateTodo(ctx, t.ID, patch); err != nil {
		ui.Fail("edit: " + err.Error())
		return 1
	}
	ui.OK("renamed")
	return 0
}

func doRemove(ctx context.Context, opt Options, userIndex int) int {
	t, code := resolveIndex(ctx, opt, userIndex)
	if code != 0 {
		return code
	}
	if _, err := opt.Service.DeleteTodo(ctx, t.ID); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	ui.OK("removed")
	return 0
}

// resolveIndex maps a 1-based index over the current AppQuery order to a todo.
func resolveIndex(ctx context.Context, opt Options, userIndex int) (model.Todo, int) {
	todos, err := opt.Service.Todos(ctx)
	if err != nil {
		ui.Fail("list: " + err.Error())
		return model.Todo{}, 1
	}
	if userIndex < 1 || userIndex > len(todos) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(todos), userIndex))
		ui.Hint("run `todo ls` to see valid indexes")
		return model.Todo{}, 2
	}
	return todos[userIndex-1], 0
}

// -------------- auth ----------------

func doAuthLogin(opt Options) int {
	in := opt.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprint(ui.Stdout(), "Paste your token: ")
	token, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	fmt.Fprintln(ui.Stdout())
	if err := opt.Tokens.Set(token, nil); err != nil {
		ui.Fail("save token: " + err.Error())
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doAuthLogout(opt Options) int {
	ti, err := opt.Tokens.Get()
	if err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return 0
	}
	if err := opt.Tokens.Delete(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doAuthStatus(opt Options) int {
	ti, err := opt.Tokens.Get()
	if err != nil {
		ui.Fail("auth: " + err.Error())
		return 1
	}
	out := ui.Stdout()
	if ti == nil {
		fmt.Fprintln(out, ui.C(ui.Current().Muted, "not logged in"))
		fmt.Fprintln(out, "Run: todo auth login")
		return 0
	}
	fmt.Fprintf(out, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		fmt.Fprintf(out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(out, "expires: (unknown)")
	}
	fmt.Fprintln(out, "env override: "+auth.EnvToken)
	return 0
}

// -------------- rendering helpers --------------

func flatLines(todos []model.Todo) []string {
	if len(todos) == 0 {
		return []string{ui.C(ui.Current().Muted, "no todos")}
	}
	pos := make([]int, len(todos))
	for i := range todos {
		pos[i] = i + 1
	}
	return numbered(todos, pos)
}

// numbered renders todos numbered by pos, their index in the full list.
func numbered(todos []model.Todo, pos []int) []string {
	out := make([]string, 0, len(todos))
	for i, t := range todos {
		idx := fmt.Sprintf("%2d.", pos[i])
		title := t.Title
		if r := []rune(title); len(r) > 80 {
			title = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(idx), ui.Box(t.Done), title))
	}
	return out
}

// groupLines keeps each todo's index from the flat list so done/rm still apply.
func groupLines(todos []model.Todo) []string {
	var pend, done []model.Todo
	var pendPos, donePos []int
	for i, t := range todos {
		if t.Done {
			done = append(done, t)
			donePos = append(donePos, i+1)
		} else {
			pend = append(pend, t)
			pendPos = append(pendPos, i+1)
		}
	}
	th := ui.Current()
	var out []string
	out = append(out, ui.C(th.Accent, "Pending"))
	if len(pend) == 0 {
		out = append(out, ui.C(th.Muted, "(none)"))
	} else {
		out = append(out, numbered(pend, pendPos)...)
	}
	out = append(out, "")
	out = append(out, ui.C(th.Accent, "Done"))
	if len(done) == 0 {
		out = append(out, ui.C(th.Muted, "(none)"))
	} else {
		out = append(out, numbered(done, donePos)...)
	}
	return out
}
