package gql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada/internal/model"
)

var (
	ErrEmptyTitle = errors.New("empty title")
	ErrMissingID  = errors.New("missing todo id")
	// ErrNoData is returned when the endpoint answers without the requested field.
	ErrNoData = errors.New("response has no data")
)

// TokenSource supplies the bearer token; an empty string sends no header.
type TokenSource interface {
	Token() string
}

// TodoPatch carries the optional fields of the update mutation. Nil fields are
// sent as absent variables and left unchanged by the endpoint.
type TodoPatch struct {
	Title *string
	Done  *bool
}

// Client is the single long-lived object that proxies todo operations to the
// remote GraphQL endpoint.
type Client struct {
	gql     *graphql.Client
	timeout time.Duration
	tokens  TokenSource
}

type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
}

func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }
func WithTimeout(d time.Duration) Option     { return func(o *options) { o.timeout = d } }
func WithTokenSource(t TokenSource) Option   { return func(o *options) { o.tokens = t } }

func NewClient(endpoint string, opts ...Option) *Client {
	o := options{httpClient: http.DefaultClient, timeout: 10 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}
	c := graphql.NewClient(endpoint, graphql.WithHTTPClient(withStatusCheck(o.httpClient)))
	c.Log = func(s string) { log.WithField("endpoint", endpoint).Debug(s) }
	return &Client{gql: c, timeout: o.timeout, tokens: o.tokens}
}

func (c *Client) run(ctx context.Context, op string, req *graphql.Request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	err := c.gql.Run(ctx, req, out)
	entry := log.WithFields(log.Fields{"op": op, "took": time.Since(start)})
	if err != nil {
		entry.WithError(err).Warn("graphql request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	entry.Debug("graphql request done")
	return nil
}

// Todos runs AppQuery and returns every todo in endpoint order.
func (c *Client) Todos(ctx context.Context) ([]model.Todo, error) {
	var resp todosResponse
	if err := c.run(ctx, OpTodos, graphql.NewRequest(TodosQuery), &resp); err != nil {
		return nil, err
	}
	if resp.Todos == nil {
		return nil, fmt.Errorf("%s: %w", OpTodos, ErrNoData)
	}
	return *resp.Todos, nil
}

func (c *Client) CreateTodo(ctx context.Context, title string) (model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Todo{}, fmt.Errorf("%s: %w", OpCreateTodo, ErrEmptyTitle)
	}
	req := graphql.NewRequest(CreateTodoMutation)
	req.Var("title", title)

	var resp createTodoResponse
	if err := c.run(ctx, OpCreateTodo, req, &resp); err != nil {
		return model.Todo{}, err
	}
	if resp.CreateTodo == nil {
		return model.Todo{}, fmt.Errorf("%s: %w", OpCreateTodo, ErrNoData)
	}
	return *resp.CreateTodo, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, patch TodoPatch) (model.Todo, error) {
	if id == "" {
		return model.Todo{}, fmt.Errorf("%s: %w", OpUpdateTodo, ErrMissingID)
	}
	req := graphql.NewRequest(UpdateTodoMutation)
	req.Var("id", id)
	if patch.Done != nil {
		req.Var("done", *patch.Done)
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return model.Todo{}, fmt.Errorf("%s: %w", OpUpdateTodo, ErrEmptyTitle)
		}
		req.Var("title", t)
	}

	var resp updateTodoResponse
	if err := c.run(ctx, OpUpdateTodo, req, &resp); err != nil {
		return model.Todo{}, err
	}
	if resp.UpdateTodo == nil {
		return model.Todo{}, fmt.Errorf("%s: %w", OpUpdateTodo, ErrNoData)
	}
	return *resp.UpdateTodo, nil
}

// DeleteTodo returns the id the endpoint reports as deleted.
func (c *Client) DeleteTodo(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%s: %w", OpDeleteTodo, ErrMissingID)
	}
	req := graphql.NewRequest(DeleteTodoMutation)
	req.Var("id", id)

	var resp deleteTodoResponse
	if err := c.run(ctx, OpDeleteTodo, req, &resp); err != nil {
		return "", err
	}
	if resp.DeleteTodo == nil {
		return "", fmt.Errorf("%s: %w", OpDeleteTodo, ErrNoData)
	}
	return resp.DeleteTodo.ID, nil
}

// Bool and String build TodoPatch fields inline.
func Bool(b bool) *bool       { return &b }
func String(s string) *string { return &s }
