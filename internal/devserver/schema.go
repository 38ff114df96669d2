package devserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

var (
	errNotFound   = errors.New("todo not found")
	errEmptyTitle = errors.New("title must not be empty")
)

type deletedTodo struct {
	ID string
}

var todoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Todo",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.ID),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(model.Todo).ID, nil
			},
		},
		"title": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(model.Todo).Title, nil
			},
		},
		"done": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(model.Todo).Done, nil
			},
		},
	},
})

var deletedTodoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "DeletedTodo",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.ID),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(deletedTodo).ID, nil
			},
		},
	},
})

// resolvers holds the field resolvers backed by the JSON store.
type resolvers struct {
	store *jsonstore.Store
}

// newSchema builds the schema the client documents are validated and
// executed against.
func newSchema(store *jsonstore.Store) (graphql.Schema, error) {
	r := resolvers{store: store}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"todos": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(todoType))),
				Resolve: r.todos,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createTodo": &graphql.Field{
				Type: todoType,
				Args: graphql.FieldConfigArgument{
					"title": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.createTodo,
			},
			"updateTodo": &graphql.Field{
				Type: todoType,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"done":  &graphql.ArgumentConfig{Type: graphql.Boolean},
					"title": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.updateTodo,
			},
			"deleteTodo": &graphql.Field{
				Type: deletedTodoType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deleteTodo,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func (r resolvers) todos(p graphql.ResolveParams) (any, error) {
	todos, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

func (r resolvers) createTodo(p graphql.ResolveParams) (any, error) {
	title, _ := p.Args["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errEmptyTitle
	}
	t := model.Todo{ID: uuid.NewString(), Title: title}
	err := r.store.Update(func(todos []model.Todo) ([]model.Todo, error) {
		return append(todos, t), nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// updateTodo only touches the arguments that were supplied.
func (r resolvers) updateTodo(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	var updated model.Todo
	err := r.store.Update(func(todos []model.Todo) ([]model.Todo, error) {
		i := indexOf(todos, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", errNotFound, id)
		}
		if title, ok := p.Args["title"].(string); ok {
			title = strings.TrimSpace(title)
			if title == "" {
				return nil, errEmptyTitle
			}
			todos[i].Title = title
		}
		if done, ok := p.Args["done"].(bool); ok {
			todos[i].Done = done
		}
		updated = todos[i]
		return todos, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r resolvers) deleteTodo(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	err := r.store.Update(func(todos []model.Todo) ([]model.Todo, error) {
		i := indexOf(todos, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", errNotFound, id)
		}
		return append(todos[:i], todos[i+1:]...), nil
	})
	if err != nil {
		return nil, err
	}
	return deletedTodo{ID: id}, nil
}

func indexOf(todos []model.Todo, id string) int {
	for i, t := range todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
