package gql

import "github.com/Makepad-fr/tada/internal/model"

// Documents are sent verbatim. Each one names its operation so the endpoint
// (and its logs) can tell them apart.

const todoFragment = `
fragment TodoFragment on Todo {
  id
  title
  done
}`

const (
	OpTodos      = "AppQuery"
	OpCreateTodo = "AppCreateTodoMutation"
	OpUpdateTodo = "TodoUpdateMutation"
	OpDeleteTodo = "TodoDeleteMutation"
)

const TodosQuery = `query AppQuery {
  todos {
    ...TodoFragment
  }
}` + todoFragment

const CreateTodoMutation = `mutation AppCreateTodoMutation($title: String!) {
  createTodo(title: $title) {
    ...TodoFragment
  }
}` + todoFragment

const UpdateTodoMutation = `mutation TodoUpdateMutation($id: ID!, $done: Boolean, $title: String) {
  updateTodo(id: $id, done: $done, title: $title) {
    ...TodoFragment
  }
}` + todoFragment

const DeleteTodoMutation = `mutation TodoDeleteMutation($id: ID!) {
  deleteTodo(id: $id) {
    id
  }
}`

// Response shapes. Decoding into these is the only check the client does
// on what the endpoint returns.

type todosResponse struct {
	Todos *[]model.Todo `json:"todos"`
}

type createTodoResponse struct {
	CreateTodo *model.Todo `json:"createTodo"`
}

type updateTodoResponse struct {
	UpdateTodo *model.Todo `json:"updateTodo"`
}

type deleteTodoResponse struct {
	DeleteTodo *struct {
		ID string `json:"id"`
	} `json:"deleteTodo"`
}
