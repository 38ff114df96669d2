// Package devserver is a local stand-in for the remote todo API: a Fiber app
// executing GraphQL documents against a small Todo schema.
package devserver

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

const opLocalKey = "graphql_op"

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type Server struct {
	schema graphql.Schema
}

// New builds the Fiber app serving POST /graphql and GET /healthz.
func New(store *jsonstore.Store) (*fiber.App, error) {
	schema, err := newSchema(store)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	s := &Server{schema: schema}

	app := fiber.New(fiber.Config{
		AppName:               "todo-devserver",
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})
	app.Use(cors.New())
	app.Use(requestLogger())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/graphql", s.handleGraphQL)
	return app, nil
}

func (s *Server) handleGraphQL(c *fiber.Ctx) error {
	var req request
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResult(fmt.Errorf("invalid request body: %w", err)))
	}
	c.Locals(opLocalKey, operationName(req))

	result := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.UserContext(),
	})
	return c.JSON(result)
}

// operationName prefers the explicit field, then the first named operation in the document.
func operationName(req request) string {
	if req.OperationName != "" {
		return req.OperationName
	}
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return ""
	}
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok && op.Name != nil {
			return op.Name.Value
		}
	}
	return ""
}

func errorResult(err error) *graphql.Result {
	return &graphql.Result{Errors: []gqlerrors.FormattedError{gqlerrors.NewFormattedError(err.Error())}}
}

// requestLogger logs one line per request with the resolved operation name.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		op, _ := c.Locals(opLocalKey).(string)
		log.WithFields(log.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  c.Response().StatusCode(),
			"op":      op,
			"latency": time.Since(start).String(),
		}).Info("request")
		return err
	}
}
