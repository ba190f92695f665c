package seedog

import (
	"fmt"
	"os"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"
)

// LoadSchema parses the GraphQL SDL schema in the file at path.
func LoadSchema(path string) (*ast.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return ParseSchema(path, string(data))
}

func ParseSchema(name string, sdl string) (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{
		Name:  name,
		Input: sdl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema %s: %w", name, err)
	}
	return schema, nil
}

// CheckRequest parses and validates req's query against schema and coerces
// its variables against the operation's variable definitions.
func CheckRequest(schema *ast.Schema, req Request) error {
	doc, errs := gqlparser.LoadQuery(schema, req.Query)
	if len(errs) > 0 {
		return fmt.Errorf("invalid mutation: %w", errs)
	}
	if len(doc.Operations) != 1 {
		return fmt.Errorf("invalid mutation: expected 1 operation, got %d", len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Operation != ast.Mutation {
		return fmt.Errorf("invalid mutation: operation is a %s", op.Operation)
	}
	if _, err := validator.VariableValues(schema, op, req.Variables); err != nil {
		return fmt.Errorf("invalid mutation variables: %w", err)
	}
	return nil
}
