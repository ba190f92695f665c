package seedog

import (
	"fmt"
	"strings"
)

// Request is the JSON body of a GraphQL-over-HTTP request. OperationName is
// always encoded, as null when unset, and Variables is always an object.
type Request struct {
	OperationName *string        `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

// Mutation describes the shape of the registration mutation.
type Mutation struct {
	// Field is the mutation field to call, e.g. "register".
	Field string
	// InputArg, if set, wraps the record fields in a single input object
	// argument with this name instead of passing them as separate arguments.
	InputArg string
	// InputType is the GraphQL type of InputArg, used in variable
	// definitions.
	InputType string
	// Selection is the selection set requested from the mutation result.
	Selection string
	// Inline interpolates escaped field values into the query text instead
	// of sending them as variables.
	Inline bool
}

func DefaultMutation() Mutation {
	return Mutation{
		Field:     "register",
		InputType: "UserRegisterInput",
		Selection: "value",
	}
}

type recordField struct {
	name  string
	value string
}

func recordFields(rec Record) []recordField {
	return []recordField{
		{"name", rec.Name},
		{"email", rec.Email},
		{"password", rec.Password},
	}
}

func (m Mutation) Build(rec Record) Request {
	if m.Inline {
		return m.buildInline(rec)
	}
	return m.buildVariables(rec)
}

func (m Mutation) buildInline(rec Record) Request {
	args := make([]string, 0, 3)
	for _, f := range recordFields(rec) {
		args = append(args, f.name+": "+QuoteString(f.value))
	}
	argList := strings.Join(args, ", ")
	if m.InputArg != "" {
		argList = fmt.Sprintf("%s: {%s}", m.InputArg, argList)
	}
	return Request{
		Variables: map[string]any{},
		Query:     fmt.Sprintf("mutation { %s(%s)%s }", m.Field, argList, m.selectionSet()),
	}
}

func (m Mutation) buildVariables(rec Record) Request {
	fields := recordFields(rec)
	vars := map[string]any{}

	var defs, args string
	if m.InputArg != "" {
		input := make(map[string]any, len(fields))
		for _, f := range fields {
			input[f.name] = f.value
		}
		vars[m.InputArg] = input
		defs = fmt.Sprintf("$%s: %s!", m.InputArg, m.InputType)
		args = fmt.Sprintf("%s: $%s", m.InputArg, m.InputArg)
	} else {
		defList := make([]string, 0, len(fields))
		argList := make([]string, 0, len(fields))
		for _, f := range fields {
			vars[f.name] = f.value
			defList = append(defList, fmt.Sprintf("$%s: String!", f.name))
			argList = append(argList, fmt.Sprintf("%s: $%s", f.name, f.name))
		}
		defs = strings.Join(defList, ", ")
		args = strings.Join(argList, ", ")
	}

	return Request{
		Variables: vars,
		Query:     fmt.Sprintf("mutation (%s) { %s(%s)%s }", defs, m.Field, args, m.selectionSet()),
	}
}

func (m Mutation) selectionSet() string {
	if m.Selection == "" {
		return ""
	}
	return " { " + m.Selection + " }"
}

// QuoteString returns s as a GraphQL string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
