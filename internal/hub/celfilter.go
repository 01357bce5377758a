package hub

import (
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/calhub/internal/eventstore"
)

// eventFilter wraps a compiled CEL program evaluated against event fields
// during targeted broadcasts and window queries. When disabled, Eval always
// returns true.
type eventFilter struct {
	prog    cel.Program
	enabled bool
}

// ValidateFilter reports whether expr compiles as an event filter. An
// empty expression is valid and means no filtering.
func ValidateFilter(expr string) error {
	_, err := newEventFilter(expr)
	return err
}

func newEventFilter(expr string) (eventFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return eventFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("title", cel.StringType),
		cel.Variable("date", cel.StringType),
		cel.Variable("time", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("color", cel.StringType),
	)
	if err != nil {
		return eventFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return eventFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return eventFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return eventFilter{}, err
	}
	return eventFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against an event. When disabled,
// returns true. Evaluation errors count as non-matches.
func (f eventFilter) Eval(ev *eventstore.Event) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"id":          ev.ID,
		"title":       ev.Title,
		"date":        ev.Date,
		"time":        ev.Time,
		"description": ev.Description,
		"color":       ev.Color,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
