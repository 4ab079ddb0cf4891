package watch

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/solanafuns/ddmonitor/internal/action"
)

// Filter is a compiled CEL predicate over a decoded action. A nil or empty
// Filter matches everything.
//
// Variables: kind, text, sender, error (strings), x, y, seq, slot,
// last_change (ints).
type Filter struct {
	expr string
	prog cel.Program
}

// NewFilter compiles expr. An empty expression yields a nil Filter.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("sender", cel.StringType),
		cel.Variable("error", cel.StringType),
		cel.Variable("x", cel.IntType),
		cel.Variable("y", cel.IntType),
		cel.Variable("seq", cel.IntType),
		cel.Variable("slot", cel.IntType),
		cel.Variable("last_change", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("watch: filter: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("watch: filter must be boolean, got %s", ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &Filter{expr: expr, prog: prog}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter for ev. Evaluation errors count as no match.
func (f *Filter) Match(ev Event) bool {
	if f == nil {
		return true
	}
	vars := action.Fields(ev.Action)
	vars["seq"] = int64(ev.Seq)
	vars["slot"] = int64(ev.Slot)
	vars["last_change"] = int64(0)
	if ev.Record != nil {
		vars["last_change"] = ev.Record.LastChange
	}
	out, _, err := f.prog.Eval(vars)
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
