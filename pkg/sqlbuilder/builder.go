// Package sqlbuilder assembles parameterized WHERE clauses from composable
// predicate fragments while tracking the running bound-parameter count
// against the store's per-statement ceiling. Callers cap their inputs before
// building, so hitting the budget is a programming error surfaced at
// assembly time rather than a store rejection at execution time.
package sqlbuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultParamBudget approximates the PostgreSQL extended-protocol bind
// limit (65535) with headroom for driver-added parameters.
const DefaultParamBudget = 65000

// ErrParameterBudget is reported when a fragment would push the statement
// past its bound-parameter ceiling.
var ErrParameterBudget = fmt.Errorf("statement parameter budget exceeded")

// Builder collects predicate fragments and their bound arguments. Fragments
// use '?' placeholders which are rewritten to positional '$n' on assembly.
type Builder struct {
	conds  []string
	args   []any
	budget int
	err    error
}

// New returns a Builder with the given parameter budget; budget <= 0 selects
// DefaultParamBudget.
func New(budget int) *Builder {
	if budget <= 0 {
		budget = DefaultParamBudget
	}
	return &Builder{budget: budget}
}

// Where appends one predicate fragment. The number of '?' placeholders must
// match len(args).
func (b *Builder) Where(fragment string, args ...any) *Builder {
	if b.err != nil {
		return b
	}
	if got := strings.Count(fragment, "?"); got != len(args) {
		b.err = fmt.Errorf("fragment %q has %d placeholders for %d args", fragment, got, len(args))
		return b
	}
	if len(b.args)+len(args) > b.budget {
		b.err = ErrParameterBudget
		return b
	}
	b.conds = append(b.conds, fragment)
	b.args = append(b.args, args...)
	return b
}

// WhereIn appends a membership predicate, expanding the placeholder list to
// the value count. Empty values produce a never-matching predicate instead
// of invalid SQL.
func (b *Builder) WhereIn(column string, values []any) *Builder {
	if b.err != nil {
		return b
	}
	if len(values) == 0 {
		b.conds = append(b.conds, "FALSE")
		return b
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	return b.Where(column+" IN ("+placeholders+")", values...)
}

// Remaining reports how many bound parameters the statement can still take.
// Batch-sizing callers use it to leave headroom for fixed parameters.
func (b *Builder) Remaining() int {
	return b.budget - len(b.args)
}

// ParamCount returns the number of parameters bound so far.
func (b *Builder) ParamCount() int {
	return len(b.args)
}

// Err returns the first assembly error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build renders base + WHERE + tail with positional placeholders and returns
// the bound arguments. base must not contain '?' placeholders; tail may (for
// LIMIT/OFFSET), and its args count against the budget too.
func (b *Builder) Build(base, tail string, tailArgs ...any) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(b.args)+len(tailArgs) > b.budget {
		return "", nil, ErrParameterBudget
	}

	var sb strings.Builder
	sb.WriteString(base)
	if len(b.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.conds, " AND "))
	}
	if tail != "" {
		sb.WriteString(" ")
		sb.WriteString(tail)
	}

	args := make([]any, 0, len(b.args)+len(tailArgs))
	args = append(args, b.args...)
	args = append(args, tailArgs...)

	sql, err := numberPlaceholders(sb.String(), len(args))
	if err != nil {
		return "", nil, err
	}
	return sql, args, nil
}

func numberPlaceholders(sql string, want int) (string, error) {
	var sb strings.Builder
	sb.Grow(len(sql) + want*2)
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	if n != want {
		return "", fmt.Errorf("statement has %d placeholders for %d args", n, want)
	}
	return sb.String(), nil
}

// Int64s converts ids to the []any WhereIn expects.
func Int64s(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// Strings converts values to the []any WhereIn expects.
func Strings(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
