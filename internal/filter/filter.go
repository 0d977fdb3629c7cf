// Package filter compiles user-typed boolean expressions used to narrow the
// item list locally, for example:
//
//	priority >= 4 && preferredZone == "Lab"
//	volume > 1000 || name contains "Kit"
//	usageLimit != nil && usageLimit < 3
//
// Expressions are evaluated with expr-lang against one item at a time.
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/five82/cargodash/internal/cargo"
)

// Filter is a compiled item predicate. The zero value matches everything.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile parses source. A blank source yields a match-all filter.
func Compile(source string) (Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Filter{}, nil
	}
	program, err := expr.Compile(source, expr.Env(env{}), expr.AsBool())
	if err != nil {
		return Filter{}, fmt.Errorf("compile filter: %w", err)
	}
	return Filter{source: source, program: program}, nil
}

// Source returns the expression text.
func (f Filter) Source() string { return f.source }

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool { return f.program == nil }

// Match evaluates the filter against item.
func (f Filter) Match(item cargo.Item) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, itemEnv(item))
	if err != nil {
		return false, fmt.Errorf("evaluate filter on %s: %w", item.ItemID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the items that match. Evaluation errors stop at the first
// failing item.
func (f Filter) Apply(items []cargo.Item) ([]cargo.Item, error) {
	if f.program == nil {
		return items, nil
	}
	out := make([]cargo.Item, 0, len(items))
	for _, item := range items {
		ok, err := f.Match(item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// env is the variable set an expression sees. A missing usage limit is a
// nil pointer, so comparisons on it need a nil guard.
type env struct {
	ItemID        string  `expr:"itemId"`
	Name          string  `expr:"name"`
	Width         int     `expr:"width"`
	Depth         int     `expr:"depth"`
	Height        int     `expr:"height"`
	Volume        int     `expr:"volume"`
	Mass          float64 `expr:"mass"`
	Priority      int     `expr:"priority"`
	ExpiryDate    string  `expr:"expiryDate"`
	UsageLimit    *int    `expr:"usageLimit"`
	PreferredZone string  `expr:"preferredZone"`
}

func itemEnv(item cargo.Item) env {
	mass, _ := item.Mass.Float64()
	return env{
		ItemID:        item.ItemID,
		Name:          item.Name,
		Width:         item.Width,
		Depth:         item.Depth,
		Height:        item.Height,
		Volume:        item.Volume(),
		Mass:          mass,
		Priority:      item.Priority,
		ExpiryDate:    item.ExpiryDate,
		UsageLimit:    item.UsageLimit,
		PreferredZone: item.PreferredZone,
	}
}
