package dto

import (
	"encoding/json"
	"fmt"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
)

// Filter is the JSON form of a filter tree.
//
//	{"path": "year", "operator": "GreaterThan", "value": 2020}
//	{"operator": "And", "operands": [ ... ]}
type Filter struct {
	Operator string   `json:"operator"`
	Path     string   `json:"path,omitempty"`
	Value    any      `json:"value,omitempty"`
	Operands []Filter `json:"operands,omitempty"`
}

// ParseFilter decodes a JSON filter. Empty input is the empty filter.
func ParseFilter(raw []byte) (filter.Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return filter.Node{}, nil
	}
	var f Filter
	if err := json.Unmarshal(raw, &f); err != nil {
		return filter.Node{}, fmt.Errorf("%w: decode filter: %w", domain.ErrInvalidRequest, err)
	}
	return f.ToDomain()
}

// ToDomain converts the JSON tree. Values stay untyped until the search
// service binds them to the collection schema.
func (f *Filter) ToDomain() (filter.Node, error) {
	if f == nil || f.Operator == "" {
		return filter.Node{}, nil
	}
	n, err := f.node(1)
	if err != nil {
		return filter.Node{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return n, nil
}

func (f *Filter) node(depth int) (filter.Node, error) {
	if depth > filter.MaxDepth {
		return filter.Node{}, fmt.Errorf("filter nested too deep (max %d)", filter.MaxDepth)
	}
	op := filter.Operator(f.Operator)
	switch op {
	case filter.And, filter.Or:
		children := make([]filter.Node, len(f.Operands))
		for i := range f.Operands {
			c, err := f.Operands[i].node(depth + 1)
			if err != nil {
				return filter.Node{}, err
			}
			children[i] = c
		}
		if op == filter.And {
			return filter.AllOf(children...)
		}
		return filter.AnyOf(children...)
	}

	if len(f.Operands) > 0 {
		return filter.Node{}, fmt.Errorf("operator %s takes no operands", op)
	}
	var v filter.Value
	switch val := f.Value.(type) {
	case nil:
		v = filter.Auto()
	case []any:
		v = filter.Auto(val...)
	default:
		v = filter.Auto(val)
	}
	return filter.Where(f.Path, op, v)
}

// FilterFromDomain renders a filter tree back to JSON form.
func FilterFromDomain(n filter.Node) *Filter {
	if n.IsZero() {
		return nil
	}
	if !n.IsLeaf() {
		out := &Filter{Operator: string(n.Operator()), Operands: make([]Filter, len(n.Operands()))}
		for i, c := range n.Operands() {
			out.Operands[i] = *FilterFromDomain(c)
		}
		return out
	}
	items := n.Value().Items()
	var v any = items
	if len(items) == 1 && !n.Operator().IsContains() {
		v = items[0]
	}
	return &Filter{Operator: string(n.Operator()), Path: n.Path(), Value: v}
}
