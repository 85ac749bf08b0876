package weaviate

import (
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
)

var operators = map[filter.Operator]filters.WhereOperator{
	filter.And:              filters.And,
	filter.Or:               filters.Or,
	filter.Equal:            filters.Equal,
	filter.NotEqual:         filters.NotEqual,
	filter.GreaterThan:      filters.GreaterThan,
	filter.GreaterThanEqual: filters.GreaterThanEqual,
	filter.LessThan:         filters.LessThan,
	filter.LessThanEqual:    filters.LessThanEqual,
	filter.Like:             filters.Like,
	filter.ContainsAny:      filters.ContainsAny,
	filter.ContainsAll:      filters.ContainsAll,
	filter.IsNull:           filters.IsNull,
}

// toWhere converts a bound filter tree into a where clause.
// Leaves must carry typed values; unbound (auto) values are rejected.
func toWhere(n filter.Node) (*filters.WhereBuilder, error) {
	op, ok := operators[n.Operator()]
	if !ok {
		return nil, fmt.Errorf("unsupported filter operator %q", n.Operator())
	}

	if !n.IsLeaf() {
		operands := make([]*filters.WhereBuilder, 0, len(n.Operands()))
		for _, c := range n.Operands() {
			w, err := toWhere(c)
			if err != nil {
				return nil, err
			}
			operands = append(operands, w)
		}
		return filters.Where().WithOperator(op).WithOperands(operands), nil
	}

	w := filters.Where().WithPath([]string{n.Path()}).WithOperator(op)
	v := n.Value()
	switch v.Kind() {
	case filter.KindText:
		return w.WithValueText(v.Texts()...), nil
	case filter.KindInt:
		return w.WithValueInt(v.Ints()...), nil
	case filter.KindNumber:
		return w.WithValueNumber(v.Numbers()...), nil
	case filter.KindBool:
		return w.WithValueBoolean(v.Bools()...), nil
	case filter.KindDate:
		return w.WithValueDate(v.Dates()...), nil
	}
	return nil, fmt.Errorf("filter on %q has unbound value kind %q", n.Path(), v.Kind())
}
