package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// Filter tree limits.
const (
	MaxOperands = 32
	MaxDepth    = 8
)

// IDPath filters on the object id instead of a property.
const IDPath = "id"

// Operator is a filter operator.
type Operator string

// Boolean combinators.
const (
	And Operator = "And"
	Or  Operator = "Or"
)

// Comparison operators.
const (
	Equal            Operator = "Equal"
	NotEqual         Operator = "NotEqual"
	GreaterThan      Operator = "GreaterThan"
	GreaterThanEqual Operator = "GreaterThanEqual"
	LessThan         Operator = "LessThan"
	LessThanEqual    Operator = "LessThanEqual"
	Like             Operator = "Like"
	ContainsAny      Operator = "ContainsAny"
	ContainsAll      Operator = "ContainsAll"
	IsNull           Operator = "IsNull"
)

// IsComparison reports whether the operator compares a property to a value.
func (o Operator) IsComparison() bool {
	switch o {
	case Equal, NotEqual, GreaterThan, GreaterThanEqual, LessThan, LessThanEqual,
		Like, ContainsAny, ContainsAll, IsNull:
		return true
	}
	return false
}

// IsRange reports whether the operator is an ordering comparison.
func (o Operator) IsRange() bool {
	switch o {
	case GreaterThan, GreaterThanEqual, LessThan, LessThanEqual:
		return true
	}
	return false
}

// IsContains reports whether the operator tests array containment.
func (o Operator) IsContains() bool { return o == ContainsAny || o == ContainsAll }

// Kind is the value type sent to the query engine.
type Kind string

// Value kinds. KindAuto is resolved from the schema by Bind.
const (
	KindAuto   Kind = "auto"
	KindText   Kind = "text"
	KindInt    Kind = "int"
	KindNumber Kind = "number"
	KindBool   Kind = "boolean"
	KindDate   Kind = "date"
)

// Value is one or more operands of a single kind.
type Value struct {
	kind  Kind
	items []any
}

func values[T any](kind Kind, vs []T) Value {
	items := make([]any, len(vs))
	for i, v := range vs {
		items[i] = v
	}
	return Value{kind: kind, items: items}
}

// Text creates a text value.
func Text(v ...string) Value { return values(KindText, v) }

// Int creates an integer value.
func Int(v ...int64) Value { return values(KindInt, v) }

// Number creates a floating point value.
func Number(v ...float64) Value { return values(KindNumber, v) }

// Bool creates a boolean value.
func Bool(v ...bool) Value { return values(KindBool, v) }

// Date creates a date value.
func Date(v ...time.Time) Value { return values(KindDate, v) }

// Auto creates an untyped value (decoded JSON) whose kind is resolved by Bind.
func Auto(v ...any) Value { return Value{kind: KindAuto, items: v} }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// Len returns the number of operands.
func (v Value) Len() int { return len(v.items) }

// Items returns the raw operands.
func (v Value) Items() []any { return v.items }

// Texts returns text operands.
func (v Value) Texts() []string { return typed[string](v.items) }

// Ints returns integer operands.
func (v Value) Ints() []int64 { return typed[int64](v.items) }

// Numbers returns floating point operands.
func (v Value) Numbers() []float64 { return typed[float64](v.items) }

// Bools returns boolean operands.
func (v Value) Bools() []bool { return typed[bool](v.items) }

// Dates returns date operands.
func (v Value) Dates() []time.Time { return typed[time.Time](v.items) }

func typed[T any](items []any) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if t, ok := it.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// Node is a filter tree node: a comparison leaf or an And/Or combinator.
type Node struct {
	op       Operator
	path     string
	value    Value
	operands []Node
}

// Where creates a comparison leaf.
func Where(path string, op Operator, v Value) (Node, error) {
	if path == "" {
		return Node{}, fmt.Errorf("filter path is required")
	}
	if !op.IsComparison() {
		return Node{}, fmt.Errorf("invalid filter operator %q for %q", op, path)
	}
	switch {
	case op == IsNull:
		if v.Len() != 1 || (v.kind != KindBool && v.kind != KindAuto) {
			return Node{}, fmt.Errorf("IsNull on %q takes exactly one boolean", path)
		}
	case op.IsContains():
		if v.Len() == 0 {
			return Node{}, fmt.Errorf("%s on %q needs at least one value", op, path)
		}
	default:
		if v.Len() != 1 {
			return Node{}, fmt.Errorf("%s on %q takes exactly one value, got %d", op, path, v.Len())
		}
	}
	if op == Like && v.kind != KindText && v.kind != KindAuto {
		return Node{}, fmt.Errorf("Like on %q takes a text pattern", path)
	}
	if op.IsRange() && v.kind == KindBool {
		return Node{}, fmt.Errorf("%s on %q cannot compare booleans", op, path)
	}
	return Node{op: op, path: path, value: v}, nil
}

// AllOf combines nodes with And.
func AllOf(nodes ...Node) (Node, error) { return combine(And, nodes) }

// AnyOf combines nodes with Or.
func AnyOf(nodes ...Node) (Node, error) { return combine(Or, nodes) }

func combine(op Operator, nodes []Node) (Node, error) {
	if len(nodes) == 0 {
		return Node{}, fmt.Errorf("%s needs at least one operand", op)
	}
	if len(nodes) > MaxOperands {
		return Node{}, fmt.Errorf("too many %s operands (max %d)", op, MaxOperands)
	}
	for _, n := range nodes {
		if n.IsZero() {
			return Node{}, fmt.Errorf("%s operand is empty", op)
		}
		if n.Depth()+1 > MaxDepth {
			return Node{}, fmt.Errorf("filter nested too deep (max %d)", MaxDepth)
		}
	}
	return Node{op: op, operands: nodes}, nil
}

// IsZero reports whether the node is the empty filter.
func (n Node) IsZero() bool { return n.op == "" }

// IsLeaf reports whether the node is a comparison.
func (n Node) IsLeaf() bool { return n.op.IsComparison() }

// Operator returns the node operator.
func (n Node) Operator() Operator { return n.op }

// Path returns the compared property (leaves only).
func (n Node) Path() string { return n.path }

// Value returns the compared value (leaves only).
func (n Node) Value() Value { return n.value }

// Operands returns child nodes (combinators only).
func (n Node) Operands() []Node { return n.operands }

// Depth returns the tree height (leaf = 1, empty = 0).
func (n Node) Depth() int {
	if n.IsZero() {
		return 0
	}
	maxChild := 0
	for _, c := range n.operands {
		if d := c.Depth(); d > maxChild {
			maxChild = d
		}
	}
	return maxChild + 1
}

// Paths returns every compared path in the tree, depth-first.
func (n Node) Paths() []string {
	if n.IsZero() {
		return nil
	}
	if n.IsLeaf() {
		return []string{n.path}
	}
	var out []string
	for _, c := range n.operands {
		out = append(out, c.Paths()...)
	}
	return out
}

// SchemaLookup resolves a property's data type.
type SchemaLookup func(path string) (property.DataType, bool)

// Bind checks every leaf against the schema and converts untyped values to
// the kind the property's data type requires.
func (n Node) Bind(lookup SchemaLookup) (Node, error) {
	if n.IsZero() {
		return n, nil
	}
	if !n.IsLeaf() {
		bound := make([]Node, len(n.operands))
		for i, c := range n.operands {
			b, err := c.Bind(lookup)
			if err != nil {
				return Node{}, err
			}
			bound[i] = b
		}
		return Node{op: n.op, operands: bound}, nil
	}

	if n.op == IsNull {
		b, err := cast.ToBoolE(n.value.items[0])
		if err != nil {
			return Node{}, fmt.Errorf("IsNull on %q: %w", n.path, err)
		}
		return Node{op: n.op, path: n.path, value: Bool(b)}, nil
	}

	dt := property.Text
	if n.path != IDPath {
		var ok bool
		dt, ok = lookup(n.path)
		if !ok {
			return Node{}, fmt.Errorf("unknown filter property %q", n.path)
		}
	}

	kind, err := kindFor(dt)
	if err != nil {
		return Node{}, fmt.Errorf("property %q: %w", n.path, err)
	}
	if n.op == Like && kind != KindText {
		return Node{}, fmt.Errorf("Like requires a text property, %q is %s", n.path, dt)
	}
	if n.op.IsRange() && kind == KindBool {
		return Node{}, fmt.Errorf("%s cannot compare boolean property %q", n.op, n.path)
	}

	v, err := coerce(n.value, kind)
	if err != nil {
		return Node{}, fmt.Errorf("property %q: %w", n.path, err)
	}
	return Node{op: n.op, path: n.path, value: v}, nil
}

func kindFor(dt property.DataType) (Kind, error) {
	switch dt.Elem() {
	case property.Text, property.UUID, property.PhoneNumber:
		return KindText, nil
	case property.Int:
		return KindInt, nil
	case property.Number:
		return KindNumber, nil
	case property.Boolean:
		return KindBool, nil
	case property.Date:
		return KindDate, nil
	}
	return "", fmt.Errorf("data type %s is not filterable", dt)
}

func coerce(v Value, kind Kind) (Value, error) {
	if v.kind == kind {
		return v, nil
	}
	items := make([]any, len(v.items))
	for i, it := range v.items {
		var (
			out any
			err error
		)
		switch kind {
		case KindText:
			out, err = cast.ToStringE(it)
		case KindInt:
			out, err = toInt(it)
		case KindNumber:
			out, err = toNumber(it)
		case KindBool:
			out, err = cast.ToBoolE(it)
		case KindDate:
			out, err = cast.ToTimeE(it)
		}
		if err != nil {
			return Value{}, fmt.Errorf("value %v is not %s: %w", it, kind, err)
		}
		items[i] = out
	}
	return Value{kind: kind, items: items}, nil
}

// toInt rejects fractional and out-of-range numbers instead of truncating them.
// Strings are always read as base 10.
func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		return floatToInt(x)
	case float32:
		return floatToInt(float64(x))
	case string:
		x = strings.TrimSpace(x)
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q as int: %w", x, err)
		}
		return floatToInt(f)
	case json.Number:
		return toInt(x.String())
	}
	return cast.ToInt64E(v)
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not finite", f)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v has a fractional part", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

func toNumber(v any) (float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not finite", f)
	}
	return f, nil
}
