package collection

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// CheckProperties verifies that every object property exists in the schema
// and that scalar values have a compatible JSON type.
func (c Collection) CheckProperties(props map[string]any) error {
	for name, v := range props {
		p, ok := c.Property(name)
		if !ok {
			return fmt.Errorf("unknown property %q in collection %s", name, c.name)
		}
		if v == nil {
			continue
		}
		if err := checkValue(p, v); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(p property.Property, v any) error {
	dt := p.DataType()
	if dt.IsArray() {
		if _, err := cast.ToSliceE(v); err != nil {
			return fmt.Errorf("property %q is %s, got %T", p.Name(), dt, v)
		}
		return nil
	}

	var err error
	switch dt {
	case property.Text, property.Blob, property.UUID, property.Date:
		if _, ok := v.(string); !ok {
			err = fmt.Errorf("property %q is %s, got %T", p.Name(), dt, v)
		}
	case property.Int, property.Number:
		switch v.(type) {
		case string, bool:
			err = fmt.Errorf("property %q is %s, got %T", p.Name(), dt, v)
		default:
			_, err = cast.ToFloat64E(v)
		}
	case property.Boolean:
		if _, ok := v.(bool); !ok {
			err = fmt.Errorf("property %q is boolean, got %T", p.Name(), v)
		}
	case property.GeoCoordinates, property.PhoneNumber:
		if _, e := cast.ToStringMapE(v); e != nil {
			err = fmt.Errorf("property %q is %s, got %T", p.Name(), dt, v)
		}
	}
	return err
}

// EmbeddingText joins the object's vectorizable text values in schema order,
// one property per line. Empty when the object has no vectorizable text.
func (c Collection) EmbeddingText(props map[string]any) string {
	var lines []string
	for _, name := range c.VectorizableProperties() {
		v, ok := props[name]
		if !ok || v == nil {
			continue
		}
		var text string
		if s, isStr := v.(string); isStr {
			text = s
		} else if items, err := cast.ToStringSliceE(v); err == nil {
			text = strings.Join(items, " ")
		}
		if text = strings.TrimSpace(text); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// DataTypeOf resolves a property's data type; usable as a filter schema lookup.
func (c Collection) DataTypeOf(name string) (property.DataType, bool) {
	p, ok := c.Property(name)
	if !ok {
		return "", false
	}
	return p.DataType(), true
}
