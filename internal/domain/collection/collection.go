package collection

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

var nameRegex = regexp.MustCompile(`^[A-Z][_0-9A-Za-z]*$`)

// Collection limits.
const (
	MaxNameLength = 255
	MaxProperties = 1024
)

// Collection is the collection (Weaviate class) aggregate (immutable value object).
type Collection struct {
	name        string
	description string
	properties  []property.Property
	vectorizer  Vectorizer
	generative  *Module
	reranker    *Module
}

// NormalizeName upper-cases the first letter, matching how Weaviate stores class names.
func NormalizeName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("collection name too long (max %d)", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name %q must start with a letter and contain only letters, digits and underscores", name)
	}
	return nil
}

func validateProperties(props []property.Property) error {
	if len(props) > MaxProperties {
		return fmt.Errorf("too many properties (max %d)", MaxProperties)
	}
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		key := strings.ToLower(p.Name())
		if seen[key] {
			return fmt.Errorf("duplicate property name: %s", p.Name())
		}
		seen[key] = true
	}
	return nil
}

func validateVectorizerFields(v Vectorizer, props []property.Property) error {
	byName := make(map[string]property.DataType, len(props))
	for _, p := range props {
		byName[p.Name()] = p.DataType()
	}
	for _, f := range v.ImageFields() {
		dt, ok := byName[f]
		if !ok {
			return fmt.Errorf("image field %q is not a property", f)
		}
		if dt != property.Blob {
			return fmt.Errorf("image field %q must be a blob property, got %s", f, dt)
		}
	}
	for _, f := range v.TextFields() {
		dt, ok := byName[f]
		if !ok {
			return fmt.Errorf("text field %q is not a property", f)
		}
		if !dt.IsText() {
			return fmt.Errorf("text field %q must be a text property, got %s", f, dt)
		}
	}
	return nil
}

// New validates and creates a Collection. The name is normalized first.
func New(
	name, description string,
	props []property.Property,
	vectorizer Vectorizer,
	generative, reranker *Module,
) (Collection, error) {
	name = NormalizeName(name)
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if err := validateProperties(props); err != nil {
		return Collection{}, err
	}
	if err := validateVectorizerFields(vectorizer, props); err != nil {
		return Collection{}, err
	}
	return Collection{
		name:        name,
		description: description,
		properties:  props,
		vectorizer:  vectorizer,
		generative:  generative,
		reranker:    reranker,
	}, nil
}

// Reconstruct creates a Collection without validation (schema hydration).
func Reconstruct(
	name, description string,
	props []property.Property,
	vectorizer Vectorizer,
	generative, reranker *Module,
) Collection {
	return Collection{
		name: name, description: description, properties: props,
		vectorizer: vectorizer, generative: generative, reranker: reranker,
	}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Description returns the collection description.
func (c Collection) Description() string { return c.description }

// Properties returns the property definitions in schema order.
func (c Collection) Properties() []property.Property { return c.properties }

// Vectorizer returns the vectorizer selection.
func (c Collection) Vectorizer() Vectorizer { return c.vectorizer }

// Generative returns the generative module setting, nil if none.
func (c Collection) Generative() *Module { return c.generative }

// Reranker returns the reranker module setting, nil if none.
func (c Collection) Reranker() *Module { return c.reranker }

// Property looks up a property by name.
func (c Collection) Property(name string) (property.Property, bool) {
	for _, p := range c.properties {
		if p.Name() == name {
			return p, true
		}
	}
	return property.Property{}, false
}

// WithProperty returns a copy with an extra property appended.
func (c Collection) WithProperty(p property.Property) (Collection, error) {
	props := make([]property.Property, 0, len(c.properties)+1)
	props = append(props, c.properties...)
	props = append(props, p)
	if err := validateProperties(props); err != nil {
		return Collection{}, err
	}
	out := c
	out.properties = props
	return out, nil
}

// PropertyNames returns the property names in schema order.
func (c Collection) PropertyNames() []string {
	names := make([]string, len(c.properties))
	for i, p := range c.properties {
		names[i] = p.Name()
	}
	return names
}

// VectorizableProperties returns text properties that contribute to the object vector.
func (c Collection) VectorizableProperties() []string {
	var names []string
	for _, p := range c.properties {
		if p.Vectorizable() {
			names = append(names, p.Name())
		}
	}
	return names
}
