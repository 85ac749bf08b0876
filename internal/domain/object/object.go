package object

import (
	"fmt"
	"maps"
	"math"

	"github.com/google/uuid"
)

// idNamespace scopes deterministic ids so the same key in different collections never collides.
var idNamespace = uuid.MustParse("8f0c1c6e-3d4b-5a7e-9b2f-6f1d2c3b4a59")

// Object is a record in a collection (immutable value object).
type Object struct {
	id         string
	properties map[string]any
	vector     []float32
}

// New validates and creates an Object. id may be empty (assigned on insert).
func New(id string, properties map[string]any, vector []float32) (Object, error) {
	if id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return Object{}, fmt.Errorf("object id %q is not a UUID: %w", id, err)
		}
		id = parsed.String()
	}
	if len(properties) == 0 {
		return Object{}, fmt.Errorf("object properties are required")
	}
	if vector != nil {
		if err := validateVector(vector); err != nil {
			return Object{}, err
		}
	}
	return Object{id: id, properties: maps.Clone(properties), vector: vector}, nil
}

// Reconstruct creates an Object without validation (storage hydration).
func Reconstruct(id string, properties map[string]any, vector []float32) Object {
	return Object{id: id, properties: properties, vector: vector}
}

func validateVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("vector must not be empty")
	}
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("vector[%d] is not finite", i)
		}
	}
	return nil
}

// NewID returns a random object id.
func NewID() string { return uuid.NewString() }

// DeterministicID derives a stable id from a collection and a natural key,
// so re-ingesting the same record overwrites instead of duplicating.
func DeterministicID(collection, key string) string {
	return uuid.NewSHA1(idNamespace, []byte(collection+"/"+key)).String()
}

// ID returns the object identifier (empty before insert).
func (o *Object) ID() string { return o.id }

// Properties returns the property map.
func (o *Object) Properties() map[string]any { return o.properties }

// Vector returns the object vector (nil when server-side vectorized).
func (o *Object) Vector() []float32 { return o.vector }

// HasVector reports whether a client-side vector is attached.
func (o *Object) HasVector() bool { return len(o.vector) > 0 }

// WithID returns a copy with the given id.
func (o *Object) WithID(id string) Object {
	return Object{id: id, properties: o.properties, vector: o.vector}
}

// WithVector returns a copy with the given vector.
func (o *Object) WithVector(v []float32) Object {
	return Object{id: o.id, properties: o.properties, vector: v}
}

// Page is one cursor-paginated slice of a collection.
// NextCursor is empty on the last page.
type Page struct {
	Objects    []Object
	NextCursor string
}
