package property

import (
	"fmt"
	"regexp"
	"strings"
)

var nameRegex = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

var reservedNames = map[string]bool{
	"id": true, "_id": true, "_additional": true, "vector": true,
}

// MaxNameLength is the longest property name Weaviate accepts.
const MaxNameLength = 230

// DataType is the Weaviate data type of a property.
type DataType string

// Supported data types.
const (
	Text           DataType = "text"
	TextArray      DataType = "text[]"
	Int            DataType = "int"
	IntArray       DataType = "int[]"
	Number         DataType = "number"
	NumberArray    DataType = "number[]"
	Boolean        DataType = "boolean"
	BooleanArray   DataType = "boolean[]"
	Date           DataType = "date"
	DateArray      DataType = "date[]"
	UUID           DataType = "uuid"
	UUIDArray      DataType = "uuid[]"
	Blob           DataType = "blob"
	GeoCoordinates DataType = "geoCoordinates"
	PhoneNumber    DataType = "phoneNumber"
)

var validDataTypes = map[DataType]bool{
	Text: true, TextArray: true, Int: true, IntArray: true,
	Number: true, NumberArray: true, Boolean: true, BooleanArray: true,
	Date: true, DateArray: true, UUID: true, UUIDArray: true,
	Blob: true, GeoCoordinates: true, PhoneNumber: true,
}

// IsValid checks if the data type is supported.
func (d DataType) IsValid() bool { return validDataTypes[d] }

// IsArray reports whether the data type holds a list of values.
func (d DataType) IsArray() bool { return strings.HasSuffix(string(d), "[]") }

// Elem returns the scalar type of an array type (text[] -> text).
func (d DataType) Elem() DataType { return DataType(strings.TrimSuffix(string(d), "[]")) }

// IsText reports whether the (element) type is text.
func (d DataType) IsText() bool { return d.Elem() == Text }

// Tokenization controls how text is split for keyword search and filtering.
type Tokenization string

// Tokenization values.
const (
	TokenizationWord       Tokenization = "word"
	TokenizationLowercase  Tokenization = "lowercase"
	TokenizationWhitespace Tokenization = "whitespace"
	TokenizationField      Tokenization = "field"
)

// IsValid checks if the tokenization is supported.
func (t Tokenization) IsValid() bool {
	switch t {
	case TokenizationWord, TokenizationLowercase, TokenizationWhitespace, TokenizationField:
		return true
	}
	return false
}

// Options are the optional property settings.
type Options struct {
	Description       string
	Tokenization      Tokenization
	SkipVectorization bool
}

// Property is an immutable value object describing a collection property.
type Property struct {
	name     string
	dataType DataType
	opts     Options
}

// New validates and creates a Property.
func New(name string, dt DataType, opts Options) (Property, error) {
	if name == "" {
		return Property{}, fmt.Errorf("property name is required")
	}
	if len(name) > MaxNameLength {
		return Property{}, fmt.Errorf("property name %q too long (max %d)", name, MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return Property{}, fmt.Errorf("property name %q must match %s", name, nameRegex.String())
	}
	if reservedNames[strings.ToLower(name)] {
		return Property{}, fmt.Errorf("property name %q is reserved", name)
	}
	if !dt.IsValid() {
		return Property{}, fmt.Errorf("invalid data type %q for %q", dt, name)
	}
	if opts.Tokenization != "" {
		if !dt.IsText() {
			return Property{}, fmt.Errorf("tokenization is only allowed on text properties, %q is %s", name, dt)
		}
		if !opts.Tokenization.IsValid() {
			return Property{}, fmt.Errorf("invalid tokenization %q for %q", opts.Tokenization, name)
		}
	}
	return Property{name: name, dataType: dt, opts: opts}, nil
}

// Reconstruct creates a Property without validation (schema hydration).
func Reconstruct(name string, dt DataType, opts Options) Property {
	return Property{name: name, dataType: dt, opts: opts}
}

// Name returns the property name.
func (p Property) Name() string { return p.name }

// DataType returns the property's data type.
func (p Property) DataType() DataType { return p.dataType }

// Description returns the human-readable description.
func (p Property) Description() string { return p.opts.Description }

// Tokenization returns the text tokenization (empty for server default).
func (p Property) Tokenization() Tokenization { return p.opts.Tokenization }

// SkipVectorization reports whether the property is excluded from the object vector.
func (p Property) SkipVectorization() bool { return p.opts.SkipVectorization }

// Vectorizable reports whether the property contributes text to the object vector.
func (p Property) Vectorizable() bool {
	return p.dataType.IsText() && !p.opts.SkipVectorization
}
