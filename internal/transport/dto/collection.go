package dto

import (
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	collectionuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/collection"
)

// Property is the JSON form of a collection property.
type Property struct {
	Name              string `json:"name"`
	DataType          string `json:"data_type"`
	Description       string `json:"description,omitempty"`
	Tokenization      string `json:"tokenization,omitempty"`
	SkipVectorization bool   `json:"skip_vectorization,omitempty"`
}

// Module is the JSON form of a generative or reranker module.
type Module struct {
	Name    string         `json:"name"`
	Model   string         `json:"model,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Vectorizer is the JSON form of a vectorizer setting.
type Vectorizer struct {
	Name        string         `json:"name"`
	Model       string         `json:"model,omitempty"`
	ImageFields []string       `json:"image_fields,omitempty"`
	TextFields  []string       `json:"text_fields,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
}

// Collection is the JSON form of a collection, used for create requests and responses.
type Collection struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Properties  []Property `json:"properties"`
	Vectorizer  Vectorizer `json:"vectorizer"`
	Generative  *Module    `json:"generative,omitempty"`
	Reranker    *Module    `json:"reranker,omitempty"`
}

// ToDefinition converts a create request into a collection definition.
func (c *Collection) ToDefinition() collectionuc.Definition {
	def := collectionuc.Definition{
		Name:        c.Name,
		Description: c.Description,
		Properties:  make([]collectionuc.PropertyDef, len(c.Properties)),
		Vectorizer: collectionuc.VectorizerDef{
			Name:        c.Vectorizer.Name,
			Model:       c.Vectorizer.Model,
			ImageFields: c.Vectorizer.ImageFields,
			TextFields:  c.Vectorizer.TextFields,
			Options:     c.Vectorizer.Options,
		},
		Generative: c.Generative.toDef(),
		Reranker:   c.Reranker.toDef(),
	}
	for i, p := range c.Properties {
		def.Properties[i] = p.ToDef()
	}
	return def
}

// ToDef converts a property into its definition.
func (p Property) ToDef() collectionuc.PropertyDef {
	return collectionuc.PropertyDef{
		Name:              p.Name,
		DataType:          p.DataType,
		Description:       p.Description,
		Tokenization:      p.Tokenization,
		SkipVectorization: p.SkipVectorization,
	}
}

func (m *Module) toDef() *collectionuc.ModuleDef {
	if m == nil {
		return nil
	}
	return &collectionuc.ModuleDef{Name: m.Name, Model: m.Model, Options: m.Options}
}

// CollectionFromDomain renders a collection.
func CollectionFromDomain(c domcol.Collection) Collection {
	v := c.Vectorizer()
	out := Collection{
		Name:        c.Name(),
		Description: c.Description(),
		Properties:  make([]Property, len(c.Properties())),
		Vectorizer: Vectorizer{
			Name:        v.Module(),
			Model:       v.Model(),
			ImageFields: v.ImageFields(),
			TextFields:  v.TextFields(),
			Options:     v.Options(),
		},
		Generative: moduleFromDomain(c.Generative()),
		Reranker:   moduleFromDomain(c.Reranker()),
	}
	for i, p := range c.Properties() {
		out.Properties[i] = Property{
			Name:              p.Name(),
			DataType:          string(p.DataType()),
			Description:       p.Description(),
			Tokenization:      string(p.Tokenization()),
			SkipVectorization: p.SkipVectorization(),
		}
	}
	return out
}

func moduleFromDomain(m *domcol.Module) *Module {
	if m == nil {
		return nil
	}
	return &Module{Name: m.Name(), Model: m.Model(), Options: m.Options()}
}
