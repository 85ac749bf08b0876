package collection

import (
	"fmt"

	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// PropertyDef is an unvalidated property definition.
type PropertyDef struct {
	Name              string
	DataType          string
	Description       string
	Tokenization      string
	SkipVectorization bool
}

// ModuleDef is an unvalidated module setting.
type ModuleDef struct {
	Name    string
	Model   string
	Options map[string]any
}

// VectorizerDef is an unvalidated vectorizer setting. An empty Name means "none".
type VectorizerDef struct {
	Name        string
	Model       string
	ImageFields []string
	TextFields  []string
	Options     map[string]any
}

// Definition describes a collection to create.
type Definition struct {
	Name        string
	Description string
	Properties  []PropertyDef
	Vectorizer  VectorizerDef
	Generative  *ModuleDef
	Reranker    *ModuleDef
}

// Build validates the definition into a domain collection.
func (d Definition) Build() (domcol.Collection, error) {
	props := make([]property.Property, 0, len(d.Properties))
	for _, pd := range d.Properties {
		p, err := pd.Build()
		if err != nil {
			return domcol.Collection{}, err
		}
		props = append(props, p)
	}

	vec, err := domcol.NewVectorizer(d.Vectorizer.Name, domcol.VectorizerOptions{
		Model:       d.Vectorizer.Model,
		ImageFields: d.Vectorizer.ImageFields,
		TextFields:  d.Vectorizer.TextFields,
		Options:     d.Vectorizer.Options,
	})
	if err != nil {
		return domcol.Collection{}, err
	}

	var generative, reranker *domcol.Module
	if d.Generative != nil {
		m, err := domcol.NewGenerative(d.Generative.Name, d.Generative.Model, d.Generative.Options)
		if err != nil {
			return domcol.Collection{}, err
		}
		generative = &m
	}
	if d.Reranker != nil {
		m, err := domcol.NewReranker(d.Reranker.Name, d.Reranker.Model, d.Reranker.Options)
		if err != nil {
			return domcol.Collection{}, err
		}
		reranker = &m
	}

	col, err := domcol.New(d.Name, d.Description, props, vec, generative, reranker)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("collection %q: %w", d.Name, err)
	}
	return col, nil
}

// Build validates the definition into a domain property.
func (pd PropertyDef) Build() (property.Property, error) {
	p, err := property.New(pd.Name, property.DataType(pd.DataType), property.Options{
		Description:       pd.Description,
		Tokenization:      property.Tokenization(pd.Tokenization),
		SkipVectorization: pd.SkipVectorization,
	})
	if err != nil {
		return property.Property{}, fmt.Errorf("property: %w", err)
	}
	return p, nil
}
