package collection

import (
	"maps"
	"strings"

	"github.com/spf13/cast"
	"github.com/weaviate/weaviate/entities/models"

	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// moduleConfig keys owned by the vectorizer entry.
const (
	keyModel       = "model"
	keyImageFields = "imageFields"
	keyTextFields  = "textFields"
	keySkip        = "skip"
)

func toClass(col domcol.Collection) *models.Class {
	vec := col.Vectorizer()
	class := &models.Class{
		Class:       col.Name(),
		Description: col.Description(),
		Vectorizer:  vec.Module(),
	}

	moduleConfig := map[string]any{}
	if !vec.IsNone() {
		cfg := maps.Clone(vec.Options())
		if cfg == nil {
			cfg = map[string]any{}
		}
		if vec.Model() != "" {
			cfg[keyModel] = vec.Model()
		}
		if len(vec.ImageFields()) > 0 {
			cfg[keyImageFields] = vec.ImageFields()
		}
		if len(vec.TextFields()) > 0 {
			cfg[keyTextFields] = vec.TextFields()
		}
		moduleConfig[vec.Module()] = cfg
	}
	for _, m := range []*domcol.Module{col.Generative(), col.Reranker()} {
		if m == nil {
			continue
		}
		cfg := maps.Clone(m.Options())
		if cfg == nil {
			cfg = map[string]any{}
		}
		if m.Model() != "" {
			cfg[keyModel] = m.Model()
		}
		moduleConfig[m.Name()] = cfg
	}
	if len(moduleConfig) > 0 {
		class.ModuleConfig = moduleConfig
	}

	class.Properties = make([]*models.Property, 0, len(col.Properties()))
	for _, p := range col.Properties() {
		class.Properties = append(class.Properties, toProperty(p, vec))
	}
	return class
}

func toProperty(p property.Property, vec domcol.Vectorizer) *models.Property {
	mp := &models.Property{
		Name:         p.Name(),
		DataType:     []string{string(p.DataType())},
		Description:  p.Description(),
		Tokenization: string(p.Tokenization()),
	}
	if p.SkipVectorization() && !vec.IsNone() {
		mp.ModuleConfig = map[string]any{vec.Module(): map[string]any{keySkip: true}}
	}
	return mp
}

func fromClass(c *models.Class) domcol.Collection {
	moduleConfig := cast.ToStringMap(c.ModuleConfig)

	vec := domcol.NoVectorizer()
	if c.Vectorizer != "" && c.Vectorizer != domcol.VectorizerNone {
		cfg := cast.ToStringMap(moduleConfig[c.Vectorizer])
		vec = domcol.ReconstructVectorizer(c.Vectorizer, domcol.VectorizerOptions{
			Model:       cast.ToString(cfg[keyModel]),
			ImageFields: cast.ToStringSlice(cfg[keyImageFields]),
			TextFields:  cast.ToStringSlice(cfg[keyTextFields]),
			Options:     without(cfg, keyModel, keyImageFields, keyTextFields),
		})
	}

	var generative, reranker *domcol.Module
	for name, raw := range moduleConfig {
		cfg := cast.ToStringMap(raw)
		m := domcol.ReconstructModule(name, cast.ToString(cfg[keyModel]), without(cfg, keyModel))
		switch {
		case strings.HasPrefix(name, "generative-"):
			generative = &m
		case strings.HasPrefix(name, "reranker-"):
			reranker = &m
		}
	}

	props := make([]property.Property, 0, len(c.Properties))
	for _, mp := range c.Properties {
		if mp == nil || len(mp.DataType) == 0 {
			continue
		}
		skip := false
		if c.Vectorizer != "" {
			skip = cast.ToBool(cast.ToStringMap(cast.ToStringMap(mp.ModuleConfig)[c.Vectorizer])[keySkip])
		}
		props = append(props, property.Reconstruct(mp.Name, property.DataType(mp.DataType[0]), property.Options{
			Description:       mp.Description,
			Tokenization:      property.Tokenization(mp.Tokenization),
			SkipVectorization: skip,
		}))
	}

	return domcol.Reconstruct(c.Class, c.Description, props, vec, generative, reranker)
}

func without(m map[string]any, keys ...string) map[string]any {
	out := maps.Clone(m)
	for _, k := range keys {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
