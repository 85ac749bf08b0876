package collection

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// VectorizerNone disables server-side vectorization; vectors are supplied by the client.
const VectorizerNone = "none"

// Module is a Weaviate module setting (generative or reranker) with its model.
type Module struct {
	name    string
	model   string
	options map[string]any
}

// NewModule validates and creates a Module. prefix is the required module family (e.g. "generative-").
func NewModule(name, model string, options map[string]any, prefix string) (Module, error) {
	if name == "" {
		return Module{}, fmt.Errorf("module name is required")
	}
	if !strings.HasPrefix(name, prefix) {
		return Module{}, fmt.Errorf("module %q is not a %s* module", name, prefix)
	}
	return Module{name: name, model: model, options: maps.Clone(options)}, nil
}

// NewGenerative creates a generative module setting (generative-openai, generative-cohere, ...).
func NewGenerative(name, model string, options map[string]any) (Module, error) {
	return NewModule(name, model, options, "generative-")
}

// NewReranker creates a reranker module setting (reranker-cohere, reranker-transformers, ...).
func NewReranker(name, model string, options map[string]any) (Module, error) {
	return NewModule(name, model, options, "reranker-")
}

// ReconstructModule creates a Module without validation (schema hydration).
func ReconstructModule(name, model string, options map[string]any) Module {
	return Module{name: name, model: model, options: options}
}

// Name returns the module name.
func (m Module) Name() string { return m.name }

// Model returns the configured model (empty for module default).
func (m Module) Model() string { return m.model }

// Options returns additional module settings.
func (m Module) Options() map[string]any { return m.options }

// VectorizerKind classifies what a vectorizer can embed.
type VectorizerKind string

// Vectorizer kinds, derived from the module family prefix.
const (
	KindNone  VectorizerKind = "none"
	KindText  VectorizerKind = "text"
	KindMulti VectorizerKind = "multi"
	KindImage VectorizerKind = "image"
	KindRef   VectorizerKind = "ref"
)

func kindOf(module string) (VectorizerKind, bool) {
	switch {
	case module == VectorizerNone:
		return KindNone, true
	case strings.HasPrefix(module, "text2vec-"):
		return KindText, true
	case strings.HasPrefix(module, "multi2vec-"):
		return KindMulti, true
	case strings.HasPrefix(module, "img2vec-"):
		return KindImage, true
	case strings.HasPrefix(module, "ref2vec-"):
		return KindRef, true
	}
	return "", false
}

// Vectorizer is the collection's vectorizer module selection.
type Vectorizer struct {
	module      string
	kind        VectorizerKind
	model       string
	imageFields []string
	textFields  []string
	options     map[string]any
}

// VectorizerOptions are the optional vectorizer settings.
type VectorizerOptions struct {
	Model       string
	ImageFields []string
	TextFields  []string
	Options     map[string]any
}

// NewVectorizer validates and creates a Vectorizer. Empty module means "none".
func NewVectorizer(module string, opts VectorizerOptions) (Vectorizer, error) {
	if module == "" {
		module = VectorizerNone
	}
	kind, ok := kindOf(module)
	if !ok {
		return Vectorizer{}, fmt.Errorf("unknown vectorizer module %q", module)
	}
	if (kind == KindMulti || kind == KindImage) && len(opts.ImageFields) == 0 {
		return Vectorizer{}, fmt.Errorf("vectorizer %q requires at least one image field", module)
	}
	if kind == KindImage && len(opts.TextFields) > 0 {
		return Vectorizer{}, fmt.Errorf("vectorizer %q does not accept text fields", module)
	}
	if kind == KindNone && (opts.Model != "" || len(opts.ImageFields) > 0 || len(opts.TextFields) > 0) {
		return Vectorizer{}, fmt.Errorf("vectorizer none takes no model or fields")
	}
	return Vectorizer{
		module:      module,
		kind:        kind,
		model:       opts.Model,
		imageFields: slices.Clone(opts.ImageFields),
		textFields:  slices.Clone(opts.TextFields),
		options:     maps.Clone(opts.Options),
	}, nil
}

// NoVectorizer returns the "none" vectorizer.
func NoVectorizer() Vectorizer {
	return Vectorizer{module: VectorizerNone, kind: KindNone}
}

// ReconstructVectorizer creates a Vectorizer without validation (schema hydration).
func ReconstructVectorizer(module string, opts VectorizerOptions) Vectorizer {
	if module == "" {
		module = VectorizerNone
	}
	kind, ok := kindOf(module)
	if !ok {
		kind = KindText
	}
	return Vectorizer{
		module: module, kind: kind, model: opts.Model,
		imageFields: opts.ImageFields, textFields: opts.TextFields, options: opts.Options,
	}
}

// Module returns the vectorizer module name.
func (v Vectorizer) Module() string {
	if v.module == "" {
		return VectorizerNone
	}
	return v.module
}

// Kind returns what the vectorizer can embed.
func (v Vectorizer) Kind() VectorizerKind {
	if v.kind == "" {
		return KindNone
	}
	return v.kind
}

// Model returns the configured model (empty for module default).
func (v Vectorizer) Model() string { return v.model }

// ImageFields returns the blob properties embedded by image-capable vectorizers.
func (v Vectorizer) ImageFields() []string { return v.imageFields }

// TextFields returns the text properties embedded by multi-modal vectorizers.
func (v Vectorizer) TextFields() []string { return v.textFields }

// Options returns additional module settings.
func (v Vectorizer) Options() map[string]any { return v.options }

// IsNone reports whether vectors are supplied by the client.
func (v Vectorizer) IsNone() bool { return v.Kind() == KindNone }

// SupportsText reports whether the server can embed near_text queries.
func (v Vectorizer) SupportsText() bool {
	return v.Kind() == KindText || v.Kind() == KindMulti
}

// SupportsImage reports whether the server can embed near_image queries.
func (v Vectorizer) SupportsImage() bool {
	return v.Kind() == KindMulti || v.Kind() == KindImage
}
