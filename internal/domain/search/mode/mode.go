// Package mode names the Weaviate query operators.
package mode

import "strings"

// Mode is the search strategy.
type Mode string

// Search modes.
const (
	// NearText embeds the query with the collection's vectorizer.
	NearText   Mode = "near_text"
	NearVector Mode = "near_vector"
	NearImage  Mode = "near_image"
	// NearObject finds objects similar to an existing object.
	NearObject Mode = "near_object"
	BM25       Mode = "bm25"
	// Hybrid blends BM25 and vector similarity, weighted by alpha.
	Hybrid Mode = "hybrid"
)

// aliases maps GraphQL operator names and everyday words to modes.
var aliases = map[string]Mode{
	"neartext":   NearText,
	"semantic":   NearText,
	"nearvector": NearVector,
	"vector":     NearVector,
	"nearimage":  NearImage,
	"image":      NearImage,
	"nearobject": NearObject,
	"similar":    NearObject,
	"keyword":    BM25,
}

// Parse accepts a mode name in any case, with "-" or "_" separators, the
// GraphQL operator spelling (nearText) or a common alias (semantic, keyword).
// The empty string parses as Hybrid.
func Parse(s string) (Mode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Hybrid, true
	}
	if m := Mode(strings.ReplaceAll(s, "-", "_")); m.IsValid() {
		return m, true
	}
	m, ok := aliases[strings.NewReplacer("_", "", "-", "").Replace(s)]
	return m, ok
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	switch m {
	case NearText, NearVector, NearImage, NearObject, BM25, Hybrid:
		return true
	}
	return false
}

// NeedsQuery reports whether the mode takes a text query.
func (m Mode) NeedsQuery() bool { return m == NearText || m == BM25 || m == Hybrid }

// IsVector reports whether results are ranked by vector distance.
func (m Mode) IsVector() bool {
	return m == NearText || m == NearVector || m == NearImage || m == NearObject
}
