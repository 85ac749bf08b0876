package request

import (
	"math"
	"strings"
	"testing"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
)

func ptr(f float64) *float64 { return &f }

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{Query: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Hybrid {
		t.Errorf("Mode() = %q, want hybrid (default)", r.Mode())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Alpha() != DefaultAlpha {
		t.Errorf("Alpha() = %v, want %v", r.Alpha(), DefaultAlpha)
	}
	if r.MaxDistance() != nil {
		t.Error("MaxDistance() should be nil by default")
	}
}

func TestNew_LimitClamped(t *testing.T) {
	r, err := New(Params{Query: "q", Limit: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}

	r, err = NewWithLimits(Params{Query: "q"}, 5, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 5 {
		t.Errorf("Limit() = %d, want configured default 5", r.Limit())
	}
}

func TestNew_ModeRequirements(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"near_text without query", Params{Mode: mode.NearText}},
		{"bm25 without query", Params{Mode: mode.BM25}},
		{"near_vector without vector", Params{Mode: mode.NearVector}},
		{"near_image without image", Params{Mode: mode.NearImage}},
		{"near_object without id", Params{Mode: mode.NearObject}},
		{"unknown mode", Params{Mode: "semantic", Query: "q"}},
		{"query too long", Params{Query: strings.Repeat("x", MaxQueryLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.p); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_ParameterScope(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"alpha on hybrid", Params{Query: "q", Alpha: ptr(0.75)}, false},
		{"alpha out of range", Params{Query: "q", Alpha: ptr(1.5)}, true},
		{"alpha NaN", Params{Query: "q", Alpha: ptr(math.NaN())}, true},
		{"alpha on bm25", Params{Mode: mode.BM25, Query: "q", Alpha: ptr(0.5)}, true},
		{"distance on near_text", Params{Mode: mode.NearText, Query: "q", MaxDistance: ptr(0.3)}, false},
		{"negative distance", Params{Mode: mode.NearText, Query: "q", MaxDistance: ptr(-1)}, true},
		{"distance NaN", Params{Mode: mode.NearText, Query: "q", MaxDistance: ptr(math.NaN())}, true},
		{"distance infinite", Params{Mode: mode.NearText, Query: "q", MaxDistance: ptr(math.Inf(1))}, true},
		{"distance on bm25", Params{Mode: mode.BM25, Query: "q", MaxDistance: ptr(0.3)}, true},
		{"targets on bm25", Params{Mode: mode.BM25, Query: "q", TargetProperties: []string{"title"}}, false},
		{"targets on near_text", Params{Mode: mode.NearText, Query: "q", TargetProperties: []string{"title"}}, true},
		{"negative offset", Params{Query: "q", Offset: -1}, true},
		{"autocut too big", Params{Query: "q", Autocut: MaxAutocut + 1}, true},
		{"rerank query without property", Params{Query: "q", RerankQuery: "x"}, true},
		{"rerank property without query", Params{Query: "q", RerankProperty: "title"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithQueryVector(t *testing.T) {
	nt, _ := New(Params{Mode: mode.NearText, Query: "cats"})
	converted := nt.WithQueryVector([]float32{1, 2})
	if converted.Mode() != mode.NearVector || len(converted.Vector()) != 2 {
		t.Errorf("near_text should become near_vector, got %s", converted.Mode())
	}
	if nt.Mode() != mode.NearText {
		t.Error("WithQueryVector must not mutate the receiver")
	}

	hy, _ := New(Params{Query: "cats"})
	withVec := hy.WithQueryVector([]float32{1})
	if withVec.Mode() != mode.Hybrid || withVec.Query() != "cats" {
		t.Error("hybrid should keep its mode and query")
	}
}

func TestRerankQuery_FallsBackToQuery(t *testing.T) {
	r, _ := New(Params{Query: "cats", RerankProperty: "title"})
	if r.RerankQuery() != "cats" {
		t.Errorf("RerankQuery() = %q, want cats", r.RerankQuery())
	}
}
