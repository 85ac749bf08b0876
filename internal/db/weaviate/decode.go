package weaviate

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

const additionalKey = "_additional"

// classRows extracts data.<root>.<class> as a list of JSON objects.
func classRows(resp *models.GraphQLResponse, root, class string) ([]map[string]any, error) {
	data, ok := resp.Data[root]
	if !ok {
		return nil, fmt.Errorf("%s key not found in result", root)
	}
	byClass, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s key unexpected type %T", root, data)
	}
	raw, ok := byClass[class]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a list", root, class)
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid element in %s.%s", root, class)
		}
		rows = append(rows, m)
	}
	return rows, nil
}

// decodeGet turns a Get response into hits. The grouped generative answer is
// attached to the first object by the server and lifted onto the result.
func decodeGet(resp *models.GraphQLResponse, class string) (*db.SearchResult, error) {
	rows, err := classRows(resp, "Get", class)
	if err != nil {
		return nil, err
	}
	out := &db.SearchResult{Hits: make([]db.Hit, 0, len(rows))}
	for _, row := range rows {
		hit := db.Hit{Properties: make(map[string]any, len(row))}
		for k, v := range row {
			if k != additionalKey {
				hit.Properties[k] = v
			}
		}
		add := cast.ToStringMap(row[additionalKey])
		hit.ID = cast.ToString(add["id"])
		hit.Distance = optFloat(add["distance"])
		hit.Certainty = optFloat(add["certainty"])
		hit.Score = optFloat(add["score"])
		hit.ExplainScore = cast.ToString(add["explainScore"])
		hit.Vector = toVector(add["vector"])
		if rr := cast.ToSlice(add["rerank"]); len(rr) > 0 {
			hit.RerankScore = optFloat(cast.ToStringMap(rr[0])["score"])
		}
		if gen := cast.ToStringMap(add["generate"]); len(gen) > 0 {
			hit.Generated = cast.ToString(gen["singleResult"])
			hit.GenerateError = cast.ToString(gen["error"])
			if g := cast.ToString(gen["groupedResult"]); g != "" && out.Grouped == "" {
				out.Grouped = g
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// decodeAggregate reads meta.count per row; grouped rows carry groupedBy.value.
func decodeAggregate(resp *models.GraphQLResponse, class string, grouped bool) (*db.AggregateResult, error) {
	rows, err := classRows(resp, "Aggregate", class)
	if err != nil {
		return nil, err
	}
	out := &db.AggregateResult{}
	for _, row := range rows {
		count := cast.ToInt64(cast.ToStringMap(row["meta"])["count"])
		if !grouped {
			out.Total = count
			continue
		}
		out.Total += count
		out.Groups = append(out.Groups, db.AggregateGroup{
			Value: cast.ToString(cast.ToStringMap(row["groupedBy"])["value"]),
			Count: count,
		})
	}
	return out, nil
}

// optFloat decodes numbers that the server may send as JSON numbers or strings (hybrid scores).
func optFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

func toVector(v any) []float32 {
	items := cast.ToSlice(v)
	if len(items) == 0 {
		return nil
	}
	out := make([]float32, len(items))
	for i, it := range items {
		out[i] = cast.ToFloat32(it)
	}
	return out
}
