package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/media"
	"github.com/saskinosie/weaviate-claude-skills/internal/transport/dto"
)

func newFlagSet(name, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: wvskills %s %s\n\nFlags:\n%s", name, args, fs.FlagUsages())
	}
	return fs
}

// parse parses flags and checks the number of positional arguments (max < 0 means unbounded).
func parse(fs *pflag.FlagSet, args []string, minArgs, maxArgs int) error {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp { //nolint:errorlint // sentinel returned verbatim
			return err
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	n := fs.NArg()
	if n < minArgs || (maxArgs >= 0 && n > maxArgs) {
		fs.Usage()
		return fmt.Errorf("%w: %s takes %s", errUsage, fs.Name(), argCount(minArgs, maxArgs))
	}
	return nil
}

func argCount(minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d argument(s)", minArgs)
	case minArgs == maxArgs:
		return fmt.Sprintf("%d argument(s)", minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", minArgs, maxArgs)
	}
}

// readInline returns v, or the contents of the file when v is @path.
func readInline(v string) ([]byte, error) {
	if path, ok := strings.CutPrefix(v, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}
	return []byte(v), nil
}

func parseJSONFlag(name, v string, dst any) error {
	data, err := readInline(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: --%s: %w", domain.ErrInvalidRequest, name, err)
	}
	return nil
}

func parseWhere(v string) (*dto.Filter, error) {
	if v == "" {
		return nil, nil
	}
	var f dto.Filter
	if err := parseJSONFlag("where", v, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// searchFlags are shared by query, generate and ask.
type searchFlags struct {
	mode             string
	query            string
	vector           string
	image            string
	objectID         string
	where            string
	limit            int
	offset           int
	autocut          int
	alpha            float64
	maxDistance      float64
	returnProperties []string
	targetProperties []string
	includeVector    bool
	rerankProperty   string
	rerankQuery      string
}

var searchFlagNames = []string{
	"mode", "query", "vector", "image", "object-id", "where", "limit", "offset", "autocut",
	"alpha", "max-distance", "properties", "target-properties", "include-vector",
	"rerank-property", "rerank-query",
}

func addSearchFlags(fs *pflag.FlagSet, defaultMode string) *searchFlags {
	sf := &searchFlags{}
	fs.StringVarP(&sf.mode, "mode", "m", defaultMode, "near_text, near_vector, near_image, near_object, bm25, hybrid")
	fs.StringVarP(&sf.query, "query", "q", "", "query text")
	fs.StringVar(&sf.vector, "vector", "", "query vector as a JSON array, or @file")
	fs.StringVar(&sf.image, "image", "", "image file for near_image")
	fs.StringVar(&sf.objectID, "object-id", "", "object id for near_object")
	fs.StringVarP(&sf.where, "where", "w", "", "filter as JSON, or @file")
	fs.IntVarP(&sf.limit, "limit", "n", 0, "maximum results (default from config)")
	fs.IntVar(&sf.offset, "offset", 0, "results to skip")
	fs.IntVar(&sf.autocut, "autocut", 0, "cut results after N jumps in distance")
	fs.Float64Var(&sf.alpha, "alpha", 0.5, "hybrid weight: 0 = bm25 only, 1 = vector only")
	fs.Float64Var(&sf.maxDistance, "max-distance", 0, "maximum vector distance")
	fs.StringSliceVarP(&sf.returnProperties, "properties", "p", nil, "properties to return")
	fs.StringSliceVar(&sf.targetProperties, "target-properties", nil, "properties searched by bm25/hybrid")
	fs.BoolVar(&sf.includeVector, "include-vector", false, "return vectors")
	fs.StringVar(&sf.rerankProperty, "rerank-property", "", "rerank results on this property")
	fs.StringVar(&sf.rerankQuery, "rerank-query", "", "rerank query (default: the search query)")
	return sf
}

// changed reports whether any search flag was set explicitly.
func (sf *searchFlags) changed(fs *pflag.FlagSet) bool {
	for _, name := range searchFlagNames {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

func (sf *searchFlags) request(fs *pflag.FlagSet) (dto.SearchRequest, error) {
	req := dto.SearchRequest{
		Mode:             sf.mode,
		Query:            sf.query,
		ObjectID:         sf.objectID,
		Limit:            sf.limit,
		Offset:           sf.offset,
		Autocut:          sf.autocut,
		ReturnProperties: sf.returnProperties,
		TargetProperties: sf.targetProperties,
		IncludeVector:    sf.includeVector,
		RerankProperty:   sf.rerankProperty,
		RerankQuery:      sf.rerankQuery,
	}
	if fs.Changed("alpha") {
		alpha := sf.alpha
		req.Alpha = &alpha
	}
	if fs.Changed("max-distance") {
		d := sf.maxDistance
		req.MaxDistance = &d
	}
	if sf.vector != "" {
		if err := parseJSONFlag("vector", sf.vector, &req.Vector); err != nil {
			return dto.SearchRequest{}, err
		}
	}
	if sf.image != "" {
		img, err := media.Load(sf.image)
		if err != nil {
			return dto.SearchRequest{}, err
		}
		req.Image = img.Base64
	}
	where, err := parseWhere(sf.where)
	if err != nil {
		return dto.SearchRequest{}, err
	}
	req.Where = where
	return req, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
