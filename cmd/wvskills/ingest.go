package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/app"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	dombatch "github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/media"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	logpkg "github.com/saskinosie/weaviate-claude-skills/internal/logger"
)

const maxLineBytes = 16 << 20

type ingestOptions struct {
	collection    string
	idKey         string
	vectorKey     string
	imageProperty string
	imageDir      string
}

type ingestFailure struct {
	Line      int    `json:"line"`
	ID        string `json:"id,omitempty"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ingestReport struct {
	Collection string          `json:"collection"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Retryable  int             `json:"retryable"`
	Failures   []ingestFailure `json:"failures,omitempty"`
}

func runIngest(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("ingest", "COLLECTION --file objects.jsonl")
	file := fs.StringP("file", "f", "-", "JSON lines file, - for stdin")
	idKey := fs.String("id-key", "", "property hashed into a deterministic id, so re-runs update instead of duplicate")
	vectorKey := fs.String("vector-key", "", "field holding a precomputed vector, removed from the properties")
	imageProperty := fs.String("image-property", "", "blob property whose value is an image path")
	imageDir := fs.String("image-dir", "", "directory image paths are relative to")
	failedOut := fs.String("failed-out", "", "write failed lines here for a retry")
	retryableOnly := fs.Bool("retryable-only", false, "with --failed-out, keep only lines that failed for transient reasons")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	opts := ingestOptions{
		collection:    fs.Arg(0),
		idKey:         *idKey,
		vectorKey:     *vectorKey,
		imageProperty: *imageProperty,
		imageDir:      *imageDir,
	}
	ctx = logpkg.With(ctx, zap.String("collection", opts.collection), zap.String("file", *file))

	in := io.Reader(os.Stdin)
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("open %s: %w", *file, err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	lines, err := readLines(in)
	if err != nil {
		return err
	}

	report := ingestReport{Collection: opts.collection, Total: len(lines)}
	var failedLines [][]byte
	objs := make([]domobj.Object, 0, len(lines))
	src := make([]int, 0, len(lines))
	for i, l := range lines {
		obj, err := parseLine(l.data, opts)
		if err != nil {
			report.Failures = append(report.Failures, ingestFailure{
				Line:  l.number,
				Stage: string(dombatch.StageValidate),
				Error: err.Error(),
			})
			if !*retryableOnly {
				failedLines = append(failedLines, l.data)
			}
			continue
		}
		objs = append(objs, obj)
		src = append(src, i)
	}

	if len(objs) > 0 {
		_, summary := a.Batch.Insert(ctx, opts.collection, objs)
		report.Succeeded = summary.Succeeded
		for _, f := range summary.Failed {
			l := lines[src[f.Index]]
			report.Failures = append(report.Failures, ingestFailure{
				Line:      l.number,
				ID:        f.Object.ID(),
				Stage:     string(f.Stage),
				Error:     f.Err.Error(),
				Retryable: f.Retryable,
			})
			if f.Retryable {
				report.Retryable++
			}
			if f.Retryable || !*retryableOnly {
				failedLines = append(failedLines, l.data)
			}
		}
	}
	report.Failed = len(report.Failures)

	if *failedOut != "" && len(failedLines) > 0 {
		if err := writeLines(*failedOut, failedLines); err != nil {
			return err
		}
	}
	if err := printJSON(out, report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d objects failed", report.Failed, report.Total)
	}
	return nil
}

type line struct {
	number int
	data   []byte
}

// readLines returns the non-blank lines of r, numbered from 1. Blank lines keep
// their number so failures point at the right place in the file.
func readLines(r io.Reader) ([]line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var out []line
	n := 0
	for sc.Scan() {
		n++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		out = append(out, line{number: n, data: bytes.Clone(data)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return out, nil
}

func parseLine(data []byte, opts ingestOptions) (domobj.Object, error) {
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return domobj.Object{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	var id string
	if opts.idKey != "" {
		key, ok := props[opts.idKey]
		if !ok {
			return domobj.Object{}, fmt.Errorf("%w: missing id key %q", domain.ErrInvalidRequest, opts.idKey)
		}
		id = domobj.DeterministicID(domcol.NormalizeName(opts.collection), cast.ToString(key))
	}

	var vector []float32
	if opts.vectorKey != "" {
		if raw, ok := props[opts.vectorKey]; ok {
			v, err := toVector(raw)
			if err != nil {
				return domobj.Object{}, err
			}
			vector = v
			delete(props, opts.vectorKey)
		}
	}

	if opts.imageProperty != "" {
		if raw, ok := props[opts.imageProperty].(string); ok && raw != "" {
			path := raw
			if opts.imageDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(opts.imageDir, path)
			}
			img, err := media.Load(path)
			if err != nil {
				return domobj.Object{}, err
			}
			props[opts.imageProperty] = img.Base64
		}
	}

	return domobj.New(id, props, vector)
}

func toVector(raw any) ([]float32, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: vector must be an array", domain.ErrInvalidRequest)
	}
	v := make([]float32, len(items))
	for i, item := range items {
		f, err := cast.ToFloat32E(item)
		if err != nil {
			return nil, fmt.Errorf("%w: vector[%d]: %w", domain.ErrInvalidRequest, i, err)
		}
		v[i] = f
	}
	return v, nil
}

func writeLines(path string, lines [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		_, _ = w.Write(l)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
