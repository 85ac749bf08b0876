package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/saskinosie/weaviate-claude-skills/internal/app"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/media"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/transport/dto"
	raguc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/rag"
	usageuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/usage"
)

var errDegraded = errors.New("one or more checks failed")

func runCheck(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("check", "")
	if err := parse(fs, args, 0, 0); err != nil {
		return err
	}
	rep := a.Health.Check(ctx)
	resp := dto.HealthFromReport(rep, true)
	resp.WeaviateURL = a.Config.Weaviate.URL
	if err := printJSON(out, resp); err != nil {
		return err
	}
	if !rep.Healthy() {
		return errDegraded
	}
	return nil
}

func runMeta(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("meta", "")
	if err := parse(fs, args, 0, 0); err != nil {
		return err
	}
	meta, err := a.DB.Meta(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]any{
		"version":  meta.Version,
		"hostname": meta.Hostname,
		"modules":  meta.Modules,
	})
}

func runUsage(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("usage", "")
	period := fs.String("period", "day", "day or month")
	if err := parse(fs, args, 0, 0); err != nil {
		return err
	}
	p, err := usageuc.ParsePeriod(*period)
	if err != nil {
		return err
	}
	rep := a.Usage.GetReport(ctx, p)
	return printJSON(out, dto.UsageFromReport(rep))
}

func runInsert(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("insert", "COLLECTION --data JSON")
	data := fs.String("data", "", "properties as a JSON object, or @file")
	id := fs.String("id", "", "object id (default: generated)")
	vector := fs.String("vector", "", "vector as a JSON array, or @file")
	imageProp := fs.String("image-property", "", "blob property receiving --image")
	image := fs.String("image", "", "image file stored base64-encoded in --image-property")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	collection := fs.Arg(0)

	req := dto.Object{ID: *id, Properties: map[string]any{}}
	if *data != "" {
		if err := parseJSONFlag("data", *data, &req.Properties); err != nil {
			return err
		}
	}
	if *vector != "" {
		if err := parseJSONFlag("vector", *vector, &req.Vector); err != nil {
			return err
		}
	}

	if *image != "" {
		if *imageProp == "" {
			return fmt.Errorf("%w: --image needs --image-property", errUsage)
		}
		obj, err := a.Objects.InsertImage(ctx, collection, *imageProp, *image, req.Properties)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]string{"id": obj.ID()})
	}

	obj, err := req.ToDomain()
	if err != nil {
		return err
	}
	created, err := a.Objects.Insert(ctx, collection, obj)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]string{"id": created.ID()})
}

func runUpdate(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("update", "COLLECTION ID --data JSON [--replace]")
	data := fs.String("data", "", "properties as a JSON object, or @file")
	vector := fs.String("vector", "", "vector as a JSON array, or @file")
	replace := fs.Bool("replace", false, "replace all properties instead of merging")
	if err := parse(fs, args, 2, 2); err != nil {
		return err
	}
	if *data == "" {
		return fmt.Errorf("%w: --data is required", errUsage)
	}

	req := dto.Object{ID: fs.Arg(1)}
	if err := parseJSONFlag("data", *data, &req.Properties); err != nil {
		return err
	}
	if *vector != "" {
		if err := parseJSONFlag("vector", *vector, &req.Vector); err != nil {
			return err
		}
	}
	obj, err := req.ToDomain()
	if err != nil {
		return err
	}

	op := "updated"
	if *replace {
		op = "replaced"
		err = a.Objects.Replace(ctx, fs.Arg(0), obj)
	} else {
		err = a.Objects.Update(ctx, fs.Arg(0), obj)
	}
	if err != nil {
		return err
	}
	return printJSON(out, map[string]string{"id": obj.ID(), "status": op})
}

func runGet(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("get", "COLLECTION ID")
	withVector := fs.Bool("include-vector", false, "return the vector")
	if err := parse(fs, args, 2, 2); err != nil {
		return err
	}
	obj, err := a.Search.FetchByID(ctx, fs.Arg(0), fs.Arg(1), *withVector)
	if err != nil {
		return err
	}
	return printJSON(out, dto.ObjectFromDomain(&obj))
}

func runList(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("list", "COLLECTION [--cursor ID] [--all]")
	limit := fs.IntP("limit", "n", 0, "page size (default from config)")
	cursor := fs.String("cursor", "", "continue after this object id")
	all := fs.Bool("all", false, "stream every object as JSON lines")
	withVector := fs.Bool("include-vector", false, "return vectors")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}

	if *all {
		enc := json.NewEncoder(out)
		return a.Search.Iterate(ctx, fs.Arg(0), *limit, func(o domobj.Object) error {
			return enc.Encode(dto.ObjectFromDomain(&o))
		})
	}

	page, err := a.Search.FetchAll(ctx, fs.Arg(0), *cursor, *limit, *withVector)
	if err != nil {
		return err
	}
	return printJSON(out, dto.PageFromDomain(page))
}

func runDelete(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("delete", "COLLECTION ID | COLLECTION --where JSON [--dry-run]")
	where := fs.StringP("where", "w", "", "delete objects matching this filter (JSON, or @file)")
	dryRun := fs.Bool("dry-run", false, "count matches without deleting")
	if err := parse(fs, args, 1, 2); err != nil {
		return err
	}
	collection := fs.Arg(0)

	if fs.NArg() == 2 {
		if *where != "" {
			return fmt.Errorf("%w: pass an id or --where, not both", errUsage)
		}
		if err := a.Objects.Delete(ctx, collection, fs.Arg(1)); err != nil {
			return err
		}
		return printJSON(out, map[string]string{"id": fs.Arg(1), "status": "deleted"})
	}

	if *where == "" {
		return fmt.Errorf("%w: delete needs an id or --where", errUsage)
	}
	f, err := parseWhere(*where)
	if err != nil {
		return err
	}
	node, err := f.ToDomain()
	if err != nil {
		return err
	}
	sum, err := a.Batch.DeleteMany(ctx, collection, node, *dryRun)
	if err != nil {
		return err
	}
	return printJSON(out, dto.DeleteManyFromDomain(sum))
}

func runQuery(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("query", "COLLECTION [flags]")
	sf := addSearchFlags(fs, "hybrid")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	sr, err := sf.request(fs)
	if err != nil {
		return err
	}
	req, err := sr.ToDomain(a.Config.Query.DefaultLimit, a.Config.Query.MaxLimit)
	if err != nil {
		return err
	}
	results, err := a.Search.Search(ctx, fs.Arg(0), req)
	if err != nil {
		return err
	}
	return printJSON(out, dto.SearchResponse{Results: dto.HitsFromDomain(results), Count: len(results)})
}

func runAggregate(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("aggregate", "COLLECTION [--where JSON] [--group-by PROPERTY]")
	where := fs.StringP("where", "w", "", "filter as JSON, or @file")
	groupBy := fs.String("group-by", "", "count per value of this property")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	f, err := parseWhere(*where)
	if err != nil {
		return err
	}
	node, err := f.ToDomain()
	if err != nil {
		return err
	}
	agg, err := a.Search.Aggregate(ctx, fs.Arg(0), node, *groupBy)
	if err != nil {
		return err
	}
	return printJSON(out, dto.AggregateFromDomain(agg))
}

func runGenerate(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("generate", "COLLECTION --single-prompt TEXT | --grouped-task TEXT [search flags]")
	sf := addSearchFlags(fs, "near_text")
	single := fs.String("single-prompt", "", "prompt run per result; {property} placeholders are filled in")
	grouped := fs.String("grouped-task", "", "task run once over all results")
	groupedProps := fs.StringSlice("grouped-properties", nil, "properties passed to the grouped task")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}

	sr, err := sf.request(fs)
	if err != nil {
		return err
	}
	greq := dto.GenerateRequest{
		SearchRequest:     sr,
		SinglePrompt:      *single,
		GroupedTask:       *grouped,
		GroupedProperties: *groupedProps,
	}
	gen, err := greq.Generate()
	if err != nil {
		return err
	}
	req, err := sr.ToDomain(a.Config.Query.DefaultLimit, a.Config.Query.MaxLimit)
	if err != nil {
		return err
	}
	res, err := a.RAG.Generate(ctx, fs.Arg(0), req, gen)
	if err != nil {
		return err
	}
	return printJSON(out, dto.GenerateFromDomain(res))
}

func runAsk(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("ask", "COLLECTION QUESTION... [search flags]")
	sf := addSearchFlags(fs, "hybrid")
	contextProps := fs.StringSlice("context-properties", nil, "properties included in the context (default: text-like)")
	system := fs.String("system", "", "system prompt")
	if err := parse(fs, args, 2, -1); err != nil {
		return err
	}
	params := raguc.AskParams{
		Question:          strings.Join(fs.Args()[1:], " "),
		ContextProperties: *contextProps,
		SystemPrompt:      *system,
	}

	if sf.changed(fs) {
		sr, err := sf.request(fs)
		if err != nil {
			return err
		}
		if sr.Query == "" && sr.Vector == nil && sr.Image == "" {
			sr.Query = params.Question
		}
		req, err := sr.ToDomain(a.Config.Query.DefaultLimit, a.Config.Query.MaxLimit)
		if err != nil {
			return err
		}
		params.Retrieval = &req
	}

	ans, err := a.RAG.Ask(ctx, fs.Arg(0), params)
	if err != nil {
		return err
	}
	return printJSON(out, dto.AnswerFromDomain(ans))
}

func runDescribe(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("describe", "IMAGE [--prompt TEXT] [--collection NAME]")
	prompt := fs.String("prompt", "", "question about the image")
	collection := fs.String("collection", "", "ground the answer in similar objects of this collection")
	limit := fs.IntP("limit", "n", 0, "objects retrieved with --collection")
	contextProps := fs.StringSlice("context-properties", nil, "properties included in the context")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	img, err := media.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	if *collection != "" {
		ans, err := a.RAG.AskAboutImage(ctx, *collection, img, *prompt, *limit, *contextProps)
		if err != nil {
			return err
		}
		return printJSON(out, dto.AnswerFromDomain(ans))
	}
	ans, err := a.RAG.Describe(ctx, img, *prompt)
	if err != nil {
		return err
	}
	return printJSON(out, dto.AnswerFromDomain(ans))
}
