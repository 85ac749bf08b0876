package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/saskinosie/weaviate-claude-skills/internal/app"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/transport/dto"
)

func runCollections(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: collections needs one of list, get, exists, create, delete, add-property", errUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return collectionsList(ctx, a, rest, out)
	case "get":
		return collectionsGet(ctx, a, rest, out)
	case "exists":
		return collectionsExists(ctx, a, rest, out)
	case "create":
		return collectionsCreate(ctx, a, rest, out)
	case "delete":
		return collectionsDelete(ctx, a, rest, out)
	case "add-property":
		return collectionsAddProperty(ctx, a, rest, out)
	default:
		return fmt.Errorf("%w: unknown collections subcommand %q", errUsage, sub)
	}
}

func collectionsList(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("collections list", "")
	namesOnly := fs.Bool("names", false, "print names only")
	if err := parse(fs, args, 0, 0); err != nil {
		return err
	}
	cols, err := a.Collections.List(ctx)
	if err != nil {
		return err
	}
	if *namesOnly {
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name()
		}
		return printJSON(out, names)
	}
	items := make([]dto.Collection, len(cols))
	for i, c := range cols {
		items[i] = dto.CollectionFromDomain(c)
	}
	return printJSON(out, items)
}

func collectionsGet(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("collections get", "NAME")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	col, err := a.Collections.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(out, dto.CollectionFromDomain(col))
}

func collectionsExists(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("collections exists", "NAME")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	ok, err := a.Collections.Exists(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(out, map[string]bool{"exists": ok})
}

func collectionsCreate(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("collections create", "{--file DEF.json | NAME --property name:type ...}")
	file := fs.StringP("file", "f", "", "collection definition as JSON")
	description := fs.String("description", "", "collection description")
	vectorizer := fs.String("vectorizer", "none", "vectorizer module, e.g. text2vec-openai, multi2vec-clip")
	model := fs.String("model", "", "vectorizer model")
	imageFields := fs.StringSlice("image-fields", nil, "blob properties embedded by an image vectorizer")
	textFields := fs.StringSlice("text-fields", nil, "text properties embedded by a multi-modal vectorizer")
	props := fs.StringArray("property", nil, "property as name:type[:tokenization], repeatable")
	skip := fs.StringSlice("skip-vectorization", nil, "properties left out of the vector")
	generative := fs.String("generative", "", "generative module, e.g. generative-openai")
	generativeModel := fs.String("generative-model", "", "generative model")
	reranker := fs.String("reranker", "", "reranker module, e.g. reranker-cohere")
	rerankerModel := fs.String("reranker-model", "", "reranker model")
	ifNotExists := fs.Bool("if-not-exists", false, "return the existing collection instead of failing")
	if err := parse(fs, args, 0, 1); err != nil {
		return err
	}

	var def dto.Collection
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("read %s: %w", *file, err)
		}
		if err := parseJSONFlag("file", string(data), &def); err != nil {
			return err
		}
		if fs.NArg() == 1 {
			def.Name = fs.Arg(0)
		}
	} else {
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: collections create needs NAME or --file", errUsage)
		}
		def = dto.Collection{
			Name:        fs.Arg(0),
			Description: *description,
			Vectorizer: dto.Vectorizer{
				Name:        *vectorizer,
				Model:       *model,
				ImageFields: *imageFields,
				TextFields:  *textFields,
			},
		}
		for _, raw := range *props {
			p, err := parseProperty(raw)
			if err != nil {
				return err
			}
			def.Properties = append(def.Properties, p)
		}
		markSkipped(def.Properties, *skip)
		if *generative != "" {
			def.Generative = &dto.Module{Name: *generative, Model: *generativeModel}
		}
		if *reranker != "" {
			def.Reranker = &dto.Module{Name: *reranker, Model: *rerankerModel}
		}
	}
	if def.Name == "" {
		return fmt.Errorf("%w: collection name is required", errUsage)
	}

	var (
		col domcol.Collection
		err error
	)
	if *ifNotExists {
		col, _, err = a.Collections.Ensure(ctx, def.ToDefinition())
	} else {
		col, err = a.Collections.Create(ctx, def.ToDefinition())
	}
	if err != nil {
		return err
	}
	return printJSON(out, dto.CollectionFromDomain(col))
}

func collectionsDelete(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("collections delete", "NAME")
	if err := parse(fs, args, 1, 1); err != nil {
		return err
	}
	if err := a.Collections.Delete(ctx, fs.Arg(0)); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"collection": fs.Arg(0), "status": "deleted"})
}

func collectionsAddProperty(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("collections add-property", "NAME name:type[:tokenization]")
	description := fs.String("description", "", "property description")
	skip := fs.Bool("skip-vectorization", false, "leave the property out of the vector")
	if err := parse(fs, args, 2, 2); err != nil {
		return err
	}
	p, err := parseProperty(fs.Arg(1))
	if err != nil {
		return err
	}
	p.Description = *description
	p.SkipVectorization = *skip

	col, err := a.Collections.AddProperty(ctx, fs.Arg(0), p.ToDef())
	if err != nil {
		return err
	}
	return printJSON(out, dto.CollectionFromDomain(col))
}

// parseProperty reads name:type[:tokenization].
func parseProperty(raw string) (dto.Property, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return dto.Property{}, fmt.Errorf("%w: property %q must be name:type[:tokenization]", errUsage, raw)
	}
	p := dto.Property{Name: parts[0], DataType: parts[1]}
	if len(parts) == 3 {
		p.Tokenization = parts[2]
	}
	return p, nil
}

func markSkipped(props []dto.Property, names []string) {
	for _, n := range names {
		for i := range props {
			if props[i].Name == n {
				props[i].SkipVectorization = true
			}
		}
	}
}
