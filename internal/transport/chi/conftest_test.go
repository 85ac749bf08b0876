package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	dombatch "github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
	collectionuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/collection"
	healthuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/health"
	raguc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/rag"
	usageuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/usage"
)

type mockCollections struct {
	createFn func(ctx context.Context, def collectionuc.Definition) (domcol.Collection, error)
	getFn    func(ctx context.Context, name string) (domcol.Collection, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockCollections) Create(ctx context.Context, def collectionuc.Definition) (domcol.Collection, error) {
	if m.createFn != nil {
		return m.createFn(ctx, def)
	}
	return def.Build()
}

func (m *mockCollections) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return testCollection(), nil
}

func (m *mockCollections) List(_ context.Context) ([]domcol.Collection, error) {
	return []domcol.Collection{testCollection()}, nil
}

func (m *mockCollections) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func (m *mockCollections) AddProperty(
	_ context.Context, _ string, def collectionuc.PropertyDef,
) (domcol.Collection, error) {
	p, err := def.Build()
	if err != nil {
		return domcol.Collection{}, err
	}
	return testCollection().WithProperty(p)
}

type mockObjects struct {
	insertFn func(ctx context.Context, collection string, obj domobj.Object) (domobj.Object, error)
	updated  domobj.Object
	replaced domobj.Object
	getErr   error
}

func (m *mockObjects) Insert(ctx context.Context, collection string, obj domobj.Object) (domobj.Object, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, collection, obj)
	}
	return obj.WithID("6f1e0c1a-9a8b-4c1d-8e2f-3a4b5c6d7e8f"), nil
}

func (m *mockObjects) Update(_ context.Context, _ string, obj domobj.Object) error {
	m.updated = obj
	return nil
}

func (m *mockObjects) Replace(_ context.Context, _ string, obj domobj.Object) error {
	m.replaced = obj
	return nil
}

func (m *mockObjects) Get(_ context.Context, _, id string, _ bool) (domobj.Object, error) {
	if m.getErr != nil {
		return domobj.Object{}, m.getErr
	}
	return domobj.Reconstruct(id, map[string]any{"title": "Cats"}, nil), nil
}

func (m *mockObjects) Delete(_ context.Context, _, _ string) error { return nil }

type mockBatch struct {
	deleteFilter filter.Node
}

func (m *mockBatch) Insert(
	_ context.Context, _ string, items []domobj.Object,
) ([]dombatch.Result, dombatch.Summary) {
	results := make([]dombatch.Result, len(items))
	for i := range items {
		results[i] = dombatch.Stored(items[i].ID())
	}
	results[len(results)-1] = dombatch.Failed("", dombatch.StageValidate, domain.ErrInvalidSchema)
	return results, dombatch.Summarize(items, results)
}

func (m *mockBatch) DeleteMany(
	_ context.Context, _ string, f filter.Node, dryRun bool,
) (dombatch.DeleteSummary, error) {
	m.deleteFilter = f
	return dombatch.DeleteSummary{Matches: 4, Successful: 4, DryRun: dryRun}, nil
}

type mockSearch struct {
	searchFn func(ctx context.Context, collection string, req request.Request) ([]result.Result, error)
	cursor   string
	limit    int
	groupBy  string
}

func (m *mockSearch) Search(ctx context.Context, collection string, req request.Request) ([]result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, collection, req)
	}
	return []result.Result{result.New("a", map[string]any{"title": "Cats"}, result.Scores{}, nil)}, nil
}

func (m *mockSearch) FetchAll(_ context.Context, _, cursor string, limit int, _ bool) (domobj.Page, error) {
	m.cursor, m.limit = cursor, limit
	return domobj.Page{
		Objects:    []domobj.Object{domobj.Reconstruct("b", map[string]any{"title": "Dogs"}, nil)},
		NextCursor: "b",
	}, nil
}

func (m *mockSearch) Aggregate(_ context.Context, _ string, _ filter.Node, groupBy string) (result.Aggregate, error) {
	m.groupBy = groupBy
	return result.Aggregate{Total: 3, GroupBy: groupBy, Groups: []result.Group{{Value: "cats", Count: 3}}}, nil
}

type mockRAG struct {
	askParams raguc.AskParams
	described domain.Image
	withColl  string
}

func (m *mockRAG) Generate(
	_ context.Context, _ string, _ request.Request, gen rag.Generate,
) (result.Generative, error) {
	return result.Generative{Grouped: "grouped: " + gen.GroupedTask}, nil
}

func (m *mockRAG) Ask(ctx context.Context, _ string, p raguc.AskParams) (rag.Answer, error) {
	m.askParams = p
	domain.UsageFromContext(ctx).AddGeneration(42)
	return rag.Answer{Text: "They purr.", Model: "gpt-4o-mini", Sources: []rag.Source{{Index: 1, ID: "a"}}}, nil
}

func (m *mockRAG) Describe(_ context.Context, img domain.Image, _ string) (rag.Answer, error) {
	m.described = img
	return rag.Answer{Text: "A cat."}, nil
}

func (m *mockRAG) AskAboutImage(
	_ context.Context, collection string, img domain.Image, _ string, _ int, _ []string,
) (rag.Answer, error) {
	m.withColl, m.described = collection, img
	return rag.Answer{Text: "Article a."}, nil
}

type mockHealth struct{ report healthuc.Report }

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockUsage struct{}

func (mockUsage) GetReport(_ context.Context, p usageuc.Period) usageuc.Report {
	return usageuc.Report{Period: p, Limit: 1000, Used: 10, Remaining: 990}
}

type mockMeta struct{ err error }

func (m mockMeta) Meta(context.Context) (*db.Meta, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &db.Meta{Version: "1.30.0", Hostname: "http://[::]:8080", Modules: []string{"text2vec-openai"}}, nil
}

func testCollection() domcol.Collection {
	return domcol.Reconstruct("Article", "", []property.Property{
		property.Reconstruct("title", property.Text, property.Options{}),
	}, domcol.NoVectorizer(), nil, nil)
}

type testEnv struct {
	handler http.Handler
	objects *mockObjects
	batch   *mockBatch
	search  *mockSearch
	rag     *mockRAG
	colls   *mockCollections
	health  *mockHealth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		objects: &mockObjects{},
		batch:   &mockBatch{},
		search:  &mockSearch{},
		rag:     &mockRAG{},
		colls:   &mockCollections{},
		health: &mockHealth{report: healthuc.Report{
			Status:     healthuc.Healthy,
			Components: map[string]healthuc.Component{healthuc.ComponentWeaviate: {Status: healthuc.CheckOK}},
		}},
	}
	srv := NewServer(Services{
		Collections: env.colls,
		Objects:     env.objects,
		Batch:       env.batch,
		Search:      env.search,
		RAG:         env.rag,
		Health:      env.health,
		Usage:       mockUsage{},
		Meta:        mockMeta{},
	}, QueryLimits{DefaultLimit: 10, MaxLimit: 100})
	env.handler = srv.Handler(WideEventMiddleware(zapNop()))
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}
