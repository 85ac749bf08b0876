package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain/media"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
	"github.com/saskinosie/weaviate-claude-skills/internal/transport/dto"
	healthuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/health"
	raguc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/rag"
	usageuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/usage"
	"github.com/saskinosie/weaviate-claude-skills/internal/version"
)

// maxBodyBytes bounds request bodies; base64 images up to the media limit fit.
const maxBodyBytes = 32 << 20

// Services are the use cases behind the HTTP API. Nil services leave their routes unregistered.
type Services struct {
	Collections CollectionService
	Objects     ObjectService
	Batch       BatchService
	Search      SearchService
	RAG         RAGService
	Health      HealthService
	Usage       UsageService
	Meta        MetaReader
}

// QueryLimits bound search and list page sizes.
type QueryLimits struct {
	DefaultLimit int
	MaxLimit     int
}

// Server is the HTTP API over the use cases.
type Server struct {
	svc    Services
	limits QueryLimits
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, limits QueryLimits) *Server {
	return &Server{svc: svc, limits: limits}
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/meta", s.GetMeta)
		r.Get("/usage", s.GetUsage)
		r.Post("/vision/describe", s.Describe)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", s.ListCollections)
			r.Post("/", s.CreateCollection)
			r.Route("/{collection}", func(r chi.Router) {
				r.Use(collectionLogger)
				r.Get("/", s.GetCollection)
				r.Delete("/", s.DeleteCollection)
				r.Post("/properties", s.AddProperty)

				r.Get("/objects", s.ListObjects)
				r.Post("/objects", s.CreateObject)
				r.Post("/objects/batch", s.BatchInsert)
				r.Post("/objects/delete", s.DeleteMany)
				r.Get("/objects/{id}", s.GetObject)
				r.Put("/objects/{id}", s.ReplaceObject)
				r.Patch("/objects/{id}", s.UpdateObject)
				r.Delete("/objects/{id}", s.DeleteObject)

				r.Post("/search", s.Search)
				r.Post("/aggregate", s.Aggregate)
				r.Post("/generate", s.Generate)
				r.Post("/ask", s.Ask)
			})
		})
	})
}

// Handler builds a router with the standard middleware stack.
func (s *Server) Handler(mw ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	s.Register(r)
	return r
}

// HealthCheck handles GET /health. Weaviate being down is a 503; optional
// dependencies failing still answer 200 with status "degraded".
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Down {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, dto.HealthFromReport(report, false))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// GetMeta handles GET /v1/meta.
func (s *Server) GetMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.svc.Meta.Meta(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  meta.Version,
		"hostname": meta.Hostname,
		"modules":  meta.Modules,
		"server":   version.Get(),
	})
}

// GetUsage handles GET /v1/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	period, err := usageuc.ParsePeriod(raw)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	rep := s.svc.Usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, dto.UsageFromReport(rep))
}

// ListCollections handles GET /v1/collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.svc.Collections.List(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]dto.Collection, len(cols))
	for i, c := range cols {
		items[i] = dto.CollectionFromDomain(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": items})
}

// CreateCollection handles POST /v1/collections.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req dto.Collection
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "collection name is required")
		return
	}
	col, err := s.svc.Collections.Create(r.Context(), req.ToDefinition())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.CollectionFromDomain(col))
}

// GetCollection handles GET /v1/collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.svc.Collections.Get(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CollectionFromDomain(col))
}

// DeleteCollection handles DELETE /v1/collections/{collection}.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Collections.Delete(r.Context(), chi.URLParam(r, "collection")); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddProperty handles POST /v1/collections/{collection}/properties.
func (s *Server) AddProperty(w http.ResponseWriter, r *http.Request) {
	var req dto.Property
	if !decode(w, r, &req) {
		return
	}
	col, err := s.svc.Collections.AddProperty(r.Context(), chi.URLParam(r, "collection"), req.ToDef())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CollectionFromDomain(col))
}

// ListObjects handles GET /v1/collections/{collection}/objects?cursor=&limit=&include_vector=.
func (s *Server) ListObjects(w http.ResponseWriter, r *http.Request) {
	var (
		cursor     string
		limit      int
		withVector bool
	)
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dest any
	}{{"cursor", &cursor}, {"limit", &limit}, {"include_vector", &withVector}} {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
	}
	if limit <= 0 {
		limit = s.limits.DefaultLimit
	}

	page, err := s.svc.Search.FetchAll(r.Context(), chi.URLParam(r, "collection"), cursor, limit, withVector)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PageFromDomain(page))
}

// CreateObject handles POST /v1/collections/{collection}/objects.
func (s *Server) CreateObject(w http.ResponseWriter, r *http.Request) {
	var req dto.Object
	if !decode(w, r, &req) {
		return
	}
	obj, err := req.ToDomain()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	created, err := s.svc.Objects.Insert(r.Context(), chi.URLParam(r, "collection"), obj)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusCreated, dto.ObjectFromDomain(&created))
}

// GetObject handles GET /v1/collections/{collection}/objects/{id}.
func (s *Server) GetObject(w http.ResponseWriter, r *http.Request) {
	var withVector bool
	if err := runtime.BindQueryParameter("form", true, false, "include_vector", r.URL.Query(), &withVector); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	obj, err := s.svc.Objects.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"), withVector)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ObjectFromDomain(&obj))
}

// ReplaceObject handles PUT /v1/collections/{collection}/objects/{id}.
func (s *Server) ReplaceObject(w http.ResponseWriter, r *http.Request) {
	s.writeObject(w, r, s.svc.Objects.Replace)
}

// UpdateObject handles PATCH /v1/collections/{collection}/objects/{id}.
func (s *Server) UpdateObject(w http.ResponseWriter, r *http.Request) {
	s.writeObject(w, r, s.svc.Objects.Update)
}

func (s *Server) writeObject(
	w http.ResponseWriter, r *http.Request,
	write func(ctx context.Context, collection string, obj domobj.Object) error,
) {
	var req dto.Object
	if !decode(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	obj, err := req.ToDomain()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := write(r.Context(), chi.URLParam(r, "collection"), obj); err != nil {
		handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteObject handles DELETE /v1/collections/{collection}/objects/{id}.
func (s *Server) DeleteObject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Objects.Delete(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id")); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchInsert handles POST /v1/collections/{collection}/objects/batch.
// Item failures are reported per item; the response is 200 unless the body is invalid.
func (s *Server) BatchInsert(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Objects) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "objects must not be empty")
		return
	}
	items := make([]domobj.Object, len(req.Objects))
	for i := range req.Objects {
		obj, err := req.Objects[i].ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, fmt.Sprintf("objects[%d]: %v", i, err))
			return
		}
		items[i] = obj
	}

	results, sum := s.svc.Batch.Insert(r.Context(), chi.URLParam(r, "collection"), items)
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, dto.BatchFromDomain(results, sum))
}

// DeleteMany handles POST /v1/collections/{collection}/objects/delete.
func (s *Server) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteManyRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := req.Where.ToDomain()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	sum, err := s.svc.Batch.DeleteMany(r.Context(), chi.URLParam(r, "collection"), f, req.DryRun)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DeleteManyFromDomain(sum))
}

// Search handles POST /v1/collections/{collection}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchRequest
	if !decode(w, r, &req) {
		return
	}
	sr, err := req.ToDomain(s.limits.DefaultLimit, s.limits.MaxLimit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	results, err := s.svc.Search.Search(r.Context(), chi.URLParam(r, "collection"), sr)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, dto.SearchResponse{Results: dto.HitsFromDomain(results), Count: len(results)})
}

// Aggregate handles POST /v1/collections/{collection}/aggregate.
func (s *Server) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req dto.AggregateRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	f, err := req.Where.ToDomain()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	agg, err := s.svc.Search.Aggregate(r.Context(), chi.URLParam(r, "collection"), f, req.GroupBy)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AggregateFromDomain(agg))
}

// Generate handles POST /v1/collections/{collection}/generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateRequest
	if !decode(w, r, &req) {
		return
	}
	gen, err := req.Generate()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	sr, err := req.SearchRequest.ToDomain(s.limits.DefaultLimit, s.limits.MaxLimit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	out, err := s.svc.RAG.Generate(r.Context(), chi.URLParam(r, "collection"), sr, gen)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, dto.GenerateFromDomain(out))
}

// Ask handles POST /v1/collections/{collection}/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req dto.AskRequest
	if !decode(w, r, &req) {
		return
	}
	params := raguc.AskParams{
		Question:          req.Question,
		ContextProperties: req.ContextProperties,
		SystemPrompt:      req.SystemPrompt,
	}
	if req.Retrieval != nil {
		if req.Retrieval.Query == "" && req.Retrieval.Vector == nil && req.Retrieval.Image == "" {
			req.Retrieval.Query = req.Question
		}
		sr, err := req.Retrieval.ToDomain(s.limits.DefaultLimit, s.limits.MaxLimit)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		params.Retrieval = &sr
	}

	ans, err := s.svc.RAG.Ask(r.Context(), chi.URLParam(r, "collection"), params)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, dto.AnswerFromDomain(ans))
}

// Describe handles POST /v1/vision/describe.
func (s *Server) Describe(w http.ResponseWriter, r *http.Request) {
	var req dto.DescribeRequest
	if !decode(w, r, &req) {
		return
	}
	img, err := media.FromBase64(req.Image)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	var ans rag.Answer
	if req.Collection != "" {
		ans, err = s.svc.RAG.AskAboutImage(r.Context(), req.Collection, img, req.Prompt, req.Limit, req.ContextProperties)
	} else {
		ans, err = s.svc.RAG.Describe(r.Context(), img, req.Prompt)
	}
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, dto.AnswerFromDomain(ans))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decode(w, r, v)
}
