package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/scheduler"
)

// Handler holds API route handlers.
type Handler struct {
	deps Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{deps: d}
}

// writeError maps err onto a status code and writes an error body. Unexpected
// errors are logged and reported as 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidKeyword):
		writeErrorBody(w, http.StatusBadRequest, codeInvalidKeyword, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, apperr.ErrGeneration):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeErrorBody(w, http.StatusBadGateway, codeGenerationFailed, "content generation failed")
	case errors.Is(err, apperr.ErrStorage):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeErrorBody(w, http.StatusInternalServerError, codeStorage, "storage error")
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeErrorBody(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Name: "seopress",
		Endpoints: map[string]string{
			"GET /generate?keyword=&save=": "generate a post, optionally saving it",
			"GET /posts":                   "list saved posts",
			"GET /posts/{id}":              "get one saved post",
			"GET /search?q=":               "full-text search over saved posts",
			"POST /generate-daily":         "run today's daily generation now",
			"GET /scheduler/status":        "daily scheduler state",
			"GET /events":                  "server-sent events",
		},
	})
}

// Generate handles GET /generate.
//
//	@Summary		Generate a post for a keyword
//	@Tags			posts
//	@Produce		json
//	@Param			keyword	query		string	true	"Target keyword"
//	@Param			save	query		bool	false	"Persist as a manual artifact"
//	@Success		200		{object}	GenerateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/generate [get]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kw := q.Get("keyword")
	if strings.TrimSpace(kw) == "" {
		writeErrorBody(w, http.StatusBadRequest, codeInvalidKeyword, "query parameter 'keyword' is required")
		return
	}
	save := strings.EqualFold(q.Get("save"), "true")

	res, err := h.deps.Generator.Generate(r.Context(), kw, save)
	if err != nil {
		writeError(w, "generate", err)
		return
	}
	writeJSON(w, http.StatusOK, newGenerateResponse(res))
}

// ListPosts handles GET /posts.
//
//	@Summary		List saved posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			trigger	query		string	false	"Filter by trigger"	Enums(manual, daily)
//	@Param			keyword	query		string	false	"Filter by keyword"
//	@Param			limit	query		int		false	"Page size, all rows when unset"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{array}		models.ArtifactSummary
//	@Header			200		{int}		X-Total-Count	"Rows matching the filters"
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := index.Filter{
		Trigger: models.Trigger(q.Get("trigger")),
		Keyword: q.Get("keyword"),
	}
	if f.Trigger != "" && !f.Trigger.Valid() {
		writeErrorBody(w, http.StatusBadRequest, codeBadRequest, "trigger must be manual or daily")
		return
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	items, err := h.deps.Posts.List(r.Context(), f)
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	total, err := h.deps.Posts.Count(r.Context(), f)
	if err != nil {
		writeError(w, "count posts", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, items)
}

// GetPost handles GET /posts/{id}. With ?format=html or an Accept header
// preferring text/html the stored page is served as is.
//
//	@Summary		Get a saved post
//	@Tags			posts
//	@Produce		json,html
//	@Param			id		path		string	true	"Artifact id"
//	@Param			format	query		string	false	"Response format"	Enums(json, html)
//	@Success		200		{object}	models.Artifact
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{id} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.deps.Posts.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get post", err)
		return
	}
	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(a.HTMLBody))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func wantsHTML(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "html":
		return true
	case "json":
		return false
	}
	return strings.HasPrefix(r.Header.Get("Accept"), "text/html")
}

// GenerateDaily handles POST /generate-daily.
//
//	@Summary		Run today's daily generation now
//	@Tags			posts
//	@Produce		json
//	@Param			keyword	query		string	false	"Override the configured daily keyword"
//	@Success		200		{object}	DailyResponse
//	@Failure		500		{object}	errResponse
//	@Router			/generate-daily [post]
func (h *Handler) GenerateDaily(w http.ResponseWriter, r *http.Request) {
	kw := r.URL.Query().Get("keyword")
	if strings.TrimSpace(kw) == "" {
		kw = h.deps.DailyKeyword
	}
	a, created, err := h.deps.Generator.RunDaily(r.Context(), kw)
	if err != nil {
		writeError(w, "generate daily", err)
		return
	}
	writeJSON(w, http.StatusOK, DailyResponse{Created: created, Artifact: a})
}

// Search handles GET /search.
//
//	@Summary		Full-text search across saved posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeErrorBody(w, http.StatusBadRequest, codeBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.deps.Posts.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// SchedulerStatus handles GET /scheduler/status.
func (h *Handler) SchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Scheduler == nil {
		writeJSON(w, http.StatusOK, scheduler.State{Keyword: h.deps.DailyKeyword})
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Scheduler.Snapshot())
}

// Health handles the liveness and readiness probes.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
