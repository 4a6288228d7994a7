package relay

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flashbots/disco-relay/common"
	"github.com/flashbots/disco-relay/record"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const indexBanner = "iroh discovery service"

// maxBatchBody bounds the JSON body of a batch request.
const maxBatchBody = 64 << 10

// HandlerConfig configures the HTTP surface of the relay.
type HandlerConfig struct {
	// AdminToken protects /admin routes with basic auth ("user:pass").
	// Empty leaves them unprotected.
	AdminToken string

	// AllowedOrigins for CORS on the public routes. Empty allows any origin.
	AllowedOrigins []string
}

// Handler exposes a Service over HTTP.
type Handler struct {
	svc *Service
	cfg HandlerConfig
	log *slog.Logger
}

// NewHandler returns a Handler serving svc. A nil log uses slog.Default.
func NewHandler(svc *Service, cfg HandlerConfig, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, cfg: cfg, log: log}
}

// RegisterRoutes registers the public and admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(h.RegisterPublicRoutes)
	r.Route("/admin", h.RegisterAdminRoutes)
}

// RegisterPublicRoutes registers the lookup, publish and batch routes behind CORS.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	origins := h.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", h.handleIndex)
	r.Post("/batch", h.handleBatch)
	r.Get("/{id}", h.handleLookup)
	r.Put("/{id}", h.handlePublish)
	// Preflight requests are answered by the CORS middleware.
	for _, pattern := range []string{"/", "/batch", "/{id}"} {
		r.Options(pattern, func(w http.ResponseWriter, r *http.Request) {})
	}
}

// RegisterAdminRoutes registers eviction, guarded by basic auth when AdminToken is set.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	if h.cfg.AdminToken != "" {
		user, pass := parseAdminToken(h.cfg.AdminToken)
		r.Use(middleware.BasicAuth(common.PackageName, map[string]string{user: pass}))
	}
	r.Delete("/{id}", h.handleEvict)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, indexBanner)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	value, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(value)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	// One extra byte so Publish sees an oversized body as such rather than a
	// truncated record. The size is judged after the identity.
	body, err := io.ReadAll(io.LimitReader(r.Body, record.MaxSize+1))
	if err != nil {
		h.writeError(w, r, ErrMissingPayload)
		return
	}

	if err := h.svc.Publish(r.Context(), chi.URLParam(r, "id"), body); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBatchBody)).Decode(&req); err != nil {
		http.Error(w, "invalid batch request: "+err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.svc.LookupMany(r.Context(), req.IDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := BatchResponse{Records: make([]BatchRecord, 0, len(entries))}
	for _, e := range entries {
		resp.Records = append(resp.Records, BatchRecord{ID: e.ID, Record: e.Record})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleEvict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Evict(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("record evicted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps client errors to 404 and everything else to 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if IsClientError(err) {
		h.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func parseAdminToken(token string) (user, pass string) {
	user, pass, _ = strings.Cut(token, ":")
	return user, pass
}
