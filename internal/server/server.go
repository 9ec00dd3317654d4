// Package server hosts rendered artifacts over HTTP and receives the
// messages they emit.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recordui/internal/bridge"
	"github.com/sells-group/recordui/internal/render"
	"github.com/sells-group/recordui/internal/store"
	"github.com/sells-group/recordui/internal/tools"
)

const maxBodyBytes = 1 << 20

//go:embed templates/host.html.tmpl
var templateFS embed.FS

var hostPage = template.Must(template.ParseFS(templateFS, "templates/host.html.tmpl"))

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
}

// Server routes HTTP requests to the tool handler, the artifact cache and
// the bridge dispatcher.
type Server struct {
	tools      *tools.Handler
	cache      *ArtifactCache
	store      store.Store
	dispatcher *bridge.Dispatcher
	router     chi.Router
}

// New creates a Server. st may be nil to disable the action log. The tool
// handler is expected to feed rendered artifacts into cache.
func New(ctx context.Context, h *tools.Handler, r *render.Renderer, cache *ArtifactCache, st store.Store, opts Options) *Server {
	s := &Server{
		tools: h,
		cache: cache,
		store: st,
	}
	s.dispatcher = bridge.NewDispatcher(ctx, &actionHandler{renderer: r, cache: cache, store: st})
	s.router = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/render/{mode}", s.handleRender)
	r.Get("/artifacts/{id}", s.handleArtifact)
	r.Get("/host/{id}", s.handleHost)
	r.Post("/bridge/messages", s.handleBridge)
	r.Get("/actions", s.handleActions)
	r.Get("/actions/{id}", s.handleAction)
	r.Get("/actions/{id}/message", s.handleActionMessage)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close drains pending bridge messages.
func (s *Server) Close(ctx context.Context) error {
	return s.dispatcher.Close(ctx)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = s.Close(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"artifacts": s.cache.Len(),
	})
}

// renderResponse describes a rendered artifact.
type renderResponse struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	Summary     string `json:"summary"`
	ArtifactURL string `json:"artifact_url"`
	HostURL     string `json:"host_url"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var tool string
	switch render.Mode(chi.URLParam(r, "mode")) {
	case render.ModeForm:
		tool = tools.ToolRenderForm
	case render.ModeTable:
		tool = tools.ToolRenderTable
	case render.ModeCard:
		tool = tools.ToolRenderCard
	default:
		writeError(w, http.StatusNotFound, "unknown render mode")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	res := s.tools.Call(r.Context(), tool, body)
	art := res.Artifact()
	if res.IsError || art == nil {
		writeError(w, http.StatusUnprocessableEntity, res.Text())
		return
	}

	id := ArtifactID(art.URI)
	writeJSON(w, http.StatusOK, renderResponse{
		ID:          id,
		URI:         art.URI,
		Summary:     res.Text(),
		ArtifactURL: "/artifacts/" + id,
		HostURL:     "/host/" + id,
	})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	art, ok := s.cache.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = io.WriteString(w, art.HTML)
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	art, ok := s.cache.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := hostPage.Execute(w, map[string]string{
		"Title":       art.Title,
		"URI":         art.URI,
		"ArtifactURL": "/artifacts/" + id,
		"BridgeURL":   "/bridge/messages",
	})
	if err != nil {
		zap.L().Error("server: render host page", zap.Error(err))
	}
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	msg, err := bridge.Decode(body)
	if err != nil {
		var verr *bridge.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid message", "problems": verr.Problems})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.dispatcher.Post(*msg); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "action log disabled")
		return
	}

	q := r.URL.Query()
	filter := store.ActionFilter{URI: q.Get("uri"), Kind: q.Get("kind")}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	actions, err := s.store.ListActions(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list actions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list actions")
		return
	}
	if actions == nil {
		actions = []store.Action{}
	}
	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) lookupAction(w http.ResponseWriter, r *http.Request) (*store.Action, bool) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "action log disabled")
		return nil, false
	}
	a, err := s.store.GetAction(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "action not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("server: get action", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get action")
		return nil, false
	}
	return a, true
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if a, ok := s.lookupAction(w, r); ok {
		writeJSON(w, http.StatusOK, a)
	}
}

// handleActionMessage returns a logged action as the bridge message that
// produced it, with the host-verified summary.
func (s *Server) handleActionMessage(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookupAction(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bridge.NewAction(bridge.UserAction{
		Action:  bridge.Action(a.Kind),
		URI:     a.URI,
		Message: a.Message,
		Fields:  a.Fields,
	}))
}
