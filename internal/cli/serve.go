package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/engine"
	designererrors "github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/layout"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/observability"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/pipeline"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/settings"
)

const serveShutdownTimeout = 5 * time.Second

// serveCommand creates the serve command exposing the engine over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		settingsPath string
		addr         string
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine as a JSON HTTP API",
		Long: `Serve the engine as a JSON HTTP API.

The server is stateless: every request carries the diagram document and
returns the mutated document. Endpoints:

  POST /relayout   recompute the layout (cached by content hash)
  POST /reparent   move a subtree under a new parent
  POST /move       move a selection of siblings by a delta
  POST /minsize    compute a node's minimum size
  GET  /healthz    liveness probe

Constraint rejections return 422 with the rejection code and, for moves,
the collision report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(settingsPath)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "settings file (TOML)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")

	return cmd
}

// runServe starts the HTTP server and shuts it down when ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg settings.Settings, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := &apiServer{cfg: cfg, runner: runner}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// API Server
// =============================================================================

// apiServer holds the per-process state the handlers share.
type apiServer struct {
	cfg    settings.Settings
	runner *pipeline.Runner
}

// routes builds the chi router with observability middleware.
func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hookMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Post("/relayout", s.handleRelayout)
	r.Post("/reparent", s.handleReparent)
	r.Post("/move", s.handleMove)
	r.Post("/minsize", s.handleMinSize)

	return r
}

// hookMiddleware reports requests to the observability HTTP hooks.
func hookMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// relayoutRequest asks for a full layout recomputation.
type relayoutRequest struct {
	Document diagram.Document   `json:"document"`
	Settings *settings.Settings `json:"settings,omitempty"`
	Refresh  bool               `json:"refresh,omitempty"`
}

type relayoutResponse struct {
	Document   diagram.Document `json:"document"`
	LayoutHash string           `json:"layout_hash"`
	Cached     bool             `json:"cached"`
}

func (s *apiServer) handleRelayout(w http.ResponseWriter, r *http.Request) {
	var req relayoutRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	snap, err := diagram.ToSnapshot(req.Document)
	if err != nil {
		writeError(w, err)
		return
	}

	cfg := s.cfg
	if req.Settings != nil {
		cfg = *req.Settings
	}
	if req.Document.Algorithm != "" {
		cfg.Algorithm = req.Document.Algorithm
	}

	result, err := s.runner.Execute(r.Context(), snap, pipeline.Options{
		Settings: cfg,
		Formats:  []string{pipeline.FormatJSON},
		Refresh:  req.Refresh,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, relayoutResponse{
		Document:   diagram.FromSnapshot(result.Snapshot, cfg.Algorithm),
		LayoutHash: result.LayoutHash,
		Cached:     result.CacheInfo.LayoutHit,
	})
}

// reparentRequest moves a subtree under a new parent. An empty new_parent_id
// promotes the node to a root.
type reparentRequest struct {
	Document    diagram.Document `json:"document"`
	ChildID     string           `json:"child_id"`
	NewParentID string           `json:"new_parent_id"`
}

type documentResponse struct {
	Document diagram.Document `json:"document"`
}

func (s *apiServer) handleReparent(w http.ResponseWriter, r *http.Request) {
	var req reparentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e, snap, err := s.engineFor(req.Document)
	if err != nil {
		writeError(w, err)
		return
	}

	next, err := e.Reparent(r.Context(), snap, req.ChildID, req.NewParentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		Document: diagram.FromSnapshot(next, req.Document.Algorithm),
	})
}

// moveRequest moves a selection of sibling nodes by a delta.
type moveRequest struct {
	Document  diagram.Document `json:"document"`
	Selection []string         `json:"selection"`
	Delta     geometry.Delta   `json:"delta"`
}

type moveResponse struct {
	Document diagram.Document `json:"document"`
	Applied  geometry.Delta   `json:"applied"`
	Clamped  bool             `json:"clamped"`
}

func (s *apiServer) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e, snap, err := s.engineFor(req.Document)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := e.MoveSelection(r.Context(), snap, req.Selection, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moveResponse{
		Document: diagram.FromSnapshot(result.Snapshot, req.Document.Algorithm),
		Applied:  result.Applied,
		Clamped:  result.Clamped,
	})
}

// minSizeRequest asks for the minimum size of a node given its subtree.
type minSizeRequest struct {
	Document diagram.Document `json:"document"`
	ID       string           `json:"id"`
}

type minSizeResponse struct {
	Size geometry.Size `json:"size"`
}

func (s *apiServer) handleMinSize(w http.ResponseWriter, r *http.Request) {
	var req minSizeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	snap, err := diagram.ToSnapshot(req.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := s.layoutConfig(req.Document)
	if err != nil {
		writeError(w, err)
		return
	}

	size, err := layout.MinimumSize(snap, req.ID, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, minSizeResponse{Size: size})
}

// engineFor builds an engine for the request document, honoring the
// document's algorithm over the server default.
func (s *apiServer) engineFor(doc diagram.Document) (*engine.Engine, *model.Snapshot, error) {
	snap, err := diagram.ToSnapshot(doc)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.layoutConfig(doc)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(cfg), snap, nil
}

func (s *apiServer) layoutConfig(doc diagram.Document) (layout.Config, error) {
	cfg, err := s.cfg.LayoutConfig()
	if err != nil {
		return layout.Config{}, err
	}
	if doc.Algorithm != "" {
		kind, err := layout.ParseKind(doc.Algorithm)
		if err != nil {
			return layout.Config{}, err
		}
		cfg.Algorithm = kind
	}
	return cfg, nil
}

// =============================================================================
// JSON Helpers
// =============================================================================

// errorBody is the wire shape of an error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Report *engine.CollisionReport `json:"report,omitempty"`
}

// decodeRequest decodes the JSON body into v, writing a 400 on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, designererrors.Wrap(designererrors.ErrCodeInvalidFormat, err, "decode request body"))
		return false
	}
	return true
}

// writeError maps an engine error to an HTTP status: rejections are 422,
// missing resources 404, bad input 400, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	code := designererrors.GetCode(err)

	status := http.StatusInternalServerError
	switch {
	case designererrors.IsRejection(err):
		status = http.StatusUnprocessableEntity
	case code == designererrors.ErrCodeNodeNotFound,
		code == designererrors.ErrCodeFileNotFound,
		code == designererrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case code == designererrors.ErrCodeInvalidInput,
		code == designererrors.ErrCodeInvalidFormat,
		code == designererrors.ErrCodeInvalidAlgorithm,
		code == designererrors.ErrCodeInvalidSettings,
		code == designererrors.ErrCodeInvalidGeometry,
		code == designererrors.ErrCodeUnsupported:
		status = http.StatusBadRequest
	}

	body := errorBody{}
	body.Error.Code = string(code)
	if body.Error.Code == "" {
		body.Error.Code = string(designererrors.ErrCodeInternal)
	}
	body.Error.Message = designererrors.UserMessage(err)
	if report, ok := engine.ReportOf(err); ok {
		body.Report = &report
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
