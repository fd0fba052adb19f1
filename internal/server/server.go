// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the annotation service over HTTP: an upload
// page, a one-shot download endpoint, and the JSON/SSE API the page uses
// for its two-phase suggest-then-build flow.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-annotate/internal/annotate"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Annotator is the annotation service behind the handlers.
type Annotator interface {
	PageCount(data []byte) (int, error)
	Annotate(ctx context.Context, data []byte, opts annotate.Options) (*annotate.Result, error)
	Stream(ctx context.Context, data []byte, opts annotate.Options, emit func(annotate.Event) error) error
	Build(ctx context.Context, data []byte, anns []types.Annotation, opts annotate.Options) (*annotate.Result, error)
}

// Backends reports the default suggestion backend and whether a backend
// is reachable.
type Backends interface {
	Default() types.Backend
	Check(ctx context.Context, name types.Backend) error
}

// Server is the local web server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *types.Config
	log        *zap.Logger
}

// New builds the router and HTTP server. It does not start listening.
func New(cfg *types.Config, svc Annotator, backends Backends, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(recovery(log), requestLogger(log))
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	h := &handler{
		svc:      svc,
		backends: backends,
		cfg:      cfg,
		log:      log,
	}

	upload := limitBody(cfg.Server.MaxUploadMB)

	router.GET("/", h.index)
	router.GET("/healthz", h.health)
	router.POST("/annotate", upload, h.annotate)

	api := router.Group("/api")
	{
		api.POST("/page_count", upload, h.pageCount)
		api.POST("/annotate", upload, h.stream)
		api.POST("/build_pdf", upload, h.buildPDF)
		api.GET("/check_llm", h.checkLLM)
		api.GET("/check_ollama", h.checkLLM)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		router: router,
		cfg:    cfg,
		log:    log,
	}, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// URL returns the address a browser should open.
func (s *Server) URL() string {
	return "http://" + s.httpServer.Addr
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown is called. It returns nil
// after a graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("server listening", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
