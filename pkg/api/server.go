package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/payload"
	"github.com/matzehuels/mockup/pkg/preview"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/scene"
	"github.com/matzehuels/mockup/pkg/store"
)

// Config wires a Server to its collaborators. Products, Designs and Cart
// are required.
type Config struct {
	Products catalog.Source
	Designs  store.Designs
	Cart     store.Cart

	// Loader resolves image sources for quotes and previews.
	Loader scene.Loader

	// Pricing configures quotes. Its Catalog is served by /presets.
	Pricing pricing.Options

	// Renderer draws quote previews. Nil means a default renderer.
	Renderer *preview.Renderer

	// MaxBody caps request bodies. Zero means payload.MaxBytes.
	MaxBody int
}

// Server serves the HTTP API.
type Server struct {
	cfg     Config
	pricing *pricing.Engine
	router  chi.Router
	logger  *log.Logger
}

// NewServer creates a server.
func NewServer(cfg Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Products == nil || cfg.Designs == nil || cfg.Cart == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "api server needs products, designs and cart")
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = payload.MaxBytes
	}
	engine, err := pricing.NewEngine(cfg.Pricing, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Renderer == nil {
		cfg.Renderer = preview.NewRenderer(cfg.Loader, logger)
	}

	s := &Server{cfg: cfg, pricing: engine, logger: logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/presets", s.listPresets)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.listProducts)
		r.Get("/{slug}", s.getProduct)
	})
	r.Route("/designs", func(r chi.Router) {
		r.Post("/", s.saveDesign)
		r.Get("/{id}", s.getDesign)
	})
	r.Route("/cart/items", func(r chi.Router) {
		r.Post("/", s.addCartItem)
		r.Get("/", s.listCartItems)
	})
	r.Post("/quote", s.quote)
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"bytes", ww.BytesWritten(), "duration", time.Since(start), "id", middleware.GetReqID(r.Context()))
	})
}
