// Package api exposes the quotation backend over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ipartes/quote-cli/internal/discovery"
	"github.com/ipartes/quote-cli/internal/metrics"
	"github.com/ipartes/quote-cli/internal/model"
)

// Drafter turns free-form product text into a quotation email.
type Drafter interface {
	Draft(ctx context.Context, input string) (string, error)
}

// Discoverer finds supplier contact emails for the products in free-form text.
type Discoverer interface {
	Discover(ctx context.Context, input string) ([]discovery.Result, error)
}

// Directory is the supplier directory as seen by the HTTP layer.
type Directory interface {
	List(ctx context.Context) ([]model.Supplier, error)
	AddSupplier(ctx context.Context, manufacturer, email string) (*model.Supplier, bool, error)
	AddEmail(ctx context.Context, id, email string) (*model.Supplier, error)
	RemoveEmail(ctx context.Context, id, email string) (*model.Supplier, error)
	Delete(ctx context.Context, id string) error
}

// Deps holds everything the router needs.
type Deps struct {
	Drafter    Drafter
	Discoverer Discoverer
	Directory  Directory
	Metrics    *metrics.Metrics

	Service        string
	Version        string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server owns the HTTP handlers.
type Server struct {
	deps     Deps
	validate *Validator
	now      func() time.Time
}

// New creates a Server.
func New(deps Deps) *Server {
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}
	return &Server{
		deps:     deps,
		validate: NewValidator(),
		now:      time.Now,
	}
}

// Router builds the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(observe(s.deps.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Get("/", servePage("index.html"))
	r.Get("/cadastro-fornecedor", servePage("cadastro.html"))
	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler()))

	r.Route("/api", func(r chi.Router) {
		if s.deps.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.deps.RequestTimeout))
		}

		r.Post("/generate-email", s.handleGenerateEmail)
		r.Post("/find-suppliers", s.handleFindSuppliers)

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", s.handleListSuppliers)
			r.Post("/", s.handleAddSupplier)
			r.Delete("/{id}", s.handleDeleteSupplier)
			r.Post("/{id}/emails", s.handleAddEmail)
			r.Delete("/{id}/emails/{email}", s.handleRemoveEmail)
		})
	})

	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Service:   s.deps.Service,
		Version:   s.deps.Version,
	})
}
