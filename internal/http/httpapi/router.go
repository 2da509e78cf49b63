package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mathviz/internal/http/handlers"
	"mathviz/internal/infra"
	"mathviz/internal/middleware"
)

// Config carries the router's dependencies beyond the handler set.
type Config struct {
	Logger infra.Logger

	// CORSOrigins lists origins allowed to call the API.
	CORSOrigins []string

	// OutputDir is the render workspace, served under /outputs for jobs that
	// fall back to local artifact references.
	OutputDir string

	// StoragePath holds published artifacts, served under /static.
	StoragePath string
}

func NewRouter(app *handlers.App, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(cfg.Logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	r.Get("/", app.Root)
	r.Get("/health", app.Health)
	r.Post("/generate", app.Generate)
	r.Post("/edit", app.Edit)
	r.Get("/status/{job_id}", app.Status)

	if cfg.OutputDir != "" {
		fileServer(r, "/outputs", cfg.OutputDir)
	}
	if cfg.StoragePath != "" {
		fileServer(r, "/static", cfg.StoragePath)
	}

	return r
}

func fileServer(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
