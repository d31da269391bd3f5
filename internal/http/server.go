package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"auditreport/internal/core"
	applog "auditreport/internal/log"
	"auditreport/internal/middleware/ratelimit"
	"auditreport/internal/middleware/security"
	"auditreport/internal/middleware/trace"
	"auditreport/internal/services"
)

// ProjectService is the project and attachment API the handlers need.
type ProjectService interface {
	Create(ctx context.Context, name, code string) (core.Project, error)
	List(ctx context.Context) ([]core.Project, error)
	Get(ctx context.Context, id int64) (services.ProjectDetail, error)
	SaveData(ctx context.Context, id int64, data core.ReportData) error
	Delete(ctx context.Context, id int64) error
	UploadFile(ctx context.Context, projectID int64, filename, category string, r io.Reader) (core.ProjectFile, error)
	DeleteFile(ctx context.Context, id int64) error
}

// ReportService produces documents from report data.
type ReportService interface {
	GenerateDocx(ctx context.Context, data core.ReportData) (string, error)
	PreviewPDF(ctx context.Context, data core.ReportData) (string, error)
	TemplateAvailable() bool
}

// Pinger checks a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the collaborators and limits of a Server.
type Options struct {
	Projects ProjectService
	Reports  ReportService
	DB       Pinger
	Logger   *applog.Logger

	// RateLimitPerMinute applies to mutating requests per client.
	RateLimitPerMinute int
	// MaxUploadBytes caps a single uploaded file.
	MaxUploadBytes int64
	// Stats are extra gauges exposed on /metrics, read at scrape time.
	Stats func() map[string]int64
}

type Server struct {
	http.Server
	projects ProjectService
	reports  ReportService
	db       Pinger
	logger   *applog.Logger

	maxUploadBytes int64
	stats          func() map[string]int64
	started        time.Time

	rateLimiter     *ratelimit.Limiter
	clientIP        *security.ClientIPResolver
	traceMiddleware *trace.Middleware

	shutdownOnce sync.Once
}

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 10 << 20

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 50 << 20
	}

	s := &Server{
		projects:       opts.Projects,
		reports:        opts.Reports,
		db:             opts.DB,
		logger:         logger.WithComponent(applog.ComponentHTTP),
		maxUploadBytes: maxUpload,
		stats:          opts.Stats,
		started:        time.Now(),
		clientIP:       security.NewClientIPResolver(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.clientIP.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}/save", s.handleSaveProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /api/projects/{id}/upload", s.handleUploadFile)
	mux.HandleFunc("GET /api/file-categories", s.handleFileCategories)
	mux.HandleFunc("DELETE /api/files/{id}", s.handleDeleteFile)

	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/preview", s.handlePreview)

	limit := ratelimit.MutatingOnly(s.rateLimiter.Middleware(s.clientIP.ClientIP, s.handleRateLimited))
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.clientIP.ClientIP(r))
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
