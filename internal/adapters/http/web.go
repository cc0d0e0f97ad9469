package web

import (
	"crypto/rand"
	"embed"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"time"

	"babis/internal/adapters/http/middleware"
	"babis/internal/adapters/storage"
	clientStore "babis/internal/adapters/storage/client"
	instructorStore "babis/internal/adapters/storage/instructor"
	"babis/internal/application/orchestrators"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Stores holds all storage dependencies.
type Stores struct {
	InstructorStore instructorStore.Store
	ClientStore     clientStore.Store
}

// Options carries the settings NewMux needs from config.
type Options struct {
	CSRFKey           []byte // 32 bytes; a random key is generated when empty
	SecureCookies     bool
	AdminUser         string // empty disables basic auth
	AdminPasswordHash string
	SlowRequestMs     int
	PerPage           int // zero shows whole tables
	Notifier          orchestrators.Notifier
	QueryStats        func() storage.QueryStats
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global notifier (set by NewMux), nil disables notifications
var notifier orchestrators.Notifier

// defaultPerPage is the page size used when a request names none.
var defaultPerPage int

// requestStats counts requests seen by the timing middleware.
var requestStats = &middleware.RequestStats{}

// queryStats reports database statement counts on /healthz.
var queryStats func() storage.QueryStats

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// csrfKey returns the configured key, or a random one for development.
func csrfKey(key []byte) []byte {
	if len(key) == 32 {
		return key
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	slog.Warn("csrf_key_random", "hint", "set BABIS_CSRF_KEY so tokens survive restarts")
	return key
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	notifier = opts.Notifier
	defaultPerPage = opts.PerPage
	queryStats = opts.QueryStats

	mux := http.NewServeMux()
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	registerRoutes(mux)

	// Rate limiter: configurable requests per second per IP
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey(opts.CSRFKey), opts.SecureCookies, nil),
		middleware.BasicAuth(opts.AdminUser, opts.AdminPasswordHash, "/healthz"),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.SlowRequestMs, requestStats),
	)
}

// registerRoutes maps every page and endpoint.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleDashboard)
	mux.HandleFunc("GET /healthz", handleHealthz)

	mux.HandleFunc("GET /instructors", rosterPage(tableInstructors))
	mux.HandleFunc("GET /clients/private", rosterPage(tablePrivate))
	mux.HandleFunc("GET /clients/institutional", rosterPage(tableInstitutional))

	mux.HandleFunc("POST /add_instructor", handleAddInstructor)
	mux.HandleFunc("POST /update_instructor", handleUpdateInstructor)
	mux.HandleFunc("POST /add_private_client", handleAddClient(kindPrivate))
	mux.HandleFunc("POST /update_private_client", handleUpdateClient(kindPrivate))
	mux.HandleFunc("POST /add_institutional_client", handleAddClient(kindInstitutional))
	mux.HandleFunc("POST /update_institutional_client", handleUpdateClient(kindInstitutional))

	mux.HandleFunc("GET /api/instructors", handleAPIListInstructors)
	mux.HandleFunc("POST /api/instructors", handleAPIAddInstructor)
	mux.HandleFunc("GET /api/clients/{id}", handleAPIGetClient)
	mux.HandleFunc("PUT /api/clients/{id}", handleAPIUpdateClient)

	mux.HandleFunc("GET /export/{file}", handleExport)
}
