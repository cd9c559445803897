package httpserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler wires the JSON endpoints.
	Handler handler.Config

	// Hub serves /ws. Nil disables the route.
	Hub http.Handler

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler

	// RequestObserver records request metrics (optional).
	RequestObserver RequestObserver

	// Logger for request logging.
	Logger *slog.Logger

	// ResourceDir is served under /resources/. Empty disables it.
	ResourceDir string

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit for API routes (requests/second, 0 = off).
	RateLimit float64

	// ControlAllowList restricts /commands, /status and /metrics to these
	// IPs or CIDRs (empty = no restriction).
	ControlAllowList []string
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Handler)

	var api []Middleware
	if cfg.RateLimit > 0 {
		api = append(api, RateLimit(NewRateLimiter(cfg.RateLimit)))
	}
	control := append([]Middleware{}, api...)
	if len(cfg.ControlAllowList) > 0 {
		control = append(control, NetworkACL(&NetworkACLConfig{
			AllowList: cfg.ControlAllowList,
			Logger:    log,
		}))
	}

	mux := http.NewServeMux()

	// Health endpoints - never limited
	mux.Handle("GET /health", h)
	mux.Handle("GET /ready", h)

	// Snapshot endpoints
	mux.Handle("GET /models", Chain(h, api...))
	mux.Handle("GET /models/{name}", Chain(h, api...))

	// Control endpoints
	mux.Handle("POST /commands", Chain(h, control...))
	mux.Handle("GET /status", Chain(h, control...))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, control...))
	}

	if cfg.Hub != nil {
		mux.Handle("GET /ws", Chain(cfg.Hub, api...))
	}

	mux.Handle("GET /resources/{path...}", Chain(resources(cfg.ResourceDir), api...))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "SS-SYS-4040", "not found")
	})

	// Outermost first: RequestID scopes the logger for everything below it
	// and Recover sees panics from the rest.
	return Chain(mux,
		RequestID(log),
		Recover(),
		AccessLog(cfg.RequestObserver),
		CORS(cfg.CORSAllowedOrigins),
	)
}

// resources serves static model files from dir without directory listings.
func resources(dir string) http.Handler {
	if dir == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusNotFound, "SS-SYS-4040", "resources are not configured")
		})
	}

	files := http.StripPrefix("/resources/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("path") == "" || strings.HasSuffix(r.URL.Path, "/") {
			writeError(w, r, http.StatusNotFound, "SS-SYS-4040", "not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}
