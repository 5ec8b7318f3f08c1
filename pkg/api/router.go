package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/internal/telemetry"
	"github.com/marmos91/gatehouse/pkg/api/handlers"
	apiMiddleware "github.com/marmos91/gatehouse/pkg/api/middleware"
	"github.com/marmos91/gatehouse/pkg/session"
)

// Gateway is what the router needs from the auth gateway.
type Gateway interface {
	handlers.Authenticator
	apiMiddleware.Authorizer
}

// Dependencies are the components the router serves.
type Dependencies struct {
	Gateway Gateway
	Cookies *session.Cookies
	Objects handlers.ObjectReader

	// Store and Bucket back the readiness probe.
	Store  handlers.BucketProber
	Bucket string

	Build handlers.BuildInfo
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET / - Banner
//   - GET /version - Build information
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe (bucket reachability)
//   - POST /login - LDAP login, sets the session cookie
//   - GET /user - Current session subject
//   - POST /logout - Clears the session (session required)
//   - GET /s3/list_objects?path= - Bucket listing (session required)
//   - GET /s3/get_object?path= - Object download (session required)
func NewRouter(cfg APIConfig, deps Dependencies) http.Handler {
	cfg.ApplyDefaults()

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if cfg.CORS.Enabled() {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}

	indexHandler := handlers.NewIndexHandler(deps.Build)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Bucket)
	authHandler := handlers.NewAuthHandler(deps.Gateway, deps.Cookies)
	objectsHandler := handlers.NewObjectsHandler(deps.Objects)
	requireSession := apiMiddleware.RequireSession(deps.Gateway, deps.Cookies)

	r.Get("/", indexHandler.Banner)
	r.Get("/version", indexHandler.Version)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Post("/login", authHandler.Login)
	// /user answers 401 itself so it can report the subject directly.
	r.Get("/user", authHandler.User)

	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/logout", authHandler.Logout)

		r.Route("/s3", func(r chi.Router) {
			r.Get("/list_objects", objectsHandler.List)
			r.Get("/get_object", objectsHandler.Get)
		})
	})

	return otelhttp.NewHandler(r, "gatehouse",
		otelhttp.WithFilter(func(r *http.Request) bool { return !isHealthPath(r.URL.Path) }),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// requestLogger attaches a LogContext to the request and logs its completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		lc := logger.NewLogContext(requestID, clientIP(r.RemoteAddr)).
			WithRoute(r.Method + " " + r.URL.Path).
			WithTrace(telemetry.TraceID(r.Context()), telemetry.SpanID(r.Context()))
		ctx := logger.WithContext(r.Context(), lc)

		logger.DebugCtx(ctx, "API request started")

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logArgs := []any{
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(lc.DurationMs()),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs
		if isHealthPath(r.URL.Path) {
			logger.DebugCtx(ctx, "API request completed", logArgs...)
		} else {
			logger.InfoCtx(ctx, "API request completed", logArgs...)
		}
	})
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// clientIP strips the port from a RemoteAddr. RealIP may already have
// replaced it with a bare address.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
