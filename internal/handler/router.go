package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/teams-relay/backend/internal/handler/activity"
	"github.com/zhouzirui/teams-relay/backend/internal/handler/persona"
	"github.com/zhouzirui/teams-relay/backend/internal/handler/ws"
	personaModel "github.com/zhouzirui/teams-relay/backend/internal/model/persona"
	"github.com/zhouzirui/teams-relay/backend/internal/service/session"
)

// Info describes the running service for the root endpoint.
type Info struct {
	Name    string
	Version string
}

// Deps are the services the router exposes. DebugErrors adds the error
// text to failed-turn replies.
type Deps struct {
	Info          Info
	Sessions      *session.Service
	Personas      personaModel.Store
	ActivePersona string
	DebugErrors   bool
	Logger        *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)

	health := newHealth(deps.Info, time.Now())
	r.Get("/", health.handleRoot)
	r.Get("/health", health.handleHealth)

	r.Route("/api", func(api chi.Router) {
		activity.New(deps.Sessions, logger, deps.DebugErrors).RegisterRoutes(api)
		ws.New(deps.Sessions, logger).RegisterRoutes(api)
		if deps.Personas != nil {
			persona.New(deps.Personas, deps.ActivePersona).RegisterRoutes(api)
		}
	})

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(started)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
