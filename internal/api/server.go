package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"chatter/config"
	"chatter/internal/auth"
	"chatter/internal/chat"
)

type Server struct {
	router *mux.Router
	log    zerolog.Logger
}

func NewServer(cfg *config.Config, chatHandler *chat.JSONHandler, authMiddleware *auth.Middleware, log zerolog.Logger) *Server {
	router := mux.NewRouter()
	router.Use(RequestLogger(log))
	router.Use(RateLimit(cfg.RateLimitRPS))

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.PathPrefix(cfg.MediaBaseURL + "/").Handler(
		http.StripPrefix(cfg.MediaBaseURL+"/", http.FileServer(http.Dir(cfg.MediaPath))))

	protected := router.PathPrefix("/").Subrouter()
	protected.Use(authMiddleware.Handler)
	chat.SetupJSONRoutes(protected, chatHandler)

	return &Server{
		router: router,
		log:    log.With().Str("component", "api").Logger(),
	}
}

func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting http server")
	return http.ListenAndServe(addr, s.router)
}

// Router exposes the configured routes, used by the http tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
