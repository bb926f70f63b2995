package http

import (
	"net"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/strangerchat-server/internal/config"
)

// NewServer builds the HTTP server: the WebSocket endpoint plus stats routes.
// history may be nil when session history is disabled.
//
// /ws is served by the plain mux: gin marks a 101 response as written and
// then refuses the hijack the WebSocket upgrade needs.
func NewServer(hub Coordinator, history HistoryReader, access *AccessList, cfg *config.Config, logger *zerolog.Logger) (*stdhttp.Server, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// Only the socket peer address counts for the allow-list.
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	if access != nil {
		router.Use(IPAllowListMiddleware(access, logger))
	}

	stats := NewStatsHandlers(hub, history, logger)
	router.GET("/health", stats.Health)

	api := router.Group("/api")
	{
		api.GET("/stats", stats.Stats)
		api.GET("/stats/history", stats.History)
	}

	var ws stdhttp.Handler = NewWSHandler(hub, cfg, logger)
	if access != nil {
		ws = allowList(access, logger, ws)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}, nil
}

// allowList is IPAllowListMiddleware for handlers outside the gin router.
func allowList(access *AccessList, logger *zerolog.Logger, next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		ip := remoteIP(r)
		if !access.Allowed(ip) {
			logger.Warn().Str("client_ip", ip).Str("path", r.URL.Path).Msg("access denied")
			stdhttp.Error(w, "access denied", stdhttp.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *stdhttp.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
