package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/auth"
	"github.com/vovakirdan/marketchat/internal/config"
	"github.com/vovakirdan/marketchat/internal/service/catalog"
	"github.com/vovakirdan/marketchat/internal/service/chat"
)

// Deps are the services exposed over HTTP.
type Deps struct {
	Auth    *auth.Service
	Chat    *chat.Service
	Catalog *catalog.Service
	Hub     *PushHub
}

// NewServer builds the HTTP server of the reference messaging service.
func NewServer(deps Deps, cfg config.DevServerConfig, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler serves the push feed on /ws and everything else through the gin router.
// The push feed stays off gin: its response writer refuses the websocket hijack.
func NewHandler(deps Deps, cfg config.DevServerConfig, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(deps.Hub, deps.Auth, logger))
	mux.Handle("/", NewRouter(deps, cfg, logger))
	return mux
}

// NewRouter registers the REST routes on a gin engine.
func NewRouter(deps Deps, cfg config.DevServerConfig, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	chats := NewChatHandlers(deps.Chat, newRateLimiter(cfg.SendRatePerMinute), logger)
	favorites := NewFavoriteHandlers(deps.Catalog, logger)
	system := NewSystemHandlers(deps.Auth, deps.Chat, deps.Catalog, logger)

	api := router.Group("/api")

	// Development helpers for issuing identities and seeding listings.
	api.POST("/dev/members", system.CreateMember)
	api.POST("/dev/token", system.IssueToken)
	api.POST("/system/notify", system.Notify)

	authed := api.Group("", AuthMiddleware(deps.Auth, logger))
	authed.GET("/chats", chats.ListSessions)
	authed.POST("/chats/read-all", chats.MarkAllRead)
	authed.POST("/chats/start", chats.StartChat)
	authed.GET("/chats/:id/messages", chats.ListMessages)
	authed.POST("/chats/:id/messages", chats.SendMessage)
	authed.POST("/chats/:id/messages/:mid/recall", chats.RecallMessage)

	authed.GET("/favorites", favorites.List)
	authed.POST("/favorites/:id", favorites.Add)
	authed.DELETE("/favorites/:id", favorites.Remove)

	authed.POST("/products", system.CreateProduct)
	authed.GET("/products/:id", system.GetProduct)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
