package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/adapters/signal"
	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/config"
)

const (
	sessionName = "SantaSessions"
	tokenKey    = "client_token"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware gives every browser a stable token kept in the
// signed session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(tokenKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(tokenKey, token)
			if err := session.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, reg *app.Registry, starts *signal.RateLimiter) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{cfg: cfg, reg: reg, starts: starts}
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/info", h.info)
	api.GET("/settings", h.getSettings)
	api.PUT("/settings", h.putSettings)

	callAPI := api.Group("/call")
	callAPI.GET("/state", h.callState)
	callAPI.POST("/start", h.startCall)
	callAPI.POST("/hangup", h.hangupCall)
	callAPI.POST("/mute", h.toggleMute)

	ws := signal.NewSignalWSController(reg, starts)
	ws.CallContext = ctx
	ws.ReadLimit = cfg.ReadLimit
	ws.PingPeriod = cfg.PingPeriod
	api.GET("/ws/ui", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString(tokenKey)).Msg("ws ui endpoint hit")
		ws.HandleSignal(ctx, c)
	})

	return r
}
