package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/calmchat/internal/chat"
	"github.com/suPer8Hu/calmchat/internal/common"
	"github.com/suPer8Hu/calmchat/internal/config"
	"github.com/suPer8Hu/calmchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/calmchat/internal/httpapi/middleware"
	"go.uber.org/zap"
)

func NewRouter(cfg config.Config, svc *chat.Service, audit *chat.Repo, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(cfg, svc, audit, log)

	r.GET("/health", h.Health)
	r.GET("/ping", h.Ping)

	r.POST("/chat", h.Chat)
	r.GET("/chat/ws", h.ChatWS)

	// admin
	r.POST("/admin/login", h.Login)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	adminGroup.GET("/sessions/:session_id/turns", h.SessionTurns)
	adminGroup.GET("/stats", h.Stats)
	adminGroup.GET("/attempts", h.RecentAttempts)
	return r
}
