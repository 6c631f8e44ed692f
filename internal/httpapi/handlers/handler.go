package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/suPer8Hu/calmchat/internal/chat"
	"github.com/suPer8Hu/calmchat/internal/common"
	"github.com/suPer8Hu/calmchat/internal/config"
	"go.uber.org/zap"
)

type Handler struct {
	Cfg     config.Config
	ChatSvc *chat.Service
	// Audit is nil when no DB_DSN is configured.
	Audit *chat.Repo
	Log   *zap.Logger

	upgrader websocket.Upgrader
}

func NewHandler(cfg config.Config, svc *chat.Service, audit *chat.Repo, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Cfg:     cfg,
		ChatSvc: svc,
		Audit:   audit,
		Log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{
		"pong":       true,
		"configured": h.ChatSvc.Configured(),
	})
}
