package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/calmchat/internal/auth"
	"github.com/suPer8Hu/calmchat/internal/chat"
	"github.com/suPer8Hu/calmchat/internal/common"
	"go.uber.org/zap"
)

const adminTokenTTL = 12 * time.Hour

type loginReq struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	if h.Cfg.AdminPasswordHash == "" {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "admin login disabled")
		return
	}

	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if !auth.CheckPassword(h.Cfg.AdminPasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40102, "invalid password")
		return
	}

	token, err := auth.SignJWT([]byte(h.Cfg.JWTSecret), auth.AdminSubject, adminTokenTTL)
	if err != nil {
		h.Log.Error("sign admin token", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to sign token")
		return
	}
	common.OK(c, gin.H{
		"token":      token,
		"expires_in": int(adminTokenTTL.Seconds()),
	})
}

func (h *Handler) SessionTurns(c *gin.Context) {
	turns, err := h.ChatSvc.History(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40004, "session not found")
			return
		}
		h.Log.Error("load session", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load session")
		return
	}
	common.OK(c, gin.H{"turns": turns})
}

func (h *Handler) Stats(c *gin.Context) {
	if h.Audit == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50302, "audit log disabled")
		return
	}
	rows, err := h.Audit.Stats(c.Request.Context())
	if err != nil {
		h.Log.Error("audit stats", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to load stats")
		return
	}
	common.OK(c, gin.H{"stats": rows})
}

func (h *Handler) RecentAttempts(c *gin.Context) {
	if h.Audit == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50302, "audit log disabled")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.Audit.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Log.Error("audit list", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to load attempts")
		return
	}
	common.OK(c, gin.H{"attempts": rows})
}
