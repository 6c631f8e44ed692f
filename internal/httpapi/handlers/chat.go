package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type chatReq struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// maxChatBody caps request bodies and websocket frames.
const maxChatBody = 64 << 10

// Chat always answers 200 with text. A body that is not valid JSON is
// handled like an empty message.
func (h *Handler) Chat(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxChatBody)

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		req = chatReq{}
	}

	reply := h.ChatSvc.Respond(c.Request.Context(), req.SessionID, req.Message)
	c.JSON(http.StatusOK, reply)
}

const wsWriteWait = 10 * time.Second

// ChatWS answers every JSON frame {message, session_id} with one reply
// frame. Once a session id is known it sticks to the connection.
func (h *Handler) ChatWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxChatBody)

	ctx := c.Request.Context()
	sessionID := c.Query("session_id")
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Log.Debug("websocket closed", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var req chatReq
		if err := json.Unmarshal(data, &req); err != nil {
			req = chatReq{}
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}

		reply := h.ChatSvc.Respond(ctx, req.SessionID, req.Message)
		sessionID = reply.SessionID

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.Log.Debug("websocket write", zap.Error(err))
			return
		}
	}
}
