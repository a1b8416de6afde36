package handler

import (
	"io"

	"go-gin-happenings/internal/notify"
	"go-gin-happenings/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StreamHandler 以 server-sent events 推送畫面更新
type StreamHandler struct {
	hub *notify.Hub
}

func NewStreamHandler(hub *notify.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

func (h *StreamHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/v1/streams/:channel", h.Stream)
}

func (h *StreamHandler) Stream(c *gin.Context) {
	channel := c.Param("channel")
	msgs := h.hub.Subscribe(c.Request.Context(), channel)

	log := logger.WithComponent("handler").With(zap.String("channel", channel))
	log.Debug("stream opened", zap.Int("clients", h.hub.ClientCount(channel)))

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 客戶端斷線時 context 取消，Hub 會關閉 msgs
	c.Stream(func(w io.Writer) bool {
		msg, ok := <-msgs
		if !ok {
			return false
		}
		c.SSEvent(msg.Action, msg)
		return true
	})

	log.Debug("stream closed")
}
