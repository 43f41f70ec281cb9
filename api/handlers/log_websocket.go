package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	wsBacklog      = 50
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LogWebSocketHandler streams a log category over a WebSocket
type LogWebSocketHandler struct {
	logReader *logger.LogReader
	logger    *zap.Logger
}

// NewLogWebSocketHandler creates a new WebSocket handler
func NewLogWebSocketHandler(logsDir string, log *zap.Logger) *LogWebSocketHandler {
	return &LogWebSocketHandler{
		logReader: logger.NewLogReader(logsDir),
		logger:    log,
	}
}

// HandleWebSocket handles GET /api/logs/ws?category=...
// It sends the recent backlog, then every new entry as it is written.
func (h *LogWebSocketHandler) HandleWebSocket(c *gin.Context) {
	category := logger.CategoryAcquisition
	if raw := c.Query("category"); raw != "" {
		parsed, ok := logger.ParseCategory(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		category = parsed
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket client connected",
		zap.String("category", string(category)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	entries, err := h.logReader.ReadTodayLogs(category, wsBacklog)
	if err == nil {
		for _, entry := range entries {
			if err := writeEntry(conn, entry); err != nil {
				return
			}
		}
	}

	entryChan := make(chan logger.LogEntry, 100)
	stopChan := make(chan struct{})
	defer close(stopChan)

	go func() {
		if err := h.logReader.TailLogs(category, entryChan, stopChan); err != nil {
			h.logger.Warn("Log tailing error", zap.Error(err))
		}
	}()

	// the read loop only exists to notice the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-entryChan:
			if err := writeEntry(conn, entry); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeEntry(conn *websocket.Conn, entry logger.LogEntry) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(entry)
}
