package handler

import (
	"sort"

	"code-research-be/internal/pkg/logger"
	"code-research-be/internal/repository/memory"
	internalWS "code-research-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// MonitorHandler exposes the research activity monitor: a websocket
// carrying live lifecycle events plus a snapshot of tracked sessions.
type MonitorHandler struct {
	hub      *internalWS.Hub
	sessions *memory.SessionRepository
	logger   logger.ILogger
}

func NewMonitorHandler(hub *internalWS.Hub, sessions *memory.SessionRepository, log logger.ILogger) *MonitorHandler {
	return &MonitorHandler{
		hub:      hub,
		sessions: sessions,
		logger:   log,
	}
}

// RegisterRoutes registers the monitor routes.
func (h *MonitorHandler) RegisterRoutes(router fiber.Router) {
	research := router.Group("/research")
	research.Get("/sessions", h.GetSessions)

	// WebSocket
	research.Get("/ws", h.ServeWs)
}

// ServeWs upgrades the connection and attaches it to the hub.
func (h *MonitorHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(h.hub, conn)
	})(c)
}

// GetSessions returns the tracked research sessions, newest first.
func (h *MonitorHandler) GetSessions(c *fiber.Ctx) error {
	sessions := h.sessions.Active()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return c.JSON(fiber.Map{
		"data":  sessions,
		"total": len(sessions),
	})
}
