package http

import (
	"context"
	"net/http"

	"canvasrelay/internal/core/domain"
	"canvasrelay/internal/infrastructure/monitoring"
	"canvasrelay/pkg/config"
	"canvasrelay/pkg/errors"

	webrtc "github.com/pion/webrtc/v3"

	"github.com/gin-gonic/gin"
)

// SessionStatsProvider reports a consistent view of the live session.
type SessionStatsProvider interface {
	Stats(ctx context.Context) (domain.SessionStats, error)
}

type SessionHandler struct {
	sessions   SessionStatsProvider
	health     *monitoring.HealthChecker
	iceServers []webrtc.ICEServer
}

func NewSessionHandler(
	sessions SessionStatsProvider,
	health *monitoring.HealthChecker,
	iceServers []config.ICEServerConfig,
) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		health:     health,
		iceServers: ToICEServers(iceServers),
	}
}

func (h *SessionHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	api := router.Group("/api/v1")
	{
		api.GET("/session", h.GetSessionStats)
		api.GET("/ice-servers", h.GetICEServers)
	}
}

// Health reports process liveness only.
func (h *SessionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SessionHandler) Ready(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())
	if status.Status != monitoring.StatusHealthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *SessionHandler) GetSessionStats(c *gin.Context) {
	stats, err := h.sessions.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(errors.WrapError(err, errors.ErrCodeServiceUnavailable, "session unavailable", http.StatusServiceUnavailable))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetICEServers returns the servers in RTCConfiguration form, so a browser
// can pass the body straight to RTCPeerConnection.
func (h *SessionHandler) GetICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.iceServers})
}

func ToICEServers(servers []config.ICEServerConfig) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		server := webrtc.ICEServer{
			URLs:     append([]string(nil), s.URLs...),
			Username: s.Username,
		}
		if s.Credential != "" {
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, server)
	}
	return out
}
