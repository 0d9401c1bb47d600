package signal

import (
	"net/http"

	"canvasrelay/internal/core/domain"
	"canvasrelay/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketServer struct {
	hub      *Hub
	upgrader websocket.Upgrader
	opts     Options
	logger   *zap.SugaredLogger
}

// NewWebSocketServer accepts upgrades from the listed origins. "*" allows any
// origin; requests without an Origin header are always allowed.
func NewWebSocketServer(hub *Hub, opts Options, allowedOrigins []string, logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		opts:   opts,
		logger: logger,
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}

	id := domain.ParticipantID(utils.GenerateParticipantID())
	client := newClient(id, s.hub, conn, s.opts, s.logger)

	if !s.hub.registerClient(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	_, wildcard := set["*"]

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
