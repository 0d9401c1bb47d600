package signal

import (
	"time"

	"canvasrelay/internal/core/domain"
	"canvasrelay/pkg/errors"
	"canvasrelay/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options tunes a client connection.
type Options struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendQueueSize  int

	// MessagesPerSecond <= 0 disables inbound rate limiting.
	MessagesPerSecond float64
	Burst             int
}

func DefaultOptions() Options {
	return Options{
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1 << 20,
		SendQueueSize:  256,
	}
}

// rateLimitLogEvery throttles the rate limit warning per client.
const rateLimitLogEvery = 100

// Client is one websocket connection. The read pump is the only reader of
// conn, the write pump the only writer.
type Client struct {
	id      domain.ParticipantID
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	opts    Options
	logger  *zap.SugaredLogger
}

func newClient(id domain.ParticipantID, hub *Hub, conn *websocket.Conn, opts Options, logger *zap.SugaredLogger) *Client {
	c := &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, opts.SendQueueSize),
		opts:   opts,
		logger: logger.With("participant_id", id),
	}
	if opts.MessagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), opts.Burst)
	}
	return c
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	rateLimited := 0

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Infow("websocket read failed", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))

		if messageType != websocket.TextMessage {
			c.hub.metrics.RecordMessageDropped(string(errors.ErrCodeInvalidInput))
			c.logger.Warnw("ignoring non-text frame", "frame_type", messageType)
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			rateLimited++
			c.hub.metrics.RecordMessageDropped(string(errors.ErrCodeRateLimit))
			if rateLimited%rateLimitLogEvery == 1 {
				c.logger.Warnw("inbound rate limit exceeded", "dropped", rateLimited)
			}
			continue
		}

		event, topic, err := decodeEvent(c.id, data)
		c.hub.metrics.RecordMessageReceived(topic)
		if err != nil {
			c.hub.metrics.RecordMessageDropped(string(errors.CodeOf(err)))
			c.logger.Warnw("dropping malformed message", "type", topic, "error", err,
				"raw", utils.TruncateString(string(data), 128))
			continue
		}

		if !c.hub.submit(inboundMessage{client: c, event: event, topic: topic, received: time.Now()}) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Infow("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Infow("error sending ping", "error", err)
				return
			}
		}
	}
}
