package signal

import (
	"context"
	stderrors "errors"
	"time"

	"canvasrelay/internal/core/domain"
	"canvasrelay/internal/core/ports"
	"canvasrelay/internal/infrastructure/monitoring"
	"canvasrelay/pkg/errors"
	"canvasrelay/pkg/tracing"

	"go.uber.org/zap"
)

// Drop reasons recorded alongside error codes.
const (
	dropSendQueueFull = "send_queue_full"
	dropEncodeFailed  = "encode_failed"
)

// ConnectionSet is the set of live clients keyed by identity. It is read and
// written only from the hub goroutine, which is also the only caller of the
// router that consults it.
type ConnectionSet struct {
	clients map[domain.ParticipantID]*Client
}

func NewConnectionSet() *ConnectionSet {
	return &ConnectionSet{clients: make(map[domain.ParticipantID]*Client)}
}

func (s *ConnectionSet) IsConnected(id domain.ParticipantID) bool {
	_, ok := s.clients[id]
	return ok
}

type inboundMessage struct {
	client   *Client
	event    domain.Event
	topic    string
	received time.Time
}

// Hub serializes every session mutation onto one goroutine. Clients feed it
// through unbuffered channels, so a client's messages are fully handled
// before its unregister is seen.
type Hub struct {
	router      ports.SessionRouter
	connections *ConnectionSet
	metrics     *monitoring.PrometheusCollector
	logger      *zap.SugaredLogger

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	queries    chan chan domain.SessionStats
	done       chan struct{}

	// evicted holds clients cut off for a full send queue whose disconnect
	// has not been handled yet.
	evicted []*Client
}

func NewHub(
	router ports.SessionRouter,
	connections *ConnectionSet,
	metrics *monitoring.PrometheusCollector,
	logger *zap.SugaredLogger,
) *Hub {
	return &Hub{
		router:      router,
		connections: connections,
		metrics:     metrics,
		logger:      logger,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inbound:     make(chan inboundMessage),
		queries:     make(chan chan domain.SessionStats),
		done:        make(chan struct{}),
	}
}

// Run owns session state until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(ctx, client)

		case msg := <-h.inbound:
			if h.isCurrent(msg.client) {
				h.handle(ctx, msg)
			}

		case reply := <-h.queries:
			reply <- h.stats()
		}

		h.disconnectEvicted(ctx)
	}
}

// Stats returns a consistent view of the session from the hub goroutine.
func (h *Hub) Stats(ctx context.Context) (domain.SessionStats, error) {
	reply := make(chan domain.SessionStats, 1)
	select {
	case h.queries <- reply:
	case <-h.done:
		return domain.SessionStats{}, errors.NewServiceUnavailableError("session hub stopped")
	case <-ctx.Done():
		return domain.SessionStats{}, ctx.Err()
	}
	return <-reply, nil
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) submit(msg inboundMessage) bool {
	select {
	case h.inbound <- msg:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) addClient(c *Client) {
	h.connections.clients[c.id] = c
	h.metrics.RecordConnection()

	h.deliver(domain.Delivery{
		To: []domain.ParticipantID{c.id},
		Message: domain.OutboundMessage{
			Type:    domain.MessageConnected,
			Payload: map[string]domain.ParticipantID{"id": c.id},
		},
	})
	h.refreshGauges()

	h.logger.Infow("client connected", "participant_id", c.id, "connections", len(h.connections.clients))
}

func (h *Hub) isCurrent(c *Client) bool {
	current, ok := h.connections.clients[c.id]
	return ok && current == c
}

func (h *Hub) removeClient(ctx context.Context, c *Client) {
	if !h.isCurrent(c) {
		return
	}
	delete(h.connections.clients, c.id)
	close(c.send)
	h.disconnect(ctx, c)
}

// evict cuts off a client that cannot keep up. Closing send makes the write
// pump close the socket; the client reconnects and resyncs from a snapshot.
func (h *Hub) evict(c *Client) {
	delete(h.connections.clients, c.id)
	close(c.send)
	h.evicted = append(h.evicted, c)
}

// disconnectEvicted announces evictions, including any caused by the
// announcements themselves.
func (h *Hub) disconnectEvicted(ctx context.Context) {
	for len(h.evicted) > 0 {
		c := h.evicted[0]
		h.evicted = h.evicted[1:]
		h.disconnect(ctx, c)
	}
	h.evicted = nil
}

func (h *Hub) disconnect(ctx context.Context, c *Client) {
	h.handle(ctx, inboundMessage{
		client:   c,
		event:    domain.DisconnectEvent{Sender: c.id},
		topic:    "disconnect",
		received: time.Now(),
	})

	h.logger.Infow("client disconnected", "participant_id", c.id, "connections", len(h.connections.clients))
}

func (h *Hub) handle(ctx context.Context, msg inboundMessage) {
	sender := msg.event.Origin()
	ctx, span := tracing.TraceWebSocketMessage(ctx, msg.topic, string(sender))
	defer span.End()
	defer func() {
		h.metrics.ObserveEventDuration(msg.topic, time.Since(msg.received))
		tracing.MeasureDuration(ctx, msg.received, msg.topic)
	}()

	deliveries, err := h.router.Handle(ctx, msg.event)
	if err != nil {
		tracing.RecordError(ctx, err)
		h.metrics.RecordMessageDropped(string(errors.CodeOf(err)))
		if stderrors.Is(err, domain.ErrRecipientNotConnected) {
			h.logger.Debugw("signal recipient not connected", "participant_id", sender, "type", msg.topic, "error", err)
		} else {
			h.logger.Warnw("dropping message", "participant_id", sender, "type", msg.topic, "error", err)
		}
		return
	}

	if signal, ok := msg.event.(domain.SignalEvent); ok {
		h.metrics.RecordSignalRelayed(signal.Kind)
	}
	for _, d := range deliveries {
		h.deliver(d)
	}
	h.refreshGauges()
}

// deliver encodes a message once and queues it for each recipient without
// blocking. A recipient whose queue is full is evicted rather than left with
// a gap in its stream.
func (h *Hub) deliver(d domain.Delivery) {
	frame, err := encodeMessage(d.Message)
	if err != nil {
		h.metrics.RecordMessageDropped(dropEncodeFailed)
		h.logger.Errorw("failed to encode message", "type", d.Message.Type, "error", err)
		return
	}

	sent := 0
	for _, id := range d.To {
		client, ok := h.connections.clients[id]
		if !ok {
			continue
		}
		select {
		case client.send <- frame:
			sent++
		default:
			h.metrics.RecordMessageDropped(dropSendQueueFull)
			h.logger.Warnw("send queue full, evicting client", "participant_id", id, "type", d.Message.Type)
			h.evict(client)
		}
	}
	h.metrics.RecordMessageSent(d.Message.Type, sent)
}

func (h *Hub) stats() domain.SessionStats {
	stats := h.router.Stats()
	stats.Connections = len(h.connections.clients)
	return stats
}

func (h *Hub) refreshGauges() {
	h.metrics.SetSessionStats(h.stats())
}

func (h *Hub) shutdown() {
	for id, client := range h.connections.clients {
		delete(h.connections.clients, id)
		close(client.send)
	}
	h.refreshGauges()
	h.logger.Infow("session hub stopped")
}
