// Package client is a Go client for a canvasrelay session, used by the
// example bot and tests.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"canvasrelay/internal/core/domain"
	"canvasrelay/internal/infrastructure/signal"
	"canvasrelay/pkg/retry"

	"github.com/gorilla/websocket"
	webrtc "github.com/pion/webrtc/v3"
)

const (
	writeWait   = 10 * time.Second
	inboxSize   = 256
	greetingTTL = 10 * time.Second
)

// ErrForbidden is returned when the server rejects the origin.
var ErrForbidden = errors.New("connection forbidden")

// Message is one frame received from the session.
type Message = signal.SignalMessage

type Client struct {
	id   domain.ParticipantID
	conn *websocket.Conn

	writeMu sync.Mutex
	inbox   chan Message
	done    chan struct{}
	err     error
}

// Dial connects to wsURL, retrying with backoff, and waits for the
// greeting that carries this connection's identity.
func Dial(ctx context.Context, wsURL string, cfg retry.Config) (*Client, error) {
	conn, err := retry.RetryWithResult(ctx, cfg, func() (*websocket.Conn, error) {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil && resp != nil && resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		return conn, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}

	c := &Client{
		conn:  conn,
		inbox: make(chan Message, inboxSize),
		done:  make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(greetingTTL))
	var greeting Message
	if err := conn.ReadJSON(&greeting); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}
	if greeting.Type != string(domain.MessageConnected) {
		conn.Close()
		return nil, fmt.Errorf("unexpected first message %q", greeting.Type)
	}
	var hello struct {
		ID domain.ParticipantID `json:"id"`
	}
	if err := json.Unmarshal(greeting.Payload, &hello); err != nil || hello.ID == "" {
		conn.Close()
		return nil, fmt.Errorf("invalid greeting payload: %s", greeting.Payload)
	}
	c.id = hello.ID
	conn.SetReadDeadline(time.Time{})

	go c.readLoop()
	return c, nil
}

// DialConfig is the retry policy Dial uses when callers have no preference.
// Origin rejections are not retried.
func DialConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.NonRetryableErrors = []error{ErrForbidden}
	return cfg
}

func (c *Client) ID() domain.ParticipantID {
	return c.id
}

// Messages delivers frames in arrival order and must be drained; the read
// loop stalls while it is full. It is closed when the connection ends.
func (c *Client) Messages() <-chan Message {
	return c.inbox
}

// Done is closed when the connection ends; Err then reports why.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Err() error {
	<-c.done
	return c.err
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) Join(name, color string) error {
	return c.send(signal.TopicJoin, signal.JoinPayload{Name: name, Color: color})
}

func (c *Client) RequestConnections() error {
	return c.send(signal.TopicRequestConnections, struct{}{})
}

func (c *Client) RequestState() error {
	return c.send(signal.TopicRequestState, struct{}{})
}

// Draw submits a segment. The owner is always this connection.
func (c *Client) Draw(segment domain.Segment) error {
	segment.UserID = c.id
	return c.send(signal.TopicDraw, segment)
}

func (c *Client) ClearCanvas() error {
	return c.send(signal.TopicClearCanvas, c.id)
}

func (c *Client) Offer(to domain.ParticipantID, offer webrtc.SessionDescription) error {
	raw, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return c.send(signal.TopicOffer, signal.RelayPayload{To: to, Offer: raw})
}

func (c *Client) Answer(to domain.ParticipantID, answer webrtc.SessionDescription) error {
	raw, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return c.send(signal.TopicAnswer, signal.RelayPayload{To: to, Answer: raw})
}

func (c *Client) ICECandidate(to domain.ParticipantID, candidate webrtc.ICECandidateInit) error {
	raw, err := json.Marshal(candidate)
	if err != nil {
		return err
	}
	return c.send(signal.TopicICECandidate, signal.RelayPayload{To: to, Candidate: raw})
}

// Next returns the next frame of the given type, discarding others, or
// fails when ctx is done or the connection ends.
func (c *Client) Next(ctx context.Context, topic domain.MessageType) (Message, error) {
	for {
		select {
		case msg, ok := <-c.inbox:
			if !ok {
				return Message{}, fmt.Errorf("connection closed: %w", c.Err())
			}
			if msg.Type == string(topic) {
				return msg, nil
			}
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

func (c *Client) send(topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(Message{Type: topic, Payload: raw})
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.inbox)

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
			}
			return
		}
		c.inbox <- msg
	}
}

// FetchICEServers reads the server's ICE configuration from baseURL.
func FetchICEServers(ctx context.Context, baseURL string) ([]webrtc.ICEServer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/ice-servers", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ICE servers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch ICE servers: HTTP %d", resp.StatusCode)
	}

	var body struct {
		ICEServers []webrtc.ICEServer `json:"iceServers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid ICE server response: %w", err)
	}
	return body.ICEServers, nil
}
