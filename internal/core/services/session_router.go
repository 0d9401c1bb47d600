package services

import (
	"context"
	"fmt"
	"net/http"

	"canvasrelay/internal/core/domain"
	"canvasrelay/internal/core/ports"
	"canvasrelay/pkg/errors"
	"canvasrelay/pkg/tracing"
	"canvasrelay/pkg/utils"
	"canvasrelay/pkg/validation"

	"go.uber.org/zap"
)

// sessionRouter owns the session state. It is not safe for concurrent use:
// the caller must serialize Handle and Stats, which lets the registry and
// canvas store stay lock-free.
type sessionRouter struct {
	registry ports.ParticipantRegistry
	canvases ports.CanvasStore
	relay    ports.SignalingRelay
	logger   *zap.SugaredLogger
}

func NewSessionRouter(
	registry ports.ParticipantRegistry,
	canvases ports.CanvasStore,
	relay ports.SignalingRelay,
	logger *zap.SugaredLogger,
) ports.SessionRouter {
	return &sessionRouter{
		registry: registry,
		canvases: canvases,
		relay:    relay,
		logger:   logger,
	}
}

// Handle applies one event. On error no state has changed and no
// deliveries are returned.
func (r *sessionRouter) Handle(ctx context.Context, event domain.Event) ([]domain.Delivery, error) {
	var (
		deliveries []domain.Delivery
		err        error
	)

	switch e := event.(type) {
	case domain.JoinEvent:
		deliveries, err = r.join(e)
	case domain.RequestConnectionsEvent:
		deliveries, err = r.requestConnections(e)
	case domain.RequestStateEvent:
		deliveries, err = r.requestState(e)
	case domain.DrawEvent:
		deliveries, err = r.draw(e)
	case domain.ClearCanvasEvent:
		deliveries, err = r.clearCanvas(e)
	case domain.DisconnectEvent:
		deliveries, err = r.disconnect(e)
	case domain.SignalEvent:
		deliveries, err = r.signal(ctx, e)
	default:
		err = errors.InvalidInput(domain.ErrMalformedEvent, fmt.Sprintf("unsupported event %T", event))
	}
	if err != nil {
		return nil, err
	}

	tracing.AddSpanAttributes(ctx, tracing.DeliveriesKey.Int(len(deliveries)))
	return deliveries, nil
}

func (r *sessionRouter) Stats() domain.SessionStats {
	canvases, segments := r.canvases.Stats()
	return domain.SessionStats{
		Participants: r.registry.Len(),
		Canvases:     canvases,
		Segments:     segments,
	}
}

func (r *sessionRouter) join(e domain.JoinEvent) ([]domain.Delivery, error) {
	name := utils.SanitizeString(e.Name)
	if err := validation.ValidateDisplayName(name); err != nil {
		return nil, errors.InvalidInput(fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err), "invalid join")
	}
	color := utils.SanitizeString(e.Color)
	if err := validation.ValidateColor(color); err != nil {
		return nil, errors.InvalidInput(fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err), "invalid join")
	}

	var (
		participant domain.Participant
		err         error
	)
	_, rejoin := r.registry.Get(e.Sender)
	if rejoin {
		participant, err = r.registry.Update(e.Sender, name, color)
	} else {
		participant, err = r.registry.Register(e.Sender, name, color)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "failed to register participant", http.StatusInternalServerError)
	}
	r.logger.Infow("participant joined", "participant_id", e.Sender, "name", name, "rejoin", rejoin)
	r.canvases.Ensure(e.Sender)

	deliveries := r.snapshotFor(e.Sender)
	return append(deliveries, r.broadcast(domain.MessageUserJoined, participant, e.Sender)...), nil
}

func (r *sessionRouter) requestConnections(e domain.RequestConnectionsEvent) ([]domain.Delivery, error) {
	if _, exists := r.registry.Get(e.Sender); !exists {
		return nil, errors.NotFound(domain.ErrNotJoined, "participant")
	}
	return r.broadcast(domain.MessageUserJoinedWithVideo, e.Sender, e.Sender), nil
}

func (r *sessionRouter) requestState(e domain.RequestStateEvent) ([]domain.Delivery, error) {
	if _, exists := r.registry.Get(e.Sender); !exists {
		return nil, errors.NotFound(domain.ErrNotJoined, "participant")
	}
	return r.snapshotFor(e.Sender), nil
}

func (r *sessionRouter) draw(e domain.DrawEvent) ([]domain.Delivery, error) {
	segment := e.Segment
	if err := segment.Validate(); err != nil {
		return nil, errors.InvalidInput(err, "invalid draw")
	}
	if err := validation.ValidateColor(segment.Color); err != nil {
		return nil, errors.InvalidInput(fmt.Errorf("%w: %v", domain.ErrInvalidSegment, err), "invalid draw")
	}

	var payload interface{}
	switch segment.UserID {
	case "":
		segment.UserID = e.Sender
		payload = segment.Clone()
	case e.Sender:
		// Already names its owner: peers get the bytes the sender wrote.
		if len(e.Raw) > 0 {
			payload = e.Raw
		} else {
			payload = segment.Clone()
		}
	default:
		return nil, errors.Forbidden(domain.ErrIdentityMismatch, "draw for another participant").
			WithContext("user_id", segment.UserID)
	}

	r.canvases.Append(e.Sender, segment)
	return r.broadcast(domain.MessageDraw, payload, e.Sender), nil
}

func (r *sessionRouter) clearCanvas(e domain.ClearCanvasEvent) ([]domain.Delivery, error) {
	if e.Target != "" && e.Target != e.Sender {
		return nil, errors.Forbidden(domain.ErrIdentityMismatch, "clear for another participant").
			WithContext("target", e.Target)
	}

	r.canvases.Clear(e.Sender)
	return r.broadcast(domain.MessageClearCanvas, e.Sender, e.Sender), nil
}

func (r *sessionRouter) disconnect(e domain.DisconnectEvent) ([]domain.Delivery, error) {
	_, registered := r.registry.Get(e.Sender)
	segments, _ := r.canvases.Segments(e.Sender)
	r.registry.Unregister(e.Sender)
	r.canvases.Remove(e.Sender)

	if !registered {
		return nil, nil
	}
	r.logger.Infow("participant left", "participant_id", e.Sender, "discarded_segments", len(segments))
	return r.broadcast(domain.MessageUserLeft, e.Sender), nil
}

func (r *sessionRouter) signal(ctx context.Context, e domain.SignalEvent) ([]domain.Delivery, error) {
	tracing.AddSpanAttributes(ctx, tracing.RecipientIDKey.String(string(e.To)))
	delivery, err := r.relay.Relay(e.Kind, e.To, e.Sender, e.Payload)
	if err != nil {
		return nil, err
	}
	return []domain.Delivery{delivery}, nil
}

// snapshotFor builds the full session view addressed to one participant.
func (r *sessionRouter) snapshotFor(id domain.ParticipantID) []domain.Delivery {
	to := []domain.ParticipantID{id}
	return []domain.Delivery{
		{To: to, Message: domain.OutboundMessage{Type: domain.MessageCurrentUsers, Payload: r.registry.List()}},
		{To: to, Message: domain.OutboundMessage{Type: domain.MessageCurrentState, Payload: r.canvases.Snapshot()}},
	}
}

// broadcast addresses a message to every registered participant except the
// excluded ones. It yields nothing when the audience is empty.
func (r *sessionRouter) broadcast(t domain.MessageType, payload interface{}, exclude ...domain.ParticipantID) []domain.Delivery {
	audience := Audience(r.registry.List(), exclude...)
	if len(audience) == 0 {
		return nil
	}
	return []domain.Delivery{{To: audience, Message: domain.OutboundMessage{Type: t, Payload: payload}}}
}
