package sse

import (
	"encoding/json"

	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/pipeline"
)

// Envelope is the wire form of a pipeline event as delivered to browsers.
type Envelope struct {
	Type    string               `json:"type"`
	Session string               `json:"session_id,omitempty"`
	Event   *pipeline.StageEvent `json:"event,omitempty"`
}

const (
	// EventTypeStage marks a pipeline stage transition.
	EventTypeStage = "stage"
	// EventTypeConnected is sent once when a client attaches.
	EventTypeConnected = "connected"
)

// Publisher bridges pipeline stage events onto a Broadcaster, scoping each
// event to the session the pipeline belongs to.
type Publisher struct {
	session string
	b       Broadcaster
	log     *logger.Logger
}

// NewPublisher creates a Publisher for one session's pipeline.
func NewPublisher(sessionID string, b Broadcaster, log *logger.Logger) *Publisher {
	return &Publisher{
		session: sessionID,
		b:       b,
		log:     log.WithComponent("sse"),
	}
}

// Listener returns a pipeline.Listener that forwards every stage event to
// clients of this publisher's session. Pass it to Engine.Subscribe.
func (p *Publisher) Listener() pipeline.Listener {
	return func(ev pipeline.StageEvent) {
		data, err := json.Marshal(Envelope{
			Type:    EventTypeStage,
			Session: p.session,
			Event:   &ev,
		})
		if err != nil {
			p.log.Error("Failed to encode stage event", map[string]interface{}{
				logger.FieldStage: ev.Stage,
				logger.FieldError: err.Error(),
			})
			return
		}
		p.b.Broadcast(p.session+":*", data)
	}
}
