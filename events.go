package bootstrap

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// EventSource is the CloudEvents source of every event emitted by the runtime.
const EventSource = "bootstrap/runtime"

// Event types emitted by the runtime, in reverse domain notation.
const (
	EventTypeRuntimeStarting     = "com.bootstrap.runtime.starting"
	EventTypeRuntimeStarted      = "com.bootstrap.runtime.started"
	EventTypeRuntimeShuttingDown = "com.bootstrap.runtime.shuttingdown"
	EventTypeRuntimeShutDown     = "com.bootstrap.runtime.shutdown"
	EventTypeBeanCreated         = "com.bootstrap.bean.created"
	EventTypeBeanMissing         = "com.bootstrap.bean.missing"
)

// ObserverFunc receives runtime events. Observers are called synchronously
// after the runtime has released its lock, so they may call back into it.
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

// newEvent creates a CloudEvent for the runtime
func newEvent(eventType string, data map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateEventID())
	event.SetSource(EventSource)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// generateEventID returns the id of a runtime event. Ids sort by creation
// time unless the v7 clock source fails.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

func stateEventType(s State) string {
	switch s {
	case Starting:
		return EventTypeRuntimeStarting
	case Started:
		return EventTypeRuntimeStarted
	case ShuttingDown:
		return EventTypeRuntimeShuttingDown
	case ShutDown:
		return EventTypeRuntimeShutDown
	}
	return ""
}

// queue records an event to be delivered once the lock is released. Callers hold r.mu.
func (r *Runtime) queue(eventType string, data map[string]any) {
	if len(r.observers) == 0 || eventType == "" {
		return
	}
	r.pending = append(r.pending, newEvent(eventType, data))
}

// flush delivers queued events. Callers must not hold r.mu.
func (r *Runtime) flush(ctx context.Context) {
	r.mu.Lock()
	events := r.pending
	r.pending = nil
	observers := r.observers
	r.mu.Unlock()

	for _, event := range events {
		for _, observer := range observers {
			if err := observer(ctx, event); err != nil {
				r.logger.Error("observer failed", "event", event.Type(), "error", err)
			}
		}
	}
}
