package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventProcessAdded   EventType = "process_added"
	EventProcessRemoved EventType = "process_removed"
	EventClusterAdded   EventType = "cluster_added"
	EventClusterRemoved EventType = "cluster_removed"
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
	EventSetup          EventType = "setup"
	EventReconfigured   EventType = "reconfigured"
	EventReset          EventType = "reset"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	PipelineID string    `json:"pipeline_id"`
}

// GraphEvent reports a structural change: a process or cluster entering or
// leaving the pipeline.
type GraphEvent struct {
	EventBase
	Name    string `json:"name"`
	Cluster bool   `json:"cluster,omitempty"`
}

// ConnectionEvent reports an edge gaining or losing a destination.
type ConnectionEvent struct {
	EventBase
	Connection Connection `json:"connection"`
}

// LifecycleEvent reports a setup, reconfigure or reset.
type LifecycleEvent struct {
	EventBase
	Success   bool          `json:"success"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
	Processes int           `json:"processes"`
	Edges     int           `json:"edges"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnGraphChange      func(context.Context, *GraphEvent)
	OnConnectionChange func(context.Context, *ConnectionEvent)
	OnLifecycle        func(context.Context, *LifecycleEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnGraphChange: func(ctx context.Context, e *GraphEvent) {
			if h.OnGraphChange != nil {
				h.OnGraphChange(ctx, e)
			}
			if other.OnGraphChange != nil {
				other.OnGraphChange(ctx, e)
			}
		},
		OnConnectionChange: func(ctx context.Context, e *ConnectionEvent) {
			if h.OnConnectionChange != nil {
				h.OnConnectionChange(ctx, e)
			}
			if other.OnConnectionChange != nil {
				other.OnConnectionChange(ctx, e)
			}
		},
		OnLifecycle: func(ctx context.Context, e *LifecycleEvent) {
			if h.OnLifecycle != nil {
				h.OnLifecycle(ctx, e)
			}
			if other.OnLifecycle != nil {
				other.OnLifecycle(ctx, e)
			}
		},
	}
}
