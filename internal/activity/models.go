// Package activity captures structured activity-log events emitted by the
// lifecycle engine. The sink contract is no-throw: emitting never blocks
// and never fails the caller; a dropped event is logged and accepted.
package activity

import (
	"time"

	id "tramita/pkg/domain"
)

// Action names the engine operation that produced an event.
type Action string

const (
	ActionProcessCreated       Action = "process_created"
	ActionProcessUpdated       Action = "process_updated"
	ActionProcessDeleted       Action = "process_deleted"
	ActionProcessCloned        Action = "process_cloned"
	ActionStatusChanged        Action = "status_changed"
	ActionChecklistGenerated   Action = "checklist_generated"
	ActionChecklistRegenerated Action = "checklist_regenerated"
	ActionTaskAutoCreated      Action = "task_auto_created"
	ActionUrgencySynced        Action = "urgency_synced"
	ActionAuthorizationSynced  Action = "authorization_synced"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    Action         `json:"action"`
	ProcessID id.ProcessID   `json:"process_id,omitempty"`
	ActorID   id.UserID      `json:"actor_id"`
	RequestID string         `json:"request_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
