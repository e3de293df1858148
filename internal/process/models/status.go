package models

import (
	"time"

	id "tramita/pkg/domain"
)

// Workflow status codes. The display names live in the CaseStatus reference
// records; these constants exist for the places where the engine itself
// branches on a code.
const (
	// StatusCodePreparation is the default initial status. It must exist
	// in reference data or case creation fails hard.
	StatusCodePreparation = "em_preparacao"
	// StatusCodeApproved is the terminal "deferido" status; the first
	// transition into it stamps CompletedAt.
	StatusCodeApproved = "deferido"

	StatusCodeAwaitingDocs = "aguardando_documentos"
	StatusCodeFiled        = "protocolado"
	StatusCodeUnderReview  = "em_analise"
	StatusCodeRequirement  = "exigencia"
	StatusCodeDenied       = "indeferido"
	StatusCodeArchived     = "arquivado"
)

// CaseStatus is a named workflow state. Reference data; the engine only
// reads it.
type CaseStatus struct {
	ID    id.CaseStatusID `json:"id"`
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Color string          `json:"color,omitempty"`
}

// ProcessStatusRecord is one historical status assignment for a case.
//
// Invariant: for a given case, at most one record has IsActive=true at any
// time. Records are created on every status change and deactivated, never
// deleted, by the engine (cascade removal of the whole case excepted).
type ProcessStatusRecord struct {
	ID            id.StatusRecordID `json:"id"`
	ProcessID     id.ProcessID      `json:"process_id"`
	StatusID      id.CaseStatusID   `json:"status_id"`
	IsActive      bool              `json:"is_active"`
	EffectiveDate time.Time         `json:"effective_date"`
	Note          string            `json:"note,omitempty"`
	ActorID       id.UserID         `json:"actor_id"`
	CreatedAt     time.Time         `json:"created_at"`
}

// HistoryEntry is a write-once audit record for a status change. Previous
// and new status are display names so the trail reads without joins.
type HistoryEntry struct {
	ID             id.HistoryID   `json:"id"`
	ProcessID      id.ProcessID   `json:"process_id"`
	PreviousStatus string         `json:"previous_status,omitempty"` // empty on the first entry
	NewStatus      string         `json:"new_status"`
	ActorID        id.UserID      `json:"actor_id"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
