package models

import (
	"time"

	id "tramita/pkg/domain"
)

// ChecklistStatus tracks one required document through its review cycle.
type ChecklistStatus string

const (
	ChecklistNotStarted  ChecklistStatus = "not_started"
	ChecklistUploaded    ChecklistStatus = "uploaded"
	ChecklistUnderReview ChecklistStatus = "under_review"
	ChecklistApproved    ChecklistStatus = "approved"
	ChecklistRejected    ChecklistStatus = "rejected"
)

// ChecklistEntry is one required-document line for a case.
//
// Only not_started entries may be deleted on regeneration; entries in any
// other status carry uploaded or reviewed work and are preserved.
type ChecklistEntry struct {
	ID              id.ChecklistEntryID `json:"id"`
	ProcessID       id.ProcessID        `json:"process_id"`
	DocumentType    string              `json:"document_type"`
	Status          ChecklistStatus     `json:"status"`
	TemplateVersion int                 `json:"template_version"`
	IsLatest        bool                `json:"is_latest"`
	CreatedBy       id.UserID           `json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Regenerable reports whether regeneration may discard this entry.
func (e *ChecklistEntry) Regenerable() bool {
	return e.Status == ChecklistNotStarted
}

// DocumentRequirement is one mandatory document on a template.
type DocumentRequirement struct {
	DocumentType string `json:"document_type"`
	Name         string `json:"name"`
	Required     bool   `json:"required"`
}

// DocumentTemplate declares the documents required for an authorization
// type, optionally narrowed to a legal framework. Versioned reference data;
// the engine selects the highest-version active template that matches.
type DocumentTemplate struct {
	ID               id.TemplateID          `json:"id"`
	AuthTypeID       id.AuthorizationTypeID `json:"authorization_type_id"`
	LegalFrameworkID id.LegalFrameworkID    `json:"legal_framework_id,omitempty"`
	Version          int                    `json:"version"`
	Active           bool                   `json:"active"`
	Requirements     []DocumentRequirement  `json:"requirements"`
}

// Matches reports whether the template applies to a case with the given
// legal framework: the frameworks must match, or both must be unset.
func (t *DocumentTemplate) Matches(framework id.LegalFrameworkID) bool {
	if t.LegalFrameworkID.IsNil() {
		return framework.IsNil()
	}
	return t.LegalFrameworkID == framework
}
