package models

import (
	"time"

	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
)

// Phase distinguishes the current case from superseded rounds for the same
// person. It is orthogonal to the workflow status machine and is flipped
// only by the clone operation.
type Phase string

const (
	PhaseCurrent  Phase = "Atual"
	PhasePrevious Phase = "Anterior"
)

// IndividualProcess is the aggregate root for one person's authorization
// case.
//
// Invariants:
//   - PersonID is always set
//   - StatusID references an existing CaseStatus; StatusCode mirrors its
//     code (legacy consumers read the string form)
//   - At most one ProcessStatusRecord for this case has IsActive=true;
//     enforced by the engine, not the model
//   - CompletedAt is set exactly once, on the first transition to the
//     approved status
//   - The case exclusively owns its status history, checklist entries and
//     tasks; they are cascade-deleted with it
type IndividualProcess struct {
	ID                 id.ProcessID           `json:"id"`
	PersonID           id.PersonID            `json:"person_id"`
	GroupID            id.GroupID             `json:"group_id,omitempty"`
	CompanyApplicantID id.CompanyID           `json:"company_applicant_id,omitempty"`
	StatusID           id.CaseStatusID        `json:"status_id"`
	StatusCode         string                 `json:"status_code"` // Deprecated: kept in sync with StatusID for legacy consumers.
	AuthTypeID         id.AuthorizationTypeID `json:"authorization_type_id,omitempty"`
	LegalFrameworkID   id.LegalFrameworkID    `json:"legal_framework_id,omitempty"`

	ProtocolNumber string     `json:"protocol_number,omitempty"`
	DOUNumber      string     `json:"dou_number,omitempty"`
	Consulate      string     `json:"consulate,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Urgent         bool       `json:"urgent"`

	Phase       Phase      `json:"process_status"`
	IsActive    bool       `json:"is_active"` // Deprecated: mirrors Phase == PhaseCurrent.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewIndividualProcess constructs a case in the current phase with the
// resolved initial status.
func NewIndividualProcess(processID id.ProcessID, personID id.PersonID, status *CaseStatus, now time.Time) (*IndividualProcess, error) {
	if personID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "process requires a person reference")
	}
	if status == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "process requires an initial status")
	}
	return &IndividualProcess{
		ID:         processID,
		PersonID:   personID,
		StatusID:   status.ID,
		StatusCode: status.Code,
		Phase:      PhaseCurrent,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ApplyStatus moves the case to a new status, keeping the legacy string
// code in sync and stamping CompletedAt once on approval.
func (p *IndividualProcess) ApplyStatus(status *CaseStatus, now time.Time) {
	p.StatusID = status.ID
	p.StatusCode = status.Code
	if status.Code == StatusCodeApproved && p.CompletedAt == nil {
		completed := now
		p.CompletedAt = &completed
	}
	p.UpdatedAt = now
}

// Supersede flips the case out of the current phase. Used when a fresh
// round is started for the same person.
func (p *IndividualProcess) Supersede(now time.Time) {
	p.Phase = PhasePrevious
	p.IsActive = false
	p.UpdatedAt = now
}
