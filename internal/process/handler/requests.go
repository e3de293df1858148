package handler

import (
	"time"

	id "tramita/pkg/domain"
)

type createProcessRequest struct {
	PersonID           id.PersonID            `json:"person_id"`
	GroupID            id.GroupID             `json:"group_id,omitempty"`
	CompanyApplicantID id.CompanyID           `json:"company_applicant_id,omitempty"`
	StatusID           id.CaseStatusID        `json:"status_id,omitempty"`
	AuthTypeID         id.AuthorizationTypeID `json:"authorization_type_id,omitempty"`
	LegalFrameworkID   id.LegalFrameworkID    `json:"legal_framework_id,omitempty"`
	ProtocolNumber     string                 `json:"protocol_number,omitempty"`
	DOUNumber          string                 `json:"dou_number,omitempty"`
	Consulate          string                 `json:"consulate,omitempty"`
	PassportNumber     string                 `json:"passport_number,omitempty"`
	Deadline           *time.Time             `json:"deadline,omitempty"`
	Urgent             bool                   `json:"urgent,omitempty"`
}

type updateProcessRequest struct {
	StatusID         *id.CaseStatusID        `json:"status_id,omitempty"`
	StatusNote       string                  `json:"status_note,omitempty"`
	GroupID          *id.GroupID             `json:"group_id,omitempty"`
	AuthTypeID       *id.AuthorizationTypeID `json:"authorization_type_id,omitempty"`
	LegalFrameworkID *id.LegalFrameworkID    `json:"legal_framework_id,omitempty"`
	ProtocolNumber   *string                 `json:"protocol_number,omitempty"`
	DOUNumber        *string                 `json:"dou_number,omitempty"`
	Consulate        *string                 `json:"consulate,omitempty"`
	PassportNumber   *string                 `json:"passport_number,omitempty"`
	Deadline         *time.Time              `json:"deadline,omitempty"`
	Urgent           *bool                   `json:"urgent,omitempty"`
}

type bulkStatusRequest struct {
	ProcessIDs []id.ProcessID `json:"process_ids"`
	StatusCode string         `json:"status_code"`
	Reason     string         `json:"reason,omitempty"`
}

type nextStatusesRequest struct {
	ProcessIDs []id.ProcessID `json:"process_ids"`
}

type syncUrgencyRequest struct {
	Urgent bool `json:"urgent"`
}

type syncAuthorizationRequest struct {
	AuthTypeID id.AuthorizationTypeID `json:"authorization_type_id"`
	Unit       string                 `json:"validity_unit"`
	Quantity   int                    `json:"validity_quantity"`
}

type processIDResponse struct {
	ID id.ProcessID `json:"id"`
}

type syncResponse struct {
	UpdatedCount int `json:"updated_count"`
}

type nextStatusesResponse struct {
	Statuses []string `json:"statuses"`
}
