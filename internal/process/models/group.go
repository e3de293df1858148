package models

import (
	"time"

	id "tramita/pkg/domain"
)

// Group is a collective process: a batch of individual cases submitted
// together for one company. Sibling cases deliberately share the urgency
// flag, authorization type and deadline.
type Group struct {
	ID         id.GroupID             `json:"id"`
	CompanyID  id.CompanyID           `json:"company_id"`
	AuthTypeID id.AuthorizationTypeID `json:"authorization_type_id,omitempty"`
	Name       string                 `json:"name"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuthorizationType is reference data describing one kind of work/residence
// authorization, including the government's estimated processing time used
// for follow-up task due dates.
type AuthorizationType struct {
	ID            id.AuthorizationTypeID `json:"id"`
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	EstimatedDays int                    `json:"estimated_days"`
}

// LegalFramework is reference data naming the legal basis of a case.
type LegalFramework struct {
	ID   id.LegalFrameworkID `json:"id"`
	Code string              `json:"code"`
	Name string              `json:"name"`
}

// User is the slice of the user directory this engine reads: tenant
// assignment for access filtering and notification fan-out.
type User struct {
	ID        id.UserID    `json:"id"`
	CompanyID id.CompanyID `json:"company_id,omitempty"`
	Role      string       `json:"role"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
}
