// Package domain defines the typed identifiers shared across features.
// Typed UUIDs keep a task id from ever being passed where a process id is
// expected; conversion happens only at the edges, via the Parse helpers.
package domain

import "github.com/google/uuid"

type (
	ProcessID           uuid.UUID
	GroupID             uuid.UUID
	PersonID            uuid.UUID
	CompanyID           uuid.UUID
	UserID              uuid.UUID
	CaseStatusID        uuid.UUID
	StatusRecordID      uuid.UUID
	HistoryID           uuid.UUID
	ChecklistEntryID    uuid.UUID
	TaskID              uuid.UUID
	TemplateID          uuid.UUID
	AuthorizationTypeID uuid.UUID
	LegalFrameworkID    uuid.UUID
)

func (v ProcessID) IsNil() bool           { return uuid.UUID(v) == uuid.Nil }
func (v GroupID) IsNil() bool             { return uuid.UUID(v) == uuid.Nil }
func (v PersonID) IsNil() bool            { return uuid.UUID(v) == uuid.Nil }
func (v CompanyID) IsNil() bool           { return uuid.UUID(v) == uuid.Nil }
func (v UserID) IsNil() bool              { return uuid.UUID(v) == uuid.Nil }
func (v CaseStatusID) IsNil() bool        { return uuid.UUID(v) == uuid.Nil }
func (v StatusRecordID) IsNil() bool      { return uuid.UUID(v) == uuid.Nil }
func (v HistoryID) IsNil() bool           { return uuid.UUID(v) == uuid.Nil }
func (v ChecklistEntryID) IsNil() bool    { return uuid.UUID(v) == uuid.Nil }
func (v TaskID) IsNil() bool              { return uuid.UUID(v) == uuid.Nil }
func (v TemplateID) IsNil() bool          { return uuid.UUID(v) == uuid.Nil }
func (v AuthorizationTypeID) IsNil() bool { return uuid.UUID(v) == uuid.Nil }
func (v LegalFrameworkID) IsNil() bool    { return uuid.UUID(v) == uuid.Nil }

func (v ProcessID) String() string           { return uuid.UUID(v).String() }
func (v GroupID) String() string             { return uuid.UUID(v).String() }
func (v PersonID) String() string            { return uuid.UUID(v).String() }
func (v CompanyID) String() string           { return uuid.UUID(v).String() }
func (v UserID) String() string              { return uuid.UUID(v).String() }
func (v CaseStatusID) String() string        { return uuid.UUID(v).String() }
func (v StatusRecordID) String() string      { return uuid.UUID(v).String() }
func (v HistoryID) String() string           { return uuid.UUID(v).String() }
func (v ChecklistEntryID) String() string    { return uuid.UUID(v).String() }
func (v TaskID) String() string              { return uuid.UUID(v).String() }
func (v TemplateID) String() string          { return uuid.UUID(v).String() }
func (v AuthorizationTypeID) String() string { return uuid.UUID(v).String() }
func (v LegalFrameworkID) String() string    { return uuid.UUID(v).String() }

func (v ProcessID) MarshalText() ([]byte, error)           { return []byte(v.String()), nil }
func (v GroupID) MarshalText() ([]byte, error)             { return []byte(v.String()), nil }
func (v PersonID) MarshalText() ([]byte, error)            { return []byte(v.String()), nil }
func (v CompanyID) MarshalText() ([]byte, error)           { return []byte(v.String()), nil }
func (v UserID) MarshalText() ([]byte, error)              { return []byte(v.String()), nil }
func (v CaseStatusID) MarshalText() ([]byte, error)        { return []byte(v.String()), nil }
func (v StatusRecordID) MarshalText() ([]byte, error)      { return []byte(v.String()), nil }
func (v HistoryID) MarshalText() ([]byte, error)           { return []byte(v.String()), nil }
func (v ChecklistEntryID) MarshalText() ([]byte, error)    { return []byte(v.String()), nil }
func (v TaskID) MarshalText() ([]byte, error)              { return []byte(v.String()), nil }
func (v TemplateID) MarshalText() ([]byte, error)          { return []byte(v.String()), nil }
func (v AuthorizationTypeID) MarshalText() ([]byte, error) { return []byte(v.String()), nil }
func (v LegalFrameworkID) MarshalText() ([]byte, error)    { return []byte(v.String()), nil }

func (v *ProcessID) UnmarshalText(b []byte) error           { return unmarshal((*uuid.UUID)(v), b) }
func (v *GroupID) UnmarshalText(b []byte) error             { return unmarshal((*uuid.UUID)(v), b) }
func (v *PersonID) UnmarshalText(b []byte) error            { return unmarshal((*uuid.UUID)(v), b) }
func (v *CompanyID) UnmarshalText(b []byte) error           { return unmarshal((*uuid.UUID)(v), b) }
func (v *UserID) UnmarshalText(b []byte) error              { return unmarshal((*uuid.UUID)(v), b) }
func (v *CaseStatusID) UnmarshalText(b []byte) error        { return unmarshal((*uuid.UUID)(v), b) }
func (v *StatusRecordID) UnmarshalText(b []byte) error      { return unmarshal((*uuid.UUID)(v), b) }
func (v *HistoryID) UnmarshalText(b []byte) error           { return unmarshal((*uuid.UUID)(v), b) }
func (v *ChecklistEntryID) UnmarshalText(b []byte) error    { return unmarshal((*uuid.UUID)(v), b) }
func (v *TaskID) UnmarshalText(b []byte) error              { return unmarshal((*uuid.UUID)(v), b) }
func (v *TemplateID) UnmarshalText(b []byte) error          { return unmarshal((*uuid.UUID)(v), b) }
func (v *AuthorizationTypeID) UnmarshalText(b []byte) error { return unmarshal((*uuid.UUID)(v), b) }
func (v *LegalFrameworkID) UnmarshalText(b []byte) error    { return unmarshal((*uuid.UUID)(v), b) }

func unmarshal(dst *uuid.UUID, b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func ParseProcessID(s string) (ProcessID, error) {
	u, err := uuid.Parse(s)
	return ProcessID(u), err
}

func ParseGroupID(s string) (GroupID, error) {
	u, err := uuid.Parse(s)
	return GroupID(u), err
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := uuid.Parse(s)
	return PersonID(u), err
}

func ParseCompanyID(s string) (CompanyID, error) {
	u, err := uuid.Parse(s)
	return CompanyID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}

func ParseCaseStatusID(s string) (CaseStatusID, error) {
	u, err := uuid.Parse(s)
	return CaseStatusID(u), err
}

func ParseTaskID(s string) (TaskID, error) {
	u, err := uuid.Parse(s)
	return TaskID(u), err
}

func ParseAuthorizationTypeID(s string) (AuthorizationTypeID, error) {
	u, err := uuid.Parse(s)
	return AuthorizationTypeID(u), err
}
