package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	"tramita/pkg/platform/sentinel"
)

// CaseStatusStore reads workflow status reference data.
type CaseStatusStore struct {
	db *sql.DB
}

func NewCaseStatusStore(db *sql.DB) *CaseStatusStore {
	return &CaseStatusStore{db: db}
}

func (s *CaseStatusStore) FindByID(ctx context.Context, statusID id.CaseStatusID) (*models.CaseStatus, error) {
	row := run(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, code, name, color FROM case_statuses WHERE id = $1`, uuid.UUID(statusID))
	return scanCaseStatus(row)
}

func (s *CaseStatusStore) FindByCode(ctx context.Context, code string) (*models.CaseStatus, error) {
	row := run(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, code, name, color FROM case_statuses WHERE code = $1`, code)
	return scanCaseStatus(row)
}

func scanCaseStatus(row *sql.Row) (*models.CaseStatus, error) {
	var status models.CaseStatus
	err := row.Scan((*uuid.UUID)(&status.ID), &status.Code, &status.Name, &status.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan case status: %w", err)
	}
	return &status, nil
}

// TemplateStore reads document template reference data.
type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) ListByAuthType(ctx context.Context, authTypeID id.AuthorizationTypeID) ([]*models.DocumentTemplate, error) {
	query := `SELECT id, auth_type_id, legal_framework_id, version, active, requirements
		FROM document_templates WHERE auth_type_id = $1`
	rows, err := run(ctx, s.db).QueryContext(ctx, query, uuid.UUID(authTypeID))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*models.DocumentTemplate
	for rows.Next() {
		var (
			t            models.DocumentTemplate
			legalFwk     uuid.NullUUID
			requirements []byte
		)
		err := rows.Scan((*uuid.UUID)(&t.ID), (*uuid.UUID)(&t.AuthTypeID), &legalFwk,
			&t.Version, &t.Active, &requirements)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.LegalFrameworkID = id.LegalFrameworkID(legalFwk.UUID)
		if len(requirements) > 0 {
			if err := json.Unmarshal(requirements, &t.Requirements); err != nil {
				return nil, fmt.Errorf("unmarshal template requirements: %w", err)
			}
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// GroupStore reads collective process records.
type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func (s *GroupStore) FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	row := run(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, company_id, auth_type_id, name, created_at FROM groups WHERE id = $1`,
		uuid.UUID(groupID))

	var (
		g        models.Group
		authType uuid.NullUUID
	)
	err := row.Scan((*uuid.UUID)(&g.ID), (*uuid.UUID)(&g.CompanyID), &authType, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}
	g.AuthTypeID = id.AuthorizationTypeID(authType.UUID)
	return &g, nil
}

// AuthTypeStore reads authorization type reference data.
type AuthTypeStore struct {
	db *sql.DB
}

func NewAuthTypeStore(db *sql.DB) *AuthTypeStore {
	return &AuthTypeStore{db: db}
}

func (s *AuthTypeStore) FindByID(ctx context.Context, authTypeID id.AuthorizationTypeID) (*models.AuthorizationType, error) {
	row := run(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, code, name, estimated_days FROM authorization_types WHERE id = $1`,
		uuid.UUID(authTypeID))

	var t models.AuthorizationType
	err := row.Scan((*uuid.UUID)(&t.ID), &t.Code, &t.Name, &t.EstimatedDays)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan authorization type: %w", err)
	}
	return &t, nil
}

// UserStore reads the user directory for notification fan-out.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) ListByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.User, error) {
	query := `SELECT id, company_id, role, email, name FROM users WHERE company_id = $1`
	rows, err := run(ctx, s.db).QueryContext(ctx, query, uuid.UUID(companyID))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		var (
			u       models.User
			company uuid.NullUUID
		)
		if err := rows.Scan((*uuid.UUID)(&u.ID), &company, &u.Role, &u.Email, &u.Name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CompanyID = id.CompanyID(company.UUID)
		out = append(out, &u)
	}
	return out, rows.Err()
}
