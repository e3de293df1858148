package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tramita/internal/process/models"
	"tramita/internal/process/service"
	id "tramita/pkg/domain"
	"tramita/pkg/platform/sentinel"
)

// ProcessStore persists individual processes.
type ProcessStore struct {
	db *sql.DB
}

func NewProcessStore(db *sql.DB) *ProcessStore {
	return &ProcessStore{db: db}
}

const processColumns = `id, person_id, group_id, company_applicant_id, status_id, status_code,
	auth_type_id, legal_framework_id, protocol_number, dou_number, consulate, passport_number,
	deadline, urgent, phase, is_active, completed_at, created_at, updated_at`

func (s *ProcessStore) Insert(ctx context.Context, p *models.IndividualProcess) error {
	query := `INSERT INTO processes (` + processColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := run(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.PersonID), nullUUID(uuid.UUID(p.GroupID)), nullUUID(uuid.UUID(p.CompanyApplicantID)),
		uuid.UUID(p.StatusID), p.StatusCode, nullUUID(uuid.UUID(p.AuthTypeID)), nullUUID(uuid.UUID(p.LegalFrameworkID)),
		p.ProtocolNumber, p.DOUNumber, p.Consulate, p.PassportNumber,
		p.Deadline, p.Urgent, string(p.Phase), p.IsActive, p.CompletedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert process: %w", err)
	}
	return nil
}

func (s *ProcessStore) FindByID(ctx context.Context, processID id.ProcessID) (*models.IndividualProcess, error) {
	query := `SELECT ` + processColumns + ` FROM processes WHERE id = $1`
	row := run(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(processID))
	p, err := scanProcess(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find process: %w", err)
	}
	return p, nil
}

func (s *ProcessStore) Update(ctx context.Context, p *models.IndividualProcess) error {
	query := `UPDATE processes SET
		person_id = $2, group_id = $3, company_applicant_id = $4, status_id = $5, status_code = $6,
		auth_type_id = $7, legal_framework_id = $8, protocol_number = $9, dou_number = $10,
		consulate = $11, passport_number = $12, deadline = $13, urgent = $14, phase = $15,
		is_active = $16, completed_at = $17, updated_at = $18
		WHERE id = $1`
	res, err := run(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.PersonID), nullUUID(uuid.UUID(p.GroupID)), nullUUID(uuid.UUID(p.CompanyApplicantID)),
		uuid.UUID(p.StatusID), p.StatusCode, nullUUID(uuid.UUID(p.AuthTypeID)), nullUUID(uuid.UUID(p.LegalFrameworkID)),
		p.ProtocolNumber, p.DOUNumber, p.Consulate, p.PassportNumber,
		p.Deadline, p.Urgent, string(p.Phase), p.IsActive, p.CompletedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update process: %w", err)
	}
	if rowsAffected(res) == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *ProcessStore) Delete(ctx context.Context, processID id.ProcessID) error {
	res, err := run(ctx, s.db).ExecContext(ctx, `DELETE FROM processes WHERE id = $1`, uuid.UUID(processID))
	if err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	if rowsAffected(res) == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *ProcessStore) List(ctx context.Context, filter service.ListFilter) ([]*models.IndividualProcess, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !filter.GroupID.IsNil() {
		conds = append(conds, "group_id = "+arg(uuid.UUID(filter.GroupID)))
	}
	if !filter.PersonID.IsNil() {
		conds = append(conds, "person_id = "+arg(uuid.UUID(filter.PersonID)))
	}
	if filter.StatusCode != "" {
		conds = append(conds, "status_code = "+arg(filter.StatusCode))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, "(protocol_number ILIKE "+arg(pattern)+" OR dou_number ILIKE "+arg(pattern)+")")
	}

	query := `SELECT ` + processColumns + ` FROM processes`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := run(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()
	return collectProcesses(rows)
}

func (s *ProcessStore) ListByGroup(ctx context.Context, groupID id.GroupID) ([]*models.IndividualProcess, error) {
	query := `SELECT ` + processColumns + ` FROM processes WHERE group_id = $1 ORDER BY created_at DESC`
	rows, err := run(ctx, s.db).QueryContext(ctx, query, uuid.UUID(groupID))
	if err != nil {
		return nil, fmt.Errorf("list processes by group: %w", err)
	}
	defer rows.Close()
	return collectProcesses(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*models.IndividualProcess, error) {
	var (
		p                                      models.IndividualProcess
		groupID, companyID, authType, legalFwk uuid.NullUUID
		deadline, completedAt                  sql.NullTime
		phase                                  string
	)
	err := row.Scan(
		(*uuid.UUID)(&p.ID), (*uuid.UUID)(&p.PersonID), &groupID, &companyID,
		(*uuid.UUID)(&p.StatusID), &p.StatusCode, &authType, &legalFwk,
		&p.ProtocolNumber, &p.DOUNumber, &p.Consulate, &p.PassportNumber,
		&deadline, &p.Urgent, &phase, &p.IsActive, &completedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.GroupID = id.GroupID(groupID.UUID)
	p.CompanyApplicantID = id.CompanyID(companyID.UUID)
	p.AuthTypeID = id.AuthorizationTypeID(authType.UUID)
	p.LegalFrameworkID = id.LegalFrameworkID(legalFwk.UUID)
	p.Phase = models.Phase(phase)
	if deadline.Valid {
		p.Deadline = &deadline.Time
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

func collectProcesses(rows *sql.Rows) ([]*models.IndividualProcess, error) {
	var out []*models.IndividualProcess
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan process: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processes: %w", err)
	}
	return out, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
