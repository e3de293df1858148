package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tramita/internal/process/models"
	id "tramita/pkg/domain"
)

// ChecklistStore persists required-document checklist entries.
type ChecklistStore struct {
	db *sql.DB
}

func NewChecklistStore(db *sql.DB) *ChecklistStore {
	return &ChecklistStore{db: db}
}

func (s *ChecklistStore) Insert(ctx context.Context, e *models.ChecklistEntry) error {
	query := `INSERT INTO checklist_entries
		(id, process_id, document_type, status, template_version, is_latest, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := run(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(e.ID), uuid.UUID(e.ProcessID), e.DocumentType, string(e.Status),
		e.TemplateVersion, e.IsLatest, uuid.UUID(e.CreatedBy), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checklist entry: %w", err)
	}
	return nil
}

func (s *ChecklistStore) ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.ChecklistEntry, error) {
	query := `SELECT id, process_id, document_type, status, template_version, is_latest, created_by, created_at, updated_at
		FROM checklist_entries WHERE process_id = $1 ORDER BY document_type`
	rows, err := run(ctx, s.db).QueryContext(ctx, query, uuid.UUID(processID))
	if err != nil {
		return nil, fmt.Errorf("list checklist entries: %w", err)
	}
	defer rows.Close()

	var out []*models.ChecklistEntry
	for rows.Next() {
		var (
			e      models.ChecklistEntry
			status string
		)
		err := rows.Scan(
			(*uuid.UUID)(&e.ID), (*uuid.UUID)(&e.ProcessID), &e.DocumentType, &status,
			&e.TemplateVersion, &e.IsLatest, (*uuid.UUID)(&e.CreatedBy), &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan checklist entry: %w", err)
		}
		e.Status = models.ChecklistStatus(status)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *ChecklistStore) DeleteNotStarted(ctx context.Context, processID id.ProcessID) (int, error) {
	res, err := run(ctx, s.db).ExecContext(ctx,
		`DELETE FROM checklist_entries WHERE process_id = $1 AND status = $2`,
		uuid.UUID(processID), string(models.ChecklistNotStarted))
	if err != nil {
		return 0, fmt.Errorf("delete regenerable checklist entries: %w", err)
	}
	return rowsAffected(res), nil
}

func (s *ChecklistStore) DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error) {
	res, err := run(ctx, s.db).ExecContext(ctx,
		`DELETE FROM checklist_entries WHERE process_id = $1`, uuid.UUID(processID))
	if err != nil {
		return 0, fmt.Errorf("delete checklist entries: %w", err)
	}
	return rowsAffected(res), nil
}
