package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"tramita/internal/process/models"
	id "tramita/pkg/domain"
)

// StatusRecordStore persists historical status assignments.
type StatusRecordStore struct {
	db *sql.DB
}

func NewStatusRecordStore(db *sql.DB) *StatusRecordStore {
	return &StatusRecordStore{db: db}
}

func (s *StatusRecordStore) Insert(ctx context.Context, r *models.ProcessStatusRecord) error {
	query := `INSERT INTO process_status_records
		(id, process_id, status_id, is_active, effective_date, note, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := run(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.ProcessID), uuid.UUID(r.StatusID),
		r.IsActive, r.EffectiveDate, r.Note, uuid.UUID(r.ActorID), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status record: %w", err)
	}
	return nil
}

func (s *StatusRecordStore) Update(ctx context.Context, r *models.ProcessStatusRecord) error {
	query := `UPDATE process_status_records SET is_active = $2, note = $3 WHERE id = $1`
	_, err := run(ctx, s.db).ExecContext(ctx, query, uuid.UUID(r.ID), r.IsActive, r.Note)
	if err != nil {
		return fmt.Errorf("update status record: %w", err)
	}
	return nil
}

func (s *StatusRecordStore) ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.ProcessStatusRecord, error) {
	return s.list(ctx, `SELECT id, process_id, status_id, is_active, effective_date, note, actor_id, created_at
		FROM process_status_records WHERE process_id = $1 ORDER BY created_at`, processID)
}

func (s *StatusRecordStore) ListActiveByProcess(ctx context.Context, processID id.ProcessID) ([]*models.ProcessStatusRecord, error) {
	return s.list(ctx, `SELECT id, process_id, status_id, is_active, effective_date, note, actor_id, created_at
		FROM process_status_records WHERE process_id = $1 AND is_active ORDER BY created_at`, processID)
}

func (s *StatusRecordStore) list(ctx context.Context, query string, processID id.ProcessID) ([]*models.ProcessStatusRecord, error) {
	rows, err := run(ctx, s.db).QueryContext(ctx, query, uuid.UUID(processID))
	if err != nil {
		return nil, fmt.Errorf("list status records: %w", err)
	}
	defer rows.Close()

	var out []*models.ProcessStatusRecord
	for rows.Next() {
		var r models.ProcessStatusRecord
		err := rows.Scan(
			(*uuid.UUID)(&r.ID), (*uuid.UUID)(&r.ProcessID), (*uuid.UUID)(&r.StatusID),
			&r.IsActive, &r.EffectiveDate, &r.Note, (*uuid.UUID)(&r.ActorID), &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan status record: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *StatusRecordStore) DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error) {
	res, err := run(ctx, s.db).ExecContext(ctx,
		`DELETE FROM process_status_records WHERE process_id = $1`, uuid.UUID(processID))
	if err != nil {
		return 0, fmt.Errorf("delete status records: %w", err)
	}
	return rowsAffected(res), nil
}

// HistoryStore persists the append-only audit trail.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Append(ctx context.Context, e *models.HistoryEntry) error {
	var metadata []byte
	if e.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("marshal history metadata: %w", err)
		}
	}
	query := `INSERT INTO process_history
		(id, process_id, previous_status, new_status, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := run(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(e.ID), uuid.UUID(e.ProcessID), e.PreviousStatus, e.NewStatus,
		uuid.UUID(e.ActorID), metadata, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *HistoryStore) ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.HistoryEntry, error) {
	query := `SELECT id, process_id, previous_status, new_status, actor_id, metadata, created_at
		FROM process_history WHERE process_id = $1 ORDER BY created_at`
	rows, err := run(ctx, s.db).QueryContext(ctx, query, uuid.UUID(processID))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*models.HistoryEntry
	for rows.Next() {
		var (
			e        models.HistoryEntry
			metadata []byte
		)
		err := rows.Scan(
			(*uuid.UUID)(&e.ID), (*uuid.UUID)(&e.ProcessID), &e.PreviousStatus, &e.NewStatus,
			(*uuid.UUID)(&e.ActorID), &metadata, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal history metadata: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *HistoryStore) DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error) {
	res, err := run(ctx, s.db).ExecContext(ctx,
		`DELETE FROM process_history WHERE process_id = $1`, uuid.UUID(processID))
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return rowsAffected(res), nil
}
