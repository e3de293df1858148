package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"tramita/internal/activity"
)

// ActivityStore appends activity-log events to the activity_log table.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Append(ctx context.Context, e activity.Event) error {
	var metadata []byte
	if e.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}
	query := `INSERT INTO activity_log (action, process_id, actor_id, request_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := run(ctx, s.db).ExecContext(ctx, query,
		string(e.Action), nullUUID(uuid.UUID(e.ProcessID)), nullUUID(uuid.UUID(e.ActorID)),
		e.RequestID, metadata, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append activity event: %w", err)
	}
	return nil
}
