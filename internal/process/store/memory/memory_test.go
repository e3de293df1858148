package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tramita/internal/process/models"
	"tramita/internal/process/service"
	"tramita/internal/process/store/memory"
	id "tramita/pkg/domain"
	"tramita/pkg/platform/sentinel"
)

func seedProcess(t *testing.T, store *memory.ProcessStore, mutate func(*models.IndividualProcess)) *models.IndividualProcess {
	t.Helper()
	p := &models.IndividualProcess{
		ID:         id.ProcessID(uuid.New()),
		PersonID:   id.PersonID(uuid.New()),
		StatusID:   id.CaseStatusID(uuid.New()),
		StatusCode: models.StatusCodePreparation,
		Phase:      models.PhaseCurrent,
		IsActive:   true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, store.Insert(context.Background(), p))
	return p
}

func TestProcessStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProcessStore()

	p := seedProcess(t, store, nil)

	assert.ErrorIs(t, store.Insert(ctx, p), sentinel.ErrConflict)

	found, err := store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	// The store hands out copies.
	found.ProtocolNumber = "mutated"
	again, err := store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, again.ProtocolNumber)

	require.NoError(t, store.Delete(ctx, p.ID))
	_, err = store.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, p.ID), sentinel.ErrNotFound)
}

func TestProcessStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProcessStore()
	groupID := id.GroupID(uuid.New())

	grouped := seedProcess(t, store, func(p *models.IndividualProcess) {
		p.GroupID = groupID
		p.ProtocolNumber = "BR-2026-100"
	})
	superseded := seedProcess(t, store, func(p *models.IndividualProcess) {
		p.Phase = models.PhasePrevious
		p.IsActive = false
		p.StatusCode = models.StatusCodeArchived
	})
	seedProcess(t, store, nil)

	byGroup, err := store.List(ctx, service.ListFilter{GroupID: groupID})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, grouped.ID, byGroup[0].ID)

	active, err := store.List(ctx, service.ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byStatus, err := store.List(ctx, service.ListFilter{StatusCode: models.StatusCodeArchived})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, superseded.ID, byStatus[0].ID)

	bySearch, err := store.List(ctx, service.ListFilter{Search: "2026-100"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, grouped.ID, bySearch[0].ID)
}

func TestProcessStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProcessStore()

	older := seedProcess(t, store, func(p *models.IndividualProcess) {
		p.CreatedAt = time.Now().Add(-time.Hour)
	})
	newer := seedProcess(t, store, nil)

	all, err := store.List(ctx, service.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)
}

func TestChecklistStoreDeleteNotStarted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChecklistStore()
	processID := id.ProcessID(uuid.New())

	for _, status := range []models.ChecklistStatus{
		models.ChecklistNotStarted,
		models.ChecklistUploaded,
		models.ChecklistApproved,
	} {
		require.NoError(t, store.Insert(ctx, &models.ChecklistEntry{
			ID:           id.ChecklistEntryID(uuid.New()),
			ProcessID:    processID,
			DocumentType: string(status),
			Status:       status,
		}))
	}

	deleted, err := store.DeleteNotStarted(ctx, processID)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	remaining, err := store.ListByProcess(ctx, processID)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
