// Package memory provides in-memory store implementations backing unit
// tests and local development. Every store is safe for concurrent use and
// returns defensive copies.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tramita/internal/process/models"
	"tramita/internal/process/service"
	id "tramita/pkg/domain"
	"tramita/pkg/platform/sentinel"
)

// ProcessStore keeps individual processes in a map.
type ProcessStore struct {
	mu    sync.RWMutex
	items map[id.ProcessID]*models.IndividualProcess
}

func NewProcessStore() *ProcessStore {
	return &ProcessStore{items: map[id.ProcessID]*models.IndividualProcess{}}
}

func (s *ProcessStore) Insert(_ context.Context, p *models.IndividualProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[p.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *p
	s.items[p.ID] = &cp
	return nil
}

func (s *ProcessStore) FindByID(_ context.Context, processID id.ProcessID) (*models.IndividualProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[processID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *ProcessStore) Update(_ context.Context, p *models.IndividualProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *p
	s.items[p.ID] = &cp
	return nil
}

func (s *ProcessStore) Delete(_ context.Context, processID id.ProcessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[processID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.items, processID)
	return nil
}

func (s *ProcessStore) List(_ context.Context, filter service.ListFilter) ([]*models.IndividualProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.IndividualProcess, 0, len(s.items))
	for _, p := range s.items {
		if !matches(p, filter) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ProcessStore) ListByGroup(_ context.Context, groupID id.GroupID) ([]*models.IndividualProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.IndividualProcess
	for _, p := range s.items {
		if p.GroupID == groupID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matches(p *models.IndividualProcess, f service.ListFilter) bool {
	if !f.GroupID.IsNil() && p.GroupID != f.GroupID {
		return false
	}
	if !f.PersonID.IsNil() && p.PersonID != f.PersonID {
		return false
	}
	if f.StatusCode != "" && p.StatusCode != f.StatusCode {
		return false
	}
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.ProtocolNumber), needle) &&
			!strings.Contains(strings.ToLower(p.DOUNumber), needle) {
			return false
		}
	}
	return true
}

// StatusRecordStore keeps historical status assignments.
type StatusRecordStore struct {
	mu    sync.RWMutex
	items map[id.StatusRecordID]*models.ProcessStatusRecord
}

func NewStatusRecordStore() *StatusRecordStore {
	return &StatusRecordStore{items: map[id.StatusRecordID]*models.ProcessStatusRecord{}}
}

func (s *StatusRecordStore) Insert(_ context.Context, r *models.ProcessStatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[r.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *r
	s.items[r.ID] = &cp
	return nil
}

func (s *StatusRecordStore) Update(_ context.Context, r *models.ProcessStatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *r
	s.items[r.ID] = &cp
	return nil
}

func (s *StatusRecordStore) ListByProcess(_ context.Context, processID id.ProcessID) ([]*models.ProcessStatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProcessStatusRecord
	for _, r := range s.items {
		if r.ProcessID == processID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *StatusRecordStore) ListActiveByProcess(_ context.Context, processID id.ProcessID) ([]*models.ProcessStatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProcessStatusRecord
	for _, r := range s.items {
		if r.ProcessID == processID && r.IsActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *StatusRecordStore) DeleteByProcess(_ context.Context, processID id.ProcessID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for recordID, r := range s.items {
		if r.ProcessID == processID {
			delete(s.items, recordID)
			count++
		}
	}
	return count, nil
}

// HistoryStore keeps the append-only audit trail.
type HistoryStore struct {
	mu    sync.RWMutex
	items []*models.HistoryEntry
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Append(_ context.Context, e *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.items = append(s.items, &cp)
	return nil
}

func (s *HistoryStore) ListByProcess(_ context.Context, processID id.ProcessID) ([]*models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.HistoryEntry
	for _, e := range s.items {
		if e.ProcessID == processID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *HistoryStore) DeleteByProcess(_ context.Context, processID id.ProcessID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	count := 0
	for _, e := range s.items {
		if e.ProcessID == processID {
			count++
			continue
		}
		kept = append(kept, e)
	}
	s.items = kept
	return count, nil
}

// ChecklistStore keeps required-document checklist entries.
type ChecklistStore struct {
	mu    sync.RWMutex
	items map[id.ChecklistEntryID]*models.ChecklistEntry
}

func NewChecklistStore() *ChecklistStore {
	return &ChecklistStore{items: map[id.ChecklistEntryID]*models.ChecklistEntry{}}
}

func (s *ChecklistStore) Insert(_ context.Context, e *models.ChecklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *e
	s.items[e.ID] = &cp
	return nil
}

// Update replaces an entry. Not part of the engine's contract; the document
// review flow and test fixtures use it.
func (s *ChecklistStore) Update(_ context.Context, e *models.ChecklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *e
	s.items[e.ID] = &cp
	return nil
}

func (s *ChecklistStore) ListByProcess(_ context.Context, processID id.ProcessID) ([]*models.ChecklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ChecklistEntry
	for _, e := range s.items {
		if e.ProcessID == processID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentType < out[j].DocumentType })
	return out, nil
}

func (s *ChecklistStore) DeleteNotStarted(_ context.Context, processID id.ProcessID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for entryID, e := range s.items {
		if e.ProcessID == processID && e.Regenerable() {
			delete(s.items, entryID)
			count++
		}
	}
	return count, nil
}

func (s *ChecklistStore) DeleteByProcess(_ context.Context, processID id.ProcessID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for entryID, e := range s.items {
		if e.ProcessID == processID {
			delete(s.items, entryID)
			count++
		}
	}
	return count, nil
}

// TaskStore keeps follow-up work items.
type TaskStore struct {
	mu    sync.RWMutex
	items map[id.TaskID]*models.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{items: map[id.TaskID]*models.Task{}}
}

func (s *TaskStore) Insert(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *t
	s.items[t.ID] = &cp
	return nil
}

func (s *TaskStore) FindByID(_ context.Context, taskID id.TaskID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[taskID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *TaskStore) Update(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *t
	s.items[t.ID] = &cp
	return nil
}

func (s *TaskStore) ListByProcess(_ context.Context, processID id.ProcessID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Task
	for _, t := range s.items {
		if t.ProcessID == processID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *TaskStore) DeleteByProcess(_ context.Context, processID id.ProcessID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for taskID, t := range s.items {
		if t.ProcessID == processID {
			delete(s.items, taskID)
			count++
		}
	}
	return count, nil
}
