// Package task manages follow-up work items after creation: manual edits,
// completion and reassignment. Auto-generation on status changes lives in
// the process engine.
package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tramita/internal/process/access"
	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/platform/sentinel"
	"tramita/pkg/requestcontext"
)

// TaskStore persists work items.
type TaskStore interface {
	FindByID(ctx context.Context, taskID id.TaskID) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
}

// ProcessStore resolves the case a task belongs to.
type ProcessStore interface {
	FindByID(ctx context.Context, processID id.ProcessID) (*models.IndividualProcess, error)
}

// GroupStore resolves the tenant of a case.
type GroupStore interface {
	FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error)
}

type Service struct {
	tasks     TaskStore
	processes ProcessStore
	groups    GroupStore
	logger    *slog.Logger
}

func NewService(tasks TaskStore, processes ProcessStore, groups GroupStore, logger *slog.Logger) *Service {
	return &Service{tasks: tasks, processes: processes, groups: groups, logger: logger}
}

// UpdateRequest is a partial task patch.
type UpdateRequest struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
}

// Update patches a task's editable fields.
func (s *Service) Update(ctx context.Context, caller requestcontext.Caller, taskID id.TaskID, req UpdateRequest) (*models.Task, error) {
	t, err := s.authorize(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.DueDate != nil {
		t.DueDate = *req.DueDate
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	t.UpdatedAt = requestcontext.Now(ctx)

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update task")
	}
	return t, nil
}

// Complete closes an open task.
func (s *Service) Complete(ctx context.Context, caller requestcontext.Caller, taskID id.TaskID) (*models.Task, error) {
	t, err := s.authorize(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}
	if err := t.CanComplete(); err != nil {
		return nil, err
	}
	t.ApplyCompletion(requestcontext.Now(ctx))
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete task")
	}
	s.logger.InfoContext(ctx, "task completed", "task_id", taskID)
	return t, nil
}

// Reassign hands the task to another user.
func (s *Service) Reassign(ctx context.Context, caller requestcontext.Caller, taskID id.TaskID, assignee id.UserID) (*models.Task, error) {
	if assignee.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "assignee is required")
	}
	t, err := s.authorize(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}
	t.Reassign(assignee, requestcontext.Now(ctx))
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reassign task")
	}
	return t, nil
}

// authorize loads the task and checks the caller may touch its case.
func (s *Service) authorize(ctx context.Context, caller requestcontext.Caller, taskID id.TaskID) (*models.Task, error) {
	if caller.ActorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated actor required")
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "task %s not found", taskID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load task")
	}

	companyID := id.CompanyID{}
	if !t.ProcessID.IsNil() {
		p, err := s.processes.FindByID(ctx, t.ProcessID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load task case")
		}
		if p != nil && !p.GroupID.IsNil() {
			group, err := s.groups.FindByID(ctx, p.GroupID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve task tenant")
			}
			if group != nil {
				companyID = group.CompanyID
			}
		}
	}
	if err := access.Check(caller, companyID); err != nil {
		return nil, err
	}
	return t, nil
}
