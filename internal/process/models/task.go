package models

import (
	"time"

	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is a follow-up work item tied to a case or group. Created manually
// or by the status-change auto-generator; never cascade-deleted except with
// its parent case.
type Task struct {
	ID          id.TaskID    `json:"id"`
	ProcessID   id.ProcessID `json:"process_id,omitempty"`
	GroupID     id.GroupID   `json:"group_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     time.Time    `json:"due_date"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssigneeID  id.UserID    `json:"assignee_id"`
	CreatedBy   id.UserID    `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CanComplete checks the task is still open.
func (t *Task) CanComplete() error {
	if t.Status == TaskCompleted || t.Status == TaskCancelled {
		return dErrors.New(dErrors.CodeInvariantViolation, "task is already closed")
	}
	return nil
}

// ApplyCompletion marks the task completed. Call CanComplete first.
func (t *Task) ApplyCompletion(now time.Time) {
	t.Status = TaskCompleted
	t.UpdatedAt = now
}

// Reassign hands the task to another user.
func (t *Task) Reassign(assignee id.UserID, now time.Time) {
	t.AssigneeID = assignee
	t.UpdatedAt = now
}
