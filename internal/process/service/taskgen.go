package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tramita/internal/activity"
	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/requestcontext"
)

// TaskRule is one follow-up task template bound to a status code.
type TaskRule struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	// OffsetDays shifts the due date beyond the authorization type's
	// estimated processing time.
	OffsetDays int
}

// TaskRules maps a status code entered to the tasks spawned on entry.
// Codes absent from the map spawn nothing.
type TaskRules map[string][]TaskRule

// DefaultTaskRules is the production rule set.
func DefaultTaskRules() TaskRules {
	return TaskRules{
		models.StatusCodeFiled: {
			{
				Title:       "Acompanhar publicação no DOU",
				Description: "Verificar a publicação da decisão no Diário Oficial da União.",
				Priority:    models.PriorityMedium,
			},
		},
		models.StatusCodeRequirement: {
			{
				Title:       "Responder exigência",
				Description: "Preparar e protocolar a resposta à exigência dentro do prazo legal.",
				Priority:    models.PriorityHigh,
			},
		},
		models.StatusCodeApproved: {
			{
				Title:       "Solicitar registro",
				Description: "Orientar o solicitante sobre o registro junto à Polícia Federal.",
				Priority:    models.PriorityMedium,
				OffsetDays:  30,
			},
		},
	}
}

// autoGenerateTasks spawns the follow-up tasks configured for the status the
// case just entered. Due dates anchor at the request time plus the
// estimated processing days of the authorization type resolved through the
// case's group plus the rule offset; when no type resolves, only the offset
// applies.
func (e *Engine) autoGenerateTasks(ctx context.Context, p *models.IndividualProcess, statusCode string, actor id.UserID, now time.Time) error {
	rules, ok := e.taskRules[statusCode]
	if !ok {
		return nil
	}

	estimatedDays := 0
	if authTypeID, err := e.effectiveAuthType(ctx, p); err == nil && !authTypeID.IsNil() {
		authType, err := e.stores.AuthTypes.FindByID(ctx, authTypeID)
		if err == nil {
			estimatedDays = authType.EstimatedDays
		}
	}

	for _, rule := range rules {
		task := &models.Task{
			ID:          id.TaskID(uuid.New()),
			ProcessID:   p.ID,
			GroupID:     p.GroupID,
			Title:       rule.Title,
			Description: rule.Description,
			DueDate:     now.AddDate(0, 0, estimatedDays+rule.OffsetDays),
			Priority:    rule.Priority,
			Status:      models.TaskTodo,
			AssigneeID:  actor,
			CreatedBy:   actor,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := e.stores.Tasks.Insert(ctx, task); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert auto-generated task")
		}
		e.emitActivity(ctx, activity.Event{
			Action:    activity.ActionTaskAutoCreated,
			ProcessID: p.ID,
			ActorID:   actor,
			RequestID: requestcontext.RequestID(ctx),
			Metadata:  map[string]any{"task_id": task.ID.String(), "title": task.Title, "trigger_status": statusCode},
		})
	}
	return nil
}
