package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tramita/internal/activity"
	"tramita/internal/process/access"
	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/platform/sentinel"
	"tramita/pkg/requestcontext"
)

// effectiveAuthType resolves the authorization type governing a case's
// checklist and follow-up tasks. A grouped case inherits its group's type;
// the case-level reference covers ungrouped cases and groups that carry
// none.
func (e *Engine) effectiveAuthType(ctx context.Context, p *models.IndividualProcess) (id.AuthorizationTypeID, error) {
	if !p.GroupID.IsNil() {
		group, err := e.stores.Groups.FindByID(ctx, p.GroupID)
		switch {
		case err == nil:
			if !group.AuthTypeID.IsNil() {
				return group.AuthTypeID, nil
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return id.AuthorizationTypeID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve case group")
		}
	}
	return p.AuthTypeID, nil
}

// selectTemplate picks the highest-version active template of the case's
// authorization type that matches its legal framework. Nil when no
// authorization type resolves or nothing matches.
func (e *Engine) selectTemplate(ctx context.Context, p *models.IndividualProcess) (*models.DocumentTemplate, error) {
	authTypeID, err := e.effectiveAuthType(ctx, p)
	if err != nil {
		return nil, err
	}
	if authTypeID.IsNil() {
		return nil, nil
	}
	templates, err := e.stores.Templates.ListByAuthType(ctx, authTypeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list document templates")
	}
	var best *models.DocumentTemplate
	for _, t := range templates {
		if !t.Active || !t.Matches(p.LegalFrameworkID) {
			continue
		}
		if best == nil || t.Version > best.Version {
			best = t
		}
	}
	return best, nil
}

// generateChecklist creates one not_started entry per required document of
// the matching template. No template means an empty checklist, not an error.
func (e *Engine) generateChecklist(ctx context.Context, p *models.IndividualProcess, actor id.UserID, now time.Time) (int, error) {
	template, err := e.selectTemplate(ctx, p)
	if err != nil {
		return 0, err
	}
	if template == nil {
		return 0, nil
	}

	created := 0
	for _, req := range template.Requirements {
		if !req.Required {
			continue
		}
		entry := &models.ChecklistEntry{
			ID:              id.ChecklistEntryID(uuid.New()),
			ProcessID:       p.ID,
			DocumentType:    req.DocumentType,
			Status:          models.ChecklistNotStarted,
			TemplateVersion: template.Version,
			IsLatest:        true,
			CreatedBy:       actor,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := e.stores.Checklist.Insert(ctx, entry); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert checklist entry")
		}
		created++
	}
	return created, nil
}

// RegenerateChecklist rebuilds a case's checklist from the current template.
// Entries with uploaded or reviewed documents are preserved; only untouched
// not_started entries are discarded, and already-covered document types are
// not duplicated.
func (e *Engine) RegenerateChecklist(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID) (*RegenerateResult, error) {
	ctx, span := e.tracer.Start(ctx, "process.regenerate_checklist")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return nil, err
	}

	p, err := e.loadProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	companyID, _, err := e.companyOf(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, companyID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	result := &RegenerateResult{}

	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		deleted, err := e.stores.Checklist.DeleteNotStarted(txCtx, processID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete regenerable checklist entries")
		}
		result.DeletedCount = deleted

		template, err := e.selectTemplate(txCtx, p)
		if err != nil {
			return err
		}
		if template == nil {
			return nil
		}

		remaining, err := e.stores.Checklist.ListByProcess(txCtx, processID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list checklist entries")
		}
		covered := make(map[string]bool, len(remaining))
		for _, entry := range remaining {
			covered[entry.DocumentType] = true
		}

		for _, req := range template.Requirements {
			if !req.Required || covered[req.DocumentType] {
				continue
			}
			entry := &models.ChecklistEntry{
				ID:              id.ChecklistEntryID(uuid.New()),
				ProcessID:       processID,
				DocumentType:    req.DocumentType,
				Status:          models.ChecklistNotStarted,
				TemplateVersion: template.Version,
				IsLatest:        true,
				CreatedBy:       caller.ActorID,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := e.stores.Checklist.Insert(txCtx, entry); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert checklist entry")
			}
			result.CreatedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.AddChecklistGenerated(result.CreatedCount)
	e.metrics.ObserveOperation("regenerate_checklist", time.Since(start))
	e.emitActivity(ctx, activity.Event{
		Action:    activity.ActionChecklistRegenerated,
		ProcessID: processID,
		ActorID:   caller.ActorID,
		RequestID: requestcontext.RequestID(ctx),
		Metadata:  map[string]any{"deleted": result.DeletedCount, "created": result.CreatedCount},
	})
	return result, nil
}
