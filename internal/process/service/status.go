package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/platform/sentinel"
	"tramita/pkg/requestcontext"
)

func requireActor(caller requestcontext.Caller) error {
	if caller.ActorID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authenticated actor required")
	}
	return nil
}

func (e *Engine) loadProcess(ctx context.Context, processID id.ProcessID) (*models.IndividualProcess, error) {
	p, err := e.stores.Processes.FindByID(ctx, processID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "case %s not found", processID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	return p, nil
}

// companyOf resolves the tenant a case belongs to through its group. An
// ungrouped case resolves to the zero company, which access treats as
// admin-only.
func (e *Engine) companyOf(ctx context.Context, p *models.IndividualProcess) (id.CompanyID, *models.Group, error) {
	if p.GroupID.IsNil() {
		return id.CompanyID{}, nil, nil
	}
	group, err := e.stores.Groups.FindByID(ctx, p.GroupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.CompanyID{}, nil, nil
		}
		return id.CompanyID{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve case group")
	}
	return group.CompanyID, group, nil
}

// resolveInitialStatus returns the requested status, or the default
// em_preparacao when none was given. A missing default is a deployment
// problem, not a caller problem.
func (e *Engine) resolveInitialStatus(ctx context.Context, statusID id.CaseStatusID) (*models.CaseStatus, error) {
	if !statusID.IsNil() {
		return e.resolveStatusByID(ctx, statusID)
	}
	status, err := e.stores.CaseStatuses.FindByCode(ctx, models.StatusCodePreparation)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeConfiguration,
				"default status %q is missing from reference data", models.StatusCodePreparation)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve default status")
	}
	return status, nil
}

func (e *Engine) resolveStatusByID(ctx context.Context, statusID id.CaseStatusID) (*models.CaseStatus, error) {
	status, err := e.stores.CaseStatuses.FindByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "status %s not found", statusID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve status")
	}
	return status, nil
}

func (e *Engine) statusName(ctx context.Context, statusID id.CaseStatusID) (string, error) {
	if statusID.IsNil() {
		return "", nil
	}
	status, err := e.resolveStatusByID(ctx, statusID)
	if err != nil {
		return "", err
	}
	return status.Name, nil
}

func (e *Engine) insertStatusRecord(ctx context.Context, p *models.IndividualProcess, status *models.CaseStatus, actor id.UserID, note string, now time.Time) (*models.ProcessStatusRecord, error) {
	record := &models.ProcessStatusRecord{
		ID:            id.StatusRecordID(uuid.New()),
		ProcessID:     p.ID,
		StatusID:      status.ID,
		IsActive:      true,
		EffectiveDate: now,
		Note:          note,
		ActorID:       actor,
		CreatedAt:     now,
	}
	if err := e.stores.StatusRecords.Insert(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert status record")
	}
	return record, nil
}

// activateStatus deactivates every active status record of the case except
// the one to keep. Idempotent: a case already in the single-active state
// passes through untouched, and a corrupted multi-active state is repaired
// rather than reported.
func (e *Engine) activateStatus(ctx context.Context, processID id.ProcessID, keep id.StatusRecordID) error {
	active, err := e.stores.StatusRecords.ListActiveByProcess(ctx, processID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active status records")
	}
	for _, record := range active {
		if record.ID == keep {
			continue
		}
		record.IsActive = false
		if err := e.stores.StatusRecords.Update(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate status record")
		}
	}
	return nil
}

// appendHistory writes one audit entry. History is a hard requirement: no
// identified actor means the write, and the operation around it, fails.
func (e *Engine) appendHistory(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID, previous, next string, metadata map[string]any, now time.Time) error {
	if caller.ActorID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "history requires an authenticated actor")
	}
	entry := &models.HistoryEntry{
		ID:             id.HistoryID(uuid.New()),
		ProcessID:      processID,
		PreviousStatus: previous,
		NewStatus:      next,
		ActorID:        caller.ActorID,
		Metadata:       metadata,
		CreatedAt:      now,
	}
	if err := e.stores.History.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append history entry")
	}
	return nil
}

func (e *Engine) enrich(ctx context.Context, p *models.IndividualProcess, group *models.Group, companyID id.CompanyID) (*EnrichedProcess, error) {
	enriched := &EnrichedProcess{IndividualProcess: *p, CompanyID: companyID}

	if !p.StatusID.IsNil() {
		status, err := e.resolveStatusByID(ctx, p.StatusID)
		if err != nil {
			return nil, err
		}
		enriched.StatusName = status.Name
		enriched.StatusColor = status.Color
	}
	if group != nil {
		enriched.GroupName = group.Name
	}
	if !p.AuthTypeID.IsNil() {
		authType, err := e.stores.AuthTypes.FindByID(ctx, p.AuthTypeID)
		if err == nil {
			enriched.AuthTypeName = authType.Name
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve authorization type")
		}
	}
	return enriched, nil
}
