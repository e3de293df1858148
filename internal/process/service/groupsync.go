package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tramita/internal/activity"
	"tramita/internal/process/access"
	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/requestcontext"
)

// DeadlineSpec expresses a validity period as a calendar unit and quantity.
type DeadlineSpec struct {
	Unit     string // "years", "months" or "days"
	Quantity int
}

// deadlineFrom computes the shared deadline once, so every sibling case in
// the group lands on the identical instant.
func (s DeadlineSpec) deadlineFrom(now time.Time) (time.Time, error) {
	switch s.Unit {
	case "years":
		return now.AddDate(s.Quantity, 0, 0), nil
	case "months":
		return now.AddDate(0, s.Quantity, 0), nil
	case "days":
		return now.AddDate(0, 0, s.Quantity), nil
	default:
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "unknown deadline unit %q", s.Unit)
	}
}

// SyncUrgency sets the urgency flag on a case and, when the case belongs to
// a group, on every sibling in the same group. Returns the number of cases
// written.
func (e *Engine) SyncUrgency(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID, urgent bool) (int, error) {
	ctx, span := e.tracer.Start(ctx, "process.sync_urgency")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return 0, err
	}
	source, group, err := e.loadSyncTarget(ctx, caller, processID)
	if err != nil {
		return 0, err
	}

	targets, err := e.syncTargets(ctx, source, group)
	if err != nil {
		return 0, err
	}

	now := requestcontext.Now(ctx)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(groupSyncConcurrency)
	for _, p := range targets {
		p := p
		g.Go(func() error {
			if p.Urgent == urgent {
				return nil
			}
			p.Urgent = urgent
			p.UpdatedAt = now
			if err := e.stores.Processes.Update(gCtx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync urgency")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	e.metrics.ObserveOperation("sync_urgency", time.Since(start))
	e.emitActivity(ctx, activity.Event{
		Action:    activity.ActionUrgencySynced,
		ProcessID: processID,
		ActorID:   caller.ActorID,
		RequestID: requestcontext.RequestID(ctx),
		Metadata:  syncMetadata(group, map[string]any{"urgent": urgent, "cases": len(targets)}),
	})
	return len(targets), nil
}

// SyncAuthorization sets a case's authorization type and the deadline
// derived from the validity period, propagating both to every sibling when
// the case is grouped. The deadline is computed once before the fan-out.
func (e *Engine) SyncAuthorization(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID, authTypeID id.AuthorizationTypeID, validity DeadlineSpec) (int, error) {
	ctx, span := e.tracer.Start(ctx, "process.sync_authorization")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return 0, err
	}
	source, group, err := e.loadSyncTarget(ctx, caller, processID)
	if err != nil {
		return 0, err
	}
	if _, err := e.stores.AuthTypes.FindByID(ctx, authTypeID); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeNotFound, "authorization type not found")
	}

	now := requestcontext.Now(ctx)
	deadline, err := validity.deadlineFrom(now)
	if err != nil {
		return 0, err
	}

	targets, err := e.syncTargets(ctx, source, group)
	if err != nil {
		return 0, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(groupSyncConcurrency)
	for _, p := range targets {
		p := p
		g.Go(func() error {
			p.AuthTypeID = authTypeID
			p.Deadline = &deadline
			p.UpdatedAt = now
			if err := e.stores.Processes.Update(gCtx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync authorization")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	e.metrics.ObserveOperation("sync_authorization", time.Since(start))
	e.emitActivity(ctx, activity.Event{
		Action:    activity.ActionAuthorizationSynced,
		ProcessID: processID,
		ActorID:   caller.ActorID,
		RequestID: requestcontext.RequestID(ctx),
		Metadata: syncMetadata(group, map[string]any{
			"authorization_type_id": authTypeID.String(),
			"deadline":              deadline.Format(time.RFC3339),
			"cases":                 len(targets),
		}),
	})
	return len(targets), nil
}

const groupSyncConcurrency = 8

// loadSyncTarget resolves the source case and its group (nil for ungrouped
// cases) and enforces tenant scoping.
func (e *Engine) loadSyncTarget(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID) (*models.IndividualProcess, *models.Group, error) {
	source, err := e.loadProcess(ctx, processID)
	if err != nil {
		return nil, nil, err
	}
	companyID, group, err := e.companyOf(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	if err := access.Check(caller, companyID); err != nil {
		return nil, nil, err
	}
	return source, group, nil
}

// syncTargets returns the set of cases a sync writes to: the whole group
// for a grouped case, the source alone otherwise.
func (e *Engine) syncTargets(ctx context.Context, source *models.IndividualProcess, group *models.Group) ([]*models.IndividualProcess, error) {
	if group == nil {
		return []*models.IndividualProcess{source}, nil
	}
	siblings, err := e.stores.Processes.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list group cases")
	}
	return siblings, nil
}

func syncMetadata(group *models.Group, metadata map[string]any) map[string]any {
	if group != nil {
		metadata["group_id"] = group.ID.String()
	}
	return metadata
}
