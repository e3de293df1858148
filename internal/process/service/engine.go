package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"tramita/internal/activity"
	"tramita/internal/notify"
	"tramita/internal/process/access"
	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/platform/sentinel"
	"tramita/pkg/requestcontext"
)

// ListFilter narrows List results. Zero values mean "no restriction".
type ListFilter struct {
	GroupID    id.GroupID
	PersonID   id.PersonID
	StatusCode string
	ActiveOnly bool
	Search     string // matched against protocol and DOU numbers
}

// CreateRequest carries the fields accepted when opening a case.
type CreateRequest struct {
	PersonID           id.PersonID
	GroupID            id.GroupID
	CompanyApplicantID id.CompanyID
	StatusID           id.CaseStatusID // zero: default to em_preparacao
	AuthTypeID         id.AuthorizationTypeID
	LegalFrameworkID   id.LegalFrameworkID
	ProtocolNumber     string
	DOUNumber          string
	Consulate          string
	PassportNumber     string
	Deadline           *time.Time
	Urgent             bool
}

// UpdateRequest carries a partial patch. Nil pointers leave fields
// untouched; a non-nil StatusID requests a workflow transition.
type UpdateRequest struct {
	StatusID         *id.CaseStatusID
	StatusNote       string
	GroupID          *id.GroupID
	AuthTypeID       *id.AuthorizationTypeID
	LegalFrameworkID *id.LegalFrameworkID
	ProtocolNumber   *string
	DOUNumber        *string
	Consulate        *string
	PassportNumber   *string
	Deadline         *time.Time
	Urgent           *bool
}

// EnrichedProcess is a case with its references resolved to display values.
type EnrichedProcess struct {
	models.IndividualProcess
	StatusName   string       `json:"status_name"`
	StatusColor  string       `json:"status_color,omitempty"`
	GroupName    string       `json:"group_name,omitempty"`
	CompanyID    id.CompanyID `json:"company_id,omitempty"`
	AuthTypeName string       `json:"authorization_type_name,omitempty"`
}

// BulkFailure reports why one item of a bulk batch was not updated.
type BulkFailure struct {
	ID     id.ProcessID `json:"id"`
	Reason string       `json:"reason"`
}

// BulkResult is the partial-failure report of a bulk status update.
type BulkResult struct {
	Successful     []id.ProcessID `json:"successful"`
	Failed         []BulkFailure  `json:"failed"`
	TotalProcessed int            `json:"total_processed"`
}

// RegenerateResult reports the effect of a checklist regeneration.
type RegenerateResult struct {
	DeletedCount int `json:"deleted_count"`
	CreatedCount int `json:"created_count"`
}

// Create opens a new case. Admin only. The initial status defaults to
// em_preparacao, which must exist in reference data.
func (e *Engine) Create(ctx context.Context, caller requestcontext.Caller, req CreateRequest) (id.ProcessID, error) {
	ctx, span := e.tracer.Start(ctx, "process.create")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return id.ProcessID{}, err
	}
	if !caller.IsAdmin() {
		return id.ProcessID{}, dErrors.New(dErrors.CodeForbidden, "only administrators may create cases")
	}

	status, err := e.resolveInitialStatus(ctx, req.StatusID)
	if err != nil {
		return id.ProcessID{}, err
	}

	now := requestcontext.Now(ctx)
	processID := id.ProcessID(uuid.New())

	var created int
	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := models.NewIndividualProcess(processID, req.PersonID, status, now)
		if err != nil {
			return err
		}
		p.GroupID = req.GroupID
		p.CompanyApplicantID = req.CompanyApplicantID
		p.AuthTypeID = req.AuthTypeID
		p.LegalFrameworkID = req.LegalFrameworkID
		p.ProtocolNumber = req.ProtocolNumber
		p.DOUNumber = req.DOUNumber
		p.Consulate = req.Consulate
		p.PassportNumber = req.PassportNumber
		p.Deadline = req.Deadline
		p.Urgent = req.Urgent

		if err := e.stores.Processes.Insert(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert case")
		}
		record, err := e.insertStatusRecord(txCtx, p, status, caller.ActorID, "Initial status: "+status.Name, now)
		if err != nil {
			return err
		}
		if err := e.activateStatus(txCtx, p.ID, record.ID); err != nil {
			return err
		}
		if err := e.appendHistory(txCtx, caller, p.ID, "", status.Name, nil, now); err != nil {
			return err
		}
		created, err = e.generateChecklist(txCtx, p, caller.ActorID, now)
		return err
	})
	if err != nil {
		return id.ProcessID{}, err
	}

	e.metrics.IncrementCreated(status.Code)
	e.metrics.AddChecklistGenerated(created)
	e.metrics.ObserveOperation("create", time.Since(start))
	e.emitActivity(ctx, activity.Event{
		Action:    activity.ActionProcessCreated,
		ProcessID: processID,
		ActorID:   caller.ActorID,
		RequestID: requestcontext.RequestID(ctx),
		Metadata:  map[string]any{"status": status.Code, "checklist_entries": created},
	})
	e.logger.InfoContext(ctx, "case created",
		"process_id", processID,
		"status", status.Code,
		"checklist_entries", created,
	)
	return processID, nil
}

// Update applies a partial patch, validating any requested status change
// against the transition table. Non-status fields apply unconditionally.
func (e *Engine) Update(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID, req UpdateRequest) (id.ProcessID, error) {
	ctx, span := e.tracer.Start(ctx, "process.update")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return id.ProcessID{}, err
	}

	p, err := e.loadProcess(ctx, processID)
	if err != nil {
		return id.ProcessID{}, err
	}
	companyID, _, err := e.companyOf(ctx, p)
	if err != nil {
		return id.ProcessID{}, err
	}
	if err := access.Check(caller, companyID); err != nil {
		return id.ProcessID{}, err
	}

	// Resolve and validate the transition before touching anything.
	var newStatus *models.CaseStatus
	if req.StatusID != nil && *req.StatusID != p.StatusID {
		newStatus, err = e.resolveStatusByID(ctx, *req.StatusID)
		if err != nil {
			return id.ProcessID{}, err
		}
		if !e.transitions.Allowed(p.StatusCode, newStatus.Code) {
			e.metrics.IncrementRejected()
			return id.ProcessID{}, dErrors.Newf(dErrors.CodeInvalidTransition,
				"Invalid status transition from %q to %q", p.StatusCode, newStatus.Code)
		}
	}

	now := requestcontext.Now(ctx)
	previousCode := p.StatusCode
	diff := applyPatch(p, req)

	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if newStatus != nil {
			previousName, err := e.statusName(txCtx, p.StatusID)
			if err != nil {
				return err
			}
			p.ApplyStatus(newStatus, now)

			if err := e.stores.Processes.Update(txCtx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update case")
			}
			note := req.StatusNote
			if note == "" {
				note = "Status changed to " + newStatus.Name
			}
			record, err := e.insertStatusRecord(txCtx, p, newStatus, caller.ActorID, note, now)
			if err != nil {
				return err
			}
			if err := e.activateStatus(txCtx, p.ID, record.ID); err != nil {
				return err
			}
			if err := e.appendHistory(txCtx, caller, p.ID, previousName, newStatus.Name, diff, now); err != nil {
				return err
			}
			return e.autoGenerateTasks(txCtx, p, newStatus.Code, caller.ActorID, now)
		}

		p.UpdatedAt = now
		if err := e.stores.Processes.Update(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update case")
		}
		return nil
	})
	if err != nil {
		return id.ProcessID{}, err
	}

	if newStatus != nil {
		e.metrics.IncrementTransition(previousCode, newStatus.Code)
		e.notifyStatusChange(ctx, p, companyID, newStatus)
		e.emitActivity(ctx, activity.Event{
			Action:    activity.ActionStatusChanged,
			ProcessID: p.ID,
			ActorID:   caller.ActorID,
			RequestID: requestcontext.RequestID(ctx),
			Metadata:  map[string]any{"from": previousCode, "to": newStatus.Code},
		})
	}
	e.metrics.ObserveOperation("update", time.Since(start))
	e.emitActivity(ctx, activity.Event{
		Action:    activity.ActionProcessUpdated,
		ProcessID: p.ID,
		ActorID:   caller.ActorID,
		RequestID: requestcontext.RequestID(ctx),
		Metadata:  map[string]any{"changes": diff},
	})
	return p.ID, nil
}

// Remove cascade-deletes a case and everything it owns: checklist entries,
// status records, history and tasks. The cascade steps are explicit and
// named so their completeness stays independently testable.
func (e *Engine) Remove(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID) (id.ProcessID, error) {
	ctx, span := e.tracer.Start(ctx, "process.remove")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return id.ProcessID{}, err
	}

	p, err := e.loadProcess(ctx, processID)
	if err != nil {
		return id.ProcessID{}, err
	}
	companyID, _, err := e.companyOf(ctx, p)
	if err != nil {
		return id.ProcessID{}, err
	}
	if err := access.Check(caller, companyID); err != nil {
		return id.ProcessID{}, err
	}

	var checklistCount, statusCount, historyCount, taskCount int
	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if checklistCount, err = e.stores.Checklist.DeleteByProcess(txCtx, processID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete checklist entries")
		}
		if statusCount, err = e.stores.StatusRecords.DeleteByProcess(txCtx, processID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete status records")
		}
		if historyCount, err = e.stores.History.DeleteByProcess(txCtx, processID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete history entries")
		}
		if taskCount, err = e.stores.Tasks.DeleteByProcess(txCtx, processID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete tasks")
		}
		if err := e.stores.Processes.Delete(txCtx, processID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete case")
		}
		return nil
	})
	if err != nil {
		return id.ProcessID{}, err
	}

	e.metrics.ObserveOperation("remove", time.Since(start))
	e.emitActivity(ctx, activity.Event{
		Action:    activity.ActionProcessDeleted,
		ProcessID: processID,
		ActorID:   caller.ActorID,
		RequestID: requestcontext.RequestID(ctx),
		Metadata: map[string]any{
			"checklist_deleted": checklistCount,
			"statuses_deleted":  statusCount,
			"history_deleted":   historyCount,
			"tasks_deleted":     taskCount,
		},
	})
	e.logger.InfoContext(ctx, "case removed",
		"process_id", processID,
		"checklist_deleted", checklistCount,
		"statuses_deleted", statusCount,
		"history_deleted", historyCount,
		"tasks_deleted", taskCount,
	)
	return processID, nil
}

// CreateFromExisting starts a fresh round for the same person and sponsor:
// only the person and company-applicant references are cloned; everything
// else starts empty at the default status. The source case is flipped to
// the superseded phase.
func (e *Engine) CreateFromExisting(ctx context.Context, caller requestcontext.Caller, sourceID id.ProcessID) (id.ProcessID, error) {
	ctx, span := e.tracer.Start(ctx, "process.clone")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return id.ProcessID{}, err
	}

	source, err := e.loadProcess(ctx, sourceID)
	if err != nil {
		return id.ProcessID{}, err
	}
	companyID, _, err := e.companyOf(ctx, source)
	if err != nil {
		return id.ProcessID{}, err
	}
	if err := access.Check(caller, companyID); err != nil {
		return id.ProcessID{}, err
	}

	status, err := e.resolveInitialStatus(ctx, id.CaseStatusID{})
	if err != nil {
		return id.ProcessID{}, err
	}

	now := requestcontext.Now(ctx)
	newID := id.ProcessID(uuid.New())

	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		fresh, err := models.NewIndividualProcess(newID, source.PersonID, status, now)
		if err != nil {
			return err
		}
		fresh.CompanyApplicantID = source.CompanyApplicantID

		if err := e.stores.Processes.Insert(txCtx, fresh); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert cloned case")
		}
		record, err := e.insertStatusRecord(txCtx, fresh, status, caller.ActorID, "Initial status: "+status.Name, now)
		if err != nil {
			return err
		}
		if err := e.activateStatus(txCtx, fresh.ID, record.ID); err != nil {
			return err
		}
		if err := e.appendHistory(txCtx, caller, fresh.ID, "", status.Name,
			map[string]any{"cloned_from": source.ID.String()}, now); err != nil {
			return err
		}
		if _, err := e.generateChecklist(txCtx, fresh, caller.ActorID, now); err != nil {
			return err
		}

		sourceStatusName, err := e.statusName(txCtx, source.StatusID)
		if err != nil {
			return err
		}
		source.Supersede(now)
		if err := e.stores.Processes.Update(txCtx, source); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to supersede source case")
		}
		return e.appendHistory(txCtx, caller, source.ID, sourceStatusName, sourceStatusName,
			map[string]any{"superseded_by": newID.String()}, now)
	})
	if err != nil {
		return id.ProcessID{}, err
	}

	e.metrics.ObserveOperation("clone", time.Since(start))
	e.emitActivity(ctx, activity.Event{
		Action:    activity.ActionProcessCloned,
		ProcessID: newID,
		ActorID:   caller.ActorID,
		RequestID: requestcontext.RequestID(ctx),
		Metadata:  map[string]any{"source_id": sourceID.String()},
	})
	return newID, nil
}

// BulkUpdateStatus attempts the same status change on every id
// independently and sequentially. It always returns a partial-failure
// report; only a batch-level problem (unknown target status, misconfigured
// caller) aborts the whole call.
func (e *Engine) BulkUpdateStatus(ctx context.Context, caller requestcontext.Caller, ids []id.ProcessID, newStatusCode, reason string) (*BulkResult, error) {
	ctx, span := e.tracer.Start(ctx, "process.bulk_update_status")
	defer span.End()
	start := time.Now()

	if err := requireActor(caller); err != nil {
		return nil, err
	}

	status, err := e.stores.CaseStatuses.FindByCode(ctx, newStatusCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "status code %q not found", newStatusCode)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve status code")
	}

	result := &BulkResult{TotalProcessed: len(ids)}
	for _, processID := range ids {
		req := UpdateRequest{StatusID: &status.ID, StatusNote: reason}
		if _, err := e.Update(ctx, caller, processID, req); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: processID, Reason: dErrors.MessageOf(err)})
			e.metrics.IncrementBulkItem("failure")
			continue
		}
		result.Successful = append(result.Successful, processID)
		e.metrics.IncrementBulkItem("success")
	}

	e.metrics.ObserveOperation("bulk_update_status", time.Since(start))
	e.logger.InfoContext(ctx, "bulk status update finished",
		"target_status", newStatusCode,
		"total", result.TotalProcessed,
		"succeeded", len(result.Successful),
		"failed", len(result.Failed),
	)
	return result, nil
}

// CommonNextStatuses returns the status codes reachable from every one of
// the given cases: the intersection of their per-case allowed-next sets.
// The no-op self transition is always legal and carries no information, so
// each case's current code is left out of its set. UI preview helper;
// BulkUpdateStatus does not consult it.
func (e *Engine) CommonNextStatuses(ctx context.Context, caller requestcontext.Caller, ids []id.ProcessID) ([]string, error) {
	var common map[string]bool
	for _, processID := range ids {
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

		allowed := make(map[string]bool)
		for _, code := range e.transitions.Next(p.StatusCode) {
			if code == p.StatusCode {
				continue
			}
			allowed[code] = true
		}
		if common == nil {
			common = allowed
			continue
		}
		for code := range common {
			if !allowed[code] {
				delete(common, code)
			}
		}
	}

	out := make([]string, 0, len(common))
	for code := range common {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

// Get loads one enriched case, or NotFound / AccessDenied.
func (e *Engine) Get(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID) (*EnrichedProcess, error) {
	p, err := e.loadProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	companyID, group, err := e.companyOf(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, companyID); err != nil {
		return nil, err
	}
	return e.enrich(ctx, p, group, companyID)
}

// List fetches broadly, narrows to the caller's tenant, and enriches.
// Results are ordered newest created first by the store.
func (e *Engine) List(ctx context.Context, caller requestcontext.Caller, filter ListFilter) ([]*EnrichedProcess, error) {
	processes, err := e.stores.Processes.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}

	// A missing group record degrades to "ungrouped" (admin-only), but any
	// other lookup failure must fail the list rather than hide cases.
	groups := make(map[id.GroupID]*models.Group)
	var lookupErr error
	companyFor := func(p *models.IndividualProcess) id.CompanyID {
		if p.GroupID.IsNil() {
			return id.CompanyID{}
		}
		g, ok := groups[p.GroupID]
		if !ok {
			var err error
			g, err = e.stores.Groups.FindByID(ctx, p.GroupID)
			if err != nil {
				if !errors.Is(err, sentinel.ErrNotFound) && lookupErr == nil {
					lookupErr = err
				}
				g = nil
			}
			groups[p.GroupID] = g
		}
		if g == nil {
			return id.CompanyID{}
		}
		return g.CompanyID
	}

	visible, err := access.Narrow(caller, processes, companyFor)
	if err != nil {
		return nil, err
	}
	if lookupErr != nil {
		return nil, dErrors.Wrap(lookupErr, dErrors.CodeInternal, "failed to resolve case group")
	}

	out := make([]*EnrichedProcess, 0, len(visible))
	for _, p := range visible {
		companyID := companyFor(p)
		if lookupErr != nil {
			return nil, dErrors.Wrap(lookupErr, dErrors.CodeInternal, "failed to resolve case group")
		}
		enriched, err := e.enrich(ctx, p, groups[p.GroupID], companyID)
		if err != nil {
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

// ListTasks returns the open work items of a case the caller may see.
func (e *Engine) ListTasks(ctx context.Context, caller requestcontext.Caller, processID id.ProcessID) ([]*models.Task, error) {
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
	tasks, err := e.stores.Tasks.ListByProcess(ctx, processID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tasks")
	}
	return tasks, nil
}

// notifyStatusChange fans one notice out to every user of the case's
// company. Best-effort, like the dispatch itself: a failed recipient lookup
// is logged and the notices are dropped.
func (e *Engine) notifyStatusChange(ctx context.Context, p *models.IndividualProcess, companyID id.CompanyID, status *models.CaseStatus) {
	if companyID.IsNil() {
		return
	}
	users, err := e.stores.Users.ListByCompany(ctx, companyID)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to resolve notification recipients",
			"company_id", companyID,
			"error", err,
		)
		return
	}
	now := requestcontext.Now(ctx)
	for _, user := range users {
		e.notifier.Dispatch(ctx, notify.Notification{
			UserID:    user.ID,
			CompanyID: companyID,
			ProcessID: p.ID,
			Title:     "Case status updated",
			Body:      "Case moved to " + status.Name,
			Metadata:  map[string]any{"status_code": status.Code},
			CreatedAt: now,
		})
	}
}

// applyPatch writes non-status fields onto the case and returns a
// field-level before/after diff for the activity log.
func applyPatch(p *models.IndividualProcess, req UpdateRequest) map[string]any {
	diff := make(map[string]any)
	setString := func(name string, dst *string, src *string) {
		if src != nil && *src != *dst {
			diff[name] = map[string]any{"from": *dst, "to": *src}
			*dst = *src
		}
	}
	setString("protocol_number", &p.ProtocolNumber, req.ProtocolNumber)
	setString("dou_number", &p.DOUNumber, req.DOUNumber)
	setString("consulate", &p.Consulate, req.Consulate)
	setString("passport_number", &p.PassportNumber, req.PassportNumber)

	if req.GroupID != nil && *req.GroupID != p.GroupID {
		diff["group_id"] = map[string]any{"from": p.GroupID.String(), "to": req.GroupID.String()}
		p.GroupID = *req.GroupID
	}
	if req.AuthTypeID != nil && *req.AuthTypeID != p.AuthTypeID {
		diff["authorization_type_id"] = map[string]any{"from": p.AuthTypeID.String(), "to": req.AuthTypeID.String()}
		p.AuthTypeID = *req.AuthTypeID
	}
	if req.LegalFrameworkID != nil && *req.LegalFrameworkID != p.LegalFrameworkID {
		diff["legal_framework_id"] = map[string]any{"from": p.LegalFrameworkID.String(), "to": req.LegalFrameworkID.String()}
		p.LegalFrameworkID = *req.LegalFrameworkID
	}
	if req.Deadline != nil {
		diff["deadline"] = map[string]any{"to": req.Deadline.Format(time.RFC3339)}
		p.Deadline = req.Deadline
	}
	if req.Urgent != nil && *req.Urgent != p.Urgent {
		diff["urgent"] = map[string]any{"from": p.Urgent, "to": *req.Urgent}
		p.Urgent = *req.Urgent
	}
	return diff
}
