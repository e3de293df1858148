// Package handler exposes the process lifecycle engine over HTTP. Handlers
// decode, delegate to the engine with the resolved caller and render; all
// policy lives below.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tramita/internal/process/service"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/platform/httputil"
	"tramita/pkg/requestcontext"
)

type Handler struct {
	engine *service.Engine
	logger *slog.Logger
}

func New(engine *service.Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Routes mounts the process endpoints. The router is expected to sit behind
// the authentication middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/processes", h.list)
	r.Post("/processes", h.create)
	r.Post("/processes/bulk-status", h.bulkStatus)
	r.Post("/processes/next-statuses", h.nextStatuses)
	r.Get("/processes/{processID}", h.get)
	r.Patch("/processes/{processID}", h.update)
	r.Delete("/processes/{processID}", h.remove)
	r.Post("/processes/{processID}/clone", h.clone)
	r.Post("/processes/{processID}/checklist/regenerate", h.regenerateChecklist)
	r.Get("/processes/{processID}/tasks", h.listTasks)
	r.Post("/processes/{processID}/sync/urgency", h.syncUrgency)
	r.Post("/processes/{processID}/sync/authorization", h.syncAuthorization)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (requestcontext.Caller, bool) {
	caller, ok := requestcontext.CallerFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return requestcontext.Caller{}, false
	}
	return caller, true
}

func (h *Handler) processID(w http.ResponseWriter, r *http.Request) (id.ProcessID, bool) {
	processID, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid process id"))
		return id.ProcessID{}, false
	}
	return processID, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[createProcessRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	processID, err := h.engine.Create(ctx, caller, service.CreateRequest{
		PersonID:           req.PersonID,
		GroupID:            req.GroupID,
		CompanyApplicantID: req.CompanyApplicantID,
		StatusID:           req.StatusID,
		AuthTypeID:         req.AuthTypeID,
		LegalFrameworkID:   req.LegalFrameworkID,
		ProtocolNumber:     req.ProtocolNumber,
		DOUNumber:          req.DOUNumber,
		Consulate:          req.Consulate,
		PassportNumber:     req.PassportNumber,
		Deadline:           req.Deadline,
		Urgent:             req.Urgent,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, processIDResponse{ID: processID})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	processID, ok := h.processID(w, r)
	if !ok {
		return
	}
	p, err := h.engine.Get(r.Context(), caller, processID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var filter service.ListFilter
	q := r.URL.Query()
	if raw := q.Get("group_id"); raw != "" {
		groupID, err := id.ParseGroupID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group_id"))
			return
		}
		filter.GroupID = groupID
	}
	if raw := q.Get("person_id"); raw != "" {
		personID, err := id.ParsePersonID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person_id"))
			return
		}
		filter.PersonID = personID
	}
	filter.StatusCode = q.Get("status")
	filter.Search = q.Get("search")
	filter.ActiveOnly = q.Get("active") == "true"

	processes, err := h.engine.List(r.Context(), caller, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, processes)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	processID, ok := h.processID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateProcessRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	updated, err := h.engine.Update(ctx, caller, processID, service.UpdateRequest{
		StatusID:         req.StatusID,
		StatusNote:       req.StatusNote,
		GroupID:          req.GroupID,
		AuthTypeID:       req.AuthTypeID,
		LegalFrameworkID: req.LegalFrameworkID,
		ProtocolNumber:   req.ProtocolNumber,
		DOUNumber:        req.DOUNumber,
		Consulate:        req.Consulate,
		PassportNumber:   req.PassportNumber,
		Deadline:         req.Deadline,
		Urgent:           req.Urgent,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, processIDResponse{ID: updated})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	processID, ok := h.processID(w, r)
	if !ok {
		return
	}
	removed, err := h.engine.Remove(r.Context(), caller, processID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, processIDResponse{ID: removed})
}

func (h *Handler) clone(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	sourceID, ok := h.processID(w, r)
	if !ok {
		return
	}
	newID, err := h.engine.CreateFromExisting(r.Context(), caller, sourceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, processIDResponse{ID: newID})
}

func (h *Handler) regenerateChecklist(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	processID, ok := h.processID(w, r)
	if !ok {
		return
	}
	result, err := h.engine.RegenerateChecklist(r.Context(), caller, processID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) bulkStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[bulkStatusRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if len(req.ProcessIDs) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "process_ids must not be empty"))
		return
	}

	result, err := h.engine.BulkUpdateStatus(ctx, caller, req.ProcessIDs, req.StatusCode, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) nextStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[nextStatusesRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	statuses, err := h.engine.CommonNextStatuses(ctx, caller, req.ProcessIDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nextStatusesResponse{Statuses: statuses})
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	processID, ok := h.processID(w, r)
	if !ok {
		return
	}
	tasks, err := h.engine.ListTasks(r.Context(), caller, processID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) syncUrgency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	processID, ok := h.processID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[syncUrgencyRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	count, err := h.engine.SyncUrgency(ctx, caller, processID, req.Urgent)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, syncResponse{UpdatedCount: count})
}

func (h *Handler) syncAuthorization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	processID, ok := h.processID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[syncAuthorizationRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	count, err := h.engine.SyncAuthorization(ctx, caller, processID, req.AuthTypeID,
		service.DeadlineSpec{Unit: req.Unit, Quantity: req.Quantity})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, syncResponse{UpdatedCount: count})
}
