package task

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/platform/httputil"
	"tramita/pkg/requestcontext"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Patch("/tasks/{taskID}", h.update)
	r.Post("/tasks/{taskID}/complete", h.complete)
	r.Post("/tasks/{taskID}/reassign", h.reassign)
}

type updateTaskRequest struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	DueDate     *time.Time           `json:"due_date,omitempty"`
	Priority    *models.TaskPriority `json:"priority,omitempty"`
	Status      *models.TaskStatus   `json:"status,omitempty"`
}

type reassignTaskRequest struct {
	AssigneeID id.UserID `json:"assignee_id"`
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (requestcontext.Caller, bool) {
	caller, ok := requestcontext.CallerFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return requestcontext.Caller{}, false
	}
	return caller, true
}

func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (id.TaskID, bool) {
	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid task id"))
		return id.TaskID{}, false
	}
	return taskID, true
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateTaskRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	t, err := h.service.Update(ctx, caller, taskID, UpdateRequest{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Complete(r.Context(), caller, taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) reassign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[reassignTaskRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	t, err := h.service.Reassign(ctx, caller, taskID, req.AssigneeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}
