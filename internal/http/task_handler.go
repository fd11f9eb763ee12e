package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/ai-secretary/internal/application"
)

type taskService interface {
	CreateTask(ctx context.Context, params application.CreateTaskParams) (application.Task, error)
	UpdateTask(ctx context.Context, params application.UpdateTaskParams) (application.Task, error)
	MarkComplete(ctx context.Context, principal application.Principal, taskID string) (application.Task, error)
	DeleteTask(ctx context.Context, principal application.Principal, taskID string) error
	GetTask(ctx context.Context, principal application.Principal, taskID string) (application.Task, error)
	ListTasks(ctx context.Context, params application.ListTasksParams) ([]application.Task, error)
	ListOverdue(ctx context.Context, principal application.Principal) ([]application.Task, error)
	ListReminderCandidates(ctx context.Context, principal application.Principal) ([]application.Task, error)
}

type TaskHandler struct {
	service   taskService
	responder responder
	logger    *slog.Logger
}

func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	base := defaultLogger(logger)
	return &TaskHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TaskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TaskHandler", operation, attrs...)
}

func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "task id missing from path")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return "", false
	}
	return id, true
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode task request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	input, err := req.toInput()
	if err != nil {
		serviceFailed(r.Context(), logger, "task request rejected", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	task, err := h.service.CreateTask(r.Context(), application.CreateTaskParams{Principal: principal, Input: input})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to create task", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "task created", "task_id", task.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTaskDTO(task))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID, ok := h.taskID(w, r, "Update")
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode task request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "task_id", taskID)

	input, err := req.toInput()
	if err != nil {
		serviceFailed(r.Context(), logger, "task request rejected", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), application.UpdateTaskParams{
		Principal: principal,
		TaskID:    taskID,
		Input:     input,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to update task", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "task updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID, ok := h.taskID(w, r, "Get")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	task, err := h.service.GetTask(r.Context(), principal, taskID)
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "Get", "task_id", taskID), "failed to load task", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID, ok := h.taskID(w, r, "Delete")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "task_id", taskID)

	if err := h.service.DeleteTask(r.Context(), principal, taskID); err != nil {
		serviceFailed(r.Context(), logger, "failed to delete task", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "task deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID, ok := h.taskID(w, r, "Complete")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Complete", "principal_id", principal.UserID, "task_id", taskID)

	task, err := h.service.MarkComplete(r.Context(), principal, taskID)
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to complete task", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "task completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskDTO(task))
}

// List filters by the optional status and owner_id query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	tasks, err := h.service.ListTasks(r.Context(), application.ListTasksParams{
		Principal: principal,
		Status:    strings.TrimSpace(query.Get("status")),
		OwnerID:   strings.TrimSpace(query.Get("owner_id")),
	})
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "List"), "failed to list tasks", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskDTOs(tasks))
}

func (h *TaskHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	tasks, err := h.service.ListOverdue(r.Context(), principal)
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "Overdue"), "failed to list overdue tasks", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskDTOs(tasks))
}

func (h *TaskHandler) ReminderCandidates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	tasks, err := h.service.ListReminderCandidates(r.Context(), principal)
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "ReminderCandidates"), "failed to list reminder candidates", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskDTOs(tasks))
}
