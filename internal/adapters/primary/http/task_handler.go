package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/taskflow/taskflow-backend/internal/adapters/primary/http/middleware"
	"github.com/taskflow/taskflow-backend/internal/adapters/primary/validation"
	"github.com/taskflow/taskflow-backend/internal/auth"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

const maxTasksPerPage = 100

var (
	taskStatuses   = []string{"TODO", "IN_PROGRESS", "COMPLETED"}
	taskPriorities = []string{"LOW", "MEDIUM", "HIGH", "URGENT"}
)

// TaskHandler handles HTTP requests for tasks
type TaskHandler struct {
	taskService    ports.TaskService
	commentHandler *CommentHandler
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	taskService ports.TaskService,
	commentHandler *CommentHandler,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		commentHandler: commentHandler,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "task"),
	}
}

// RegisterRoutes sets up the routing for all task endpoints.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTasks)
	r.Post("/", h.HandleCreateTask)

	// Routes for a specific task
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTask)
		r.Patch("/", h.HandleUpdateTask)
		r.Delete("/", h.HandleDeleteTask)

		// Mount the comment routes nested under /tasks/{taskID}
		if h.commentHandler != nil {
			r.Mount("/comments", h.commentHandler.Router())
		}
	})
}

// --- Request/Response DTOs ---

// CreateTaskRequest defines the expected JSON body for creating a task
type CreateTaskRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	AssigneeID     *string  `json:"assignedTo"`
	ProjectID      *int64   `json:"projectId"`
	DueDate        *string  `json:"dueDate"`
	EstimatedHours *float64 `json:"estimatedHours"`
}

// Validate validates the create task request
func (r *CreateTaskRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)

	v.MaxLength("description", r.Description, domain.MaxDescriptionLength)

	v.Required("priority", r.Priority).
		OneOf("priority", r.Priority, taskPriorities)

	if r.AssigneeID != nil {
		v.UUID("assignedTo", *r.AssigneeID)
	}

	if r.DueDate != nil {
		if _, err := time.Parse(time.RFC3339, *r.DueDate); err != nil {
			v.Custom("dueDate", false, "Must be a valid RFC3339 timestamp")
		}
	}

	if r.EstimatedHours != nil && *r.EstimatedHours < 0 {
		v.Custom("estimatedHours", false, "Must not be negative")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateTaskRequest defines the expected JSON body for updating a task.
// Absent fields are left untouched; assignedTo set to the empty string
// clears the assignee.
type UpdateTaskRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Status         *string  `json:"status"`
	Priority       *string  `json:"priority"`
	AssigneeID     *string  `json:"assignedTo"`
	DueDate        *string  `json:"dueDate"`
	EstimatedHours *float64 `json:"estimatedHours"`
	ActualHours    *float64 `json:"actualHours"`
	Archived       *bool    `json:"archived"`
}

// Validate validates the update task request
func (r *UpdateTaskRequest) Validate() error {
	v := validation.NewValidator()

	if r.Title != nil {
		v.Required("title", *r.Title).
			MaxLength("title", *r.Title, domain.MaxTitleLength)
	}

	if r.Description != nil {
		v.MaxLength("description", *r.Description, domain.MaxDescriptionLength)
	}

	if r.Status != nil {
		v.OneOf("status", *r.Status, taskStatuses)
	}

	if r.Priority != nil {
		v.OneOf("priority", *r.Priority, taskPriorities)
	}

	if r.AssigneeID != nil && *r.AssigneeID != "" {
		v.UUID("assignedTo", *r.AssigneeID)
	}

	if r.DueDate != nil && *r.DueDate != "" {
		if _, err := time.Parse(time.RFC3339, *r.DueDate); err != nil {
			v.Custom("dueDate", false, "Must be a valid RFC3339 timestamp")
		}
	}

	if r.EstimatedHours != nil && *r.EstimatedHours < 0 {
		v.Custom("estimatedHours", false, "Must not be negative")
	}

	if r.ActualHours != nil && *r.ActualHours < 0 {
		v.Custom("actualHours", false, "Must not be negative")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

func toTaskDTO(task *domain.Task) domain.TaskSnapshot {
	return domain.NewTaskSnapshot(task)
}

func toTaskDTOs(tasks []*domain.Task) []domain.TaskSnapshot {
	response := make([]domain.TaskSnapshot, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, toTaskDTO(task))
	}
	return response
}

// --- Handlers ---

// HandleListTasks handles GET /tasks
func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	pagination := validation.ParsePagination(r, maxTasksPerPage)

	status := validation.ParseStringQueryParam(r, "status")
	priority := validation.ParseStringQueryParam(r, "priority")

	v := validation.NewValidator()

	if status != nil {
		v.OneOf("status", *status, taskStatuses)
	}
	if priority != nil {
		v.OneOf("priority", *priority, taskPriorities)
	}

	var projectID *int64
	if projectIDStr := r.URL.Query().Get("projectId"); projectIDStr != "" {
		parsed, err := strconv.ParseInt(projectIDStr, 10, 64)
		if err != nil || parsed <= 0 {
			v.Custom("projectId", false, "Must be a positive integer")
		} else {
			projectID = &parsed
		}
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	params := ports.ListTasksParams{
		ViewerID:  claims.UserID,
		Limit:     pagination.Limit + 1,
		Offset:    pagination.Offset,
		Status:    status,
		Priority:  priority,
		ProjectID: projectID,
	}

	tasks, err := h.taskService.ListTasks(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Use simple pagination (without total count for performance)
	WritePaginatedSimple(w, toTaskDTOs(tasks), pagination.Limit, pagination.Offset)
}

// HandleCreateTask handles POST /tasks
func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateTaskRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateTaskParams{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TaskPriority(req.Priority),
		ProjectID:      req.ProjectID,
		EstimatedHours: req.EstimatedHours,
		ActorID:        claims.UserID,
	}

	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		params.AssigneeID = &assigneeID
	}

	if req.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		params.DueDate = &dueDate
	}

	task, err := h.taskService.CreateTask(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("task created",
		"task_id", task.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toTaskDTO(task))
}

// HandleGetTask handles GET /tasks/{taskID}
func (h *TaskHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID, claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTaskDTO(task))
}

// HandleUpdateTask handles PATCH /tasks/{taskID}
func (h *TaskHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTaskRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateTaskParams{
		TaskID:         taskID,
		ActorID:        claims.UserID,
		Title:          req.Title,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Archived:       req.Archived,
	}

	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		params.Status = &status
	}

	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		params.Priority = &priority
	}

	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			params.Unassign = true
		} else {
			assigneeID, err := uuid.Parse(*req.AssigneeID)
			if err != nil {
				h.errorHandler.Handle(w, r, err)
				return
			}
			params.AssigneeID = &assigneeID
		}
	}

	if req.DueDate != nil && *req.DueDate != "" {
		dueDate, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		params.DueDate = &dueDate
	}

	task, err := h.taskService.UpdateTask(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("task updated",
		"task_id", taskID,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, toTaskDTO(task))
}

// HandleDeleteTask handles DELETE /tasks/{taskID}
func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), taskID, claims.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("task deleted",
		"task_id", taskID,
		"user_id", claims.UserID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// --- Helper methods ---

// getClaims extracts and validates user claims from the request context
func (h *TaskHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}

// parseTaskID extracts and validates the task ID from the URL
func (h *TaskHandler) parseTaskID(r *http.Request) (int64, error) {
	taskIDStr := chi.URLParam(r, "taskID")
	taskID, err := strconv.ParseInt(taskIDStr, 10, 64)
	if err != nil || taskID <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Invalid task ID")
	}
	return taskID, nil
}
