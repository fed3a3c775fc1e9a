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

var memberRoles = []string{"ADMIN", "MEMBER", "VIEWER"}

// ProjectHandler handles HTTP requests for projects and their members
type ProjectHandler struct {
	projectService ports.ProjectService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	projectService ports.ProjectService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "project"),
	}
}

// Router sets up a new chi Router for all project-related routes.
func (h *ProjectHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.HandleListProjects)
	r.Post("/", h.HandleCreateProject)

	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", h.HandleGetProject)
		r.Post("/members", h.HandleAddMember)
		r.Delete("/members/{userID}", h.HandleRemoveMember)
	})

	return r
}

// --- Request/Response DTOs ---

// CreateProjectRequest defines the expected JSON body for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate validates the create project request
func (r *CreateProjectRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, domain.MaxProjectNameLength)

	v.MaxLength("description", r.Description, domain.MaxDescriptionLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// AddMemberRequest defines the expected JSON body for adding a member
type AddMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Validate validates the add member request
func (r *AddMemberRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("userId", r.UserID).
		UUID("userId", r.UserID)

	v.Required("role", r.Role).
		OneOf("role", r.Role, memberRoles)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ProjectDTO defines the JSON response for projects.
type ProjectDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId"`
	CreatedAt   string `json:"createdAt"`
}

func toProjectDTO(project *domain.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID.String(),
		CreatedAt:   project.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// --- Handlers ---

// HandleListProjects handles GET /projects
func (h *ProjectHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]ProjectDTO, 0, len(projects))
	for _, project := range projects {
		response = append(response, toProjectDTO(project))
	}

	WriteList(w, response)
}

// HandleCreateProject handles POST /projects
func (h *ProjectHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateProjectRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     claims.UserID,
	}

	project, err := h.projectService.CreateProject(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("project created",
		"project_id", project.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toProjectDTO(project))
}

// HandleGetProject handles GET /projects/{projectID}
func (h *ProjectHandler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	projectID, err := h.parseProjectID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	project, err := h.projectService.GetProject(r.Context(), projectID, claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toProjectDTO(project))
}

// HandleAddMember handles POST /projects/{projectID}/members
func (h *ProjectHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	projectID, err := h.parseProjectID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[AddMemberRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.AddMemberParams{
		ProjectID: projectID,
		UserID:    userID,
		Role:      domain.ProjectRole(req.Role),
		ActorID:   claims.UserID,
	}

	if err := h.projectService.AddMember(r.Context(), params); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("project member added",
		"project_id", projectID,
		"member_id", userID,
		"role", req.Role,
		"user_id", claims.UserID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember handles DELETE /projects/{projectID}/members/{userID}
func (h *ProjectHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	projectID, err := h.parseProjectID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	userIDStr := chi.URLParam(r, "userID")
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid user ID"))
		return
	}

	if err := h.projectService.RemoveMember(r.Context(), projectID, userID, claims.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("project member removed",
		"project_id", projectID,
		"member_id", userID,
		"user_id", claims.UserID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// --- Helper methods ---

func (h *ProjectHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
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

func (h *ProjectHandler) parseProjectID(r *http.Request) (int64, error) {
	projectIDStr := chi.URLParam(r, "projectID")
	projectID, err := strconv.ParseInt(projectIDStr, 10, 64)
	if err != nil || projectID <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Invalid project ID")
	}
	return projectID, nil
}
