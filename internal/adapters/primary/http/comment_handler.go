package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mw "github.com/taskflow/taskflow-backend/internal/adapters/primary/http/middleware"
	"github.com/taskflow/taskflow-backend/internal/adapters/primary/validation"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// CommentHandler handles HTTP requests for task comments
type CommentHandler struct {
	commentService ports.CommentService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(
	commentService ports.CommentService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "comment"),
	}
}

// Router sets up routes mounted under /tasks/{taskID}/comments.
func (h *CommentHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleListComments)
	r.Post("/", h.HandleCreateComment)
	return r
}

// CreateCommentRequest defines the expected JSON body for creating a comment
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// Validate validates the create comment request
func (r *CreateCommentRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("body", r.Body).
		MaxLength("body", r.Body, domain.MaxCommentLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListComments handles GET /tasks/{taskID}/comments
func (h *CommentHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comments, err := h.commentService.GetCommentsForTask(r.Context(), taskID, claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]domain.CommentSnapshot, 0, len(comments))
	for _, comment := range comments {
		response = append(response, domain.NewCommentSnapshot(comment))
	}

	WriteList(w, response)
}

// HandleCreateComment handles POST /tasks/{taskID}/comments
func (h *CommentHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateCommentRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateCommentParams{
		TaskID:  taskID,
		ActorID: claims.UserID,
		Body:    req.Body,
	}

	comment, err := h.commentService.CreateComment(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("comment created",
		"comment_id", comment.ID,
		"task_id", taskID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, domain.NewCommentSnapshot(comment))
}

// parseTaskID extracts the parent task ID from the URL
func (h *CommentHandler) parseTaskID(r *http.Request) (int64, error) {
	taskIDStr := chi.URLParam(r, "taskID")
	taskID, err := strconv.ParseInt(taskIDStr, 10, 64)
	if err != nil || taskID <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Invalid task ID")
	}
	return taskID, nil
}
