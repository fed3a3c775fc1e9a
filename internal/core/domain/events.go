package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// Scope is a broadcast address: every connection for one user, or
// every connection subscribed to one project.
type Scope string

// UserScope returns the scope addressing all of a user's connections.
func UserScope(userID uuid.UUID) Scope {
	return Scope("user:" + userID.String())
}

// ProjectScope returns the scope addressing a project's subscribers.
func ProjectScope(projectID int64) Scope {
	return Scope("project:" + strconv.FormatInt(projectID, 10))
}

// EventType defines the type of real-time event.
type EventType string

const (
	EventTaskCreated  EventType = "task-created"
	EventTaskUpdated  EventType = "task-updated"
	EventTaskDeleted  EventType = "task-deleted"
	EventCommentAdded EventType = "task-comment-added"
)

// Event is an immutable record delivered over the event channel.
// Scopes are routing metadata only and never reach the wire.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
	Scopes  []Scope   `json:"-"`
}

// EffectiveScopes derives the deterministic scope set for a task:
// the assignee's and creator's user scopes plus the project scope
// when the task belongs to a project. Duplicates are collapsed.
func (t *Task) EffectiveScopes() []Scope {
	scopes := make([]Scope, 0, 3)
	seen := make(map[Scope]bool, 3)

	add := func(s Scope) {
		if !seen[s] {
			seen[s] = true
			scopes = append(scopes, s)
		}
	}

	if t.AssigneeID != nil {
		add(UserScope(*t.AssigneeID))
	}
	add(UserScope(t.CreatorID))
	if t.ProjectID != nil {
		add(ProjectScope(*t.ProjectID))
	}

	return scopes
}

// NewTaskCreatedEvent builds the broadcast event for a created task.
func NewTaskCreatedEvent(task *Task) Event {
	return Event{
		Type:    EventTaskCreated,
		Payload: NewTaskSnapshot(task),
		Scopes:  task.EffectiveScopes(),
	}
}

// NewTaskUpdatedEvent builds the broadcast event for an updated task.
func NewTaskUpdatedEvent(task *Task) Event {
	return Event{
		Type:    EventTaskUpdated,
		Payload: NewTaskSnapshot(task),
		Scopes:  task.EffectiveScopes(),
	}
}

// NewTaskDeletedEvent builds the broadcast event for a deleted task.
// The payload carries only the identifier since the entity is gone;
// scopes come from the snapshot loaded before deletion.
func NewTaskDeletedEvent(task *Task) Event {
	return Event{
		Type:    EventTaskDeleted,
		Payload: TaskDeletedPayload{TaskID: task.ID},
		Scopes:  task.EffectiveScopes(),
	}
}

// NewCommentAddedEvent builds the broadcast event for a new comment.
// The comment inherits the visibility of its task.
func NewCommentAddedEvent(task *Task, comment *Comment) Event {
	return Event{
		Type: EventCommentAdded,
		Payload: CommentAddedPayload{
			TaskID:  task.ID,
			Comment: NewCommentSnapshot(comment),
		},
		Scopes: task.EffectiveScopes(),
	}
}
