// Package taskstore maintains a client-side view of tasks by applying
// the events received over the realtime channel. Clients seed the
// store from the REST API, then feed it every received message; the
// store converges on the server state without re-fetching.
//
// Missed events are not recoverable: after a disconnect, callers are
// expected to re-seed from the REST API and resume applying events.
package taskstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Event names on the realtime channel.
const (
	EventTaskCreated  = "task-created"
	EventTaskUpdated  = "task-updated"
	EventTaskDeleted  = "task-deleted"
	EventCommentAdded = "task-comment-added"
)

// Task mirrors the task document sent by the server.
type Task struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	CreatedBy      string   `json:"createdBy"`
	AssignedTo     *string  `json:"assignedTo"`
	ProjectID      *int64   `json:"projectId"`
	DueDate        *string  `json:"dueDate"`
	EstimatedHours *float64 `json:"estimatedHours"`
	ActualHours    *float64 `json:"actualHours"`
	Archived       bool     `json:"archived"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      *string  `json:"updatedAt"`
}

// Comment mirrors the comment document sent by the server.
type Comment struct {
	ID        string `json:"id"`
	TaskID    int64  `json:"taskId"`
	AuthorID  string `json:"authorId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

type taskDeletedPayload struct {
	TaskID int64 `json:"taskId"`
}

type commentAddedPayload struct {
	TaskID  int64   `json:"taskId"`
	Comment Comment `json:"comment"`
}

// envelope mirrors the JSON message written by the server.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Store holds the reconciled task state. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	tasks    map[int64]Task
	comments map[int64][]Comment
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tasks:    make(map[int64]Task),
		comments: make(map[int64][]Comment),
	}
}

// Seed replaces the store's contents with the given tasks, typically
// the result of a REST listing after connect or reconnect.
func (s *Store) Seed(tasks []Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[int64]Task, len(tasks))
	s.comments = make(map[int64][]Comment)
	for _, task := range tasks {
		s.tasks[task.ID] = task
	}
}

// ApplyMessage decodes a raw event message and merges it into the
// local state. Unknown event types are an error so callers notice
// protocol drift.
func (s *Store) ApplyMessage(data []byte) error {
	var event envelope
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("malformed event: %w", err)
	}

	switch event.Type {
	case EventTaskCreated, EventTaskUpdated:
		var task Task
		if err := json.Unmarshal(event.Payload, &task); err != nil {
			return fmt.Errorf("malformed task payload: %w", err)
		}
		s.upsertTask(task)
		return nil

	case EventTaskDeleted:
		var payload taskDeletedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("malformed deletion payload: %w", err)
		}
		s.deleteTask(payload.TaskID)
		return nil

	case EventCommentAdded:
		var payload commentAddedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("malformed comment payload: %w", err)
		}
		s.addComment(payload.TaskID, payload.Comment)
		return nil

	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

func (s *Store) upsertTask(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

func (s *Store) deleteTask(taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
	delete(s.comments, taskID)
}

func (s *Store) addComment(taskID int64, comment Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[taskID] = append(s.comments[taskID], comment)
}

// Get returns the task with the given ID, if present.
func (s *Store) Get(taskID int64) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	return task, ok
}

// List returns all tasks ordered by ID.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// Comments returns the comments applied for a task, in arrival order.
func (s *Store) Comments(taskID int64) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]Comment, len(s.comments[taskID]))
	copy(comments, s.comments[taskID])
	return comments
}

// Len returns the number of tasks currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
