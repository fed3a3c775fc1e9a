package domain

import "time"

// AggregateSnapshot is a point-in-time summary of a viewer's task set.
// It is recomputed from the current tasks on every request; nothing is
// cached between calls.
type AggregateSnapshot struct {
	TotalTasks           int64
	CompletedTasks       int64
	InProgressTasks      int64
	OverdueTasks         int64
	AvgEstimatedHours    float64
	AvgActualHours       float64
	StatusDistribution   map[TaskStatus]int64
	PriorityDistribution map[TaskPriority]int64
}

// NewAggregateSnapshot folds a task set into an aggregate snapshot.
// Averages cover only tasks that carry the respective hour value and
// are 0 for the empty set. Callers are expected to have excluded
// archived tasks already; any that slip through are skipped here too.
func NewAggregateSnapshot(tasks []*Task, now time.Time) *AggregateSnapshot {
	snapshot := &AggregateSnapshot{
		StatusDistribution:   make(map[TaskStatus]int64),
		PriorityDistribution: make(map[TaskPriority]int64),
	}

	var (
		estimatedSum   float64
		estimatedCount int64
		actualSum      float64
		actualCount    int64
	)

	for _, task := range tasks {
		if task.Archived {
			continue
		}

		snapshot.TotalTasks++
		snapshot.StatusDistribution[task.Status]++
		snapshot.PriorityDistribution[task.Priority]++

		switch task.Status {
		case StatusCompleted:
			snapshot.CompletedTasks++
		case StatusInProgress:
			snapshot.InProgressTasks++
		}

		if task.IsOverdue(now) {
			snapshot.OverdueTasks++
		}

		if task.EstimatedHours != nil {
			estimatedSum += *task.EstimatedHours
			estimatedCount++
		}
		if task.ActualHours != nil {
			actualSum += *task.ActualHours
			actualCount++
		}
	}

	if estimatedCount > 0 {
		snapshot.AvgEstimatedHours = estimatedSum / float64(estimatedCount)
	}
	if actualCount > 0 {
		snapshot.AvgActualHours = actualSum / float64(actualCount)
	}

	return snapshot
}
