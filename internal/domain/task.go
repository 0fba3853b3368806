package domain

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusPending  TaskStatus = "PENDING"
	StatusDone     TaskStatus = "DONE"
	StatusRejected TaskStatus = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusRejected:
		return true
	}
	return false
}

// ParseStatus accepts a status in any letter case.
func ParseStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", raw)
	}
	return s, nil
}

// CanTransition reports whether a task may move from one status to another.
// Status is a flat enum: every move between valid statuses is allowed.
func CanTransition(from, to TaskStatus) bool {
	return from.Valid() && to.Valid()
}

type Task struct {
	ID         int64
	Name       string
	Status     TaskStatus
	AssignedBy *int64
	AssignedTo *int64
	GroupID    *int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// InGroup reports whether the task belongs to group id.
func (t Task) InGroup(id int64) bool {
	return t.GroupID != nil && *t.GroupID == id
}

// NewTask is the payload for creating (assigning) a task.
type NewTask struct {
	Name       string
	Status     TaskStatus
	AssignedBy int64
	AssignedTo *int64
	GroupID    int64
}

// TaskPatch is a partial task update; nil fields are left unchanged.
type TaskPatch struct {
	Name       *string
	Status     *TaskStatus
	AssignedTo *int64
	GroupID    *int64
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.AssignedTo == nil && p.GroupID == nil
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
