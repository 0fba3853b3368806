package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"taskhub/internal/domain"
)

// ListTasks returns every task. Like ListGroups it degrades to an empty list.
func (c *Client) ListTasks(ctx context.Context) []domain.Task {
	const op = "gateway.Client.ListTasks"
	var out []taskWire
	if err := c.do(ctx, http.MethodGet, "/tasks/", nil, &out); err != nil {
		c.log.WithField("operation", op).WithError(err).Warn("listing tasks failed, using empty list")
		return []domain.Task{}
	}
	return tasksToDomain(out)
}

func (c *Client) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	if err := checkID("task id", id); err != nil {
		return domain.Task{}, err
	}
	var out taskWire
	if err := c.do(ctx, http.MethodGet, "/tasks/"+itoa(id), nil, &out); err != nil {
		return domain.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	t := out.toDomain()
	if t.ID == 0 {
		t.ID = id
	}
	return t, nil
}

type createTaskBody struct {
	Name        string            `json:"task_name"`
	AssignedBy  int64             `json:"assigned_by"`
	AssignedTo  *int64            `json:"assigned_to"`
	TaskGroupID int64             `json:"task_group_id"`
	Status      domain.TaskStatus `json:"status"`
}

// CreateTask creates a task in a group, optionally assigned to a user.
func (c *Client) CreateTask(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	nt.Name = strings.TrimSpace(nt.Name)
	if nt.Name == "" {
		return domain.Task{}, fmt.Errorf("%w: task name is required", ErrInvalidInput)
	}
	if err := checkID("assigner id", nt.AssignedBy); err != nil {
		return domain.Task{}, err
	}
	if err := checkID("group id", nt.GroupID); err != nil {
		return domain.Task{}, err
	}
	if nt.AssignedTo != nil {
		if err := checkID("assignee id", *nt.AssignedTo); err != nil {
			return domain.Task{}, err
		}
	}
	if nt.Status == "" {
		nt.Status = domain.StatusPending
	}
	if !nt.Status.Valid() {
		return domain.Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, nt.Status)
	}
	body := createTaskBody{
		Name:        nt.Name,
		AssignedBy:  nt.AssignedBy,
		AssignedTo:  nt.AssignedTo,
		TaskGroupID: nt.GroupID,
		Status:      nt.Status,
	}

	var out taskWire
	if err := c.do(ctx, http.MethodPost, "/tasks/assign", body, &out); err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	t := out.toDomain()
	if t.Name == "" {
		t.Name = nt.Name
	}
	if out.Status == "" {
		t.Status = nt.Status
	}
	if t.AssignedBy == nil {
		t.AssignedBy = domain.Int64(nt.AssignedBy)
	}
	if t.AssignedTo == nil {
		t.AssignedTo = nt.AssignedTo
	}
	if t.GroupID == nil {
		t.GroupID = domain.Int64(nt.GroupID)
	}
	return t, nil
}

type updateTaskBody struct {
	Name        *string            `json:"task_name,omitempty"`
	Status      *domain.TaskStatus `json:"status,omitempty"`
	AssignedTo  *int64             `json:"assigned_to,omitempty"`
	TaskGroupID *int64             `json:"task_group_id,omitempty"`
}

// UpdateTask sends a partial update. Only non-nil patch fields are sent.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) error {
	if err := checkID("task id", id); err != nil {
		return err
	}
	if patch.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return fmt.Errorf("%w: task name is required", ErrInvalidInput)
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *patch.Status)
	}
	body := updateTaskBody{
		Name:        patch.Name,
		Status:      patch.Status,
		AssignedTo:  patch.AssignedTo,
		TaskGroupID: patch.GroupID,
	}
	if err := c.do(ctx, http.MethodPut, "/tasks/"+itoa(id), body, nil); err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	if err := checkID("task id", id); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+itoa(id), nil, nil); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}
