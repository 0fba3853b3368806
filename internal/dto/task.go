package dto

import "time"

type CreateTaskRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	GroupID    int64  `json:"group_id" binding:"required,min=1"`
	AssignedTo *int64 `json:"assigned_to" binding:"omitempty,min=1"`
	Status     string `json:"status"`
}

// UpdateTaskRequest is a partial update; omitted fields are left alone.
type UpdateTaskRequest struct {
	Name       *string `json:"name"`
	Status     *string `json:"status"`
	AssignedTo *int64  `json:"assigned_to" binding:"omitempty,min=1"`
}

type TaskResponse struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	AssignedBy *int64     `json:"assigned_by"`
	AssignedTo *int64     `json:"assigned_to"`
	GroupID    *int64     `json:"group_id"`
	CreatedAt  *time.Time `json:"creation_date,omitempty"`
	ModifiedAt *time.Time `json:"modification_date,omitempty"`
}

type ListTasksResponse struct {
	Items []TaskResponse `json:"items"`
}

type TaskDetailResponse struct {
	TaskResponse
	AssignedByName string          `json:"assigned_by_name,omitempty"`
	AssignedToName string          `json:"assigned_to_name,omitempty"`
	Roster         *RosterResponse `json:"roster,omitempty"`
}
