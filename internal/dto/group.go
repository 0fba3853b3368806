package dto

import "time"

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

type GroupResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	OwnerID   int64      `json:"owner_id"`
	Active    bool       `json:"is_active"`
	CreatedAt *time.Time `json:"creation_date,omitempty"`
}

// ListGroupsResponse carries Partial when the service could only report the
// groups the user owns, not the ones shared with them.
type ListGroupsResponse struct {
	Items   []GroupResponse `json:"items"`
	Partial bool            `json:"partial"`
}

type RosterResponse struct {
	Shared    []UserResponse `json:"shared"`
	Available []UserResponse `json:"available"`
}

type ShareResponse struct {
	AlreadyMember bool `json:"already_member"`
}
