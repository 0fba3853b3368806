package domain

import "time"

// TaskGroup is a "main task": a named container of tasks owned by a user.
type TaskGroup struct {
	ID         int64
	Name       string
	OwnerID    int64
	Active     bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// NewGroup is the payload for creating a group.
type NewGroup struct {
	Name    string
	OwnerID int64
}

// ContainsGroup reports whether groups holds a group with the given id.
func ContainsGroup(groups []TaskGroup, id int64) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// OwnedBy returns the groups whose owner is userID.
func OwnedBy(groups []TaskGroup, userID int64) []TaskGroup {
	out := make([]TaskGroup, 0)
	for _, g := range groups {
		if g.OwnerID == userID {
			out = append(out, g)
		}
	}
	return out
}
