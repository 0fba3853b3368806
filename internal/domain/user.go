package domain

import "time"

// User is the client-side view of a remote user account.
type User struct {
	ID         int64
	Username   string
	Surname    string
	Active     bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// DisplayName returns the username followed by the surname, if any.
func (u User) DisplayName() string {
	if u.Surname == "" {
		return u.Username
	}
	return u.Username + " " + u.Surname
}

// ActiveUsers returns the users whose active flag is set, preserving order.
func ActiveUsers(users []User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.Active {
			out = append(out, u)
		}
	}
	return out
}

// UserDirectory is an id -> User lookup table built from one listing.
type UserDirectory map[int64]User

func NewUserDirectory(users []User) UserDirectory {
	d := make(UserDirectory, len(users))
	for _, u := range users {
		d[u.ID] = u
	}
	return d
}

// Name returns the display name for id, or "" if unknown.
func (d UserDirectory) Name(id int64) string {
	u, ok := d[id]
	if !ok {
		return ""
	}
	return u.DisplayName()
}

// NewUser is the payload for creating a user.
type NewUser struct {
	Username string
	Password string
	Surname  string
	Active   bool
}

// UserPatch is a partial user update; nil fields are left unchanged.
type UserPatch struct {
	Username *string
	Password *string
}
