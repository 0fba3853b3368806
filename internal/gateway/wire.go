package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/domain"
)

// activeFlag decodes is_active sent as 0/1, a boolean, a numeric string or null.
type activeFlag struct {
	value bool
	set   bool
}

func (f *activeFlag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "", "null":
		f.set = false
		return nil
	case "true":
		f.value, f.set = true, true
		return nil
	case "false":
		f.value, f.set = false, true
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unknown encodings are treated as absent.
		f.set = false
		return nil
	}
	f.value, f.set = n != 0, true
	return nil
}

// or returns the decoded flag, or def when the field was absent.
func (f activeFlag) or(def bool) bool {
	if !f.set {
		return def
	}
	return f.value
}

func activeInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// timestamp parses the service's dates, which come with or without a zone
// and with either 'T' or a space between date and time.
type timestamp struct{ t time.Time }

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		ts.t = time.Time{}
		return nil
	}
	s := strings.TrimSpace(*raw)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			ts.t = parsed.UTC()
			return nil
		}
	}
	ts.t = time.Time{}
	return nil
}

type userWire struct {
	UserID           *int64     `json:"user_id"`
	ID               *int64     `json:"id"`
	Username         string     `json:"username"`
	Surname          string     `json:"surname"`
	IsActive         activeFlag `json:"is_active"`
	CreationDate     timestamp  `json:"creation_date"`
	ModificationDate timestamp  `json:"modification_date"`
}

func (w userWire) toDomain() domain.User {
	return domain.User{
		ID:         firstID(w.UserID, w.ID),
		Username:   w.Username,
		Surname:    w.Surname,
		Active:     w.IsActive.or(true),
		CreatedAt:  w.CreationDate.t,
		ModifiedAt: w.ModificationDate.t,
	}
}

func usersToDomain(list []userWire) []domain.User {
	out := make([]domain.User, 0, len(list))
	for _, w := range list {
		out = append(out, w.toDomain())
	}
	return out
}

// groupWire carries every spelling the service uses for a group. The list
// endpoint says mTask_*, the per-user endpoint main_task_*, and the legacy
// and create endpoints task_*.
type groupWire struct {
	MTaskID          *int64     `json:"mTask_id"`
	MainTaskID       *int64     `json:"main_task_id"`
	TaskID           *int64     `json:"task_id"`
	MTaskName        *string    `json:"mTask_name"`
	MainTaskName     *string    `json:"main_task_name"`
	TaskName         *string    `json:"task_name"`
	AssignedBy       *int64     `json:"assigned_by"`
	IsActive         activeFlag `json:"is_active"`
	CreationDate     timestamp  `json:"creation_date"`
	ModificationDate timestamp  `json:"modification_date"`
}

// normalizeGroup is the only place group field names are reconciled.
func normalizeGroup(w groupWire) domain.TaskGroup {
	g := domain.TaskGroup{
		ID:         firstID(w.MTaskID, w.MainTaskID, w.TaskID),
		Name:       firstString(w.MTaskName, w.MainTaskName, w.TaskName),
		Active:     w.IsActive.or(true),
		CreatedAt:  w.CreationDate.t,
		ModifiedAt: w.ModificationDate.t,
	}
	if w.AssignedBy != nil {
		g.OwnerID = *w.AssignedBy
	}
	return g
}

func normalizeGroups(list []groupWire) []domain.TaskGroup {
	out := make([]domain.TaskGroup, 0, len(list))
	for _, w := range list {
		out = append(out, normalizeGroup(w))
	}
	return out
}

type visibleGroupsWire struct {
	User      string      `json:"user"`
	MainTasks []groupWire `json:"main_tasks"`
}

type taskWire struct {
	TaskID           *int64    `json:"task_id"`
	TaskName         string    `json:"task_name"`
	Status           string    `json:"status"`
	AssignedBy       *int64    `json:"assigned_by"`
	AssignedTo       *int64    `json:"assigned_to"`
	TaskGroupID      *int64    `json:"task_group_id"`
	CreationDate     timestamp `json:"creation_date"`
	ModificationDate timestamp `json:"modification_date"`
}

func (w taskWire) toDomain() domain.Task {
	status := domain.TaskStatus(strings.ToUpper(strings.TrimSpace(w.Status)))
	if status == "" {
		status = domain.StatusPending
	}
	return domain.Task{
		ID:         firstID(w.TaskID),
		Name:       w.TaskName,
		Status:     status,
		AssignedBy: w.AssignedBy,
		AssignedTo: w.AssignedTo,
		GroupID:    w.TaskGroupID,
		CreatedAt:  w.CreationDate.t,
		ModifiedAt: w.ModificationDate.t,
	}
}

func tasksToDomain(list []taskWire) []domain.Task {
	out := make([]domain.Task, 0, len(list))
	for _, w := range list {
		out = append(out, w.toDomain())
	}
	return out
}

// loginWire accepts {user, token}, {data: {user, token}} and the flat
// {user_id, username, token} shapes.
type loginWire struct {
	User     *userWire `json:"user"`
	Token    string    `json:"token"`
	UserID   *int64    `json:"user_id"`
	Username string    `json:"username"`
	Data     *struct {
		User  *userWire `json:"user"`
		Token string    `json:"token"`
	} `json:"data"`
}

func (w loginWire) identity() (domain.User, string) {
	token := w.Token
	var u *userWire
	switch {
	case w.User != nil:
		u = w.User
	case w.Data != nil && w.Data.User != nil:
		u = w.Data.User
	case w.UserID != nil || w.Username != "":
		u = &userWire{UserID: w.UserID, Username: w.Username}
	}
	if token == "" && w.Data != nil {
		token = w.Data.Token
	}
	if u == nil {
		return domain.User{}, token
	}
	return u.toDomain(), token
}

// membersWire accepts either a bare array of users or {"users": [...]}.
type membersWire []userWire

func (m *membersWire) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Users []userWire `json:"users"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*m = obj.Users
		return nil
	}
	var list []userWire
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*m = list
	return nil
}

func firstID(ids ...*int64) int64 {
	for _, id := range ids {
		if id != nil && *id != 0 {
			return *id
		}
	}
	return 0
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
