package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTasks(t *testing.T) {
	tasks := []Task{{ID: 1, Name: "Write Report"}, {ID: 2, Name: "review report"}, {ID: 3, Name: "Deploy"}}

	assert.Equal(t, tasks, FilterTasks(tasks, ""))

	got := FilterTasks(tasks, "REPORT")
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	assert.Empty(t, FilterTasks(tasks, "nothing"))
}

func TestFilterGroups(t *testing.T) {
	groups := []TaskGroup{{ID: 1, Name: "Launch"}, {ID: 2, Name: "Backlog"}}
	got := FilterGroups(groups, "aun")
	require.Len(t, got, 1)
	assert.Equal(t, "Launch", got[0].Name)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" done ")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestEveryTransitionBetweenKnownStatusesIsAllowed(t *testing.T) {
	all := []TaskStatus{StatusPending, StatusDone, StatusRejected}
	for _, from := range all {
		for _, to := range all {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(StatusPending, "ARCHIVED"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "ada", User{Username: "ada"}.DisplayName())
	assert.Equal(t, "ada lovelace", User{Username: "ada", Surname: "lovelace"}.DisplayName())

	dir := NewUserDirectory([]User{{ID: 4, Username: "ada", Surname: "lovelace"}})
	assert.Equal(t, "ada lovelace", dir.Name(4))
	assert.Empty(t, dir.Name(5))
}

func TestActiveUsersKeepsOrder(t *testing.T) {
	users := []User{{ID: 3, Active: true}, {ID: 1, Active: false}, {ID: 2, Active: true}}
	got := ActiveUsers(users)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestOwnedBy(t *testing.T) {
	groups := []TaskGroup{{ID: 1, OwnerID: 7}, {ID: 2, OwnerID: 8}, {ID: 3, OwnerID: 7}}
	got := OwnedBy(groups, 7)
	require.Len(t, got, 2)
	assert.True(t, ContainsGroup(got, 3))
	assert.False(t, ContainsGroup(got, 2))
}
