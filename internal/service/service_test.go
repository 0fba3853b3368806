package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/gateway"
	"taskhub/internal/membership"
	"taskhub/internal/remotetest"
	"taskhub/internal/service"
)

type fixture struct {
	srv    *remotetest.Server
	client *gateway.Client
	board  *service.BoardService
	users  *service.UserService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	srv := remotetest.New()
	t.Cleanup(srv.Close)
	client := gateway.New(srv.URL)
	return fixture{
		srv:    srv,
		client: client,
		board:  service.NewBoardService(client, membership.New(client), nil),
		users:  service.NewUserService(client),
	}
}

func TestToggledUserLeavesActiveList(t *testing.T) {
	f := newFixture(t)
	admin := f.srv.SeedUser("admin", "p", true)
	f.srv.SeedUser("two", "p", true)
	three := f.srv.SeedUser("three", "p", true)
	ctx := context.Background()

	active, err := f.users.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 3)

	require.NoError(t, f.users.Toggle(ctx, admin, three))

	active, err = f.users.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, u := range active {
		assert.NotEqual(t, three, u.ID)
	}

	all, err := f.users.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUsersCannotActOnThemselves(t *testing.T) {
	f := newFixture(t)
	me := f.srv.SeedUser("me", "p", true)
	ctx := context.Background()

	assert.ErrorIs(t, f.users.Toggle(ctx, me, me), service.ErrSelfAction)
	assert.ErrorIs(t, f.users.Delete(ctx, me, me), service.ErrSelfAction)
	assert.True(t, f.srv.IsActive(me))
	assert.Empty(t, f.srv.Calls())
}

func TestUserUpdate(t *testing.T) {
	f := newFixture(t)
	id := f.srv.SeedUser("old", "p", true)
	ctx := context.Background()

	_, err := f.users.Update(ctx, id, "   ", "")
	assert.ErrorIs(t, err, service.ErrEmptyName)

	name, err := f.users.Update(ctx, id, " new ", "")
	require.NoError(t, err)
	assert.Equal(t, "new", name)

	_, err = f.client.Login(ctx, "new", "p")
	assert.NoError(t, err, "empty password leaves the old one")
}

func TestGroupTasksRequiresAccess(t *testing.T) {
	f := newFixture(t)
	owner := f.srv.SeedUser("owner", "p", true)
	stranger := f.srv.SeedUser("stranger", "p", true)
	g := f.srv.SeedGroup("G", owner)
	other := f.srv.SeedGroup("H", owner)
	f.srv.SeedTask("Write report", g, owner, nil)
	f.srv.SeedTask("Review report", g, owner, nil)
	f.srv.SeedTask("Deploy", g, owner, nil)
	f.srv.SeedTask("Elsewhere", other, owner, nil)
	ctx := context.Background()

	tasks, err := f.board.GroupTasks(ctx, owner, g, "")
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	tasks, err = f.board.GroupTasks(ctx, owner, g, "REPORT")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = f.board.GroupTasks(ctx, stranger, g, "")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestGroupsFilteredBySearch(t *testing.T) {
	f := newFixture(t)
	owner := f.srv.SeedUser("owner", "p", true)
	f.srv.SeedGroup("Launch", owner)
	f.srv.SeedGroup("Backlog", owner)

	v := f.board.Groups(context.Background(), owner, "laun")
	assert.False(t, v.Fallback)
	require.Len(t, v.Groups, 1)
	assert.Equal(t, "Launch", v.Groups[0].Name)
}

func TestTaskDetail(t *testing.T) {
	f := newFixture(t)
	owner := f.srv.SeedUser("owner", "p", true)
	worker := f.srv.SeedUser("worker", "p", true)
	f.srv.SeedUser("idle", "p", true)
	g := f.srv.SeedGroup("G", owner)
	f.srv.AddMember(g, worker)
	task := f.srv.SeedTask("Review", g, owner, domain.Int64(worker))

	d, err := f.board.TaskDetail(context.Background(), owner, task)
	require.NoError(t, err)
	assert.Equal(t, "owner", d.AssignedByName)
	assert.Equal(t, "worker", d.AssignedToName)
	require.NotNil(t, d.Roster)
	require.Len(t, d.Roster.Shared, 1)
	assert.Equal(t, worker, d.Roster.Shared[0].ID)
	require.Len(t, d.Roster.Available, 1)
	assert.Equal(t, "idle", d.Roster.Available[0].Username)
}

func TestTaskDetailHiddenWithoutAccess(t *testing.T) {
	f := newFixture(t)
	owner := f.srv.SeedUser("owner", "p", true)
	stranger := f.srv.SeedUser("stranger", "p", true)
	g := f.srv.SeedGroup("G", owner)
	task := f.srv.SeedTask("Review", g, owner, nil)

	_, err := f.board.TaskDetail(context.Background(), stranger, task)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRenameAndStatus(t *testing.T) {
	f := newFixture(t)
	owner := f.srv.SeedUser("owner", "p", true)
	g := f.srv.SeedGroup("G", owner)
	task := f.srv.SeedTask("Review", g, owner, nil)
	ctx := context.Background()

	_, err := f.board.RenameTask(ctx, owner, task, "  ")
	assert.ErrorIs(t, err, service.ErrEmptyName)

	f.srv.ResetCalls()
	got, err := f.board.RenameTask(ctx, owner, task, " Review ")
	require.NoError(t, err)
	assert.Equal(t, "Review", got.Name)
	for _, c := range f.srv.Calls() {
		assert.NotEqual(t, "PUT", c.Method, "unchanged name must not be sent")
	}

	got, err = f.board.RenameTask(ctx, owner, task, "Final review")
	require.NoError(t, err)
	assert.Equal(t, "Final review", got.Name)

	got, err = f.board.ChangeStatus(ctx, owner, task, "rejected")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, "REJECTED", f.srv.TaskStatus(task))

	_, err = f.board.ChangeStatus(ctx, owner, task, "archived")
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
}

func TestShare(t *testing.T) {
	f := newFixture(t)
	owner := f.srv.SeedUser("owner", "p", true)
	other := f.srv.SeedUser("other", "p", true)
	g := f.srv.SeedGroup("G", owner)
	ctx := context.Background()

	_, err := f.board.Share(ctx, owner, g, owner)
	assert.ErrorIs(t, err, service.ErrSelfAction)

	already, err := f.board.Share(ctx, owner, g, other)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = f.board.Share(ctx, owner, g, other)
	require.NoError(t, err)
	assert.True(t, already)

	roster, err := f.board.Roster(ctx, owner, g)
	require.NoError(t, err)
	require.Len(t, roster.Shared, 1)
	assert.Equal(t, other, roster.Shared[0].ID)
	assert.Empty(t, roster.Available)
}

func TestDeleteGroupRequiresAccess(t *testing.T) {
	f := newFixture(t)
	owner := f.srv.SeedUser("owner", "p", true)
	stranger := f.srv.SeedUser("stranger", "p", true)
	g := f.srv.SeedGroup("G", owner)
	ctx := context.Background()

	assert.ErrorIs(t, f.board.DeleteGroup(ctx, stranger, g), service.ErrNotFound)
	require.NoError(t, f.board.DeleteGroup(ctx, owner, g))
	assert.Empty(t, f.client.ListGroups(ctx))
}
