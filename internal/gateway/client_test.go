package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/gateway"
	"taskhub/internal/remotetest"
)

func newClient(t *testing.T) (*gateway.Client, *remotetest.Server) {
	t.Helper()
	srv := remotetest.New()
	t.Cleanup(srv.Close)
	return gateway.New(srv.URL, gateway.WithTimeout(5*time.Second)), srv
}

func TestLogin(t *testing.T) {
	c, srv := newClient(t)
	id := srv.SeedUser("dana", "secret", true)
	ctx := context.Background()

	ident, err := c.Login(ctx, "dana", "secret")
	require.NoError(t, err)
	assert.Equal(t, id, ident.User.ID)
	assert.Equal(t, "dana", ident.User.Username)
	assert.NotEmpty(t, ident.Token)

	_, err = c.Login(ctx, "dana", "wrong")
	assert.ErrorIs(t, err, gateway.ErrInvalidCredentials)

	_, err = c.Login(ctx, "", "x")
	assert.ErrorIs(t, err, gateway.ErrInvalidInput)
}

func TestLegacyGroupsForUser(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.SeedUser("o", "p", true)
	other := srv.SeedUser("x", "p", true)
	a := srv.SeedGroup("Alpha", owner)
	srv.SeedGroup("Elsewhere", other)
	b := srv.SeedGroup("Beta", owner)
	ctx := context.Background()

	groups, err := c.LegacyGroupsForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, a, groups[0].ID)
	assert.Equal(t, "Alpha", groups[0].Name)
	assert.Equal(t, owner, groups[0].OwnerID)
	assert.True(t, groups[0].Active)
	assert.Equal(t, b, groups[1].ID)
	assert.Equal(t, "Beta", groups[1].Name)

	srv.ResetCalls()
	_, err = c.LegacyGroupsForUser(ctx, 0)
	assert.ErrorIs(t, err, gateway.ErrInvalidID)
	assert.Empty(t, srv.Calls())

	srv.Fail(http.MethodGet, "/main_task/:id", http.StatusInternalServerError)
	_, err = c.LegacyGroupsForUser(ctx, owner)
	assert.Error(t, err)
}

func TestListGroupsDegradesToEmpty(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.SeedUser("o", "p", true)
	srv.SeedGroup("Alpha", owner)

	groups := c.ListGroups(context.Background())
	require.Len(t, groups, 1)
	assert.Equal(t, "Alpha", groups[0].Name)

	srv.Fail(http.MethodGet, "/main_tasks", http.StatusInternalServerError)
	groups = c.ListGroups(context.Background())
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestListGroupsBothSpellings(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.SeedUser("o", "p", true)
	srv.SeedGroup("Alpha", owner)

	first := c.ListGroups(context.Background())
	srv.ListSpelling = remotetest.SpellingMainTask
	second := c.ListGroups(context.Background())
	assert.Equal(t, first, second)
}

func TestListTasksDegradesOnTransportFailure(t *testing.T) {
	srv := remotetest.New()
	c := gateway.New(srv.URL)
	srv.Close()

	assert.Empty(t, c.ListTasks(context.Background()))
	_, err := c.ListUsers(context.Background())
	assert.ErrorIs(t, err, gateway.ErrTransport)
}

func TestGroupsVisibleToPropagatesFailure(t *testing.T) {
	c, srv := newClient(t)
	u := srv.SeedUser("u", "p", true)
	srv.Fail(http.MethodGet, "/users/:id/main-tasks", http.StatusServiceUnavailable)

	_, err := c.GroupsVisibleTo(context.Background(), u)
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestInvalidIDsNeverReachTheService(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()

	_, err := c.GroupsVisibleTo(ctx, 0)
	assert.ErrorIs(t, err, gateway.ErrInvalidID)
	assert.ErrorIs(t, c.DeleteTask(ctx, -3), gateway.ErrInvalidID)
	_, err = c.EnsureMember(ctx, 1, 0)
	assert.ErrorIs(t, err, gateway.ErrInvalidID)
	_, err = c.CreateGroup(ctx, domain.NewGroup{Name: "x"})
	assert.ErrorIs(t, err, gateway.ErrInvalidID)

	assert.Empty(t, srv.Calls())
}

func TestEnsureMemberIsIdempotent(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.SeedUser("o", "p", true)
	u := srv.SeedUser("u", "p", true)
	g := srv.SeedGroup("G", owner)
	ctx := context.Background()

	already, err := c.EnsureMember(ctx, g, u)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = c.EnsureMember(ctx, g, u)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, 1, srv.MemberCount(g, u))

	err = c.ShareGroup(ctx, g, u)
	assert.ErrorIs(t, err, gateway.ErrConflict)
}

func TestEnsureMemberPropagatesOtherFailures(t *testing.T) {
	c, srv := newClient(t)
	u := srv.SeedUser("u", "p", true)

	_, err := c.EnsureMember(context.Background(), 999, u)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestCreateGroupFillsFromRequest(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.SeedUser("o", "p", true)

	g, err := c.CreateGroup(context.Background(), domain.NewGroup{Name: "  Launch ", OwnerID: owner})
	require.NoError(t, err)
	assert.NotZero(t, g.ID)
	assert.Equal(t, "Launch", g.Name)
	assert.Equal(t, owner, g.OwnerID)
	assert.True(t, g.Active)
}

func TestValidationDetailIsVerbatim(t *testing.T) {
	c, srv := newClient(t)
	srv.SeedUser("dana", "p", true)

	_, err := c.CreateUser(context.Background(), domain.NewUser{Username: "dana", Password: "x", Active: true})
	assert.ErrorIs(t, err, gateway.ErrValidation)
	assert.Equal(t, "Username is taken", gateway.DetailOf(err))
}

func TestTaskLifecycle(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.SeedUser("o", "p", true)
	g := srv.SeedGroup("G", owner)
	ctx := context.Background()

	task, err := c.CreateTask(ctx, domain.NewTask{Name: "Review", AssignedBy: owner, GroupID: g})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Nil(t, task.AssignedTo)
	require.NotNil(t, task.GroupID)
	assert.Equal(t, g, *task.GroupID)

	done := domain.StatusDone
	require.NoError(t, c.UpdateTask(ctx, task.ID, domain.TaskPatch{Status: &done}))
	got, err := c.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.Status)

	bogus := domain.TaskStatus("LATER")
	assert.ErrorIs(t, c.UpdateTask(ctx, task.ID, domain.TaskPatch{Status: &bogus}), gateway.ErrInvalidInput)

	require.NoError(t, c.DeleteTask(ctx, task.ID))
	_, err = c.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestGroupMembersUnsupported(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.SeedUser("o", "p", true)
	g := srv.SeedGroup("G", owner)

	_, err := c.GroupMembers(context.Background(), g)
	assert.ErrorIs(t, err, gateway.ErrUnsupported)

	srv.MembersEndpoint = true
	members, err := c.GroupMembers(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner, members[0].ID)
}

func TestToggleUserActive(t *testing.T) {
	c, srv := newClient(t)
	u := srv.SeedUser("u", "p", true)

	require.NoError(t, c.ToggleUserActive(context.Background(), u))
	assert.False(t, srv.IsActive(u))

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.False(t, users[0].Active)
}

func TestTokenIsSent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	base := gateway.New(srv.URL)
	ctx := context.Background()
	_, err := base.ListUsers(ctx)
	require.NoError(t, err)
	_, err = base.WithToken("a").ListUsers(ctx)
	require.NoError(t, err)
	_, err = base.WithToken("a").ListUsers(gateway.ContextWithToken(ctx, "b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer a", "Bearer b"}, got)
}
