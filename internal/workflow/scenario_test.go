package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/gateway"
	"taskhub/internal/remotetest"
	"taskhub/internal/workflow"
)

func setup(t *testing.T) (*remotetest.Server, *gateway.Client, *workflow.Runner) {
	t.Helper()
	srv := remotetest.New()
	t.Cleanup(srv.Close)
	client := gateway.New(srv.URL)
	return srv, client, workflow.NewRunner(client, nil, nil)
}

func TestCreatedGroupIsVisibleToCreator(t *testing.T) {
	srv, client, runner := setup(t)
	// Only explicit membership rows grant visibility here, so this passes
	// only if the owner was enrolled.
	srv.OwnerImpliesAccess = false
	owner := srv.SeedUser("creator", "p", true)
	ctx := context.Background()

	g, err := runner.CreateGroup(ctx, owner, "Launch")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.MemberCount(g.ID, owner))

	visible, err := client.GroupsVisibleTo(ctx, owner)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Launch", visible[0].Name)
	assert.Equal(t, g.ID, visible[0].ID)
}

func TestAssignToNonMemberEnrollsThemFirst(t *testing.T) {
	srv, _, runner := setup(t)
	owner := srv.SeedUser("owner", "p", true)
	assignee := srv.SeedUser("assignee", "p", true)
	g := srv.SeedGroup("G", owner)
	ctx := context.Background()
	require.Zero(t, srv.MemberCount(g, assignee))
	srv.ResetCalls()

	task, err := runner.AssignTask(ctx, domain.NewTask{
		Name: "Review", AssignedBy: owner, AssignedTo: domain.Int64(assignee), GroupID: g,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.MemberCount(g, assignee))
	assert.Equal(t, assignee, srv.TaskAssignee(task.ID))

	calls := srv.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/main-tasks/:id/share/:user", calls[0].Route)
	assert.Equal(t, "/tasks/assign", calls[1].Route)
}

func TestAssignToExistingMemberSucceeds(t *testing.T) {
	srv, _, runner := setup(t)
	owner := srv.SeedUser("owner", "p", true)
	member := srv.SeedUser("member", "p", true)
	g := srv.SeedGroup("G", owner)
	srv.AddMember(g, member)

	task, err := runner.AssignTask(context.Background(), domain.NewTask{
		Name: "Review", AssignedBy: owner, AssignedTo: domain.Int64(member), GroupID: g,
	})
	require.NoError(t, err)
	assert.Equal(t, member, srv.TaskAssignee(task.ID))
	assert.Equal(t, 1, srv.MemberCount(g, member))
}

func TestReassignAgainstService(t *testing.T) {
	srv, _, runner := setup(t)
	owner := srv.SeedUser("owner", "p", true)
	next := srv.SeedUser("next", "p", true)
	g := srv.SeedGroup("G", owner)
	task := srv.SeedTask("Review", g, owner, nil)

	require.NoError(t, runner.Reassign(context.Background(), task, g, next))
	assert.Equal(t, next, srv.TaskAssignee(task))
	assert.Equal(t, 1, srv.MemberCount(g, next))
}
