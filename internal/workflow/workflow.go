// Package workflow holds the multi-step operations whose steps must run in
// order because a later step depends on the side effect of an earlier one.
// None of them roll back.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"taskhub/internal/domain"
	"taskhub/internal/gateway"
)

// Gateway is what the workflows need from the remote service.
type Gateway interface {
	CreateGroup(ctx context.Context, ng domain.NewGroup) (domain.TaskGroup, error)
	EnsureMember(ctx context.Context, groupID, userID int64) (bool, error)
	CreateTask(ctx context.Context, nt domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) error
}

type Runner struct {
	gw    Gateway
	guard *Guard
	log   *logrus.Entry
}

func NewRunner(gw Gateway, guard *Guard, log *logrus.Entry) *Runner {
	if guard == nil {
		guard = NewGuard()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{gw: gw, guard: guard, log: log}
}

// CreateGroup creates a group owned by ownerID and then enrolls the owner.
// Enrollment failures are logged and ignored: the group exists and the owner
// normally sees it through ownership anyway.
func (r *Runner) CreateGroup(ctx context.Context, ownerID int64, name string) (domain.TaskGroup, error) {
	const op = "workflow.Runner.CreateGroup"
	log := r.log.WithFields(logrus.Fields{"operation": op, "owner_id": ownerID})

	key := fmt.Sprintf("create-group:%d:%s", ownerID, strings.ToLower(strings.TrimSpace(name)))
	release, err := r.guard.Begin(key)
	if err != nil {
		return domain.TaskGroup{}, err
	}
	defer release()

	g, err := r.gw.CreateGroup(ctx, domain.NewGroup{Name: name, OwnerID: ownerID})
	if err != nil {
		return domain.TaskGroup{}, err
	}
	if g.ID <= 0 {
		return domain.TaskGroup{}, fmt.Errorf("create group: %w: missing group id", gateway.ErrMalformedResponse)
	}

	if _, err := r.gw.EnsureMember(ctx, g.ID, ownerID); err != nil {
		log.WithField("group_id", g.ID).WithError(err).Warn("enrolling owner failed, continuing")
	}
	return g, nil
}

// AssignTask makes the assignee a member of the task's group and only then
// creates the task. A membership failure other than "already a member"
// aborts before anything is created.
func (r *Runner) AssignTask(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	const op = "workflow.Runner.AssignTask"

	key := fmt.Sprintf("assign-task:%d:%d:%s", nt.AssignedBy, nt.GroupID, strings.ToLower(strings.TrimSpace(nt.Name)))
	release, err := r.guard.Begin(key)
	if err != nil {
		return domain.Task{}, err
	}
	defer release()

	if nt.AssignedTo != nil {
		if err := r.ensureMember(ctx, op, nt.GroupID, *nt.AssignedTo); err != nil {
			return domain.Task{}, err
		}
	}
	return r.gw.CreateTask(ctx, nt)
}

// Reassign moves an existing task to assigneeID with the same ordering as
// AssignTask: membership first, then the update.
func (r *Runner) Reassign(ctx context.Context, taskID, groupID, assigneeID int64) error {
	const op = "workflow.Runner.Reassign"

	release, err := r.guard.Begin(fmt.Sprintf("reassign-task:%d", taskID))
	if err != nil {
		return err
	}
	defer release()

	if err := r.ensureMember(ctx, op, groupID, assigneeID); err != nil {
		return err
	}
	return r.gw.UpdateTask(ctx, taskID, domain.TaskPatch{AssignedTo: domain.Int64(assigneeID)})
}

func (r *Runner) ensureMember(ctx context.Context, op string, groupID, userID int64) error {
	already, err := r.gw.EnsureMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("add user %d to group %d: %w", userID, groupID, err)
	}
	r.log.WithFields(logrus.Fields{
		"operation":      op,
		"group_id":       groupID,
		"user_id":        userID,
		"already_member": already,
	}).Debug("membership ensured")
	return nil
}
