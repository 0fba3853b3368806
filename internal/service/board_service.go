package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"taskhub/internal/domain"
	"taskhub/internal/membership"
)

// BoardRemote is the part of the remote service the board reads and edits.
type BoardRemote interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListTasks(ctx context.Context) []domain.Task
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) error
	DeleteTask(ctx context.Context, id int64) error
	DeleteGroup(ctx context.Context, id int64) error
	EnsureMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Access answers visibility questions.
type Access interface {
	VisibleGroups(ctx context.Context, userID int64) membership.Visibility
	HasAccess(ctx context.Context, userID, groupID int64) bool
	Roster(ctx context.Context, currentUserID, groupID int64) (membership.Roster, error)
}

// TaskDetail is a task with the names needed to render it and, for tasks in
// a group, who the group is shared with.
type TaskDetail struct {
	Task           domain.Task
	AssignedByName string
	AssignedToName string
	Roster         *membership.Roster
}

type BoardService struct {
	remote BoardRemote
	access Access
	log    *logrus.Entry
}

func NewBoardService(remote BoardRemote, access Access, log *logrus.Entry) *BoardService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &BoardService{remote: remote, access: access, log: log}
}

// Groups returns the groups userID can see whose name matches q.
func (s *BoardService) Groups(ctx context.Context, userID int64, q string) membership.Visibility {
	v := s.access.VisibleGroups(ctx, userID)
	v.Groups = domain.FilterGroups(v.Groups, strings.TrimSpace(q))
	return v
}

// GroupTasks returns the tasks of groupID matching q. A user without access
// to the group gets an empty list.
func (s *BoardService) GroupTasks(ctx context.Context, userID, groupID int64, q string) ([]domain.Task, error) {
	var (
		tasks   []domain.Task
		allowed bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks = s.remote.ListTasks(gctx)
		return nil
	})
	g.Go(func() error {
		allowed = s.access.HasAccess(gctx, userID, groupID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Task, 0)
	if !allowed {
		return out, nil
	}
	for _, t := range tasks {
		if t.InGroup(groupID) {
			out = append(out, t)
		}
	}
	return domain.FilterTasks(out, strings.TrimSpace(q)), nil
}

// TaskDetail loads a task together with the user directory and, when the
// task belongs to a group, the group's roster.
func (s *BoardService) TaskDetail(ctx context.Context, userID, taskID int64) (TaskDetail, error) {
	const op = "service.BoardService.TaskDetail"
	task, err := s.visibleTask(ctx, userID, taskID)
	if err != nil {
		return TaskDetail{}, err
	}

	var (
		users  []domain.User
		roster *membership.Roster
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.remote.ListUsers(gctx)
		if err != nil {
			// Names are enrichment only.
			s.log.WithField("operation", op).WithError(err).Warn("listing users failed")
			users = nil
		}
		return nil
	})
	if task.GroupID != nil {
		g.Go(func() error {
			r, err := s.access.Roster(gctx, userID, *task.GroupID)
			if err != nil {
				s.log.WithField("operation", op).WithError(err).Warn("building roster failed")
				return nil
			}
			roster = &r
			return nil
		})
	}
	_ = g.Wait()

	dir := domain.NewUserDirectory(users)
	d := TaskDetail{Task: task, Roster: roster}
	if task.AssignedBy != nil {
		d.AssignedByName = dir.Name(*task.AssignedBy)
	}
	if task.AssignedTo != nil {
		d.AssignedToName = dir.Name(*task.AssignedTo)
	}
	return d, nil
}

// RenameTask trims name and updates the task. Renaming to the current name
// is a no-op.
func (s *BoardService) RenameTask(ctx context.Context, userID, taskID int64, name string) (domain.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Task{}, ErrEmptyName
	}
	task, err := s.visibleTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Name == name {
		return task, nil
	}
	if err := s.remote.UpdateTask(ctx, taskID, domain.TaskPatch{Name: &name}); err != nil {
		return domain.Task{}, err
	}
	task.Name = name
	return task, nil
}

// ChangeStatus moves a task to raw, which may be in any letter case.
func (s *BoardService) ChangeStatus(ctx context.Context, userID, taskID int64, raw string) (domain.Task, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return domain.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	task, err := s.visibleTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Status == status {
		return task, nil
	}
	if !domain.CanTransition(task.Status, status) {
		return domain.Task{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, task.Status, status)
	}
	if err := s.remote.UpdateTask(ctx, taskID, domain.TaskPatch{Status: &status}); err != nil {
		return domain.Task{}, err
	}
	task.Status = status
	return task, nil
}

func (s *BoardService) DeleteTask(ctx context.Context, userID, taskID int64) error {
	if _, err := s.visibleTask(ctx, userID, taskID); err != nil {
		return err
	}
	return s.remote.DeleteTask(ctx, taskID)
}

func (s *BoardService) DeleteGroup(ctx context.Context, userID, groupID int64) error {
	if !s.access.HasAccess(ctx, userID, groupID) {
		return ErrNotFound
	}
	return s.remote.DeleteGroup(ctx, groupID)
}

// Roster returns who groupID is shared with and who it could be shared with.
func (s *BoardService) Roster(ctx context.Context, userID, groupID int64) (membership.Roster, error) {
	if !s.access.HasAccess(ctx, userID, groupID) {
		return membership.Roster{}, ErrNotFound
	}
	return s.access.Roster(ctx, userID, groupID)
}

// Share gives targetID access to groupID. Sharing with a user who already
// has access succeeds and reports alreadyMember.
func (s *BoardService) Share(ctx context.Context, userID, groupID, targetID int64) (alreadyMember bool, err error) {
	if targetID == userID {
		return false, ErrSelfAction
	}
	if !s.access.HasAccess(ctx, userID, groupID) {
		return false, ErrNotFound
	}
	return s.remote.EnsureMember(ctx, groupID, targetID)
}

// visibleTask hides tasks in groups the user cannot see.
func (s *BoardService) visibleTask(ctx context.Context, userID, taskID int64) (domain.Task, error) {
	task, err := s.remote.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.GroupID != nil && !s.access.HasAccess(ctx, userID, *task.GroupID) {
		return domain.Task{}, ErrNotFound
	}
	return task, nil
}

// Task returns a task the user may see.
func (s *BoardService) Task(ctx context.Context, userID, taskID int64) (domain.Task, error) {
	return s.visibleTask(ctx, userID, taskID)
}

// CheckAccess returns ErrNotFound unless userID can see groupID.
func (s *BoardService) CheckAccess(ctx context.Context, userID, groupID int64) error {
	if !s.access.HasAccess(ctx, userID, groupID) {
		return ErrNotFound
	}
	return nil
}
