// Package membership derives who can see which task group. The remote
// service never lists memberships directly, so they are reconstructed from
// the per-user visibility endpoint, the group listing and, where the service
// offers it, the group members endpoint.
package membership

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"taskhub/internal/domain"
	"taskhub/internal/gateway"
)

// Directory is the part of the remote service the reconciler reads from.
type Directory interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListGroups(ctx context.Context) []domain.TaskGroup
	GroupsVisibleTo(ctx context.Context, userID int64) ([]domain.TaskGroup, error)
}

// MemberLister is implemented by directories that can list the members of a
// group in one call.
type MemberLister interface {
	GroupMembers(ctx context.Context, groupID int64) ([]domain.User, error)
}

// Visibility is the set of groups a user can see. Fallback is set when the
// per-user endpoint failed and the set was rebuilt from ownership alone, in
// which case groups shared with the user are missing.
type Visibility struct {
	Groups   []domain.TaskGroup
	Fallback bool
}

// Roster splits the active users, minus the current one, into those a group
// is already shared with and those it could still be shared with.
type Roster struct {
	Shared    []domain.User
	Available []domain.User
	// Probed is set when Shared came from the per-user fan-out.
	Probed bool
}

type Reconciler struct {
	dir     Directory
	members MemberLister
	limit   int
	log     *logrus.Entry
	lookups singleflight.Group
}

type Option func(*Reconciler)

// WithProbeConcurrency bounds the number of in-flight probes in the roster
// fan-out. Zero or less means unbounded.
func WithProbeConcurrency(n int) Option {
	return func(r *Reconciler) { r.limit = n }
}

func WithLogger(l *logrus.Entry) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// New builds a reconciler over dir. If dir also implements MemberLister the
// members endpoint is tried before the fan-out.
func New(dir Directory, opts ...Option) *Reconciler {
	r := &Reconciler{
		dir: dir,
		log: logrus.NewEntry(logrus.StandardLogger()),
	}
	if ml, ok := dir.(MemberLister); ok {
		r.members = ml
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// visibleTo coalesces concurrent lookups for the same user made with the same
// token. The shared call outlives any single caller's cancellation; each
// caller still stops waiting when its own ctx is done.
func (r *Reconciler) visibleTo(ctx context.Context, userID int64) ([]domain.TaskGroup, error) {
	key := gateway.TokenFrom(ctx) + "|" + strconv.FormatInt(userID, 10)
	shared := context.WithoutCancel(ctx)
	ch := r.lookups.DoChan(key, func() (any, error) {
		return r.dir.GroupsVisibleTo(shared, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		groups := res.Val.([]domain.TaskGroup)
		return append([]domain.TaskGroup(nil), groups...), nil
	}
}

// VisibleGroups never fails. When the per-user endpoint errors it falls back
// to the groups userID owns.
func (r *Reconciler) VisibleGroups(ctx context.Context, userID int64) Visibility {
	const op = "membership.Reconciler.VisibleGroups"
	groups, err := r.visibleTo(ctx, userID)
	if err == nil {
		return Visibility{Groups: groups}
	}
	r.log.WithFields(logrus.Fields{
		"operation": op,
		"user_id":   userID,
	}).WithError(err).Warn("visibility lookup failed, falling back to owned groups")
	return Visibility{
		Groups:   domain.OwnedBy(r.dir.ListGroups(ctx), userID),
		Fallback: true,
	}
}

// HasAccess reports whether userID can open groupID: the group is visible to
// them, or they own it.
func (r *Reconciler) HasAccess(ctx context.Context, userID, groupID int64) bool {
	v := r.VisibleGroups(ctx, userID)
	if domain.ContainsGroup(v.Groups, groupID) {
		return true
	}
	if v.Fallback {
		// Already the owned set.
		return false
	}
	return domain.ContainsGroup(domain.OwnedBy(r.dir.ListGroups(ctx), userID), groupID)
}

// Roster lists users once and classifies every active user other than
// currentUserID. Order follows the user listing.
//
// Without a members endpoint this issues one visibility query per active
// user, which only scales to small user counts.
func (r *Reconciler) Roster(ctx context.Context, currentUserID, groupID int64) (Roster, error) {
	if groupID <= 0 {
		return Roster{}, fmt.Errorf("%w: group id must be positive, got %d", gateway.ErrInvalidID, groupID)
	}
	users, err := r.dir.ListUsers(ctx)
	if err != nil {
		return Roster{}, fmt.Errorf("roster for group %d: %w", groupID, err)
	}
	active := domain.ActiveUsers(users)

	shared, ok := r.membersOf(ctx, groupID)
	probed := !ok
	if !ok {
		shared = r.probe(ctx, active, groupID)
	}

	out := Roster{Shared: []domain.User{}, Available: []domain.User{}, Probed: probed}
	for _, u := range active {
		if u.ID == currentUserID {
			continue
		}
		if shared[u.ID] {
			out.Shared = append(out.Shared, u)
		} else {
			out.Available = append(out.Available, u)
		}
	}
	return out, nil
}

func (r *Reconciler) membersOf(ctx context.Context, groupID int64) (map[int64]bool, bool) {
	const op = "membership.Reconciler.membersOf"
	if r.members == nil {
		return nil, false
	}
	users, err := r.members.GroupMembers(ctx, groupID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"operation": op,
			"group_id":  groupID,
		}).WithError(err).Debug("members endpoint unavailable, probing users")
		return nil, false
	}
	set := make(map[int64]bool, len(users))
	for _, u := range users {
		set[u.ID] = true
	}
	return set, true
}

// probe asks every user which groups they see and waits for all answers.
// A failed probe counts as "no groups" and never cancels the others.
func (r *Reconciler) probe(ctx context.Context, users []domain.User, groupID int64) map[int64]bool {
	const op = "membership.Reconciler.probe"
	hits := make([]bool, len(users))

	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, u := range users {
		i, u := i, u
		g.Go(func() error {
			groups, err := r.visibleTo(ctx, u.ID)
			if err != nil {
				r.log.WithFields(logrus.Fields{
					"operation": op,
					"user_id":   u.ID,
				}).WithError(err).Warn("probe failed, treating as no access")
				return nil
			}
			hits[i] = domain.ContainsGroup(groups, groupID)
			return nil
		})
	}
	_ = g.Wait()

	set := make(map[int64]bool, len(users))
	for i, u := range users {
		if hits[i] {
			set[u.ID] = true
		}
	}
	return set
}
