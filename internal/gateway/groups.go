package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"taskhub/internal/domain"
)

// ListGroups returns every group. It never fails: on any error it logs and
// returns an empty list so aggregating callers keep working through outages.
func (c *Client) ListGroups(ctx context.Context) []domain.TaskGroup {
	const op = "gateway.Client.ListGroups"
	var out []groupWire
	if err := c.do(ctx, http.MethodGet, "/main_tasks", nil, &out); err != nil {
		c.log.WithField("operation", op).WithError(err).Warn("listing groups failed, using empty list")
		return []domain.TaskGroup{}
	}
	return normalizeGroups(out)
}

// LegacyGroupsForUser reads the old per-user listing.
func (c *Client) LegacyGroupsForUser(ctx context.Context, userID int64) ([]domain.TaskGroup, error) {
	if err := checkID("user id", userID); err != nil {
		return nil, err
	}
	var out []groupWire
	if err := c.do(ctx, http.MethodGet, "/main_task/"+itoa(userID), nil, &out); err != nil {
		return nil, fmt.Errorf("legacy groups for user %d: %w", userID, err)
	}
	return normalizeGroups(out), nil
}

// GroupsVisibleTo returns the groups userID owns or has been given access to.
// This is the primary membership source, so failures propagate.
func (c *Client) GroupsVisibleTo(ctx context.Context, userID int64) ([]domain.TaskGroup, error) {
	if err := checkID("user id", userID); err != nil {
		return nil, err
	}
	var out visibleGroupsWire
	if err := c.do(ctx, http.MethodGet, "/users/"+itoa(userID)+"/main-tasks", nil, &out); err != nil {
		return nil, fmt.Errorf("groups visible to user %d: %w", userID, err)
	}
	return normalizeGroups(out.MainTasks), nil
}

type createGroupBody struct {
	Name       string `json:"mTask_name"`
	AssignedBy int64  `json:"assigned_by"`
	IsActive   int    `json:"is_active"`
}

// CreateGroup creates a group owned by ng.OwnerID. The service answers with
// little more than the new id, so name and owner come from the request.
func (c *Client) CreateGroup(ctx context.Context, ng domain.NewGroup) (domain.TaskGroup, error) {
	ng.Name = strings.TrimSpace(ng.Name)
	if ng.Name == "" {
		return domain.TaskGroup{}, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	if err := checkID("owner id", ng.OwnerID); err != nil {
		return domain.TaskGroup{}, err
	}
	body := createGroupBody{Name: ng.Name, AssignedBy: ng.OwnerID, IsActive: 1}

	var out groupWire
	if err := c.do(ctx, http.MethodPost, "/main_task", body, &out); err != nil {
		return domain.TaskGroup{}, fmt.Errorf("create group: %w", err)
	}
	g := normalizeGroup(out)
	if g.ID == 0 {
		return domain.TaskGroup{}, fmt.Errorf("create group: %w: missing group id", ErrMalformedResponse)
	}
	if g.Name == "" {
		g.Name = ng.Name
	}
	if g.OwnerID == 0 {
		g.OwnerID = ng.OwnerID
	}
	return g, nil
}

func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	if err := checkID("group id", id); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, "/main_task/"+itoa(id), nil, nil); err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	return nil
}

// ShareGroup gives userID access to groupID. Every failure propagates,
// including "already a member"; see EnsureMember for the idempotent form.
func (c *Client) ShareGroup(ctx context.Context, groupID, userID int64) error {
	if err := checkID("group id", groupID); err != nil {
		return err
	}
	if err := checkID("user id", userID); err != nil {
		return err
	}
	path := "/main-tasks/" + itoa(groupID) + "/share/" + itoa(userID)
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("share group %d with user %d: %w", groupID, userID, err)
	}
	return nil
}

// EnsureMember makes userID a member of groupID. An existing membership is
// success, reported through alreadyMember.
func (c *Client) EnsureMember(ctx context.Context, groupID, userID int64) (alreadyMember bool, err error) {
	const op = "gateway.Client.EnsureMember"
	err = c.ShareGroup(ctx, groupID, userID)
	if err == nil {
		return false, nil
	}
	if IsAlreadyMember(err) {
		c.log.WithFields(logrus.Fields{
			"operation": op,
			"group_id":  groupID,
			"user_id":   userID,
		}).Debug("user already a member")
		return true, nil
	}
	return false, err
}

// GroupMembers asks the service for the members of a group directly. Services
// without the endpoint yield ErrUnsupported.
func (c *Client) GroupMembers(ctx context.Context, groupID int64) ([]domain.User, error) {
	if err := checkID("group id", groupID); err != nil {
		return nil, err
	}
	var out membersWire
	err := c.do(ctx, http.MethodGet, "/main-tasks/"+itoa(groupID)+"/members", nil, &out)
	if err != nil {
		var ae *APIError
		if errors.As(err, &ae) {
			switch ae.StatusCode {
			case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
				return nil, fmt.Errorf("group members: %w", ErrUnsupported)
			}
		}
		return nil, fmt.Errorf("members of group %d: %w", groupID, err)
	}
	return usersToDomain(out), nil
}
