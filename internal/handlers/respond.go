package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskhub/internal/auth"
	dom "taskhub/internal/domain"
	"taskhub/internal/dto"
	"taskhub/internal/gateway"
	"taskhub/internal/membership"
	"taskhub/internal/service"
	"taskhub/internal/workflow"
)

// respondError maps service, workflow and remote errors to a status code.
// Messages from the remote service are passed through verbatim.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gateway.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrSelfAction),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, gateway.ErrInvalidInput),
		errors.Is(err, gateway.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": gateway.DetailOf(err)})
	case errors.Is(err, gateway.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gateway.DetailOf(err)})
	case errors.Is(err, gateway.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": gateway.DetailOf(err)})
	case errors.Is(err, gateway.ErrTransport), errors.Is(err, gateway.ErrMalformedResponse):
		logrus.WithError(err).Warn("remote service failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": "task service unavailable"})
	default:
		var ae *gateway.APIError
		if errors.As(err, &ae) {
			c.JSON(http.StatusBadGateway, gin.H{"error": ae.Detail})
			return
		}
		logrus.WithError(err).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// requestCtx carries the session's remote token to the gateway.
func requestCtx(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if sess, ok := auth.CurrentSession(c); ok && sess.Token != "" {
		ctx = gateway.ContextWithToken(ctx, sess.Token)
	}
	return ctx
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func userToResponse(u dom.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Surname:     u.Surname,
		DisplayName: u.DisplayName(),
		Active:      u.Active,
		CreatedAt:   timePtr(u.CreatedAt),
	}
}

func usersToResponses(list []dom.User) []dto.UserResponse {
	out := make([]dto.UserResponse, len(list))
	for i := range list {
		out[i] = userToResponse(list[i])
	}
	return out
}

func groupToResponse(g dom.TaskGroup) dto.GroupResponse {
	return dto.GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		OwnerID:   g.OwnerID,
		Active:    g.Active,
		CreatedAt: timePtr(g.CreatedAt),
	}
}

func groupsToResponses(list []dom.TaskGroup) []dto.GroupResponse {
	out := make([]dto.GroupResponse, len(list))
	for i := range list {
		out[i] = groupToResponse(list[i])
	}
	return out
}

func taskToResponse(t dom.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:         t.ID,
		Name:       t.Name,
		Status:     string(t.Status),
		AssignedBy: t.AssignedBy,
		AssignedTo: t.AssignedTo,
		GroupID:    t.GroupID,
		CreatedAt:  timePtr(t.CreatedAt),
		ModifiedAt: timePtr(t.ModifiedAt),
	}
}

func tasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i])
	}
	return out
}

func rosterToResponse(r membership.Roster) dto.RosterResponse {
	return dto.RosterResponse{
		Shared:    usersToResponses(r.Shared),
		Available: usersToResponses(r.Available),
	}
}
