package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/auth"
	"taskhub/internal/dto"
	"taskhub/internal/service"
	"taskhub/internal/workflow"
)

type GroupHandler struct {
	board  *service.BoardService
	runner *workflow.Runner
}

func NewGroupHandler(board *service.BoardService, runner *workflow.Runner) *GroupHandler {
	return &GroupHandler{board: board, runner: runner}
}

// List godoc
// @Summary      List groups visible to the current user
// @Tags         groups
// @Produce      json
// @Security     CookieAuth
// @Param        q    query     string  false  "Name filter"
// @Success      200  {object}  dto.ListGroupsResponse
// @Router       /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	v := h.board.Groups(requestCtx(c), auth.UserIDFromContext(c), c.Query("q"))
	c.JSON(http.StatusOK, dto.ListGroupsResponse{Items: groupsToResponses(v.Groups), Partial: v.Fallback})
}

// Create godoc
// @Summary      Create a group owned by the current user
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateGroupRequest  true  "Group"
// @Success      201   {object}  dto.GroupResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := h.runner.CreateGroup(requestCtx(c), auth.UserIDFromContext(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, groupToResponse(g))
}

// Delete godoc
// @Summary      Delete a group
// @Tags         groups
// @Security     CookieAuth
// @Param        id   path  int  true  "Group ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.board.DeleteGroup(requestCtx(c), auth.UserIDFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Tasks godoc
// @Summary      List the tasks of a group
// @Tags         groups
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int     true   "Group ID"
// @Param        q    query     string  false  "Name filter"
// @Success      200  {object}  dto.ListTasksResponse
// @Router       /groups/{id}/tasks [get]
func (h *GroupHandler) Tasks(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.board.GroupTasks(requestCtx(c), auth.UserIDFromContext(c), id, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListTasksResponse{Items: tasksToResponses(tasks)})
}

// Roster godoc
// @Summary      Who a group is shared with, and who it can be shared with
// @Tags         groups
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  dto.RosterResponse
// @Failure      404  {object}  map[string]string
// @Router       /groups/{id}/roster [get]
func (h *GroupHandler) Roster(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := h.board.Roster(requestCtx(c), auth.UserIDFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rosterToResponse(r))
}

// Share godoc
// @Summary      Share a group with a user
// @Tags         groups
// @Produce      json
// @Security     CookieAuth
// @Param        id      path      int  true  "Group ID"
// @Param        userId  path      int  true  "User ID"
// @Success      200     {object}  dto.ShareResponse
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /groups/{id}/share/{userId} [post]
func (h *GroupHandler) Share(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	already, err := h.board.Share(requestCtx(c), auth.UserIDFromContext(c), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ShareResponse{AlreadyMember: already})
}
