package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/auth"
	dom "taskhub/internal/domain"
	"taskhub/internal/dto"
	"taskhub/internal/gateway"
	"taskhub/internal/service"
	"taskhub/internal/workflow"
)

type TaskHandler struct {
	board  *service.BoardService
	runner *workflow.Runner
}

func NewTaskHandler(board *service.BoardService, runner *workflow.Runner) *TaskHandler {
	return &TaskHandler{board: board, runner: runner}
}

// Create godoc
// @Summary      Create a task, enrolling the assignee in the group first
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := dom.StatusPending
	if req.Status != "" {
		s, err := dom.ParseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = s
	}
	ctx := requestCtx(c)
	userID := auth.UserIDFromContext(c)
	if err := h.board.CheckAccess(ctx, userID, req.GroupID); err != nil {
		respondError(c, err)
		return
	}
	t, err := h.runner.AssignTask(ctx, dom.NewTask{
		Name:       req.Name,
		Status:     status,
		AssignedBy: userID,
		AssignedTo: req.AssignedTo,
		GroupID:    req.GroupID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(t))
}

// Get godoc
// @Summary      Get a task with names and its group roster
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.TaskDetailResponse
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := h.board.TaskDetail(requestCtx(c), auth.UserIDFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.TaskDetailResponse{
		TaskResponse:   taskToResponse(d.Task),
		AssignedByName: d.AssignedByName,
		AssignedToName: d.AssignedToName,
	}
	if d.Roster != nil {
		r := rosterToResponse(*d.Roster)
		resp.Roster = &r
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Rename, change status or reassign a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      int                    true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == nil && req.Status == nil && req.AssignedTo == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	ctx := requestCtx(c)
	userID := auth.UserIDFromContext(c)

	t, err := h.board.Task(ctx, userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.AssignedTo != nil {
		if t.GroupID == nil {
			respondError(c, fmt.Errorf("%w: task has no group", gateway.ErrInvalidInput))
			return
		}
		if err := h.runner.Reassign(ctx, id, *t.GroupID, *req.AssignedTo); err != nil {
			respondError(c, err)
			return
		}
		t.AssignedTo = req.AssignedTo
	}
	if req.Name != nil {
		renamed, err := h.board.RenameTask(ctx, userID, id, *req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		t.Name = renamed.Name
	}
	if req.Status != nil {
		changed, err := h.board.ChangeStatus(ctx, userID, id, *req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		t.Status = changed.Status
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Security     CookieAuth
// @Param        id   path  int  true  "Task ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.board.DeleteTask(requestCtx(c), auth.UserIDFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
