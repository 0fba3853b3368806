package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskhub/internal/auth"
	dom "taskhub/internal/domain"
	"taskhub/internal/dto"
	"taskhub/internal/service"
)

type UserHandler struct {
	svc      *service.UserService
	sessions *auth.Store
}

func NewUserHandler(svc *service.UserService, sessions *auth.Store) *UserHandler {
	return &UserHandler{svc: svc, sessions: sessions}
}

// List godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Param        active  query     bool  false  "Only active users"
// @Success      200     {object}  dto.ListUsersResponse
// @Failure      502     {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(requestCtx(c), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListUsersResponse{Items: usersToResponses(users)})
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateUserRequest  true  "User"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	u, err := h.svc.Create(requestCtx(c), dom.NewUser{
		Username: req.Username,
		Password: req.Password,
		Surname:  req.Surname,
		Active:   active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(u))
}

// Update godoc
// @Summary      Update a user's username and password
// @Tags         users
// @Accept       json
// @Security     CookieAuth
// @Param        id    path  int                    true  "User ID"
// @Param        body  body  dto.UpdateUserRequest  true  "Changes"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	const op = "handlers.UserHandler.Update"
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	username, err := h.svc.Update(requestCtx(c), id, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if sess, ok := auth.CurrentSession(c); ok && sess.UserID == id {
		if err := h.sessions.Rename(c.Request.Context(), sess.ID, username); err != nil {
			logrus.WithField("operation", op).WithError(err).Warn("session rename failed")
		} else {
			sess.Username = username
			h.sessions.SetCookies(c, sess)
		}
	}
	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary      Delete a user
// @Tags         users
// @Security     CookieAuth
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(requestCtx(c), auth.UserIDFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleActive godoc
// @Summary      Toggle a user's active flag
// @Tags         users
// @Security     CookieAuth
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Router       /users/{id}/toggle-active [post]
func (h *UserHandler) ToggleActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Toggle(requestCtx(c), auth.UserIDFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
