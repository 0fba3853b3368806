// Package remotetest is an in-memory stand-in for the remote task service,
// serving the same HTTP contract over httptest. It records every call so
// tests can assert request ordering, and can be told to fail given routes.
package remotetest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Spelling selects which key names the group list endpoint uses.
type Spelling int

const (
	SpellingMTask Spelling = iota
	SpellingMainTask
)

// Call is one request received by the fake.
type Call struct {
	Method string
	Path   string
	Route  string
}

type user struct {
	ID       int64
	Username string
	Surname  string
	Hash     []byte
	Active   bool
	Created  time.Time
}

type group struct {
	ID      int64
	Name    string
	OwnerID int64
	Active  bool
	Created time.Time
}

type task struct {
	ID         int64
	Name       string
	Status     string
	AssignedBy *int64
	AssignedTo *int64
	GroupID    *int64
	Created    time.Time
	Modified   time.Time
}

// Server is the fake service. Exported fields may be changed between requests.
type Server struct {
	*httptest.Server

	// OwnerImpliesAccess makes owners see their groups without a membership row.
	OwnerImpliesAccess bool
	// MembersEndpoint enables GET /main-tasks/:id/members.
	MembersEndpoint bool
	// ListSpelling picks the keys GET /main_tasks uses.
	ListSpelling Spelling

	mu       sync.Mutex
	nextID   int64
	users    map[int64]*user
	groups   map[int64]*group
	tasks    map[int64]*task
	members  map[int64]map[int64]bool
	calls    []Call
	failures map[string]int
}

// New starts a fake service. Call Close when done.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		OwnerImpliesAccess: true,
		users:              make(map[int64]*user),
		groups:             make(map[int64]*group),
		tasks:              make(map[int64]*task),
		members:            make(map[int64]map[int64]bool),
		failures:           make(map[string]int),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(s.record)

	r.POST("/login", s.login)

	r.GET("/users/", s.listUsers)
	r.POST("/users/", s.createUser)
	r.PUT("/users/:id", s.updateUser)
	r.DELETE("/users/:id", s.deleteUser)
	r.PUT("/users/:id/toggle_active", s.toggleUser)
	r.GET("/users/:id/main-tasks", s.visibleGroups)

	r.GET("/main_tasks", s.listGroups)
	r.GET("/main_task/:id", s.legacyGroups)
	r.POST("/main_task", s.createGroup)
	r.DELETE("/main_task/:id", s.deleteGroup)
	r.POST("/main-tasks/:id/share/:user", s.share)
	r.GET("/main-tasks/:id/members", s.groupMembers)

	r.GET("/tasks/", s.listTasks)
	r.GET("/tasks/:id", s.getTask)
	r.POST("/tasks/assign", s.createTask)
	r.PUT("/tasks/:id", s.updateTask)
	r.DELETE("/tasks/:id", s.deleteTask)
	return r
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: c.Request.Method, Path: c.Request.URL.Path, Route: c.FullPath()})
	status, fail := s.failures[c.Request.Method+" "+c.FullPath()]
	s.mu.Unlock()
	if fail {
		c.AbortWithStatusJSON(status, gin.H{"detail": "injected failure"})
		return
	}
	c.Next()
}

// Fail makes every request matching method and route pattern (for example
// "/users/:id/main-tasks") answer with status.
func (s *Server) Fail(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+route] = status
}

// Heal removes all injected failures.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

// Calls returns a copy of the call log.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// SeedUser adds a user and returns its id.
func (s *Server) SeedUser(username, password string, active bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(username, "", password, active)
}

// SeedGroup adds a group owned by ownerID without any membership row.
func (s *Server) SeedGroup(name string, ownerID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.groups[s.nextID] = &group{ID: s.nextID, Name: name, OwnerID: ownerID, Active: true, Created: now()}
	return s.nextID
}

// AddMember inserts a membership row directly.
func (s *Server) AddMember(groupID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMember(groupID, userID)
}

// MemberCount returns how many membership rows exist for a group and user.
func (s *Server) MemberCount(groupID, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[groupID][userID] {
		return 1
	}
	return 0
}

// IsActive reports a user's active flag.
func (s *Server) IsActive(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	return ok && u.Active
}

// TaskAssignee returns the assignee of a task, or 0.
func (s *Server) TaskAssignee(taskID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.AssignedTo == nil {
		return 0
	}
	return *t.AssignedTo
}

// TaskStatus returns the status of a task, or "".
func (s *Server) TaskStatus(taskID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[taskID]; ok {
		return t.Status
	}
	return ""
}

// SeedTask adds a pending task to a group.
func (s *Server) SeedTask(name string, groupID, assignedBy int64, assignedTo *int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	gid := groupID
	by := assignedBy
	s.tasks[s.nextID] = &task{
		ID: s.nextID, Name: name, Status: "PENDING",
		AssignedBy: &by, AssignedTo: assignedTo, GroupID: &gid,
		Created: now(), Modified: now(),
	}
	return s.nextID
}

func (s *Server) addUser(username, surname, password string, active bool) int64 {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("remotetest: hash password: %v", err))
	}
	s.nextID++
	s.users[s.nextID] = &user{ID: s.nextID, Username: username, Surname: surname, Hash: hash, Active: active, Created: now()}
	return s.nextID
}

func (s *Server) addMember(groupID, userID int64) {
	if s.members[groupID] == nil {
		s.members[groupID] = make(map[int64]bool)
	}
	s.members[groupID][userID] = true
}

func (s *Server) canSee(userID int64, g *group) bool {
	if s.members[g.ID][userID] {
		return true
	}
	return s.OwnerImpliesAccess && g.OwnerID == userID
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "invalid body"}}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username != req.Username {
			continue
		}
		if bcrypt.CompareHashAndPassword(u.Hash, []byte(req.Password)) != nil {
			break
		}
		if !u.Active {
			c.JSON(http.StatusForbidden, gin.H{"detail": "User is inactive"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":  gin.H{"user_id": u.ID, "username": u.Username},
			"token": "token-" + strconv.FormatInt(u.ID, 10),
		})
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gin.H, 0, len(s.users))
	for _, id := range sortedKeys(s.users) {
		out = append(out, userJSON(s.users[id]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createUser(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Surname  string `json:"surname"`
		IsActive *int   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{
			{"loc": []string{"body", "username"}, "msg": "field required"},
			{"loc": []string{"body", "password"}, "msg": "field required"},
		}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == req.Username {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Username is taken"})
			return
		}
	}
	active := req.IsActive == nil || *req.IsActive != 0
	id := s.addUser(req.Username, req.Surname, req.Password, active)
	c.JSON(http.StatusOK, userJSON(s.users[id]))
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Password != nil {
		u.Hash, _ = bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.MinCost)
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	delete(s.users, id)
	for _, m := range s.members {
		delete(m, id)
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (s *Server) toggleUser(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	u.Active = !u.Active
	c.JSON(http.StatusOK, gin.H{"message": "Status changed", "is_active": boolInt(u.Active)})
}

func (s *Server) visibleGroups(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	out := make([]gin.H, 0)
	for _, gid := range sortedKeys(s.groups) {
		g := s.groups[gid]
		if s.canSee(id, g) {
			out = append(out, groupJSON(g, SpellingMainTask))
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": u.Username, "main_tasks": out})
}

func (s *Server) listGroups(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gin.H, 0, len(s.groups))
	for _, gid := range sortedKeys(s.groups) {
		out = append(out, groupJSON(s.groups[gid], s.ListSpelling))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) legacyGroups(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gin.H, 0)
	for _, gid := range sortedKeys(s.groups) {
		g := s.groups[gid]
		if g.OwnerID == id {
			out = append(out, gin.H{"task_id": g.ID, "task_name": g.Name, "assigned_by": g.OwnerID})
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createGroup(c *gin.Context) {
	var req struct {
		Name       string `json:"mTask_name"`
		AssignedBy *int64 `json:"assigned_by"`
		IsActive   *int   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "mTask_name is required"}}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g := &group{ID: s.nextID, Name: req.Name, Active: req.IsActive == nil || *req.IsActive != 0, Created: now()}
	if req.AssignedBy != nil {
		g.OwnerID = *req.AssignedBy
	}
	s.groups[g.ID] = g
	c.JSON(http.StatusOK, gin.H{"message": "Main task created", "task_id": g.ID})
}

func (s *Server) deleteGroup(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Main task not found"})
		return
	}
	delete(s.groups, id)
	delete(s.members, id)
	for _, t := range s.tasks {
		if t.GroupID != nil && *t.GroupID == id {
			t.GroupID = nil
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Main task deleted"})
}

func (s *Server) share(c *gin.Context) {
	gid, ok := param(c, "id")
	if !ok {
		return
	}
	uid, ok := param(c, "user")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[gid]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Main task not found"})
		return
	}
	if _, ok := s.users[uid]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	if s.members[gid][uid] {
		c.JSON(http.StatusConflict, gin.H{"detail": "User already has access to this main task"})
		return
	}
	s.addMember(gid, uid)
	c.JSON(http.StatusOK, gin.H{"message": "Main task shared"})
}

func (s *Server) groupMembers(c *gin.Context) {
	if !s.MembersEndpoint {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	gid, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[gid]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Main task not found"})
		return
	}
	out := make([]gin.H, 0)
	for _, uid := range sortedKeys(s.users) {
		if s.canSee(uid, g) {
			out = append(out, userJSON(s.users[uid]))
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listTasks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gin.H, 0, len(s.tasks))
	for _, id := range sortedKeys(s.tasks) {
		out = append(out, taskJSON(s.tasks[id]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getTask(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, taskJSON(t))
}

func (s *Server) createTask(c *gin.Context) {
	var req struct {
		Name        string `json:"task_name"`
		AssignedBy  *int64 `json:"assigned_by"`
		AssignedTo  *int64 `json:"assigned_to"`
		TaskGroupID *int64 `json:"task_group_id"`
		Status      string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.TaskGroupID == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "task_name and task_group_id are required"}}})
		return
	}
	status := strings.ToUpper(req.Status)
	if status == "" {
		status = "PENDING"
	}
	if !validStatus(status) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "invalid status"}}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[*req.TaskGroupID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Main task not found"})
		return
	}
	s.nextID++
	t := &task{
		ID: s.nextID, Name: req.Name, Status: status,
		AssignedBy: req.AssignedBy, AssignedTo: req.AssignedTo, GroupID: req.TaskGroupID,
		Created: now(), Modified: now(),
	}
	s.tasks[t.ID] = t
	c.JSON(http.StatusOK, taskJSON(t))
}

func (s *Server) updateTask(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"task_name"`
		Status      *string `json:"status"`
		AssignedTo  *int64  `json:"assigned_to"`
		TaskGroupID *int64  `json:"task_group_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid body"})
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "invalid status"}}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		return
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.AssignedTo != nil {
		t.AssignedTo = req.AssignedTo
	}
	if req.TaskGroupID != nil {
		t.GroupID = req.TaskGroupID
	}
	t.Modified = now()
	c.JSON(http.StatusOK, gin.H{"message": "Task updated"})
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		return
	}
	delete(s.tasks, id)
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func userJSON(u *user) gin.H {
	h := gin.H{
		"user_id":       u.ID,
		"username":      u.Username,
		"is_active":     boolInt(u.Active),
		"creation_date": u.Created.Format("2006-01-02T15:04:05"),
	}
	if u.Surname != "" {
		h["surname"] = u.Surname
	}
	return h
}

func groupJSON(g *group, spelling Spelling) gin.H {
	h := gin.H{
		"assigned_by":   g.OwnerID,
		"is_active":     boolInt(g.Active),
		"creation_date": g.Created.Format("2006-01-02T15:04:05"),
	}
	switch spelling {
	case SpellingMainTask:
		h["main_task_id"] = g.ID
		h["main_task_name"] = g.Name
	default:
		h["mTask_id"] = g.ID
		h["mTask_name"] = g.Name
	}
	return h
}

func taskJSON(t *task) gin.H {
	return gin.H{
		"task_id":           t.ID,
		"task_name":         t.Name,
		"status":            t.Status,
		"assigned_by":       t.AssignedBy,
		"assigned_to":       t.AssignedTo,
		"task_group_id":     t.GroupID,
		"creation_date":     t.Created.Format("2006-01-02 15:04:05"),
		"modification_date": t.Modified.Format("2006-01-02 15:04:05"),
	}
}

func param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid " + name})
		return 0, false
	}
	return id, true
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func validStatus(s string) bool {
	switch s {
	case "PENDING", "DONE", "REJECTED":
		return true
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func now() time.Time { return time.Now().UTC().Truncate(time.Second) }
