package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	sessionCookieName = "session_id"
	userCookieName    = "user"
)

const (
	contextKeyUserID  = "user_id"
	contextKeySession = "session"
)

// UserIDFromContext returns the current user ID set by RequireSession. 0 if not set.
func UserIDFromContext(c *gin.Context) int64 {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return 0
	}
	id, ok := v.(int64)
	if !ok {
		return 0
	}
	return id
}

// CurrentSession returns the session loaded by RequireSession.
func CurrentSession(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextKeySession)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}

// RequireSession returns a middleware that loads the session named by the
// cookie from the store on every request and sets the current user in
// context. Sessions close to expiry are extended and their cookies reissued.
// If missing or invalid, responds with 401.
func RequireSession(sessions *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "auth.RequireSession"
		sessionID, err := c.Cookie(sessionCookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		sess, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				logrus.WithField("operation", op).WithError(err).Error("session lookup failed")
			}
			sessions.ClearCookies(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		extended, err := sessions.Touch(c.Request.Context(), &sess)
		if err != nil {
			logrus.WithField("operation", op).WithError(err).Warn("session refresh failed")
		} else if extended {
			sessions.SetCookies(c, sess)
		}
		c.Set(contextKeyUserID, sess.UserID)
		c.Set(contextKeySession, sess)
		c.Next()
	}
}

type userCookie struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// SetCookies issues the httpOnly session cookie and the readable user cookie.
func (s *Store) SetCookies(c *gin.Context, sess Session) {
	maxAge := int(s.TTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, sess.ID, maxAge, "/", "", s.secure, true)
	b, _ := json.Marshal(userCookie{UserID: sess.UserID, Username: sess.Username})
	c.SetCookie(userCookieName, string(b), maxAge, "/", "", s.secure, false)
}

// ClearCookies expires both cookies together.
func (s *Store) ClearCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", s.secure, true)
	c.SetCookie(userCookieName, "", -1, "/", "", s.secure, false)
}

// SessionID returns the raw session cookie value, if any.
func SessionID(c *gin.Context) string {
	id, _ := c.Cookie(sessionCookieName)
	return id
}
