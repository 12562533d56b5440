// internal/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/utils"
)

const (
	sessionSubject = "sub"
	sessionName    = "name"
	sessionEmail   = "email"
	sessionRole    = "role"
)

// SessionManager keeps the signed-in identity in a signed cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
}

func NewSessionManager(cfg config.AuthConfig) *SessionManager {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store, name: cfg.SessionCookie}
}

// Load returns the identity stored in the request's session cookie, if any.
// Tampered or expired cookies are treated as absent.
func (m *SessionManager) Load(r *http.Request) (utils.Identity, bool) {
	session, err := m.store.Get(r, m.name)
	if err != nil || session.IsNew {
		return utils.Identity{}, false
	}

	subject, _ := session.Values[sessionSubject].(string)
	if subject == "" {
		return utils.Identity{}, false
	}
	name, _ := session.Values[sessionName].(string)
	email, _ := session.Values[sessionEmail].(string)
	role, _ := session.Values[sessionRole].(string)

	return utils.Identity{Subject: subject, Name: name, Email: email, Role: role}, true
}

func (m *SessionManager) Save(c *gin.Context, identity utils.Identity) error {
	// A stale or forged cookie yields a fresh session alongside the error
	session, _ := m.store.Get(c.Request, m.name)
	session.Values[sessionSubject] = identity.Subject
	session.Values[sessionName] = identity.Name
	session.Values[sessionEmail] = identity.Email
	session.Values[sessionRole] = identity.Role
	return session.Save(c.Request, c.Writer)
}

func (m *SessionManager) Clear(c *gin.Context) error {
	session, _ := m.store.Get(c.Request, m.name)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(c.Request, c.Writer)
}
