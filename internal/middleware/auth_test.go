package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/i18n"
	"github.com/storefront/catalog-api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := i18n.Initialize(); err != nil {
		panic(err)
	}
}

var testAuthConfig = config.AuthConfig{
	IdentitySecret: "identity-secret",
	SessionSecret:  "session-secret",
	SessionCookie:  "test_session",
	SessionMaxAge:  3600,
	AdminSubjects:  []string{"auth0|admin"},
}

func newTestAuthenticator() (*Authenticator, *utils.TokenVerifier) {
	verifier := utils.NewTokenVerifier(testAuthConfig.IdentitySecret, "", "")
	return NewAuthenticator(verifier, NewSessionManager(testAuthConfig), testAuthConfig.AdminSubjects), verifier
}

func newAuthRouter(auth *Authenticator, protectAdmin bool) *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	whoami := func(c *gin.Context) {
		identity, ok := utils.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"id": ""})
			return
		}
		c.JSON(http.StatusOK, identity)
	}
	r.GET("/private", auth.AuthRequired(), whoami)
	r.GET("/optional", auth.OptionalAuth(), whoami)
	r.GET("/admin", auth.AdminRequired(protectAdmin), whoami)
	r.POST("/login", func(c *gin.Context) {
		identity, err := auth.VerifyToken(c.GetHeader("Authorization"))
		if err != nil {
			utils.UnauthorizedResponse(c, "")
			return
		}
		if err := auth.Sessions().Save(c, identity); err != nil {
			utils.InternalErrorResponse(c)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		_ = auth.Sessions().Clear(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func perform(r http.Handler, method, path string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return performRequest(r, httptest.NewRequest(method, path, nil), header, cookies...)
}

func performBody(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return performRequest(r, req, nil)
}

func performRequest(r http.Handler, req *http.Request, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, verifier *utils.TokenVerifier, identity utils.Identity) http.Header {
	token, err := verifier.Issue(identity, time.Hour)
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestAuthRequiredWithBearerToken(t *testing.T) {
	auth, verifier := newTestAuthenticator()
	r := newAuthRouter(auth, false)

	w := perform(r, http.MethodGet, "/private", bearer(t, verifier, utils.Identity{Subject: "auth0|1", Name: "Ada"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"auth0|1"`)
	assert.Contains(t, w.Body.String(), `"role":"customer"`)
}

func TestAuthRequiredRejects(t *testing.T) {
	auth, verifier := newTestAuthenticator()
	r := newAuthRouter(auth, false)

	w := perform(r, http.MethodGet, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
	assert.Contains(t, w.Body.String(), "Authentication required")

	w = perform(r, http.MethodGet, "/private", http.Header{"Authorization": {"Basic abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or malformed identity token")

	expired, err := verifier.Issue(utils.Identity{Subject: "auth0|1"}, -time.Minute)
	require.NoError(t, err)
	w = perform(r, http.MethodGet, "/private", http.Header{"Authorization": {"Bearer " + expired}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Identity token has expired")
}

func TestSessionCookieRoundTrip(t *testing.T) {
	auth, verifier := newTestAuthenticator()
	r := newAuthRouter(auth, false)

	w := perform(r, http.MethodPost, "/login", bearer(t, verifier, utils.Identity{Subject: "auth0|7", Email: "g@example.com"}))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	w = perform(r, http.MethodGet, "/private", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"auth0|7"`)
	assert.Contains(t, w.Body.String(), `"email":"g@example.com"`)

	w = perform(r, http.MethodPost, "/logout", nil, cookies...)
	require.Equal(t, http.StatusNoContent, w.Code)
	cleared := w.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestTamperedSessionCookieIsIgnored(t *testing.T) {
	auth, _ := newTestAuthenticator()
	r := newAuthRouter(auth, false)

	w := perform(r, http.MethodGet, "/private", nil, &http.Cookie{Name: "test_session", Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	auth, verifier := newTestAuthenticator()
	r := newAuthRouter(auth, false)

	w := perform(r, http.MethodGet, "/optional", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)

	w = perform(r, http.MethodGet, "/optional", http.Header{"Authorization": {"Bearer junk"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)

	w = perform(r, http.MethodGet, "/optional", bearer(t, verifier, utils.Identity{Subject: "auth0|3"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"auth0|3"`)
}

func TestAdminRequired(t *testing.T) {
	auth, verifier := newTestAuthenticator()

	open := newAuthRouter(auth, false)
	assert.Equal(t, http.StatusOK, perform(open, http.MethodGet, "/admin", nil).Code)

	guarded := newAuthRouter(auth, true)
	assert.Equal(t, http.StatusUnauthorized, perform(guarded, http.MethodGet, "/admin", nil).Code)

	w := perform(guarded, http.MethodGet, "/admin", bearer(t, verifier, utils.Identity{Subject: "auth0|1"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)

	w = perform(guarded, http.MethodGet, "/admin", bearer(t, verifier, utils.Identity{Subject: "auth0|admin"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = perform(guarded, http.MethodGet, "/admin", bearer(t, verifier, utils.Identity{Subject: "auth0|9", Role: "admin"}))
	assert.Equal(t, http.StatusOK, w.Code)
}
