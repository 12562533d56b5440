// internal/middleware/auth.go
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/storefront/catalog-api/internal/i18n"
	"github.com/storefront/catalog-api/internal/models"
	"github.com/storefront/catalog-api/internal/utils"
)

var errNoCredentials = errors.New("no credentials")

// Authenticator resolves the caller from a bearer identity token or, failing
// that, from the session cookie.
type Authenticator struct {
	verifier *utils.TokenVerifier
	sessions *SessionManager
	admins   map[string]struct{}
}

func NewAuthenticator(verifier *utils.TokenVerifier, sessions *SessionManager, adminSubjects []string) *Authenticator {
	admins := make(map[string]struct{}, len(adminSubjects))
	for _, subject := range adminSubjects {
		admins[subject] = struct{}{}
	}
	return &Authenticator{verifier: verifier, sessions: sessions, admins: admins}
}

func (a *Authenticator) Sessions() *SessionManager {
	return a.sessions
}

// VerifyToken checks a raw identity token and applies the local admin list.
func (a *Authenticator) VerifyToken(token string) (utils.Identity, error) {
	identity, err := a.verifier.Verify(token)
	if err != nil {
		return utils.Identity{}, err
	}
	return a.withRole(identity), nil
}

func (a *Authenticator) identify(c *gin.Context) (utils.Identity, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return utils.Identity{}, utils.ErrTokenInvalid
		}
		return a.VerifyToken(parts[1])
	}

	if identity, ok := a.sessions.Load(c.Request); ok {
		return a.withRole(identity), nil
	}
	return utils.Identity{}, errNoCredentials
}

func (a *Authenticator) withRole(identity utils.Identity) utils.Identity {
	if _, ok := a.admins[identity.Subject]; ok {
		identity.Role = string(models.UserRoleAdmin)
	}
	if identity.Role == "" {
		identity.Role = string(models.UserRoleCustomer)
	}
	return identity
}

func (a *Authenticator) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// authenticate sets the caller on the context, or aborts with 401.
func (a *Authenticator) authenticate(c *gin.Context) bool {
	lang := utils.GetLangFromContext(c)

	identity, err := a.identify(c)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrTokenExpired):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
		case errors.Is(err, utils.ErrTokenInvalid):
			logrus.WithField("ip", c.ClientIP()).Debug("Rejected identity token")
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		default:
			utils.UnauthorizedResponse(c, "")
		}
		return false
	}

	utils.SetIdentity(c, identity)
	return true
}

// OptionalAuth attaches the caller when credentials are valid and carries on
// anonymously otherwise.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := a.identify(c); err == nil {
			utils.SetIdentity(c, identity)
		}
		c.Next()
	}
}

// AdminRequired gates catalog administration. With enforce off it lets every
// request through.
func (a *Authenticator) AdminRequired(enforce bool) gin.HandlerFunc {
	if !enforce {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}

		role, _ := utils.GetUserRoleFromContext(c)
		if role != string(models.UserRoleAdmin) {
			utils.ForbiddenResponse(c, "")
			return
		}
		c.Next()
	}
}
