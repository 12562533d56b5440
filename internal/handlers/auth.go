// internal/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storefront/catalog-api/internal/i18n"
	"github.com/storefront/catalog-api/internal/middleware"
	"github.com/storefront/catalog-api/internal/services"
	"github.com/storefront/catalog-api/internal/utils"
)

// AuthHandler exchanges identity-provider tokens for a session cookie.
type AuthHandler struct {
	auth        *middleware.Authenticator
	userService *services.UserService
}

func NewAuthHandler(auth *middleware.Authenticator, userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		userService: userService,
	}
}

// POST /auth/session
func (h *AuthHandler) CreateSession(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	identity, err := h.auth.VerifyToken(c.GetHeader("Authorization"))
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
			return
		}
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		return
	}

	user, err := h.userService.Sync(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	if identity.Name == "" {
		identity.Name = user.Name
	}
	if identity.Email == "" {
		identity.Email = user.Email
	}

	if err := h.auth.Sessions().Save(c, identity); err != nil {
		entry(c).WithError(err).Error("Failed to save session")
		utils.InternalErrorResponse(c)
		return
	}

	entry(c).WithField("user_id", identity.Subject).Info("Session created")
	c.JSON(http.StatusOK, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"user":    identity,
	})
}

// DELETE /auth/session
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	if err := h.auth.Sessions().Clear(c); err != nil {
		entry(c).WithError(err).Warn("Failed to clear session")
	}

	utils.MessageOnlyResponse(c, i18n.KeyAuthLogoutSuccess)
}

// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"user": identity})
}
