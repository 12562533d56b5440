// internal/utils/identity.go
package utils

import "github.com/gin-gonic/gin"

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	Subject string `json:"id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
}

const identityKey = "identity"

func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
	c.Set("user_id", identity.Subject)
	c.Set("user_role", identity.Role)
}

func GetIdentityFromContext(c *gin.Context) (Identity, bool) {
	if value, exists := c.Get(identityKey); exists {
		if identity, ok := value.(Identity); ok && identity.Subject != "" {
			return identity, true
		}
	}
	return Identity{}, false
}
