// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthTokenExpired  = "auth.token_expired"
	KeyAuthLoginSuccess  = "auth.login_success"
	KeyAuthLogoutSuccess = "auth.logout_success"
	KeyAdminAccessDenied = "admin.access_denied"
	KeyOrderAccessDenied = "order.access_denied"

	// Products
	KeyProductCreated     = "product.created"
	KeyProductUpdated     = "product.updated"
	KeyProductSoftDeleted = "product.soft_deleted"
	KeyProductRestored    = "product.restored"
	KeyProductNotFound    = "product.not_found"

	// Orders
	KeyOrderCreated  = "order.created"
	KeyOrderNotFound = "order.not_found"

	// Users
	KeyUserNotFound = "user.not_found"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationBody    = "validation.body"

	// System
	KeySystemError       = "system.error"
	KeySystemUnavailable = "system.unavailable"
	KeyRateLimited       = "system.rate_limited"
	KeyRouteNotFound     = "system.route_not_found"
)
