// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/storefront/catalog-api/internal/i18n"
	"github.com/storefront/catalog-api/internal/services"
	"github.com/storefront/catalog-api/internal/utils"
)

// respondError maps a service error onto the HTTP error envelope. resource
// names the i18n prefix used for 404 messages.
func respondError(c *gin.Context, err error, resource string) {
	var validationErr *services.ValidationError
	var storeErr *services.StoreError

	switch {
	case errors.As(err, &validationErr):
		if len(validationErr.Fields) > 0 {
			utils.ValidationErrorResponse(c, validationErr.Fields)
			return
		}
		utils.BadRequestResponse(c, validationErr.Message, nil)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c, "")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyOrderAccessDenied))
	case errors.As(err, &storeErr):
		entry(c).WithError(storeErr.Err).WithField("op", storeErr.Op).Error("Store operation failed")
		utils.InternalErrorResponse(c)
	default:
		entry(c).WithError(err).Error("Unhandled error")
		utils.InternalErrorResponse(c)
	}
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationBody), err.Error())
		return false
	}
	return true
}

func entry(c *gin.Context) *logrus.Entry {
	requestID, _ := c.Get("request_id")
	return logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"route":      c.FullPath(),
	})
}
