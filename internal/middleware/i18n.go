// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront/catalog-api/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// resolveLanguage picks the first supported tag of an Accept-Language header
// such as "zh-TW,zh;q=0.9,en;q=0.8".
func resolveLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])

		// Convert common language codes
		switch tag {
		case "zh-TW", "zh-Hant", "zh_TW", "zh-HK":
			tag = "zh_TW"
		case "en-US", "en-GB":
			tag = "en"
		}

		if tag != "" && i18n.IsSupported(tag) {
			return tag
		}
	}
	return i18n.DefaultLang
}
