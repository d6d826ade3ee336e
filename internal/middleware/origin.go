package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const msgInvalidOrigin = "Nevažeći izvor zahtjeva."

// OriginGuard rejects cross-origin mutations on browser-facing endpoints.
// Two independent checks, both header-based:
//
//   - when an Origin header is present, its host must equal the host the
//     request arrived at (X-Forwarded-Host wins over Host behind a proxy);
//   - when a Sec-Fetch-Site header is present, it must be same-origin,
//     same-site, or none.
//
// A request missing a header passes that check; non-browser clients send
// neither and are not the audience of this guard.
func OriginGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sameOrigin(c) || !sameSiteFetch(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": msgInvalidOrigin})
			c.Abort()
			return
		}
		c.Next()
	}
}

func sameOrigin(c *gin.Context) bool {
	origin := c.GetHeader("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	originHost := strings.ToLower(parsed.Host)

	host := normalizeHost(c.GetHeader("X-Forwarded-Host"))
	if host == "" {
		host = normalizeHost(c.Request.Host)
	}
	if host == "" {
		return false
	}

	return originHost == host
}

func sameSiteFetch(c *gin.Context) bool {
	fetchSite := c.GetHeader("Sec-Fetch-Site")
	if fetchSite == "" {
		return true
	}
	return fetchSite == "same-origin" || fetchSite == "same-site" || fetchSite == "none"
}

func normalizeHost(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
