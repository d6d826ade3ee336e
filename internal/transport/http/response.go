package httptransport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// fail writes the flat error shape the frontend expects.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// tooManyRequests writes a 429 with the window reset hint.
func tooManyRequests(c *gin.Context, message string, retryAfterSeconds int) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	fail(c, http.StatusTooManyRequests, message)
}
