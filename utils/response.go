package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONError sends the standard {"error": message} body. The message is what
// the client may show inline; internals stay in the server log.
func JSONError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
