package controllers

import "github.com/gin-gonic/gin"

// userIDFromCtx reads the id the auth middleware stored on the context.
func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case uint:
		return id, true
	case int:
		return uint(id), true
	case float64:
		return uint(id), true
	default:
		return 0, false
	}
}
