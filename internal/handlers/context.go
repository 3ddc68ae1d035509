package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jinsuh/supplyhub/internal/middleware"
	"github.com/jinsuh/supplyhub/internal/models"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUser pulls the authenticated identity out of the gin context.
func currentUser(c *gin.Context) (id, name string, role models.Role) {
	id = c.GetString(middleware.CtxUserIDKey)
	name = c.GetString(middleware.CtxUserNameKey)
	role = models.ParseRole(c.GetString(middleware.CtxUserRoleKey))
	return id, name, role
}
