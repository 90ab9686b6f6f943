package routes

import (
	"github.com/gin-gonic/gin"

	"feedback-service-server/middleware"
	ws "feedback-service-server/websocket"
)

// RegisterWebSocketRoutes registers the admin live submission feed
func RegisterWebSocketRoutes(router *gin.RouterGroup, deps Dependencies) {
	if deps.Hub == nil {
		return
	}

	handlers := []gin.HandlerFunc{}
	if deps.AdminRequired {
		handlers = append(handlers, middleware.WebSocketAuthMiddleware(deps.Auth), middleware.RequireAdmin())
	}
	handlers = append(handlers, func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)
		ws.ServeWebSocket(deps.Hub, c.Writer, c.Request, principal)
	})
	router.GET("/submissions", handlers...)
}
