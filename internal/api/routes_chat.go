package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jinsuh/supplyhub/internal/handlers"
)

func registerChatRoutes(api *gin.RouterGroup, handler *handlers.ChatHandler) {
	rooms := api.Group("/chat/rooms")
	{
		rooms.GET("", handler.ListRooms)
		rooms.POST("", handler.CreateRoom)
		rooms.GET("/:id/messages", handler.History)
		rooms.POST("/:id/join", handler.Join)
		rooms.POST("/:id/leave", handler.Leave)
		rooms.GET("/:id/stream", handler.Stream)
	}
}
