package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the table API on r. owner runs before every route
// that changes a table.
func RegisterRoutes(r gin.IRouter, tables *TableHandler, ws *WebSocketHandler, owner ...gin.HandlerFunc) {
	r.GET("/presets", tables.ListPresets)

	r.POST("/tables", tables.CreateTable)
	r.GET("/tables/:id", tables.GetTable)
	r.GET("/tables/:id/rolls", tables.GetRolls)
	if ws != nil {
		r.GET("/tables/:id/ws", ws.HandleWebSocket)
	}

	owned := r.Group("/tables/:id")
	owned.Use(owner...)
	{
		owned.POST("/roll", tables.Roll)
		owned.POST("/undo", tables.Undo)
		owned.POST("/redo", tables.Redo)
		owned.POST("/commands", tables.Command)
		owned.DELETE("", tables.DeleteTable)
	}
}
