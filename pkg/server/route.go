package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIHandler 定义API处理器接口
type APIHandler interface {
	SetToken(c *gin.Context)
	ClearToken(c *gin.Context)
	GetAlbums(c *gin.Context)
	GetSites(c *gin.Context)
	SelectSite(c *gin.Context)
	GetCollections(c *gin.Context)
	GetCollectionItems(c *gin.Context)
	GetMappings(c *gin.Context)
	AddMapping(c *gin.Context)
	UpdateMapping(c *gin.Context)
	DeleteMapping(c *gin.Context)
	UpdateSchedule(c *gin.Context)
	TriggerSync(c *gin.Context)
	GetLogs(c *gin.Context)
	GetArchivedLogs(c *gin.Context)
	GetStatus(c *gin.Context)
}

// InitRouter 初始化路由配置
func InitRouter(engine *gin.Engine, handler APIHandler) *gin.RouterGroup {
	// API路由组
	apiGroup := engine.Group("/api/v1")
	if handler != nil {
		sync := apiGroup.Group("/albumsync")
		{
			sync.POST("/token", handler.SetToken)
			sync.DELETE("/token", handler.ClearToken)
			sync.GET("/albums", handler.GetAlbums)
			sync.GET("/sites", handler.GetSites)
			sync.PUT("/site", handler.SelectSite)
			sync.GET("/collections", handler.GetCollections)
			sync.GET("/collections/:collectionId/items", handler.GetCollectionItems)
			sync.GET("/mappings", handler.GetMappings)
			sync.POST("/mappings", handler.AddMapping)
			sync.PATCH("/mappings/:id", handler.UpdateMapping)
			sync.DELETE("/mappings/:id", handler.DeleteMapping)
			sync.PUT("/schedule", handler.UpdateSchedule)
			sync.POST("/sync", handler.TriggerSync)
			sync.GET("/logs", handler.GetLogs)
			sync.GET("/logs/archive", handler.GetArchivedLogs)
			sync.GET("/status", handler.GetStatus)
			zap.S().Info("路由注册成功: /api/v1/albumsync")
		}
	} else {
		zap.S().Warn("Handler为nil，路由未注册")
	}

	return apiGroup
}
