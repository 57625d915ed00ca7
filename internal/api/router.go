package api

import (
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/gin-gonic/gin"

	"storysketch/internal/agent"
)

// NewRouter 注册全部路由
func NewRouter(storyAgent *agent.StoryAgent, planTool, editTool einotool.InvokableTool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", handleHealth)

	g := router.Group("/agent/story-sketch")
	g.POST("", handleSubmit(storyAgent))
	g.GET("/info", handleAgentInfo(storyAgent))
	g.GET("/sessions/:id", handleSessionState(storyAgent))
	g.POST("/sessions/:id/reset", handleSessionReset(storyAgent))
	g.GET("/sessions/:id/events", handleSessionEvents(storyAgent))

	router.POST("/tools/story-plan", handleToolRun(planTool))
	router.POST("/tools/image-edit", handleToolRun(editTool))

	return router
}
