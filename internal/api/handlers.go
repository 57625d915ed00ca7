package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storysketch/internal/agent"
	"storysketch/internal/model"
	"storysketch/internal/service"
)

// SubmitRequest 提交故事创意
type SubmitRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// handleSubmit 处理故事提交请求，立即返回，生成过程在后台进行
func handleSubmit(storyAgent *agent.StoryAgent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
			return
		}

		sessionID, state, err := storyAgent.Execute(req.SessionID, req.Prompt)
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"session_id": sessionID,
				"error":      verr.Message(),
				"state":      state.Compact(),
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("执行agent失败: %v", err)})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"session_id": sessionID,
			"state":      state.Compact(),
		})
	}
}

// handleAgentInfo 处理agent信息请求
func handleAgentInfo(storyAgent *agent.StoryAgent) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, storyAgent.Info())
	}
}

// handleSessionState 查询会话状态，full=true 时包含每一步的图片
func handleSessionState(storyAgent *agent.StoryAgent) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ok := storyAgent.State(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
			return
		}
		if c.Query("full") != "true" {
			state = state.Compact()
		}
		c.JSON(http.StatusOK, state)
	}
}

// handleSessionReset 重置会话
func handleSessionReset(storyAgent *agent.StoryAgent) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !storyAgent.Reset(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
			return
		}
		state, _ := storyAgent.State(id)
		c.JSON(http.StatusOK, state)
	}
}

// handleSessionEvents 以 SSE 推送会话状态变化，客户端断开时结束
func handleSessionEvents(storyAgent *agent.StoryAgent) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		o, ok := storyAgent.Session(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
			return
		}

		updates, unsubscribe := o.Subscribe()
		defer unsubscribe()
		logrus.WithField("session_id", id).Debug("事件订阅开始")

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Stream(func(w io.Writer) bool {
			select {
			case snap, ok := <-updates:
				if !ok {
					return false
				}
				c.SSEvent("state", snap.Compact())
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

// handleToolRun 直接调用工具，请求体即工具参数
func handleToolRun(tool einotool.InvokableTool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil || len(body) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
			return
		}

		result, err := tool.InvokableRun(c.Request.Context(), string(body))
		if err != nil {
			status := http.StatusInternalServerError
			if model.IsRateLimited(err) {
				status = http.StatusTooManyRequests
			}
			c.JSON(status, gin.H{"error": fmt.Sprintf("工具调用失败: %v", err)})
			return
		}

		c.Data(http.StatusOK, "application/json", []byte(result))
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
