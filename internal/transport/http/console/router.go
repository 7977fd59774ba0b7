package consolehttp

import (
	"net/http"
	"strconv"
	"strings"

	"kryreport/internal/agent"
	"kryreport/internal/report"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// AgentController 是 console 对 agent 的全部依赖，*agent.Agent 即为实现。
type AgentController interface {
	Start() bool
	Stop() bool
	Status() agent.Status
}

type Router struct {
	agent AgentController
	feed  *Feed
}

func NewRouter(a AgentController, feed *Feed) *Router {
	return &Router{agent: a, feed: feed}
}

// Register 将 /api/agent 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/status", r.handleStatus)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.GET("/report", r.handleReport)
	group.GET("/events", r.handleEvents)
	group.GET("/logs", r.handleLogs)
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.agent.Status())
}

func (r *Router) handleStart(c *gin.Context) {
	changed := r.agent.Start()
	c.JSON(http.StatusOK, gin.H{"changed": changed, "state": r.agent.Status().State})
}

func (r *Router) handleStop(c *gin.Context) {
	changed := r.agent.Stop()
	c.JSON(http.StatusOK, gin.H{"changed": changed, "state": r.agent.Status().State})
}

type reportResponse struct {
	Updates int64         `json:"updates" yaml:"updates"`
	Report  report.Report `json:"report" yaml:"report"`
}

func (r *Router) handleReport(c *gin.Context) {
	rep, updates, ok := r.feed.Report()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "暂无报告"})
		return
	}
	resp := reportResponse{Updates: updates, Report: rep}
	if strings.EqualFold(strings.TrimSpace(c.Query("format")), "yaml") {
		out, err := yaml.Marshal(resp)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handleEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": r.feed.Events(parseLimit(c))})
}

func (r *Router) handleLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": r.feed.Logs(parseLimit(c))})
}

func parseLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 {
		limit = 50
	}
	return limit
}
