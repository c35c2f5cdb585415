/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供服务健康状态检查
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求处理流程
 * @rules 存活检查总是成功；就绪检查在任一槽位最近一次持久化失败时返回 503
 * @dependencies net/http, github.com/go-chi/render
 * @refs service/app.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// ReadinessCheck 就绪检查项，返回最近一次错误
type ReadinessCheck func() error

// HealthController 健康检查控制器
type HealthController struct {
	service string
	version string
	checks  map[string]ReadinessCheck
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController(service, version string, checks map[string]ReadinessCheck) *HealthController {
	return &HealthController{service: service, version: version, checks: checks}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string            `json:"status" example:"ok"`
	Timestamp time.Time         `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string            `json:"version" example:"1.0.0"`
	Service   string            `json:"service" example:"idcops-service"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   c.version,
		Service:   c.service,
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查各实体槽位最近一次持久化是否成功
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	failures := map[string]string{}
	for name, check := range c.checks {
		if err := check(); err != nil {
			failures[name] = err.Error()
		}
	}

	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   c.version,
		Service:   c.service,
	}
	if len(failures) > 0 {
		response.Status = "degraded"
		response.Failures = failures
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response)
}
