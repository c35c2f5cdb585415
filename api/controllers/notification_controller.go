/*
 * @module api/controllers/notification_controller
 * @description 通知控制器，提供提交、确认、已读与远程同步接口
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> notification.Service(远程优先，本地兜底) -> 统一响应
 * @rules 远程服务失败不影响本地结果，最近一次远程错误随未读数一起返回
 * @dependencies service/notification, github.com/go-chi/render
 * @refs api/routes.go, client/notification_client.go
 */

package controllers

import (
	"net/http"
	"time"

	"idcops-service/service/notification"

	"github.com/go-chi/render"
)

// NotificationController 通知控制器
type NotificationController struct {
	notifications *notification.Service
}

// NewNotificationController 创建通知控制器
func NewNotificationController(notifications *notification.Service) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// SubmitRequest 提交消息请求
type SubmitRequest struct {
	Message string `json:"message" example:"机房空调巡检"`
}

// UnreadResponse 未读统计
type UnreadResponse struct {
	Unread      int    `json:"unread"`
	RemoteError string `json:"remoteError,omitempty"`
}

// List 通知列表
// @Summary 通知列表
// @Tags 通知管理
// @Param keyword query string false "关键字"
// @Param type query string false "类型"
// @Param publisher query string false "发布人"
// @Param unreadOnly query bool false "仅未读"
// @Success 200 {object} PaginatedResponse{data=[]models.Notification}
// @Router /notifications [get]
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := notification.Filter{
		Keyword:    q.Get("keyword"),
		Type:       q.Get("type"),
		Publisher:  q.Get("publisher"),
		UnreadOnly: queryBool(r, "unreadOnly"),
	}
	page, size := pageParams(r)
	renderPage(w, r, "获取通知列表成功", c.notifications.Filter(f), page, size)
}

// Get 通知详情
// @Summary 通知详情
// @Tags 通知管理
// @Param id path int true "通知ID"
// @Success 200 {object} APIResponse{data=models.Notification}
// @Router /notifications/{id} [get]
func (c *NotificationController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的通知ID", err)
		return
	}
	n, ok := c.notifications.Get(id)
	if !ok {
		renderNotFound(w, r, "通知不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("获取通知成功", n))
}

// Submit 提交一条消息
// @Summary 提交消息
// @Tags 通知管理
// @Accept json
// @Param request body SubmitRequest true "消息内容"
// @Success 201 {object} APIResponse{data=models.Notification}
// @Router /notifications/submit [post]
func (c *NotificationController) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	n, err := c.notifications.Submit(r.Context(), req.Message)
	if err != nil {
		renderError(w, r, "提交通知失败", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("提交通知成功", n))
}

// Create 本地创建通知
// @Summary 创建通知
// @Tags 通知管理
// @Accept json
// @Success 201 {object} APIResponse{data=models.Notification}
// @Router /notifications [post]
func (c *NotificationController) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := readObject(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	n := c.notifications.Create(r.Context(), notification.Normalize(raw, 0, time.Now()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("创建通知成功", n))
}

// Update 更新通知
// @Summary 更新通知
// @Tags 通知管理
// @Param id path int true "通知ID"
// @Success 200 {object} APIResponse{data=models.Notification}
// @Router /notifications/{id} [put]
func (c *NotificationController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的通知ID", err)
		return
	}
	partial, err := readPartial(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	n, ok := c.notifications.Update(r.Context(), id, partial)
	if !ok {
		renderNotFound(w, r, "通知不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("更新通知成功", n))
}

// Delete 删除通知
// @Summary 删除通知
// @Tags 通知管理
// @Param id path int true "通知ID"
// @Success 200 {object} APIResponse
// @Router /notifications/{id} [delete]
func (c *NotificationController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的通知ID", err)
		return
	}
	if !c.notifications.Remove(r.Context(), id) {
		renderNotFound(w, r, "通知不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("删除通知成功", nil))
}

// Confirm 确认通知
// @Summary 确认通知
// @Tags 通知管理
// @Param id path int true "通知ID"
// @Success 200 {object} APIResponse{data=models.Notification}
// @Failure 404 {object} APIResponse
// @Router /notifications/{id}/confirm [post]
func (c *NotificationController) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的通知ID", err)
		return
	}
	n, err := c.notifications.Confirm(r.Context(), id)
	if err != nil {
		renderError(w, r, "确认通知失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("确认通知成功", n))
}

// ReadAll 全部标记已读
// @Summary 全部标记已读
// @Tags 通知管理
// @Success 200 {object} APIResponse
// @Router /notifications/read-all [post]
func (c *NotificationController) ReadAll(w http.ResponseWriter, r *http.Request) {
	changed := c.notifications.MarkAllRead(r.Context())
	render.JSON(w, r, SuccessResponse("已全部标记为已读", map[string]int{"changed": changed}))
}

// UnreadCount 未读数量
// @Summary 未读数量
// @Tags 通知管理
// @Success 200 {object} APIResponse{data=UnreadResponse}
// @Router /notifications/unread-count [get]
func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	resp := UnreadResponse{Unread: c.notifications.UnreadCount()}
	if err := c.notifications.RemoteError(); err != nil {
		resp.RemoteError = err.Error()
	}
	render.JSON(w, r, SuccessResponse("获取未读数量成功", resp))
}

// Stats 确认统计
// @Summary 确认统计
// @Tags 通知管理
// @Success 200 {object} APIResponse{data=[]models.NotificationStat}
// @Router /notifications/stats [get]
func (c *NotificationController) Stats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取确认统计成功", c.notifications.Stats()))
}

// Sync 从远程服务同步
// @Summary 同步远程通知
// @Tags 通知管理
// @Success 200 {object} APIResponse
// @Failure 503 {object} APIResponse "未配置远程服务"
// @Router /notifications/sync [post]
func (c *NotificationController) Sync(w http.ResponseWriter, r *http.Request) {
	count, err := c.notifications.Sync(r.Context())
	if err != nil {
		renderError(w, r, "同步通知失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("同步通知成功", map[string]int{"count": count}))
}
