/*
 * @module api/controllers/task_controller
 * @description 运维任务与工单控制器
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> task.Service / order.Service -> 统一响应
 * @rules 周期任务完成后自动生成下一次，同一标题与到期日只生成一次
 * @dependencies service/task, service/order, github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"

	"idcops-service/service/order"
	"idcops-service/service/task"

	"github.com/go-chi/render"
)

// TaskController 任务控制器
type TaskController struct {
	tasks *task.Service
}

// NewTaskController 创建任务控制器
func NewTaskController(tasks *task.Service) *TaskController {
	return &TaskController{tasks: tasks}
}

// List 任务列表
// @Summary 任务列表
// @Tags 任务管理
// @Param keyword query string false "关键字"
// @Param status query string false "状态"
// @Param recurrence query string false "重复周期"
// @Param location query string false "位置"
// @Success 200 {object} PaginatedResponse{data=[]models.Task}
// @Router /tasks [get]
func (c *TaskController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := task.Filter{Keyword: q.Get("keyword"), Location: q.Get("location")}
	if s := q.Get("status"); s != "" {
		f.Status = task.ParseStatus(s)
	}
	if s := q.Get("recurrence"); s != "" {
		f.Recurrence = task.ParseRecurrence(s)
	}
	page, size := pageParams(r)
	renderPage(w, r, "获取任务列表成功", c.tasks.Filter(f), page, size)
}

// Get 任务详情
// @Summary 任务详情
// @Tags 任务管理
// @Param id path int true "任务ID"
// @Success 200 {object} APIResponse{data=models.Task}
// @Router /tasks/{id} [get]
func (c *TaskController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的任务ID", err)
		return
	}
	t, ok := c.tasks.Get(id)
	if !ok {
		renderNotFound(w, r, "任务不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("获取任务成功", t))
}

// Create 新建任务
// @Summary 新建任务
// @Tags 任务管理
// @Accept json
// @Success 201 {object} APIResponse{data=models.Task}
// @Router /tasks [post]
func (c *TaskController) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := readObject(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	t := c.tasks.Add(r.Context(), task.Normalize(raw, 0))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("新建任务成功", t))
}

// Update 更新任务
// @Summary 更新任务
// @Tags 任务管理
// @Param id path int true "任务ID"
// @Success 200 {object} APIResponse{data=models.Task}
// @Router /tasks/{id} [put]
func (c *TaskController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的任务ID", err)
		return
	}
	partial, err := readPartial(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	t, ok := c.tasks.Update(r.Context(), id, partial)
	if !ok {
		renderNotFound(w, r, "任务不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("更新任务成功", t))
}

// Delete 删除任务
// @Summary 删除任务
// @Tags 任务管理
// @Param id path int true "任务ID"
// @Success 200 {object} APIResponse
// @Router /tasks/{id} [delete]
func (c *TaskController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的任务ID", err)
		return
	}
	if !c.tasks.Remove(r.Context(), id) {
		renderNotFound(w, r, "任务不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("删除任务成功", nil))
}

// Complete 完成任务
// @Summary 完成任务
// @Tags 任务管理
// @Param id path int true "任务ID"
// @Success 200 {object} APIResponse{data=models.Task}
// @Router /tasks/{id}/complete [post]
func (c *TaskController) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的任务ID", err)
		return
	}
	t, ok := c.tasks.Complete(r.Context(), id)
	if !ok {
		renderNotFound(w, r, "任务不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("任务已完成", t))
}

// Sweep 补齐周期任务
// @Summary 补齐周期任务
// @Tags 任务管理
// @Success 200 {object} APIResponse
// @Router /tasks/recurrence/sweep [post]
func (c *TaskController) Sweep(w http.ResponseWriter, r *http.Request) {
	created := c.tasks.SweepRecurring(r.Context())
	render.JSON(w, r, SuccessResponse("补齐周期任务成功", map[string]int{"created": created}))
}

// OrderController 工单控制器
type OrderController struct {
	orders *order.Service
}

// NewOrderController 创建工单控制器
func NewOrderController(orders *order.Service) *OrderController {
	return &OrderController{orders: orders}
}

// AssignRequest 指派请求
type AssignRequest struct {
	Assignee string `json:"assignee" example:"li"`
}

// CompleteOrderRequest 完成工单请求
type CompleteOrderRequest struct {
	Signature string `json:"signature" example:"li"`
}

// List 工单列表
// @Summary 工单列表
// @Tags 工单管理
// @Success 200 {object} PaginatedResponse{data=[]models.Order}
// @Router /orders [get]
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.Filter{
		Keyword:  q.Get("keyword"),
		Assignee: q.Get("assignee"),
		Reporter: q.Get("reporter"),
	}
	if s := q.Get("status"); s != "" {
		f.Status = task.ParseStatus(s)
	}
	if s := q.Get("priority"); s != "" {
		f.Priority = order.ParsePriority(s)
	}
	page, size := pageParams(r)
	renderPage(w, r, "获取工单列表成功", c.orders.Filter(f), page, size)
}

// Get 工单详情
// @Summary 工单详情
// @Tags 工单管理
// @Param id path int true "工单ID"
// @Success 200 {object} APIResponse{data=models.Order}
// @Router /orders/{id} [get]
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的工单ID", err)
		return
	}
	o, ok := c.orders.Get(id)
	if !ok {
		renderNotFound(w, r, "工单不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("获取工单成功", o))
}

// Create 新建工单
// @Summary 新建工单
// @Tags 工单管理
// @Accept json
// @Success 201 {object} APIResponse{data=models.Order}
// @Router /orders [post]
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := readObject(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	o := c.orders.Add(r.Context(), order.Normalize(raw, 0))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("新建工单成功", o))
}

// Update 更新工单
// @Summary 更新工单
// @Tags 工单管理
// @Param id path int true "工单ID"
// @Success 200 {object} APIResponse{data=models.Order}
// @Router /orders/{id} [put]
func (c *OrderController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的工单ID", err)
		return
	}
	partial, err := readPartial(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	o, ok := c.orders.Update(r.Context(), id, partial)
	if !ok {
		renderNotFound(w, r, "工单不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("更新工单成功", o))
}

// Delete 删除工单
// @Summary 删除工单
// @Tags 工单管理
// @Param id path int true "工单ID"
// @Success 200 {object} APIResponse
// @Router /orders/{id} [delete]
func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的工单ID", err)
		return
	}
	if !c.orders.Remove(r.Context(), id) {
		renderNotFound(w, r, "工单不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("删除工单成功", nil))
}

// Assign 指派处理人
// @Summary 指派处理人
// @Tags 工单管理
// @Param id path int true "工单ID"
// @Param request body AssignRequest true "处理人"
// @Success 200 {object} APIResponse{data=models.Order}
// @Router /orders/{id}/assign [post]
func (c *OrderController) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的工单ID", err)
		return
	}
	var req AssignRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	o, err := c.orders.Assign(r.Context(), id, req.Assignee)
	if err != nil {
		renderError(w, r, "指派失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("指派成功", o))
}

// Complete 完成工单
// @Summary 完成工单
// @Tags 工单管理
// @Param id path int true "工单ID"
// @Param request body CompleteOrderRequest true "维护人签名"
// @Success 200 {object} APIResponse{data=models.Order}
// @Failure 400 {object} APIResponse "缺少签名"
// @Router /orders/{id}/complete [post]
func (c *OrderController) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的工单ID", err)
		return
	}
	var req CompleteOrderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	o, err := c.orders.Complete(r.Context(), id, req.Signature)
	if err != nil {
		renderError(w, r, "完成工单失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("工单已完成", o))
}
