/*
 * @module api/controllers/inspection_controller
 * @description 巡检记录控制器
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 参数解析 -> inspection.Service -> 统一响应
 * @rules 新增时接受分组结构、精简结构与规范结构，异常数量总是由服务端重新计算
 * @dependencies service/inspection, github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"

	"idcops-service/service/inspection"

	"github.com/go-chi/render"
)

// InspectionController 巡检控制器
type InspectionController struct {
	inspections *inspection.Service
}

// NewInspectionController 创建巡检控制器
func NewInspectionController(inspections *inspection.Service) *InspectionController {
	return &InspectionController{inspections: inspections}
}

// List 巡检记录列表
// @Summary 巡检记录列表
// @Tags 巡检管理
// @Produce json
// @Param keyword query string false "关键字"
// @Param inspector query string false "巡检人"
// @Param relayInspector query string false "接班人"
// @Param onlyAbnormal query bool false "仅异常"
// @Param unsynced query bool false "仅未同步"
// @Success 200 {object} PaginatedResponse{data=[]models.Inspection}
// @Router /inspections [get]
func (c *InspectionController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := inspection.Filter{
		Keyword:        q.Get("keyword"),
		Inspector:      q.Get("inspector"),
		RelayInspector: q.Get("relayInspector"),
		OnlyAbnormal:   queryBool(r, "onlyAbnormal"),
		Unsynced:       queryBool(r, "unsynced"),
	}
	page, size := pageParams(r)
	renderPage(w, r, "获取巡检记录成功", c.inspections.Filter(f), page, size)
}

// Get 巡检记录详情
// @Summary 巡检记录详情
// @Tags 巡检管理
// @Param id path int true "记录ID"
// @Success 200 {object} APIResponse{data=models.Inspection}
// @Router /inspections/{id} [get]
func (c *InspectionController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的记录ID", err)
		return
	}
	i, ok := c.inspections.Get(id)
	if !ok {
		renderNotFound(w, r, "巡检记录不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("获取巡检记录成功", i))
}

// Create 新增巡检记录
// @Summary 新增巡检记录
// @Tags 巡检管理
// @Accept json
// @Produce json
// @Success 201 {object} APIResponse{data=models.Inspection}
// @Router /inspections [post]
func (c *InspectionController) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := readObject(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	i := c.inspections.Add(r.Context(), inspection.Normalize(raw, 0))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("新增巡检记录成功", i))
}

// Update 更新巡检记录
// @Summary 更新巡检记录
// @Tags 巡检管理
// @Param id path int true "记录ID"
// @Success 200 {object} APIResponse{data=models.Inspection}
// @Router /inspections/{id} [put]
func (c *InspectionController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的记录ID", err)
		return
	}
	partial, err := readPartial(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	i, ok := c.inspections.Update(r.Context(), id, partial)
	if !ok {
		renderNotFound(w, r, "巡检记录不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("更新巡检记录成功", i))
}

// Delete 删除巡检记录
// @Summary 删除巡检记录
// @Tags 巡检管理
// @Param id path int true "记录ID"
// @Success 200 {object} APIResponse
// @Router /inspections/{id} [delete]
func (c *InspectionController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的记录ID", err)
		return
	}
	if !c.inspections.Remove(r.Context(), id) {
		renderNotFound(w, r, "巡检记录不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("删除巡检记录成功", nil))
}

// MarkSynced 标记为已同步
// @Summary 标记巡检记录已同步
// @Tags 巡检管理
// @Param id path int true "记录ID"
// @Success 200 {object} APIResponse{data=models.Inspection}
// @Router /inspections/{id}/synced [post]
func (c *InspectionController) MarkSynced(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的记录ID", err)
		return
	}
	i, err := c.inspections.MarkSynced(r.Context(), id)
	if err != nil {
		renderError(w, r, "标记同步失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("标记同步成功", i))
}
