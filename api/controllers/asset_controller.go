/*
 * @module api/controllers/asset_controller
 * @description 资产控制器，提供资产增删改查、检索与借还接口
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 参数解析 -> asset.Service -> 统一响应
 * @rules 新增资产接受新旧两种结构，统一经规范化后保存
 * @dependencies service/asset, github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"

	"idcops-service/service/asset"
	"idcops-service/service/models"

	"github.com/go-chi/render"
)

// AssetController 资产控制器
type AssetController struct {
	assets *asset.Service
}

// NewAssetController 创建资产控制器
func NewAssetController(assets *asset.Service) *AssetController {
	return &AssetController{assets: assets}
}

// BorrowRequest 借用请求
type BorrowRequest struct {
	BorrowerID string `json:"borrowerId" example:"u1"`
}

// RepairRequest 送修请求
type RepairRequest struct {
	InRepair bool `json:"inRepair" example:"true"`
}

// List 资产列表
// @Summary 资产列表
// @Tags 资产管理
// @Produce json
// @Param keyword query string false "关键字"
// @Param status query string false "状态"
// @Param borrowerId query string false "借用人"
// @Param category query string false "分类"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} PaginatedResponse{data=[]models.Asset}
// @Router /assets [get]
func (c *AssetController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := asset.Filter{
		Keyword:    q.Get("keyword"),
		BorrowerID: q.Get("borrowerId"),
		Category:   q.Get("category"),
	}
	if s := q.Get("status"); s != "" {
		status, ok := asset.ParseStatus(s)
		if !ok {
			status = models.AssetStatus(s)
		}
		f.Status = status
	}
	page, size := pageParams(r)
	renderPage(w, r, "获取资产列表成功", c.assets.Filter(f), page, size)
}

// Get 资产详情
// @Summary 资产详情
// @Tags 资产管理
// @Produce json
// @Param id path int true "资产ID"
// @Success 200 {object} APIResponse{data=models.Asset}
// @Failure 404 {object} APIResponse
// @Router /assets/{id} [get]
func (c *AssetController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的资产ID", err)
		return
	}
	a, ok := c.assets.Get(id)
	if !ok {
		renderNotFound(w, r, "资产不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("获取资产成功", a))
}

// Create 新增资产
// @Summary 新增资产
// @Tags 资产管理
// @Accept json
// @Produce json
// @Param asset body models.Asset true "资产信息"
// @Success 201 {object} APIResponse{data=models.Asset}
// @Router /assets [post]
func (c *AssetController) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := readObject(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	a := c.assets.Add(r.Context(), asset.Normalize(raw, 0))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("新增资产成功", a))
}

// Update 更新资产字段
// @Summary 更新资产
// @Tags 资产管理
// @Accept json
// @Produce json
// @Param id path int true "资产ID"
// @Success 200 {object} APIResponse{data=models.Asset}
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /assets/{id} [put]
func (c *AssetController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的资产ID", err)
		return
	}
	partial, err := readPartial(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	a, err := c.assets.Update(r.Context(), id, partial)
	if err != nil {
		renderError(w, r, "更新资产失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("更新资产成功", a))
}

// Delete 删除资产
// @Summary 删除资产
// @Tags 资产管理
// @Param id path int true "资产ID"
// @Success 200 {object} APIResponse
// @Router /assets/{id} [delete]
func (c *AssetController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的资产ID", err)
		return
	}
	if !c.assets.Remove(r.Context(), id) {
		renderNotFound(w, r, "资产不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("删除资产成功", nil))
}

// Borrow 借用资产
// @Summary 借用资产
// @Tags 资产管理
// @Accept json
// @Produce json
// @Param id path int true "资产ID"
// @Param request body BorrowRequest true "借用人"
// @Success 200 {object} APIResponse{data=models.Asset}
// @Failure 409 {object} APIResponse "资产已借出或维修中"
// @Router /assets/{id}/borrow [post]
func (c *AssetController) Borrow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的资产ID", err)
		return
	}
	var req BorrowRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	a, err := c.assets.Borrow(r.Context(), id, req.BorrowerID)
	if err != nil {
		renderError(w, r, "借用失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("借用成功", a))
}

// Return 归还资产
// @Summary 归还资产
// @Tags 资产管理
// @Produce json
// @Param id path int true "资产ID"
// @Success 200 {object} APIResponse{data=models.Asset}
// @Router /assets/{id}/return [post]
func (c *AssetController) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的资产ID", err)
		return
	}
	a, err := c.assets.Return(r.Context(), id)
	if err != nil {
		renderError(w, r, "归还失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("归还成功", a))
}

// Repair 送修或结束维修
// @Summary 送修或结束维修
// @Tags 资产管理
// @Accept json
// @Produce json
// @Param id path int true "资产ID"
// @Param request body RepairRequest true "是否维修"
// @Success 200 {object} APIResponse{data=models.Asset}
// @Router /assets/{id}/repair [post]
func (c *AssetController) Repair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的资产ID", err)
		return
	}
	var req RepairRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	a, err := c.assets.SetRepair(r.Context(), id, req.InRepair)
	if err != nil {
		renderError(w, r, "更新维修状态失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("更新维修状态成功", a))
}
