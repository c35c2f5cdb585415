package controllers

import (
	"net/http"

	"idcops-service/service/tag"

	"github.com/go-chi/render"
)

// TagController 标签控制器
type TagController struct {
	tags *tag.Service
}

// NewTagController 创建标签控制器
func NewTagController(tags *tag.Service) *TagController {
	return &TagController{tags: tags}
}

// List 标签列表，keyword 为空时返回全部
// @Summary 标签列表
// @Tags 标签管理
// @Param keyword query string false "关键字"
// @Success 200 {object} APIResponse{data=[]models.Tag}
// @Router /tags [get]
func (c *TagController) List(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取标签成功", c.tags.Search(r.URL.Query().Get("keyword"))))
}

// Create 新建标签
// @Summary 新建标签
// @Tags 标签管理
// @Success 201 {object} APIResponse{data=models.Tag}
// @Failure 409 {object} APIResponse "名称已存在"
// @Router /tags [post]
func (c *TagController) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := readObject(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	t, err := c.tags.Add(r.Context(), tag.Normalize(raw, 0))
	if err != nil {
		renderError(w, r, "新建标签失败", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("新建标签成功", t))
}

// Update 更新标签
// @Summary 更新标签
// @Tags 标签管理
// @Router /tags/{id} [put]
func (c *TagController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的标签ID", err)
		return
	}
	partial, err := readPartial(r)
	if err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	t, ok := c.tags.Update(r.Context(), id, partial)
	if !ok {
		renderNotFound(w, r, "标签不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("更新标签成功", t))
}

// Delete 删除标签
// @Summary 删除标签
// @Tags 标签管理
// @Router /tags/{id} [delete]
func (c *TagController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderBadRequest(w, r, "无效的标签ID", err)
		return
	}
	if !c.tags.Remove(r.Context(), id) {
		renderNotFound(w, r, "标签不存在")
		return
	}
	render.JSON(w, r, SuccessResponse("删除标签成功", nil))
}
