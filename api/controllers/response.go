/*
 * @module api/controllers/response
 * @description 统一响应结构与错误映射
 * @architecture MVC架构 - 控制器层公共部分
 * @rules status 为 0 表示成功，其余为对应的 HTTP 状态码
 * @dependencies github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"idcops-service/service/asset"
	"idcops-service/service/auth"
	"idcops-service/service/notification"
	"idcops-service/service/order"
	"idcops-service/service/query"
	"idcops-service/service/store"
	"idcops-service/service/tag"
	"idcops-service/service/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{Status: 0, Msg: msg, Data: data}
}

// ErrorResponse 错误响应
func ErrorResponse(status int, msg string, err error) APIResponse {
	resp := APIResponse{Status: status, Msg: msg}
	if err != nil && err.Error() != msg {
		resp.Data = map[string]string{"error": err.Error()}
	}
	return resp
}

// BadRequestResponse 参数错误响应
func BadRequestResponse(msg string, err error) APIResponse {
	return ErrorResponse(http.StatusBadRequest, msg, err)
}

// NotFoundResponse 资源不存在响应
func NotFoundResponse(msg string, err error) APIResponse {
	return ErrorResponse(http.StatusNotFound, msg, err)
}

// InternalErrorResponse 服务器内部错误响应
func InternalErrorResponse(msg string, err error) APIResponse {
	return ErrorResponse(http.StatusInternalServerError, msg, err)
}

// renderError 按领域错误选择 HTTP 状态码
func renderError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, asset.ErrAlreadyBorrowed),
		errors.Is(err, asset.ErrInRepair),
		errors.Is(err, asset.ErrStatusManaged),
		errors.Is(err, tag.ErrNameTaken),
		errors.Is(err, auth.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, asset.ErrBorrowerRequired),
		errors.Is(err, asset.ErrInvalidStatus),
		errors.Is(err, tag.ErrNameRequired),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, notification.ErrEmptyMessage),
		errors.Is(err, order.ErrSignatureRequired):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, notification.ErrNoRemote):
		status = http.StatusServiceUnavailable
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse(status, msg+": "+err.Error(), nil))
}

func renderBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, BadRequestResponse(msg, err))
}

func renderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, NotFoundResponse(msg, nil))
}

// renderPage 分页返回列表
func renderPage[T any](w http.ResponseWriter, r *http.Request, msg string, items []T, page, size int) {
	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    msg,
		Data:   query.Paginate(items, page, size),
		Total:  int64(len(items)),
		Page:   page,
		Size:   size,
	})
}

// pathID 解析路径参数 id
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// pageParams 解析分页参数，size 缺省为 0 表示不分页
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size < 0 {
		size = 0
	}
	return page, size
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// readObject 读取请求体中的 JSON 对象，交给各实体的规范化函数解释，新旧结构都可接受
func readObject(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if _, ok := utils.DecodeFields(body); !ok {
		return nil, errors.New("请求体必须是JSON对象")
	}
	return body, nil
}

// readPartial 读取部分字段更新
func readPartial(r *http.Request) (map[string]interface{}, error) {
	partial := map[string]interface{}{}
	if err := render.DecodeJSON(r.Body, &partial); err != nil {
		return nil, err
	}
	return partial, nil
}
