/*
 * @module api/controllers/auth_controller
 * @description 账号控制器：注册、登录、退出与当前用户
 * @architecture MVC架构 - 控制器层
 * @stateFlow 注册/登录 -> auth.Service 写入 current 槽位 -> 返回会话令牌
 * @rules 响应中从不包含密码摘要
 * @dependencies service/auth, github.com/go-chi/render
 * @refs api/middleware/session_auth.go
 */

package controllers

import (
	"net/http"

	"idcops-service/service/auth"

	"github.com/go-chi/render"
)

// AuthController 账号控制器
type AuthController struct {
	auth *auth.Service
}

// NewAuthController 创建账号控制器
func NewAuthController(a *auth.Service) *AuthController {
	return &AuthController{auth: a}
}

// CredentialsRequest 注册与登录请求
type CredentialsRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"secret"`
	Role     string `json:"role,omitempty" example:"operator"`
}

// Register 注册并登录
// @Summary 注册
// @Tags 账号
// @Accept json
// @Param request body CredentialsRequest true "账号信息"
// @Success 201 {object} APIResponse{data=models.Session}
// @Failure 409 {object} APIResponse "用户名已存在"
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	session, err := c.auth.Register(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		renderError(w, r, "注册失败", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("注册成功", session))
}

// Login 登录
// @Summary 登录
// @Tags 账号
// @Accept json
// @Param request body CredentialsRequest true "账号信息"
// @Success 200 {object} APIResponse{data=models.Session}
// @Failure 401 {object} APIResponse "用户名或密码错误"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}
	session, err := c.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		renderError(w, r, "登录失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("登录成功", session))
}

// Logout 退出登录
// @Summary 退出登录
// @Tags 账号
// @Success 200 {object} APIResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	c.auth.Logout(r.Context())
	render.JSON(w, r, SuccessResponse("已退出登录", nil))
}

// Current 当前登录用户，不返回令牌
// @Summary 当前用户
// @Tags 账号
// @Success 200 {object} APIResponse{data=models.Session}
// @Failure 401 {object} APIResponse "未登录"
// @Router /auth/current [get]
func (c *AuthController) Current(w http.ResponseWriter, r *http.Request) {
	session, ok := c.auth.Current()
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse(http.StatusUnauthorized, "未登录", nil))
		return
	}
	session.Token = ""
	render.JSON(w, r, SuccessResponse("获取当前用户成功", session))
}

// Users 用户列表
// @Summary 用户列表
// @Tags 账号
// @Success 200 {object} APIResponse{data=[]models.User}
// @Router /users [get]
func (c *AuthController) Users(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取用户列表成功", c.auth.Users()))
}
