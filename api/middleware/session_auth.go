/*
 * @module api/middleware/session_auth
 * @description 会话令牌鉴权中间件，校验 Bearer Token 是否为当前登录用户的令牌
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @stateFlow Token提取 -> Token验证 -> 上下文注入 -> 下一个处理器
 * @rules 仅在启用鉴权时挂载在业务路由组上，健康检查与登录接口不经过该中间件
 * @dependencies net/http, github.com/go-chi/render
 * @refs service/auth, api/routes.go
 */

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"idcops-service/service/models"

	"github.com/go-chi/render"
)

// ContextKey 上下文键类型
type ContextKey string

// SessionKey 会话在上下文中的键
const SessionKey ContextKey = "session"

// Authenticator 令牌校验
type Authenticator interface {
	Authenticate(token string) (models.Session, bool)
}

// SessionAuthMiddleware 会话认证中间件
type SessionAuthMiddleware struct {
	auth Authenticator
}

// NewSessionAuthMiddleware 创建会话认证中间件
func NewSessionAuthMiddleware(auth Authenticator) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{auth: auth}
}

// Middleware 认证中间件处理函数
func (m *SessionAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondUnauthorized(w, r, "缺少Authorization头")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			respondUnauthorized(w, r, "无效的Authorization格式，需要Bearer Token")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			respondUnauthorized(w, r, "Token为空")
			return
		}

		session, ok := m.auth.Authenticate(token)
		if !ok {
			respondUnauthorized(w, r, "Token无效或已退出登录")
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// respondUnauthorized 返回401未授权响应
func respondUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusUnauthorized,
		"msg":    message,
	})
}

// GetSessionFromContext 从上下文中获取会话
func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(models.Session)
	return session, ok
}

// RequireRole 创建一个需要特定角色的中间件
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				respondUnauthorized(w, r, "未找到用户信息")
				return
			}
			if session.Role != role {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, map[string]interface{}{
					"status": http.StatusForbidden,
					"msg":    fmt.Sprintf("缺少所需角色: %s", role),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
