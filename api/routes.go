/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式；启用鉴权时业务路由需携带会话令牌
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs service/app.go
 */

package api

import (
	"idcops-service/api/controllers"
	authmw "idcops-service/api/middleware"
	"idcops-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// Version 服务版本
const Version = "1.0.0"

// InitRoute 初始化所有API路由
func InitRoute(r chi.Router, app *service.App) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController(app.Config.App.Name, Version, map[string]controllers.ReadinessCheck{
		"assets":        app.Assets.LastError,
		"inspections":   app.Inspections.LastError,
		"notifications": app.Notifications.LastError,
		"tasks":         app.Tasks.LastError,
		"orders":        app.Orders.LastError,
		"tags":          app.Tags.LastError,
	})
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 账号
	authController := controllers.NewAuthController(app.Auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authController.Register)
		r.Post("/login", authController.Login)
		r.Post("/logout", authController.Logout)
		r.Get("/current", authController.Current)
	})

	r.Group(func(r chi.Router) {
		sessionAuth := authmw.NewSessionAuthMiddleware(app.Auth)
		if app.Config.App.RequireAuth {
			r.Use(sessionAuth.Middleware)
		}

		r.Route("/users", func(r chi.Router) {
			if app.Config.App.RequireAuth {
				r.Use(authmw.RequireRole("admin"))
			}
			r.Get("/", authController.Users)
		})

		// 资产管理
		r.Route("/assets", func(r chi.Router) {
			assetController := controllers.NewAssetController(app.Assets)
			r.Get("/", assetController.List)
			r.Post("/", assetController.Create)
			r.Get("/{id}", assetController.Get)
			r.Put("/{id}", assetController.Update)
			r.Delete("/{id}", assetController.Delete)
			r.Post("/{id}/borrow", assetController.Borrow)
			r.Post("/{id}/return", assetController.Return)
			r.Post("/{id}/repair", assetController.Repair)
		})

		// 巡检管理
		r.Route("/inspections", func(r chi.Router) {
			inspectionController := controllers.NewInspectionController(app.Inspections)
			r.Get("/", inspectionController.List)
			r.Post("/", inspectionController.Create)
			r.Get("/{id}", inspectionController.Get)
			r.Put("/{id}", inspectionController.Update)
			r.Delete("/{id}", inspectionController.Delete)
			r.Post("/{id}/synced", inspectionController.MarkSynced)
		})

		// 通知管理
		r.Route("/notifications", func(r chi.Router) {
			notificationController := controllers.NewNotificationController(app.Notifications)
			r.Get("/", notificationController.List)
			r.Post("/", notificationController.Create)
			r.Post("/submit", notificationController.Submit)
			r.Post("/read-all", notificationController.ReadAll)
			r.Get("/unread-count", notificationController.UnreadCount)
			r.Get("/stats", notificationController.Stats)
			r.Post("/sync", notificationController.Sync)
			r.Get("/{id}", notificationController.Get)
			r.Put("/{id}", notificationController.Update)
			r.Delete("/{id}", notificationController.Delete)
			r.Post("/{id}/confirm", notificationController.Confirm)
		})

		// 任务管理
		r.Route("/tasks", func(r chi.Router) {
			taskController := controllers.NewTaskController(app.Tasks)
			r.Get("/", taskController.List)
			r.Post("/", taskController.Create)
			r.Post("/recurrence/sweep", taskController.Sweep)
			r.Get("/{id}", taskController.Get)
			r.Put("/{id}", taskController.Update)
			r.Delete("/{id}", taskController.Delete)
			r.Post("/{id}/complete", taskController.Complete)
		})

		// 工单管理
		r.Route("/orders", func(r chi.Router) {
			orderController := controllers.NewOrderController(app.Orders)
			r.Get("/", orderController.List)
			r.Post("/", orderController.Create)
			r.Get("/{id}", orderController.Get)
			r.Put("/{id}", orderController.Update)
			r.Delete("/{id}", orderController.Delete)
			r.Post("/{id}/assign", orderController.Assign)
			r.Post("/{id}/complete", orderController.Complete)
		})

		// 标签管理
		r.Route("/tags", func(r chi.Router) {
			tagController := controllers.NewTagController(app.Tags)
			r.Get("/", tagController.List)
			r.Post("/", tagController.Create)
			r.Put("/{id}", tagController.Update)
			r.Delete("/{id}", tagController.Delete)
		})
	})
}
