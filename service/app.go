/*
 * @module service/app
 * @description 应用装配：按配置显式构造每类实体的服务实例与后台调度
 * @architecture 分层架构 - 服务层，依赖通过构造函数注入，不使用包级单例
 * @stateFlow NewApp -> Start(加载各槽位、可选演示数据、启动调度) -> Stop
 * @rules 各实体服务共享同一个持久化后端与指标集合，命名空间决定槽位键前缀
 * @dependencies go.uber.org/zap, prometheus, service/*
 * @refs main.go, api/routes.go
 */

package service

import (
	"context"

	"idcops-service/client"
	"idcops-service/service/asset"
	"idcops-service/service/auth"
	"idcops-service/service/config"
	"idcops-service/service/inspection"
	"idcops-service/service/metrics"
	"idcops-service/service/notification"
	"idcops-service/service/order"
	"idcops-service/service/scheduler"
	"idcops-service/service/storage"
	"idcops-service/service/store"
	"idcops-service/service/tag"
	"idcops-service/service/task"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App 应用内的全部服务
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Collector

	Assets        *asset.Service
	Inspections   *inspection.Service
	Notifications *notification.Service
	Tasks         *task.Service
	Orders        *order.Service
	Tags          *tag.Service
	Auth          *auth.Service
	Scheduler     *scheduler.SchedulerService
}

// NewApp 构造应用，reg 为 nil 时不注册指标
func NewApp(cfg *config.Config, kv storage.KV, logger *zap.Logger, reg prometheus.Registerer) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	collector := metrics.NewCollector(reg)
	opts := store.Options{Logger: logger, Metrics: collector}
	ns := cfg.App.Namespace

	var remote notification.Remote
	if cfg.Notification.Enabled() {
		baseURL := client.ResolveBaseURL(cfg.Notification.BaseURL, cfg.Notification.RemoteAppID)
		remote = client.NewNotificationClient(baseURL, cfg.Notification.Timeout, logger)
		logger.Info("启用通知远程服务", zap.String("base_url", baseURL))
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Metrics:       collector,
		Assets:        asset.NewService(kv, ns, opts),
		Inspections:   inspection.NewService(kv, ns, opts),
		Notifications: notification.NewService(kv, ns, remote, opts),
		Tasks:         task.NewService(kv, ns, opts),
		Orders:        order.NewService(kv, ns, opts),
		Tags:          tag.NewService(kv, ns, opts),
		Auth:          auth.NewService(kv, ns, 0, opts),
		Scheduler:     scheduler.NewSchedulerService(logger, 0),
	}
}

// Load 读取全部槽位，返回每个槽位的加载结果
func (a *App) Load(ctx context.Context) map[string]store.LoadReport {
	reports := map[string]store.LoadReport{
		storage.SlotAssets:        a.Assets.Load(ctx),
		storage.SlotInspections:   a.Inspections.Load(ctx),
		storage.SlotNotifications: a.Notifications.Load(ctx),
		storage.SlotTasks:         a.Tasks.Load(ctx),
		storage.SlotOrders:        a.Orders.Load(ctx),
		storage.SlotTags:          a.Tags.Load(ctx),
		storage.SlotUsers:         a.Auth.Load(ctx),
	}
	for slot, r := range reports {
		a.Logger.Info("槽位加载完成",
			zap.String("slot", slot),
			zap.Int("count", r.Count),
			zap.Int("migrated", r.Migrated),
			zap.Bool("reset", r.Reset),
		)
	}
	return reports
}

// Start 加载数据并启动后台作业
func (a *App) Start(ctx context.Context) (map[string]store.LoadReport, error) {
	reports := a.Load(ctx)

	if a.Config.App.SeedDemo && a.Notifications.SeedIfEmpty(ctx) {
		a.Logger.Info("已写入演示通知")
	}

	if !a.Config.Scheduler.Enabled {
		return reports, nil
	}
	if err := a.Scheduler.RegisterRecurrence(a.Config.Scheduler.RecurrenceSpec, a.Tasks); err != nil {
		return reports, err
	}
	if spec := a.Config.Scheduler.NotificationSyncSpec; spec != "" && a.Config.Notification.Enabled() {
		if err := a.Scheduler.RegisterNotificationSync(spec, a.Notifications); err != nil {
			return reports, err
		}
	}
	a.Scheduler.Start()
	return reports, nil
}

// Stop 停止后台作业
func (a *App) Stop() {
	a.Scheduler.Stop()
}
