package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"idcops-service/api"
	"idcops-service/logger"
	"idcops-service/service"
	"idcops-service/service/config"
	"idcops-service/service/storage"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// 机房运维服务：资产借还、巡检、通知、任务与工单的本地存储及迁移
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zapLogger, err := logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.App.Name)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := storage.Open(ctx, cfg.Storage, zapLogger)
	if err != nil {
		zapLogger.Fatal("初始化存储后端失败", zap.Error(err))
	}
	defer closeKV()

	app := service.NewApp(cfg, kv, zapLogger, prometheus.DefaultRegisterer)
	if _, err := app.Start(ctx); err != nil {
		zapLogger.Fatal("启动应用失败", zap.Error(err))
	}
	defer app.Stop()

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if cfg.App.BaseContext != "" {
		mux.Route(cfg.App.BaseContext, func(r chi.Router) {
			api.InitRoute(r, app)
			r.Handle("/metrics", promhttp.Handler())
		})
	} else {
		api.InitRoute(mux, app)
		mux.Handle("/metrics", promhttp.Handler())
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(cfg.App.ListenPort), mux)
	go func() {
		<-ctx.Done()
		zapLogger.Info("收到退出信号，停止服务")
		if err := s.Stop(); err != nil {
			zapLogger.Error("停止服务失败", zap.Error(err))
		}
	}()

	zapLogger.Info("服务启动", zap.Int("port", cfg.App.ListenPort), zap.String("base_context", cfg.App.BaseContext))
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		zapLogger.Fatal("服务异常退出", zap.Error(err))
	}
}
