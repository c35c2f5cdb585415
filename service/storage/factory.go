package storage

import (
	"context"
	"fmt"

	"idcops-service/service/config"

	dapr "github.com/dapr/go-sdk/client"
	"go.uber.org/zap"
)

// Open 按配置创建持久化后端，返回的关闭函数总是非空
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.Info("使用内存存储后端")
		return NewMemoryKV(), noop, nil

	case config.BackendRedis:
		client, err := NewRedisClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("使用Redis存储后端", zap.String("addr", cfg.Redis.Addr()), zap.Int("db", cfg.Redis.DB))
		kv := NewRedisKV(client)
		return kv, kv.Close, nil

	case config.BackendDatabase:
		db, err := OpenDatabase(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, noop, err
		}
		kv, err := NewGormKV(db)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("使用数据库存储后端", zap.String("driver", cfg.Database.Driver))
		return kv, kv.Close, nil

	case config.BackendDapr:
		client, err := dapr.NewClient()
		if err != nil {
			return nil, noop, fmt.Errorf("创建Dapr客户端失败: %w", err)
		}
		logger.Info("使用Dapr状态存储后端", zap.String("state_store", cfg.Dapr.StateStore))
		return NewDaprKV(client, cfg.Dapr.StateStore), func() error { client.Close(); return nil }, nil

	default:
		return nil, noop, fmt.Errorf("不支持的存储后端: %s", cfg.Backend)
	}
}
