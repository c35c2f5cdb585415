package storage

import (
	"context"
	"fmt"

	dapr "github.com/dapr/go-sdk/client"
)

// DaprStateClient Dapr 客户端中本包用到的状态存储方法
type DaprStateClient interface {
	GetState(ctx context.Context, storeName, key string, meta map[string]string) (*dapr.StateItem, error)
	SaveState(ctx context.Context, storeName, key string, data []byte, meta map[string]string, so ...dapr.StateOption) error
	DeleteState(ctx context.Context, storeName, key string, meta map[string]string) error
}

// DaprKV 基于 Dapr 状态存储的键值存储
type DaprKV struct {
	client    DaprStateClient
	storeName string
}

func NewDaprKV(client DaprStateClient, storeName string) *DaprKV {
	return &DaprKV{client: client, storeName: storeName}
}

// Dapr 对不存在的键返回空值而非错误
func (d *DaprKV) Get(ctx context.Context, key string) (string, error) {
	item, err := d.client.GetState(ctx, d.storeName, key, nil)
	if err != nil {
		return "", fmt.Errorf("读取状态失败: %w", err)
	}
	if item == nil || len(item.Value) == 0 {
		return "", ErrNotFound
	}
	return string(item.Value), nil
}

func (d *DaprKV) Set(ctx context.Context, key, value string) error {
	if err := d.client.SaveState(ctx, d.storeName, key, []byte(value), nil); err != nil {
		return fmt.Errorf("保存状态失败: %w", err)
	}
	return nil
}

func (d *DaprKV) Remove(ctx context.Context, key string) error {
	if err := d.client.DeleteState(ctx, d.storeName, key, nil); err != nil {
		return fmt.Errorf("删除状态失败: %w", err)
	}
	return nil
}
