/*
 * @module service/storage/kv
 * @description 持久化槽位抽象：每类实体一个键，值为 UTF-8 JSON 字符串
 * @architecture 适配器模式 - 屏蔽具体存储后端
 * @stateFlow get/set/remove 立即完成或快速失败
 * @rules 键不存在时返回 ErrNotFound，其他错误原样返回由调用方决定是否吞掉
 * @dependencies context
 * @refs service/store/store.go
 */

package storage

import (
	"context"
	"errors"
)

// ErrNotFound 表示槽位不存在
var ErrNotFound = errors.New("storage: key not found")

// 槽位名称
const (
	SlotAssets        = "assets"
	SlotInspections   = "inspections"
	SlotNotifications = "notifications"
	SlotTasks         = "tasks"
	SlotOrders        = "orders"
	SlotTags          = "tags"
	SlotUsers         = "users"
	SlotCurrent       = "current"
)

// KV 简单键值持久化接口
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// SlotKey 生成 <namespace>-<slot> 形式的键
func SlotKey(namespace, slot string) string {
	return namespace + "-" + slot
}
