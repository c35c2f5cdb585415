/*
 * @module service/storage/gorm_kv
 * @description 基于 GORM 的持久化槽位实现，支持 sqlite 与 postgres
 * @architecture 适配器模式
 * @stateFlow 打开数据库 -> AutoMigrate(kv_entries) -> get/upsert/delete
 * @rules 以 key 为主键，写入使用 ON CONFLICT 覆盖
 * @dependencies gorm.io/gorm, gorm.io/driver/sqlite, gorm.io/driver/postgres
 * @refs service/storage/kv.go
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// KVEntry 槽位记录
type KVEntry struct {
	Key       string    `gorm:"type:varchar(200);primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (KVEntry) TableName() string {
	return "kv_entries"
}

// GormKV 数据库键值存储
type GormKV struct {
	db *gorm.DB
}

// OpenDatabase 按驱动打开数据库
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return db, nil
}

// NewGormKV 创建数据库键值存储并迁移表结构
func NewGormKV(db *gorm.DB) (*GormKV, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return &GormKV{db: db}, nil
}

func (g *GormKV) Get(ctx context.Context, key string) (string, error) {
	var entry KVEntry
	err := g.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return entry.Value, nil
}

func (g *GormKV) Set(ctx context.Context, key, value string) error {
	entry := KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (g *GormKV) Remove(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Delete(&KVEntry{}, "key = ?", key).Error
}

// Close 关闭底层连接
func (g *GormKV) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
