/*
 * @module service/store/store
 * @description 带加载时结构迁移的本地实体存储引擎，每类实体一个实例
 * @architecture 泛型仓储 - Schema 负责规范化，Store 负责 id 分配、内存列表与持久化
 * @stateFlow Load: 槽位 -> JSON 数组 -> 逐条规范化 -> 内存列表 -> (有变化) 单次迁移写入
 * @rules
 *   - 所有公开操作都不向调用方返回持久化错误，内存状态为准
 *   - 数据损坏时重置为空列表，计数器回到 1
 *   - 加载后 id 唯一，显式 id 优先于位置补齐的 id
 *   - 更新/删除不存在的 id 是静默的空操作
 * @dependencies go.uber.org/zap, service/storage, service/metrics
 * @refs service/asset, service/inspection, service/notification
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"idcops-service/service/metrics"
	"idcops-service/service/storage"

	"go.uber.org/zap"
)

// ErrNotFound 记录不存在，供领域操作使用
var ErrNotFound = errors.New("记录不存在")

// Schema 描述一类实体如何规范化与分配 id
type Schema[T any] interface {
	// Slot 槽位名称，例如 assets
	Slot() string
	// Normalize 把任意 JSON 转换为规范结构，必须是全函数
	Normalize(raw json.RawMessage, fallbackID int64) T
	ID(item T) int64
	SetID(item *T, id int64)
	// Prepare 在 Add 时填充实体默认值
	Prepare(item *T, now time.Time)
}

// Options 存储可选依赖
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Clock   func() time.Time
}

// LoadReport 加载结果
type LoadReport struct {
	Count    int  `json:"count"`
	Migrated int  `json:"migrated"`
	Reset    bool `json:"reset"`
	Written  bool `json:"written"`
}

// Store 单槽位实体存储
type Store[T any] struct {
	mu      sync.RWMutex
	kv      storage.KV
	key     string
	schema  Schema[T]
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time

	list    []T
	nextID  int64
	lastErr error
}

// New 创建存储实例，需调用 Load 读取已持久化数据
func New[T any](kv storage.KV, namespace string, schema Schema[T], opts Options) *Store[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	key := storage.SlotKey(namespace, schema.Slot())
	return &Store[T]{
		kv:      kv,
		key:     key,
		schema:  schema,
		logger:  logger.With(zap.String("slot", key)),
		metrics: opts.Metrics,
		now:     clock,
		list:    []T{},
		nextID:  1,
	}
}

// Key 持久化键
func (s *Store[T]) Key() string { return s.key }

// Now 存储使用的时钟
func (s *Store[T]) Now() time.Time { return s.now() }

// Load 读取槽位并在需要时执行一次迁移写入
func (s *Store[T]) Load(ctx context.Context) LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.resetLocked()
		if errors.Is(err, storage.ErrNotFound) {
			return LoadReport{}
		}
		s.logger.Warn("读取持久化数据失败，使用空列表", zap.Error(err))
		s.metrics.LoadReset(s.schema.Slot())
		return LoadReport{Reset: true}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		s.logger.Warn("持久化数据无法解析，使用空列表", zap.Error(err))
		s.resetLocked()
		s.metrics.LoadReset(s.schema.Slot())
		return LoadReport{Reset: true}
	}

	// 第一遍：显式 id 优先占用，缺失 id 暂按位置 i+1 分配
	list := make([]T, 0, len(elems))
	fallback := make([]bool, len(elems))
	explicit := make(map[int64]bool, len(elems))
	var maxID int64
	for i, el := range elems {
		item := s.schema.Normalize(el, int64(i+1))
		id := s.schema.ID(item)
		if s.schema.ID(s.schema.Normalize(el, 0)) > 0 {
			explicit[id] = true
		} else {
			fallback[i] = true
		}
		if id > maxID {
			maxID = id
		}
		list = append(list, item)
	}

	// 第二遍：与显式 id 或已占用 id 冲突的记录重新分配
	seen := make(map[int64]bool, len(list))
	migrated := 0
	for i, el := range elems {
		id := s.schema.ID(list[i])
		if seen[id] || (fallback[i] && explicit[id]) {
			maxID++
			id = maxID
			item := s.schema.Normalize(el, id)
			s.schema.SetID(&item, id)
			list[i] = item
			s.logger.Warn("记录 id 冲突，重新分配", zap.Int("index", i), zap.Int64("id", id))
		}
		seen[id] = true
		if !sameShape(el, list[i]) {
			migrated++
		}
	}
	s.list = list
	s.nextID = maxID + 1

	report := LoadReport{Count: len(list), Migrated: migrated}
	if migrated > 0 {
		s.logger.Info("检测到旧版数据结构，执行迁移写入", zap.Int("migrated", migrated), zap.Int("count", len(list)))
		s.saveLocked(ctx)
		s.metrics.MigrationWritten(s.schema.Slot())
		report.Written = true
	}
	s.metrics.SetRecords(s.schema.Slot(), len(s.list))
	return report
}

// Save 持久化当前列表，失败只记录日志
func (s *Store[T]) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

// LastError 最近一次持久化失败的错误，成功写入后清空
func (s *Store[T]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Add 分配 id、填充默认值并追加
func (s *Store[T]) Add(ctx context.Context, item T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.schema.SetID(&item, id)
	s.schema.Prepare(&item, s.now())
	item = s.renormalize(item, id)

	s.list = append(s.list, item)
	s.saveLocked(ctx)
	return s.clone(item)
}

// Insert 追加外部来源且已带 id 的记录；id 无效或已占用时重新分配
func (s *Store[T]) Insert(ctx context.Context, item T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.schema.ID(item)
	if id <= 0 || s.indexLocked(id) >= 0 {
		id = s.nextID
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}
	item = s.renormalize(item, id)

	s.list = append(s.list, item)
	s.saveLocked(ctx)
	return s.clone(item)
}

// Update 浅合并部分字段后重新规范化；id 不存在时返回 false 且不写入
func (s *Store[T]) Update(ctx context.Context, id int64, partial map[string]interface{}) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	idx := s.indexLocked(id)
	if idx < 0 {
		return zero, false
	}

	base, err := json.Marshal(s.list[idx])
	if err != nil {
		return zero, false
	}
	merged := map[string]interface{}{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return zero, false
	}
	for k, v := range partial {
		merged[k] = v
	}
	merged["id"] = id

	raw, err := json.Marshal(merged)
	if err != nil {
		s.logger.Warn("更新字段无法序列化", zap.Int64("id", id), zap.Error(err))
		return zero, false
	}
	item := s.schema.Normalize(raw, id)
	s.schema.SetID(&item, id)

	s.list[idx] = item
	s.saveLocked(ctx)
	return s.clone(item), true
}

// Mutate 对单条记录执行领域变更，fn 返回错误时不修改任何状态
func (s *Store[T]) Mutate(ctx context.Context, id int64, fn func(item *T) error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	idx := s.indexLocked(id)
	if idx < 0 {
		return zero, ErrNotFound
	}

	working := s.clone(s.list[idx])
	if err := fn(&working); err != nil {
		return s.clone(s.list[idx]), err
	}
	item := s.renormalize(working, id)

	s.list[idx] = item
	s.saveLocked(ctx)
	return s.clone(item), nil
}

// MutateAll 对每条记录执行 fn，fn 返回 true 表示有修改；有修改时只写入一次
func (s *Store[T]) MutateAll(ctx context.Context, fn func(item *T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.list {
		working := s.clone(s.list[i])
		if !fn(&working) {
			continue
		}
		id := s.schema.ID(s.list[i])
		s.list[i] = s.renormalize(working, id)
		changed++
	}
	if changed > 0 {
		s.saveLocked(ctx)
	}
	return changed
}

// Remove 删除记录；id 不存在时返回 false 且不写入
func (s *Store[T]) Remove(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	next := make([]T, 0, len(s.list)-1)
	next = append(next, s.list[:idx]...)
	next = append(next, s.list[idx+1:]...)
	s.list = next
	s.saveLocked(ctx)
	return true
}

// Replace 整体替换列表（远程同步），计数器按 max(id)+1 重算
func (s *Store[T]) Replace(ctx context.Context, items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]T, 0, len(items))
	var maxID int64
	for _, it := range items {
		if id := s.schema.ID(it); id > maxID {
			maxID = id
		}
		list = append(list, s.clone(it))
	}
	s.list = list
	s.nextID = maxID + 1
	s.saveLocked(ctx)
}

// Get 按 id 查找
func (s *Store[T]) Get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	idx := s.indexLocked(id)
	if idx < 0 {
		return zero, false
	}
	return s.clone(s.list[idx]), true
}

// List 返回列表副本
func (s *Store[T]) List() []T {
	return s.Filter(nil)
}

// Filter 返回满足条件的记录副本，pred 为 nil 时返回全部
func (s *Store[T]) Filter(pred func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.list))
	for _, it := range s.list {
		if pred == nil || pred(it) {
			out = append(out, s.clone(it))
		}
	}
	return out
}

// Len 记录数
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// NextID 下一个待分配的 id
func (s *Store[T]) NextID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

func (s *Store[T]) resetLocked() {
	s.list = []T{}
	s.nextID = 1
	s.metrics.SetRecords(s.schema.Slot(), 0)
}

func (s *Store[T]) saveLocked(ctx context.Context) {
	data, err := json.Marshal(s.list)
	if err == nil {
		err = s.kv.Set(ctx, s.key, string(data))
	}
	if err != nil {
		s.lastErr = err
		s.logger.Error("持久化失败，保留内存状态", zap.Error(err))
		s.metrics.SaveFailed(s.schema.Slot())
		return
	}
	s.lastErr = nil
	s.metrics.SetRecords(s.schema.Slot(), len(s.list))
}

func (s *Store[T]) indexLocked(id int64) int {
	for i, it := range s.list {
		if s.schema.ID(it) == id {
			return i
		}
	}
	return -1
}

// renormalize 经过一次序列化后重新规范化，保证内存与持久化形态一致
func (s *Store[T]) renormalize(item T, id int64) T {
	raw, err := json.Marshal(item)
	if err != nil {
		s.logger.Warn("记录无法序列化", zap.Int64("id", id), zap.Error(err))
		return item
	}
	out := s.schema.Normalize(raw, id)
	s.schema.SetID(&out, id)
	return out
}

// clone 深拷贝，避免调用方修改内存列表中的切片
func (s *Store[T]) clone(item T) T {
	raw, err := json.Marshal(item)
	if err != nil {
		return item
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return item
	}
	return out
}
