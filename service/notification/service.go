/*
 * @module service/notification/service
 * @description 通知服务：远程优先提交与确认、本地回退、已读与统计
 * @architecture 业务服务层 - 远程服务为可选协作方，本地存储为准
 * @stateFlow Submit: 远程提交 -> 成功则插入远程记录 / 失败则本地创建
 * @rules
 *   - 远程失败只记录到 RemoteError，从不阻塞本地变更
 *   - Confirm 单调递增确认数，重复确认继续累加
 *   - 未配置远程服务时所有操作只作用于本地
 * @dependencies go.uber.org/zap, service/store, service/query
 * @refs client/notification_client.go, api/controllers/notification_controller.go
 */

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/query"
	"idcops-service/service/storage"
	"idcops-service/service/store"

	"go.uber.org/zap"
)

// ErrEmptyMessage 通知内容为空
var ErrEmptyMessage = errors.New("通知内容不能为空")

// ErrNoRemote 未配置远程服务
var ErrNoRemote = errors.New("未配置通知远程服务")

// Remote 通知远程服务，返回值为远程原始 JSON，由本地统一规范化
type Remote interface {
	Submit(ctx context.Context, message string) (json.RawMessage, error)
	Confirm(ctx context.Context, id int64) (json.RawMessage, error)
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

// Filter 通知筛选条件
type Filter struct {
	Keyword    string `json:"keyword"`
	Type       string `json:"type"`
	Publisher  string `json:"publisher"`
	UnreadOnly bool   `json:"unreadOnly"`
}

// Service 通知服务
type Service struct {
	store  *store.Store[models.Notification]
	remote Remote
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	remoteErr error
}

// NewService 创建通知服务，remote 为 nil 时只使用本地存储
func NewService(kv storage.KV, namespace string, remote Remote, opts store.Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:  store.New[models.Notification](kv, namespace, schema{now: clock}, opts),
		remote: remote,
		logger: logger.Named("notification"),
		now:    clock,
	}
}

func (s *Service) Load(ctx context.Context) store.LoadReport {
	return s.store.Load(ctx)
}

func (s *Service) Get(id int64) (models.Notification, bool) {
	return s.store.Get(id)
}

func (s *Service) List() []models.Notification {
	return s.store.List()
}

func (s *Service) Update(ctx context.Context, id int64, partial map[string]interface{}) (models.Notification, bool) {
	return s.store.Update(ctx, id, partial)
}

func (s *Service) Remove(ctx context.Context, id int64) bool {
	return s.store.Remove(ctx, id)
}

// LastError 最近一次持久化失败
func (s *Service) LastError() error {
	return s.store.LastError()
}

// RemoteError 最近一次远程调用失败，成功调用后清空
func (s *Service) RemoteError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remoteErr
}

func (s *Service) setRemoteErr(err error) {
	s.mu.Lock()
	s.remoteErr = err
	s.mu.Unlock()
}

// Submit 提交一条消息：远程优先，失败时本地创建
func (s *Service) Submit(ctx context.Context, message string) (models.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.Notification{}, ErrEmptyMessage
	}

	if s.remote != nil {
		raw, err := s.remote.Submit(ctx, message)
		if err == nil {
			s.setRemoteErr(nil)
			n := Normalize(raw, s.store.NextID(), s.now())
			if n.Title == fmt.Sprintf("通知 #%d", n.ID) {
				n.Title = message
			}
			if n.Message == "" {
				n.Message = message
			}
			n.Read = false
			return s.store.Insert(ctx, n), nil
		}
		s.setRemoteErr(err)
		s.logger.Warn("远程提交通知失败，改为本地创建", zap.Error(err))
	}

	return s.store.Add(ctx, models.Notification{Title: message, Message: message}), nil
}

// Create 本地创建通知，确认与已读状态总是从零开始
func (s *Service) Create(ctx context.Context, draft models.Notification) models.Notification {
	if draft.Title == fmt.Sprintf("通知 #%d", draft.ID) {
		draft.Title = ""
	}
	draft.CreatedAt = ""
	draft.Read = false
	draft.Confirmed = false
	draft.ConfirmedCount = 0
	return s.store.Add(ctx, draft)
}

// Confirm 确认通知：先尝试远程，再本地累加确认数
func (s *Service) Confirm(ctx context.Context, id int64) (models.Notification, error) {
	if _, ok := s.store.Get(id); !ok {
		return models.Notification{}, store.ErrNotFound
	}

	if s.remote != nil {
		if _, err := s.remote.Confirm(ctx, id); err != nil {
			s.setRemoteErr(err)
			s.logger.Warn("远程确认通知失败，仅本地记录", zap.Int64("id", id), zap.Error(err))
		} else {
			s.setRemoteErr(nil)
		}
	}

	return s.store.Mutate(ctx, id, func(n *models.Notification) error {
		n.ConfirmedCount++
		n.Confirmed = true
		return nil
	})
}

// MarkAllRead 全部标记为已读，返回本次变更的条数
func (s *Service) MarkAllRead(ctx context.Context) int {
	return s.store.MutateAll(ctx, func(n *models.Notification) bool {
		if n.Read {
			return false
		}
		n.Read = true
		return true
	})
}

// UnreadCount 未读数量
func (s *Service) UnreadCount() int {
	return len(s.store.Filter(func(n models.Notification) bool { return !n.Read }))
}

// Stats 每条通知的确认统计
func (s *Service) Stats() []models.NotificationStat {
	list := s.store.List()
	stats := make([]models.NotificationStat, 0, len(list))
	for _, n := range list {
		title := n.Title
		if title == "" {
			title = n.Message
		}
		if title == "" {
			title = fmt.Sprintf("通知 #%d", n.ID)
		}
		stats = append(stats, models.NotificationStat{
			ID:          n.ID,
			Title:       title,
			Confirmed:   n.ConfirmedCount,
			Unconfirmed: []string{},
		})
	}
	return stats
}

// Filter 关键字匹配标题、内容、发布人
func (s *Service) Filter(f Filter) []models.Notification {
	return s.store.Filter(func(n models.Notification) bool {
		if f.UnreadOnly && n.Read {
			return false
		}
		return query.MatchKeyword(f.Keyword, n.Title, n.Message, n.Content, n.Publisher) &&
			query.MatchExact(f.Type, n.Type) &&
			query.MatchExact(f.Publisher, n.Publisher)
	})
}

// SeedIfEmpty 列表为空时写入演示数据
func (s *Service) SeedIfEmpty(ctx context.Context) bool {
	if s.store.Len() > 0 {
		return false
	}
	s.store.Add(ctx, models.Notification{Title: "服务器维护通知", Message: "今晚 23:00-24:00 维护窗口"})
	s.store.Add(ctx, models.Notification{Title: "安全提醒", Message: "请及时更新密码"})
	return true
}

// Sync 用远程列表替换本地列表，失败时保留本地数据
func (s *Service) Sync(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrNoRemote
	}
	raws, err := s.remote.Fetch(ctx)
	if err != nil {
		s.setRemoteErr(err)
		s.logger.Warn("拉取远程通知失败，保留本地数据", zap.Error(err))
		return 0, fmt.Errorf("拉取远程通知失败: %w", err)
	}
	s.setRemoteErr(nil)

	now := s.now()
	list := make([]models.Notification, 0, len(raws))
	for i, raw := range raws {
		list = append(list, Normalize(raw, int64(i+1), now))
	}
	s.store.Replace(ctx, list)
	s.logger.Info("已同步远程通知", zap.Int("count", len(list)))
	return len(list), nil
}
