/*
 * @module service/task/service
 * @description 运维任务服务：增删改查、筛选与周期任务的下一次生成
 * @architecture 业务服务层
 * @stateFlow 任务完成 -> 计算下一次到期日 -> 去重 -> 新建任务
 * @rules
 *   - 只有已完成、有重复周期且有到期日的任务才会生成下一次
 *   - 已存在同标题同到期日的任务时不重复生成
 *   - Add/Update 得到已完成任务时自动尝试生成
 * @dependencies go.uber.org/zap, service/store, service/query
 * @refs service/scheduler/recurrence_scheduler.go
 */

package task

import (
	"context"
	"sync"

	"idcops-service/service/models"
	"idcops-service/service/query"
	"idcops-service/service/storage"
	"idcops-service/service/store"

	"go.uber.org/zap"
)

// Filter 任务筛选条件
type Filter struct {
	Keyword    string            `json:"keyword"`
	Status     models.WorkStatus `json:"status"`
	Recurrence models.Recurrence `json:"recurrence"`
	Location   string            `json:"location"`
}

// Service 任务服务
type Service struct {
	store  *store.Store[models.Task]
	logger *zap.Logger

	// 串行化“检查是否存在 -> 新建”
	scheduleMu sync.Mutex
}

// NewService 创建任务服务
func NewService(kv storage.KV, namespace string, opts store.Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store.New[models.Task](kv, namespace, schema{}, opts),
		logger: logger.Named("task"),
	}
}

func (s *Service) Load(ctx context.Context) store.LoadReport {
	return s.store.Load(ctx)
}

// Add 新建任务；若任务已完成且重复，同时生成下一次
func (s *Service) Add(ctx context.Context, t models.Task) models.Task {
	added := s.store.Add(ctx, t)
	s.ScheduleNext(ctx, added)
	return added
}

// Update 部分更新；更新后为已完成时尝试生成下一次
func (s *Service) Update(ctx context.Context, id int64, partial map[string]interface{}) (models.Task, bool) {
	updated, ok := s.store.Update(ctx, id, partial)
	if ok {
		s.ScheduleNext(ctx, updated)
	}
	return updated, ok
}

// Complete 标记完成
func (s *Service) Complete(ctx context.Context, id int64) (models.Task, bool) {
	return s.Update(ctx, id, map[string]interface{}{"status": string(models.WorkDone)})
}

func (s *Service) Remove(ctx context.Context, id int64) bool {
	return s.store.Remove(ctx, id)
}

func (s *Service) Get(id int64) (models.Task, bool) {
	return s.store.Get(id)
}

func (s *Service) List() []models.Task {
	return s.store.List()
}

func (s *Service) LastError() error {
	return s.store.LastError()
}

// Filter 关键字匹配标题、描述、位置
func (s *Service) Filter(f Filter) []models.Task {
	return s.store.Filter(func(t models.Task) bool {
		return query.MatchKeyword(f.Keyword, t.Title, t.Description, t.Location) &&
			query.MatchExact(string(f.Status), string(t.Status)) &&
			query.MatchExact(string(f.Recurrence), string(t.Recurrence)) &&
			query.MatchExact(f.Location, t.Location)
	})
}

// ScheduleNext 为已完成的周期任务生成下一次，返回新任务与是否生成
func (s *Service) ScheduleNext(ctx context.Context, t models.Task) (models.Task, bool) {
	if t.Status != models.WorkDone || t.Recurrence == models.RecurrenceNone || t.DueDate == "" {
		return models.Task{}, false
	}
	next, err := NextDueDate(t.DueDate, t.Recurrence)
	if err != nil {
		s.logger.Warn("无法计算下一次到期日", zap.Int64("id", t.ID), zap.Error(err))
		return models.Task{}, false
	}

	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	exists := s.store.Filter(func(o models.Task) bool {
		return o.Title == t.Title && o.DueDate == next
	})
	if len(exists) > 0 {
		return models.Task{}, false
	}

	created := s.store.Add(ctx, models.Task{
		Title:       t.Title,
		Status:      models.WorkNew,
		Location:    t.Location,
		Recurrence:  t.Recurrence,
		DueDate:     next,
		Description: t.Description,
	})
	s.logger.Info("已生成周期任务", zap.Int64("from", t.ID), zap.Int64("id", created.ID), zap.String("due", next))
	return created, true
}

// SweepRecurring 扫描全部已完成的周期任务并补齐下一次，返回新建数量
func (s *Service) SweepRecurring(ctx context.Context) int {
	done := s.store.Filter(func(t models.Task) bool {
		return t.Status == models.WorkDone && t.Recurrence != models.RecurrenceNone && t.DueDate != ""
	})
	created := 0
	for _, t := range done {
		if _, ok := s.ScheduleNext(ctx, t); ok {
			created++
		}
	}
	return created
}
