/*
 * @module service/inspection/service
 * @description 巡检服务：增删改查与筛选
 * @architecture 业务服务层
 * @rules 更新巡检项时 abnormal 随之重新计算
 * @dependencies go.uber.org/zap, service/store, service/query
 * @refs api/controllers/inspection_controller.go
 */

package inspection

import (
	"context"

	"idcops-service/service/models"
	"idcops-service/service/query"
	"idcops-service/service/storage"
	"idcops-service/service/store"

	"go.uber.org/zap"
)

// Filter 巡检筛选条件
type Filter struct {
	Keyword        string `json:"keyword"`
	Inspector      string `json:"inspector"`
	RelayInspector string `json:"relayInspector"`
	OnlyAbnormal   bool   `json:"onlyAbnormal"`
	Unsynced       bool   `json:"unsynced"`
}

// Service 巡检服务
type Service struct {
	store  *store.Store[models.Inspection]
	logger *zap.Logger
}

// NewService 创建巡检服务
func NewService(kv storage.KV, namespace string, opts store.Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store.New[models.Inspection](kv, namespace, schema{}, opts),
		logger: logger.Named("inspection"),
	}
}

func (s *Service) Load(ctx context.Context) store.LoadReport {
	return s.store.Load(ctx)
}

func (s *Service) Add(ctx context.Context, i models.Inspection) models.Inspection {
	return s.store.Add(ctx, i)
}

func (s *Service) Update(ctx context.Context, id int64, partial map[string]interface{}) (models.Inspection, bool) {
	return s.store.Update(ctx, id, partial)
}

func (s *Service) Remove(ctx context.Context, id int64) bool {
	return s.store.Remove(ctx, id)
}

func (s *Service) Get(id int64) (models.Inspection, bool) {
	return s.store.Get(id)
}

func (s *Service) List() []models.Inspection {
	return s.store.List()
}

func (s *Service) LastError() error {
	return s.store.LastError()
}

// Filter 关键字匹配标题、巡检人、接班人、备注，其余条件精确匹配
func (s *Service) Filter(f Filter) []models.Inspection {
	return s.store.Filter(func(i models.Inspection) bool {
		if f.OnlyAbnormal && i.Abnormal == 0 {
			return false
		}
		if f.Unsynced && i.Synced {
			return false
		}
		return query.MatchKeyword(f.Keyword, i.Title, i.Inspector, i.RelayInspector, i.Notes) &&
			query.MatchExact(f.Inspector, i.Inspector) &&
			query.MatchExact(f.RelayInspector, i.RelayInspector)
	})
}

// MarkSynced 标记为已同步
func (s *Service) MarkSynced(ctx context.Context, id int64) (models.Inspection, error) {
	return s.store.Mutate(ctx, id, func(i *models.Inspection) error {
		i.Synced = true
		return nil
	})
}
