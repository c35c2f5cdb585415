/*
 * @module service/order/service
 * @description 工单服务：增删改查、筛选与状态流转
 * @architecture 业务服务层
 * @rules 完成工单时记录结束日期与维护人签名
 * @dependencies service/store, service/query
 * @refs api/controllers/order_controller.go
 */

package order

import (
	"context"
	"errors"
	"strings"

	"idcops-service/service/models"
	"idcops-service/service/query"
	"idcops-service/service/storage"
	"idcops-service/service/store"
	"idcops-service/service/utils"
)

// ErrSignatureRequired 完成工单需要维护人签名
var ErrSignatureRequired = errors.New("完成工单需要维护人签名")

// Filter 工单筛选条件
type Filter struct {
	Keyword  string            `json:"keyword"`
	Status   models.WorkStatus `json:"status"`
	Priority models.Priority   `json:"priority"`
	Assignee string            `json:"assignee"`
	Reporter string            `json:"reporter"`
}

// Service 工单服务
type Service struct {
	store *store.Store[models.Order]
}

// NewService 创建工单服务
func NewService(kv storage.KV, namespace string, opts store.Options) *Service {
	return &Service{store: store.New[models.Order](kv, namespace, schema{}, opts)}
}

func (s *Service) Load(ctx context.Context) store.LoadReport { return s.store.Load(ctx) }

func (s *Service) Add(ctx context.Context, o models.Order) models.Order { return s.store.Add(ctx, o) }

func (s *Service) Update(ctx context.Context, id int64, partial map[string]interface{}) (models.Order, bool) {
	return s.store.Update(ctx, id, partial)
}

func (s *Service) Remove(ctx context.Context, id int64) bool { return s.store.Remove(ctx, id) }

func (s *Service) Get(id int64) (models.Order, bool) { return s.store.Get(id) }

func (s *Service) List() []models.Order { return s.store.List() }

func (s *Service) LastError() error { return s.store.LastError() }

// Filter 关键字匹配标题、描述、报修人、处理人
func (s *Service) Filter(f Filter) []models.Order {
	return s.store.Filter(func(o models.Order) bool {
		return query.MatchKeyword(f.Keyword, o.Title, o.Description, o.Reporter, o.Assignee) &&
			query.MatchExact(string(f.Status), string(o.Status)) &&
			query.MatchExact(string(f.Priority), string(o.Priority)) &&
			query.MatchExact(f.Assignee, o.Assignee) &&
			query.MatchExact(f.Reporter, o.Reporter)
	})
}

// Assign 指派处理人并进入处理中
func (s *Service) Assign(ctx context.Context, id int64, assignee string) (models.Order, error) {
	now := s.store.Now()
	return s.store.Mutate(ctx, id, func(o *models.Order) error {
		o.Assignee = strings.TrimSpace(assignee)
		o.Status = models.WorkInProgress
		if o.StartDate == "" {
			o.StartDate = utils.ISOTime(now)
		}
		return nil
	})
}

// Complete 完成工单，签名不能为空
func (s *Service) Complete(ctx context.Context, id int64, signature string) (models.Order, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return models.Order{}, ErrSignatureRequired
	}
	now := s.store.Now()
	return s.store.Mutate(ctx, id, func(o *models.Order) error {
		o.Status = models.WorkDone
		o.MaintainerSignature = signature
		o.EndDate = utils.ISOTime(now)
		return nil
	})
}
