/*
 * @module service/asset/service
 * @description 资产服务：增删改查、检索与借还状态机
 * @architecture 业务服务层 - 基于 store.Store 的单槽位仓储
 * @stateFlow available -> borrowed -> available；available <-> in-repair
 * @rules
 *   - 已借出或维修中的资产拒绝再次借用
 *   - 每次借还恰好追加一条日志
 *   - 归还日志记在原借用人名下，没有借用人时不记日志
 *   - 通用新增与更新不能改写借还字段与日志
 * @dependencies go.uber.org/zap, service/store, service/query
 * @refs service/models/asset.go, api/controllers/asset_controller.go
 */

package asset

import (
	"context"
	"errors"
	"strings"

	"idcops-service/service/models"
	"idcops-service/service/query"
	"idcops-service/service/storage"
	"idcops-service/service/store"
	"idcops-service/service/utils"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyBorrowed 资产已被借出
	ErrAlreadyBorrowed = errors.New("资产已被借出")
	// ErrInRepair 资产维修中
	ErrInRepair = errors.New("资产维修中，无法借用")
	// ErrBorrowerRequired 借用人为空
	ErrBorrowerRequired = errors.New("借用人不能为空")
	// ErrStatusManaged 借出状态只能通过借用与归还变更
	ErrStatusManaged = errors.New("借出状态只能通过借用与归还变更")
	// ErrInvalidStatus 未知的资产状态
	ErrInvalidStatus = errors.New("未知的资产状态")
)

// managedFields 由借还状态机维护的字段（含旧字段名），通用新增与更新不写入
var managedFields = map[string]bool{
	"status":     true,
	"borrowerId": true,
	"borrower":   true,
	"borrowTime": true,
	"borrowedAt": true,
	"returnTime": true,
	"returnedAt": true,
	"logs":       true,
}

// Filter 资产筛选条件，空字段不约束
type Filter struct {
	Keyword    string             `json:"keyword"`
	Status     models.AssetStatus `json:"status"`
	BorrowerID string             `json:"borrowerId"`
	Category   string             `json:"category"`
}

// Service 资产服务
type Service struct {
	store  *store.Store[models.Asset]
	logger *zap.Logger
}

// NewService 创建资产服务，需调用 Load 读取持久化数据
func NewService(kv storage.KV, namespace string, opts store.Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store.New[models.Asset](kv, namespace, schema{}, opts),
		logger: logger.Named("asset"),
	}
}

// Load 读取并迁移持久化数据
func (s *Service) Load(ctx context.Context) store.LoadReport {
	return s.store.Load(ctx)
}

// Add 新增资产；借还字段与日志被清空，只能以 available 或 in-repair 入库
func (s *Service) Add(ctx context.Context, a models.Asset) models.Asset {
	if a.Status != models.AssetInRepair {
		a.Status = models.AssetAvailable
	}
	a.BorrowerID = ""
	a.BorrowTime = ""
	a.ReturnTime = ""
	a.Logs = []models.AssetLog{}
	return s.store.Add(ctx, a)
}

// Update 部分字段更新。借还字段与日志被忽略，status 只接受 available 与 in-repair 之间的切换；
// id 不存在时返回 store.ErrNotFound 且不写入
func (s *Service) Update(ctx context.Context, id int64, partial map[string]interface{}) (models.Asset, error) {
	current, ok := s.store.Get(id)
	if !ok {
		return models.Asset{}, store.ErrNotFound
	}

	var target models.AssetStatus
	if raw, ok := partial["status"]; ok && raw != nil {
		str, _ := raw.(string)
		status, known := ParseStatus(str)
		switch {
		case !known:
			return current, ErrInvalidStatus
		case status == current.Status:
		case status == models.AssetBorrowed, current.Status == models.AssetBorrowed:
			return current, ErrStatusManaged
		default:
			target = status
		}
	}

	fields := make(map[string]interface{}, len(partial))
	for k, v := range partial {
		if !managedFields[k] {
			fields[k] = v
		}
	}

	a := current
	if len(fields) > 0 {
		if a, ok = s.store.Update(ctx, id, fields); !ok {
			return models.Asset{}, store.ErrNotFound
		}
	}
	if target != "" {
		return s.SetRepair(ctx, id, target == models.AssetInRepair)
	}
	return a, nil
}

// Remove 删除资产
func (s *Service) Remove(ctx context.Context, id int64) bool {
	return s.store.Remove(ctx, id)
}

// Get 按 id 获取
func (s *Service) Get(id int64) (models.Asset, bool) {
	return s.store.Get(id)
}

// List 全部资产
func (s *Service) List() []models.Asset {
	return s.store.List()
}

// LastError 最近一次持久化失败
func (s *Service) LastError() error {
	return s.store.LastError()
}

// Search 按名称、分类、位置、备注关键字检索
func (s *Service) Search(keyword string) []models.Asset {
	return s.Filter(Filter{Keyword: keyword})
}

// Filter 组合筛选
func (s *Service) Filter(f Filter) []models.Asset {
	return s.store.Filter(func(a models.Asset) bool {
		return query.MatchKeyword(f.Keyword, a.Name, a.Category, a.Location, a.Remark) &&
			query.MatchExact(string(f.Status), string(a.Status)) &&
			query.MatchExact(f.BorrowerID, a.BorrowerID) &&
			query.MatchExact(f.Category, a.Category)
	})
}

// Borrow 借出资产
func (s *Service) Borrow(ctx context.Context, id int64, borrowerID string) (models.Asset, error) {
	borrowerID = strings.TrimSpace(borrowerID)
	if borrowerID == "" {
		return models.Asset{}, ErrBorrowerRequired
	}
	now := utils.ISOTime(s.store.Now())

	a, err := s.store.Mutate(ctx, id, func(a *models.Asset) error {
		switch a.Status {
		case models.AssetBorrowed:
			return ErrAlreadyBorrowed
		case models.AssetInRepair:
			return ErrInRepair
		}
		a.Status = models.AssetBorrowed
		a.BorrowerID = borrowerID
		a.BorrowTime = now
		a.Logs = append(a.Logs, models.AssetLog{Action: models.AssetActionBorrow, UserID: borrowerID, Time: now})
		return nil
	})
	if err != nil {
		return a, err
	}
	s.logger.Info("资产借出", zap.Int64("id", id), zap.String("borrower", borrowerID))
	return a, nil
}

// Return 归还资产
func (s *Service) Return(ctx context.Context, id int64) (models.Asset, error) {
	now := utils.ISOTime(s.store.Now())

	var borrower string
	a, err := s.store.Mutate(ctx, id, func(a *models.Asset) error {
		borrower = a.BorrowerID
		a.ReturnTime = now
		if borrower != "" {
			a.Logs = append(a.Logs, models.AssetLog{Action: models.AssetActionReturn, UserID: borrower, Time: now})
		}
		a.BorrowerID = ""
		a.BorrowTime = ""
		a.Status = models.AssetAvailable
		return nil
	})
	if err != nil {
		return a, err
	}
	s.logger.Info("资产归还", zap.Int64("id", id), zap.String("borrower", borrower))
	return a, nil
}

// SetRepair 送修或结束维修；借出中的资产需先归还
func (s *Service) SetRepair(ctx context.Context, id int64, inRepair bool) (models.Asset, error) {
	return s.store.Mutate(ctx, id, func(a *models.Asset) error {
		if !inRepair {
			if a.Status == models.AssetInRepair {
				a.Status = models.AssetAvailable
			}
			return nil
		}
		if a.Status == models.AssetBorrowed {
			return ErrAlreadyBorrowed
		}
		a.Status = models.AssetInRepair
		return nil
	})
}
