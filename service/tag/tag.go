package tag

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/query"
	"idcops-service/service/storage"
	"idcops-service/service/store"
	"idcops-service/service/utils"
)

var (
	// ErrNameRequired 标签名为空
	ErrNameRequired = errors.New("标签名称不能为空")
	// ErrNameTaken 标签名已存在
	ErrNameTaken = errors.New("标签名称已存在")
)

// Normalize 把任意 JSON 转换为规范标签
func Normalize(raw json.RawMessage, fallbackID int64) models.Tag {
	f, ok := utils.DecodeFields(raw)
	if !ok {
		return models.Tag{ID: fallbackID}
	}
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	return models.Tag{
		ID:          id,
		Name:        f.StringOr("", "name"),
		Description: f.StringOr("", "description"),
		CreatedAt:   f.StringOr("", "createdAt"),
	}
}

type schema struct{}

func (schema) Slot() string { return storage.SlotTags }

func (schema) Normalize(raw json.RawMessage, fallbackID int64) models.Tag {
	return Normalize(raw, fallbackID)
}

func (schema) ID(t models.Tag) int64 { return t.ID }

func (schema) SetID(t *models.Tag, id int64) { t.ID = id }

func (schema) Prepare(t *models.Tag, now time.Time) {
	if t.CreatedAt == "" {
		t.CreatedAt = utils.ISOTime(now)
	}
}

// Service 标签服务
type Service struct {
	store *store.Store[models.Tag]
}

// NewService 创建标签服务
func NewService(kv storage.KV, namespace string, opts store.Options) *Service {
	return &Service{store: store.New[models.Tag](kv, namespace, schema{}, opts)}
}

func (s *Service) Load(ctx context.Context) store.LoadReport { return s.store.Load(ctx) }

// Add 新建标签，名称去除首尾空白后不能为空且不能重复
func (s *Service) Add(ctx context.Context, t models.Tag) (models.Tag, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return models.Tag{}, ErrNameRequired
	}
	if _, ok := s.FindByName(t.Name); ok {
		return models.Tag{}, ErrNameTaken
	}
	return s.store.Add(ctx, t), nil
}

func (s *Service) Update(ctx context.Context, id int64, partial map[string]interface{}) (models.Tag, bool) {
	return s.store.Update(ctx, id, partial)
}

func (s *Service) Remove(ctx context.Context, id int64) bool { return s.store.Remove(ctx, id) }

func (s *Service) Get(id int64) (models.Tag, bool) { return s.store.Get(id) }

func (s *Service) List() []models.Tag { return s.store.List() }

func (s *Service) LastError() error { return s.store.LastError() }

// FindByName 按名称精确查找
func (s *Service) FindByName(name string) (models.Tag, bool) {
	found := s.store.Filter(func(t models.Tag) bool { return t.Name == name })
	if len(found) == 0 {
		return models.Tag{}, false
	}
	return found[0], true
}

// Search 关键字匹配名称与描述
func (s *Service) Search(keyword string) []models.Tag {
	return s.store.Filter(func(t models.Tag) bool {
		return query.MatchKeyword(keyword, t.Name, t.Description)
	})
}
