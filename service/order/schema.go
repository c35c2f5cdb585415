package order

import (
	"encoding/json"
	"strings"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/service/task"
	"idcops-service/service/utils"
)

// ParsePriority 解析优先级及中文别名，未知值视为 medium
func ParsePriority(s string) models.Priority {
	switch strings.TrimSpace(s) {
	case "high", "高":
		return models.PriorityHigh
	case "low", "低":
		return models.PriorityLow
	}
	return models.PriorityMedium
}

// Normalize 把任意 JSON 转换为规范工单
func Normalize(raw json.RawMessage, fallbackID int64) models.Order {
	f, ok := utils.DecodeFields(raw)
	if !ok {
		return models.Order{ID: fallbackID, Priority: models.PriorityMedium, Status: models.WorkNew}
	}
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	synced, _ := f.StrictBool("synced")
	return models.Order{
		ID:                  id,
		Title:               f.StringOr("", "title"),
		Priority:            ParsePriority(f.StringOr("", "priority")),
		Reporter:            f.StringOr("", "reporter"),
		Assignee:            f.StringOr("", "assignee"),
		Status:              task.ParseStatus(f.StringOr("", "status")),
		StartDate:           f.StringOr("", "startDate"),
		EndDate:             f.StringOr("", "endDate"),
		Description:         f.StringOr("", "description"),
		MaintainerSignature: f.StringOr("", "maintainerSignature"),
		CreatedAt:           f.StringOr("", "createdAt"),
		Synced:              synced,
	}
}

type schema struct{}

func (schema) Slot() string { return storage.SlotOrders }

func (schema) Normalize(raw json.RawMessage, fallbackID int64) models.Order {
	return Normalize(raw, fallbackID)
}

func (schema) ID(o models.Order) int64 { return o.ID }

func (schema) SetID(o *models.Order, id int64) { o.ID = id }

func (schema) Prepare(o *models.Order, now time.Time) {
	if o.CreatedAt == "" {
		o.CreatedAt = utils.ISOTime(now)
	}
}
