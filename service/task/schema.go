package task

import (
	"encoding/json"
	"strings"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/service/utils"
)

// ParseStatus 解析任务/工单状态及其中文别名，未知值视为 new
func ParseStatus(s string) models.WorkStatus {
	switch strings.TrimSpace(s) {
	case "in-progress", "处理中":
		return models.WorkInProgress
	case "done", "已完成":
		return models.WorkDone
	}
	return models.WorkNew
}

// ParseRecurrence 解析重复周期，未知值视为不重复
func ParseRecurrence(s string) models.Recurrence {
	switch strings.TrimSpace(s) {
	case "daily", "每日", "每天":
		return models.RecurrenceDaily
	case "weekly", "每周":
		return models.RecurrenceWeekly
	case "monthly", "每月":
		return models.RecurrenceMonthly
	}
	return models.RecurrenceNone
}

// Normalize 把任意 JSON 转换为规范任务
func Normalize(raw json.RawMessage, fallbackID int64) models.Task {
	f, ok := utils.DecodeFields(raw)
	if !ok {
		return models.Task{ID: fallbackID, Status: models.WorkNew}
	}
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	synced, _ := f.StrictBool("synced")
	return models.Task{
		ID:          id,
		Title:       f.StringOr("", "title"),
		Status:      ParseStatus(f.StringOr("", "status")),
		Location:    f.StringOr("", "location"),
		Recurrence:  ParseRecurrence(f.StringOr("", "recurrence")),
		DueDate:     f.StringOr("", "dueDate"),
		CreatedAt:   f.StringOr("", "createdAt"),
		Description: f.StringOr("", "description"),
		Synced:      synced,
	}
}

type schema struct{}

func (schema) Slot() string { return storage.SlotTasks }

func (schema) Normalize(raw json.RawMessage, fallbackID int64) models.Task {
	return Normalize(raw, fallbackID)
}

func (schema) ID(t models.Task) int64 { return t.ID }

func (schema) SetID(t *models.Task, id int64) { t.ID = id }

func (schema) Prepare(t *models.Task, now time.Time) {
	if t.CreatedAt == "" {
		t.CreatedAt = utils.ISOTime(now)
	}
	if t.Status == "" {
		t.Status = models.WorkNew
	}
}
