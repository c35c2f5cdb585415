/*
 * @module service/notification/schema
 * @description 通知结构规范化，统一确认状态的布尔与计数两种形式
 * @architecture 标签联合解码 - legacy / canonical / invalid 三种变体
 * @stateFlow 原始 JSON -> decodeNotification -> notificationVariant -> canonical -> models.Notification
 * @rules
 *   - 规范化后 confirmed 为真当且仅当 confirmedCount >= 1
 *   - date 并入 createdAt，不再输出
 *   - 缺少创建时间时使用当前时间
 *   - 空字符串与字段缺失等价
 * @dependencies service/utils
 * @refs service/store/store.go
 */

package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/service/utils"
)

type notificationVariant interface {
	canonical(fallbackID int64, now time.Time) models.Notification
}

// legacyNotification 含 date、name、status 或数值型 confirmed 的旧结构
type legacyNotification struct{ f utils.Fields }

type canonicalNotification struct{ f utils.Fields }

type invalidNotification struct{}

func decodeNotification(raw []byte) notificationVariant {
	f, ok := utils.DecodeFields(raw)
	if !ok {
		return invalidNotification{}
	}
	_, numericConfirmed := f.Number("confirmed")
	if f.Has("date", "status") || numericConfirmed || (f.Has("name") && !f.Has("title")) {
		return legacyNotification{f: f}
	}
	return canonicalNotification{f: f}
}

// canonical 先把旧字段改写为规范字段名，再按规范结构转换
func (v legacyNotification) canonical(fallbackID int64, now time.Time) models.Notification {
	g := make(utils.Fields, len(v.f))
	for k, val := range v.f {
		g[k] = val
	}
	delete(g, "date")
	delete(g, "status")
	delete(g, "name")

	if _, ok := v.f.NonEmptyString("createdAt"); !ok {
		if date, ok := v.f.NonEmptyString("date"); ok {
			g["createdAt"] = date
		}
	}
	if _, ok := v.f.NonEmptyString("title"); !ok {
		if name, ok := v.f.NonEmptyString("name"); ok {
			g["title"] = name
		}
	}
	if n, ok := v.f.Number("confirmed"); ok {
		if !v.f.Has("confirmedCount") {
			g["confirmedCount"] = n
		}
		g["confirmed"] = n >= 1
	} else if _, ok := v.f.StrictBool("confirmed"); !ok {
		if status, ok := v.f.StrictString("status"); ok {
			g["confirmed"] = status == "confirmed" || status == "done"
		}
	}
	return canonicalNotification{f: g}.canonical(fallbackID, now)
}

func (v canonicalNotification) canonical(fallbackID int64, now time.Time) models.Notification {
	f := v.f
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	n := models.Notification{
		ID:        id,
		CreatedAt: f.StringOr("", "createdAt"),
		Content:   f.StringOr("", "content"),
		Publisher: f.StringOr("", "publisher"),
		Type:      f.StringOr("", "type"),
	}
	if n.CreatedAt == "" {
		n.CreatedAt = utils.ISOTime(now)
	}
	// 空串输出时被省略，按缺失处理
	n.Message, _ = f.NonEmptyString("message", "content")
	if title, ok := f.NonEmptyString("title"); ok {
		n.Title = title
	} else if n.Message != "" {
		n.Title = n.Message
	} else {
		n.Title = fmt.Sprintf("通知 #%d", id)
	}
	n.Read, _ = f.StrictBool("read")

	confirmed, _ := f.StrictBool("confirmed")
	count, _ := f.Int64("confirmedCount")
	if count < 0 {
		count = 0
	}
	if confirmed && count < 1 {
		count = 1
	}
	n.ConfirmedCount = int(count)
	n.Confirmed = count >= 1
	return n
}

func (invalidNotification) canonical(fallbackID int64, now time.Time) models.Notification {
	return models.Notification{
		ID:        fallbackID,
		CreatedAt: utils.ISOTime(now),
		Title:     fmt.Sprintf("通知 #%d", fallbackID),
	}
}

// Normalize 把任意 JSON 转换为规范通知，缺少创建时间时使用 now
func Normalize(raw json.RawMessage, fallbackID int64, now time.Time) models.Notification {
	return decodeNotification(raw).canonical(fallbackID, now)
}

type schema struct {
	now func() time.Time
}

func (schema) Slot() string { return storage.SlotNotifications }

func (s schema) Normalize(raw json.RawMessage, fallbackID int64) models.Notification {
	return Normalize(raw, fallbackID, s.now())
}

func (schema) ID(n models.Notification) int64 { return n.ID }

func (schema) SetID(n *models.Notification, id int64) { n.ID = id }

func (schema) Prepare(n *models.Notification, now time.Time) {
	if n.CreatedAt == "" {
		n.CreatedAt = utils.ISOTime(now)
	}
}
