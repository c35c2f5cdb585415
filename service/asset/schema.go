/*
 * @module service/asset/schema
 * @description 资产结构规范化：识别历史结构并转换为规范结构
 * @architecture 标签联合解码 - 原始 JSON 先解码为某个变体，再由变体转换为规范结构
 * @stateFlow 原始 JSON -> decodeAsset -> assetVariant -> canonical -> models.Asset
 * @rules
 *   - 变体按从特殊到一般的顺序识别，第一个匹配者胜出
 *   - 未知状态回落为 available，未知日志动作被丢弃
 *   - 不在此处修正 status 与 borrowerId 的一致性，由借还操作维护
 * @dependencies service/utils
 * @refs service/store/store.go
 */

package asset

import (
	"encoding/json"
	"strings"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/service/utils"
)

// assetVariant 已识别的资产结构
type assetVariant interface {
	canonical(fallbackID int64) models.Asset
}

// legacyAsset 旧版结构：borrower/borrowedAt/returnedAt
type legacyAsset struct{ f utils.Fields }

// canonicalAsset 当前结构或接近当前结构
type canonicalAsset struct{ f utils.Fields }

// invalidAsset 非对象输入
type invalidAsset struct{}

func decodeAsset(raw []byte) assetVariant {
	f, ok := utils.DecodeFields(raw)
	if !ok {
		return invalidAsset{}
	}
	if f.Has("borrower", "borrowedAt", "returnedAt") && !f.Has("borrowerId") {
		return legacyAsset{f: f}
	}
	return canonicalAsset{f: f}
}

func (v legacyAsset) canonical(fallbackID int64) models.Asset {
	a := baseAsset(v.f, fallbackID)
	a.BorrowerID, _ = v.f.String("borrower")
	a.BorrowTime, _ = v.f.String("borrowedAt", "borrowTime")
	a.ReturnTime, _ = v.f.String("returnedAt", "returnTime")
	return a
}

func (v canonicalAsset) canonical(fallbackID int64) models.Asset {
	a := baseAsset(v.f, fallbackID)
	a.BorrowerID, _ = v.f.String("borrowerId")
	a.BorrowTime, _ = v.f.String("borrowTime")
	a.ReturnTime, _ = v.f.String("returnTime")
	return a
}

func (invalidAsset) canonical(fallbackID int64) models.Asset {
	return models.Asset{ID: fallbackID, Status: models.AssetAvailable, Logs: []models.AssetLog{}}
}

func baseAsset(f utils.Fields, fallbackID int64) models.Asset {
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	status, _ := ParseStatus(f.StringOr("", "status"))
	return models.Asset{
		ID:       id,
		Name:     f.StringOr("", "name"),
		Category: f.StringOr("", "category"),
		Location: f.StringOr("", "location"),
		Status:   status,
		Remark:   f.StringOr("", "remark"),
		Logs:     normalizeLogs(f),
	}
}

// ParseStatus 解析状态及其别名，未知值返回 available 与 false
func ParseStatus(s string) (models.AssetStatus, bool) {
	switch strings.TrimSpace(s) {
	case "available", "在库", "可用":
		return models.AssetAvailable, true
	case "borrowed", "借用中", "借用":
		return models.AssetBorrowed, true
	case "in-repair", "repair", "维修", "维修中":
		return models.AssetInRepair, true
	}
	return models.AssetAvailable, false
}

func parseAction(s string) (models.AssetAction, bool) {
	switch strings.TrimSpace(s) {
	case "borrow", "借用":
		return models.AssetActionBorrow, true
	case "return", "归还":
		return models.AssetActionReturn, true
	}
	return "", false
}

func normalizeLogs(f utils.Fields) []models.AssetLog {
	logs := []models.AssetLog{}
	entries, ok := f.Objects("logs")
	if !ok {
		return logs
	}
	for _, e := range entries {
		action, ok := parseAction(e.StringOr("", "action"))
		if !ok {
			continue
		}
		logs = append(logs, models.AssetLog{
			Action: action,
			UserID: e.StringOr("", "userId", "user"),
			Time:   e.StringOr("", "time", "date"),
		})
	}
	return logs
}

// Normalize 把任意 JSON 转换为规范资产
func Normalize(raw json.RawMessage, fallbackID int64) models.Asset {
	return decodeAsset(raw).canonical(fallbackID)
}

type schema struct{}

func (schema) Slot() string { return storage.SlotAssets }

func (schema) Normalize(raw json.RawMessage, fallbackID int64) models.Asset {
	return Normalize(raw, fallbackID)
}

func (schema) ID(a models.Asset) int64 { return a.ID }

func (schema) SetID(a *models.Asset, id int64) { a.ID = id }

func (schema) Prepare(a *models.Asset, _ time.Time) {
	if a.Status == "" {
		a.Status = models.AssetAvailable
	}
	if a.Logs == nil {
		a.Logs = []models.AssetLog{}
	}
}
