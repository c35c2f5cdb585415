/*
 * @module service/inspection/schema
 * @description 巡检记录结构规范化
 * @architecture 标签联合解码 - grouped / minimal / canonical / invalid 四种变体
 * @stateFlow 原始 JSON -> decodeInspection -> inspectionVariant -> canonical -> models.Inspection
 * @rules
 *   - 含 data 对象的按分组旧结构处理，巡检项按分区在源文档中的顺序展开
 *   - 只有巡检人或备注、没有巡检项与标题的按最简结构处理
 *   - abnormal 总是由巡检项重新计算，不信任存储值
 * @dependencies service/utils
 * @refs service/store/store.go
 */

package inspection

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/service/utils"
)

type inspectionVariant interface {
	canonical(fallbackID int64) models.Inspection
}

// groupedInspection 旧版分组结构 {data: {分区: [旧巡检项]}}
type groupedInspection struct {
	f        utils.Fields
	sections []section
}

type section struct {
	name  string
	items []utils.Fields
}

// minimalInspection 仅有巡检人、接班人、备注
type minimalInspection struct{ f utils.Fields }

type canonicalInspection struct{ f utils.Fields }

type invalidInspection struct{}

func decodeInspection(raw []byte) inspectionVariant {
	f, ok := utils.DecodeFields(raw)
	if !ok {
		return invalidInspection{}
	}
	if data, ok := utils.AsFields(f["data"]); ok {
		return groupedInspection{f: f, sections: decodeSections(raw, data)}
	}
	if !f.Has("items", "title") && f.Has("inspector", "remark") {
		return minimalInspection{f: f}
	}
	return canonicalInspection{f: f}
}

// decodeSections 按源文档顺序读取分区
func decodeSections(raw []byte, data utils.Fields) []section {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	var order []string
	if err := json.Unmarshal(raw, &envelope); err == nil {
		order, _ = utils.OrderedKeys(envelope.Data)
	}
	if len(order) != len(data) {
		order = sortedKeys(data)
	}

	sections := make([]section, 0, len(order))
	for _, name := range order {
		arr, _ := data[name].([]interface{})
		items := make([]utils.Fields, 0, len(arr))
		for _, el := range arr {
			if obj, ok := utils.AsFields(el); ok {
				items = append(items, obj)
			}
		}
		sections = append(sections, section{name: name, items: items})
	}
	return sections
}

func (v groupedInspection) canonical(fallbackID int64) models.Inspection {
	insp := baseInspection(v.f, fallbackID)
	items := []models.InspectionItem{}
	for _, sec := range v.sections {
		for _, it := range sec.items {
			item := decodeItem(it, int64(len(items)+1))
			item.Section = sec.name
			items = append(items, item)
		}
	}
	return finish(insp, items)
}

func (v minimalInspection) canonical(fallbackID int64) models.Inspection {
	insp := baseInspection(v.f, fallbackID)
	return finish(insp, []models.InspectionItem{})
}

func (v canonicalInspection) canonical(fallbackID int64) models.Inspection {
	insp := baseInspection(v.f, fallbackID)
	items := []models.InspectionItem{}
	if objs, ok := v.f.Objects("items"); ok {
		for _, it := range objs {
			items = append(items, decodeItem(it, int64(len(items)+1)))
		}
	}
	return finish(insp, items)
}

func (invalidInspection) canonical(fallbackID int64) models.Inspection {
	return finish(models.Inspection{ID: fallbackID}, []models.InspectionItem{})
}

func baseInspection(f utils.Fields, fallbackID int64) models.Inspection {
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	synced, _ := f.StrictBool("synced")
	return models.Inspection{
		ID:             id,
		Title:          f.StringOr("", "title"),
		Inspector:      f.StringOr("", "inspector"),
		RelayInspector: f.StringOr("", "relayInspector"),
		Date:           f.StringOr("", "date"),
		Notes:          f.StringOr("", "notes", "remark"),
		Synced:         synced,
	}
}

func finish(insp models.Inspection, items []models.InspectionItem) models.Inspection {
	insp.Items = items
	insp.Abnormal = models.CountAbnormal(items)
	return insp
}

// decodeItem 同时接受规范字段名与旧版中文字段名
func decodeItem(f utils.Fields, fallbackID int64) models.InspectionItem {
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	return models.InspectionItem{
		ID:           id,
		Content:      f.StringOr("", "content", "内容"),
		Status:       ParseItemStatus(f.StringOr("", "status", "状态")),
		Name:         f.StringOr("", "name", "项目"),
		Temperature:  f.StringOr("", "temperature", "温度"),
		Humidity:     f.StringOr("", "humidity", "湿度"),
		Pressure:     f.StringOr("", "pressure", "压力"),
		AbnormalNote: f.StringOr("", "abnormalNote", "异常摘要"),
		Section:      f.StringOr("", "section"),
	}
}

// ParseItemStatus 解析巡检项状态，未知值视为 normal
func ParseItemStatus(s string) models.ItemStatus {
	switch strings.TrimSpace(s) {
	case "abnormal", "异常":
		return models.ItemAbnormal
	}
	return models.ItemNormal
}

func sortedKeys(m utils.Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize 把任意 JSON 转换为规范巡检记录
func Normalize(raw json.RawMessage, fallbackID int64) models.Inspection {
	return decodeInspection(raw).canonical(fallbackID)
}

type schema struct{}

func (schema) Slot() string { return storage.SlotInspections }

func (schema) Normalize(raw json.RawMessage, fallbackID int64) models.Inspection {
	return Normalize(raw, fallbackID)
}

func (schema) ID(i models.Inspection) int64 { return i.ID }

func (schema) SetID(i *models.Inspection, id int64) { i.ID = id }

func (schema) Prepare(i *models.Inspection, now time.Time) {
	if i.Date == "" {
		i.Date = utils.ISOTime(now)
	}
	if i.Items == nil {
		i.Items = []models.InspectionItem{}
	}
}
