/*
 * @module service/models/inspection
 * @description 巡检记录及巡检项的规范结构
 * @architecture 数据模型层
 * @rules abnormal 恒等于 status=abnormal 的巡检项数量
 * @refs service/inspection
 */

package models

// ItemStatus 巡检项状态
type ItemStatus string

const (
	ItemNormal   ItemStatus = "normal"
	ItemAbnormal ItemStatus = "abnormal"
)

// InspectionItem 巡检项
type InspectionItem struct {
	ID           int64      `json:"id"`
	Content      string     `json:"content"`
	Status       ItemStatus `json:"status"`
	Name         string     `json:"name,omitempty"`
	Temperature  string     `json:"temperature,omitempty"`
	Humidity     string     `json:"humidity,omitempty"`
	Pressure     string     `json:"pressure,omitempty"`
	AbnormalNote string     `json:"abnormalNote,omitempty"`
	Section      string     `json:"section,omitempty"`
}

// Inspection 巡检记录
type Inspection struct {
	ID             int64            `json:"id"`
	Title          string           `json:"title"`
	Inspector      string           `json:"inspector,omitempty"`
	RelayInspector string           `json:"relayInspector,omitempty"`
	Date           string           `json:"date"`
	Notes          string           `json:"notes,omitempty"`
	Items          []InspectionItem `json:"items"`
	Abnormal       int              `json:"abnormal"`
	Synced         bool             `json:"synced"`
}

// CountAbnormal 统计异常巡检项
func CountAbnormal(items []InspectionItem) int {
	n := 0
	for _, it := range items {
		if it.Status == ItemAbnormal {
			n++
		}
	}
	return n
}
