/*
 * @module service/models/asset
 * @description 资产实体及借还日志的规范结构
 * @architecture 数据模型层
 * @rules status=borrowed 当且仅当 borrowerId 非空（由借还操作维护）；logs 按追加顺序排列
 * @refs service/asset
 */

package models

// AssetStatus 资产状态
type AssetStatus string

const (
	AssetAvailable AssetStatus = "available"
	AssetBorrowed  AssetStatus = "borrowed"
	AssetInRepair  AssetStatus = "in-repair"
)

// AssetAction 借还动作
type AssetAction string

const (
	AssetActionBorrow AssetAction = "borrow"
	AssetActionReturn AssetAction = "return"
)

// AssetLog 借还日志
type AssetLog struct {
	Action AssetAction `json:"action"`
	UserID string      `json:"userId"`
	Time   string      `json:"time"`
}

// Asset 机房资产
type Asset struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Category   string      `json:"category,omitempty"`
	Location   string      `json:"location,omitempty"`
	Status     AssetStatus `json:"status"`
	Remark     string      `json:"remark,omitempty"`
	BorrowerID string      `json:"borrowerId,omitempty"`
	BorrowTime string      `json:"borrowTime,omitempty"`
	ReturnTime string      `json:"returnTime,omitempty"`
	Logs       []AssetLog  `json:"logs"`
}
