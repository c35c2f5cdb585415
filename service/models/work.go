/*
 * @module service/models/work
 * @description 任务、工单、标签的规范结构
 * @architecture 数据模型层
 * @refs service/task, service/order, service/tag
 */

package models

// WorkStatus 任务与工单共用的处理状态
type WorkStatus string

const (
	WorkNew        WorkStatus = "new"
	WorkInProgress WorkStatus = "in-progress"
	WorkDone       WorkStatus = "done"
)

// Recurrence 任务重复周期，空串表示不重复
type Recurrence string

const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Task 运维任务
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Status      WorkStatus `json:"status"`
	Location    string     `json:"location,omitempty"`
	Recurrence  Recurrence `json:"recurrence,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"`
	CreatedAt   string     `json:"createdAt"`
	Description string     `json:"description,omitempty"`
	Synced      bool       `json:"synced"`
}

// Priority 工单优先级
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Order 工单
type Order struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Priority            Priority   `json:"priority"`
	Reporter            string     `json:"reporter"`
	Assignee            string     `json:"assignee,omitempty"`
	Status              WorkStatus `json:"status"`
	StartDate           string     `json:"startDate,omitempty"`
	EndDate             string     `json:"endDate,omitempty"`
	Description         string     `json:"description,omitempty"`
	MaintainerSignature string     `json:"maintainerSignature,omitempty"`
	CreatedAt           string     `json:"createdAt"`
	Synced              bool       `json:"synced"`
}

// Tag 标签
type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt"`
}
