/*
 * @module service/query/query
 * @description 列表查询的通用匹配规则：关键字模糊匹配与字段精确匹配
 * @architecture 工具层 - 纯函数，无状态
 * @rules
 *   - 关键字去除首尾空白后做 Unicode 大小写折叠的子串匹配
 *   - 空关键字匹配全部记录，空字段不参与匹配
 *   - 精确条件为空表示不约束该字段，而不是匹配空值
 * @dependencies golang.org/x/text/cases
 * @refs service/asset, service/inspection, service/notification, service/task, service/order
 */

package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// MatchKeyword 关键字是否出现在任一非空字段中
func MatchKeyword(keyword string, fields ...string) bool {
	kw := fold(strings.TrimSpace(keyword))
	if kw == "" {
		return true
	}
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(fold(f), kw) {
			return true
		}
	}
	return false
}

// MatchExact 精确匹配，条件为空时不约束
func MatchExact(criterion, value string) bool {
	return criterion == "" || criterion == value
}

// Paginate 按页截取，page 从 1 开始；size <= 0 时返回全部
func Paginate[T any](items []T, page, size int) []T {
	if size <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	// 先比较页号再相乘，避免溢出
	if len(items) == 0 || page-1 > (len(items)-1)/size {
		return []T{}
	}
	start := (page - 1) * size
	end := len(items)
	if size < end-start {
		end = start + size
	}
	return items[start:end]
}

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}
