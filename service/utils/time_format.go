package utils

import "time"

// ISOLayout 毫秒精度的 UTC 时间格式，与浏览器端 toISOString 一致
const ISOLayout = "2006-01-02T15:04:05.000Z"

// DateLayout 仅日期
const DateLayout = "2006-01-02"

// ISOTime 格式化为 ISOLayout
func ISOTime(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}
