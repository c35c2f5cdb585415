package task

import (
	"fmt"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/utils"
)

// NextDueDate 按日历计算下一次到期日，保持原日期的格式（仅日期或 UTC 毫秒时间）
func NextDueDate(due string, r models.Recurrence) (string, error) {
	layout := utils.DateLayout
	t, err := time.Parse(utils.DateLayout, due)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, due)
		if err != nil {
			return "", fmt.Errorf("无法解析到期日 %q: %w", due, err)
		}
		t = t.UTC()
		layout = utils.ISOLayout
	}

	switch r {
	case models.RecurrenceDaily:
		t = t.AddDate(0, 0, 1)
	case models.RecurrenceWeekly:
		t = t.AddDate(0, 0, 7)
	case models.RecurrenceMonthly:
		t = t.AddDate(0, 1, 0)
	default:
		return "", fmt.Errorf("任务不重复: %q", r)
	}
	return t.Format(layout), nil
}
