package render

import "time"

const day = 24 * time.Hour

// FormatTimestamp 按距今的整天数格式化时间：当天显示时分，
// 一天前显示 Yesterday，一周内显示星期缩写，其余显示月日。
func FormatTimestamp(t, now time.Time) string {
	diffDays := int(now.Sub(t) / day)
	switch {
	case diffDays <= 0:
		return t.Format("15:04")
	case diffDays == 1:
		return "Yesterday"
	case diffDays < 7:
		return t.Format("Mon")
	default:
		return t.Format("Jan 2")
	}
}
