package utils

import "time"

// DisplayTimeFormat 畫面顯示用的日期時間格式
const DisplayTimeFormat = "02/01/2006 15:04:05"

// ExportTimeFormat 匯出檔案用的日期時間格式
const ExportTimeFormat = "2006-01-02 15:04:05"

// MillisToTime 毫秒時間戳轉 time.Time
func MillisToTime(millis int64) time.Time {
	return time.UnixMilli(millis)
}

// TimeToMillis time.Time 轉毫秒時間戳
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FormatMillis 毫秒時間戳格式化為字串
func FormatMillis(millis int64, layout string) string {
	return time.UnixMilli(millis).Format(layout)
}
