package models

import "project02/utils"

// HistoryRecord 歷史紀錄表：只新增不修改，一筆對應一次完整停留
type HistoryRecord struct {
	ID              int64   `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Plate           string  `gorm:"size:20;not null;index;column:plate" json:"plate"`
	VehicleTypeName string  `gorm:"size:20;not null;column:vehicle_type_name" json:"vehicle_type_name"`
	CheckInTime     int64   `gorm:"not null;column:check_in_time" json:"check_in_time"`
	CheckOutTime    int64   `gorm:"not null;column:check_out_time" json:"check_out_time"`
	DurationMinutes int64   `gorm:"not null;column:duration_minutes" json:"duration_minutes"`
	Fee             float64 `gorm:"not null;column:fee" json:"fee"`
}

// TableName 指定表名
func (HistoryRecord) TableName() string {
	return "vehicle_history"
}

type HistoryRecordResponse struct {
	Plate               string  `json:"plate"`
	VehicleTypeName     string  `json:"vehicle_type_name"`
	CheckInTime         int64   `json:"check_in_time"`
	CheckInTimeDisplay  string  `json:"check_in_time_display"`
	CheckOutTime        int64   `json:"check_out_time"`
	CheckOutTimeDisplay string  `json:"check_out_time_display"`
	DurationMinutes     int64   `json:"duration_minutes"`
	Fee                 float64 `json:"fee"`
}

func (h *HistoryRecord) ToResponse() HistoryRecordResponse {
	return HistoryRecordResponse{
		Plate:               h.Plate,
		VehicleTypeName:     h.VehicleTypeName,
		CheckInTime:         h.CheckInTime,
		CheckInTimeDisplay:  utils.FormatMillis(h.CheckInTime, utils.DisplayTimeFormat),
		CheckOutTime:        h.CheckOutTime,
		CheckOutTimeDisplay: utils.FormatMillis(h.CheckOutTime, utils.DisplayTimeFormat),
		DurationMinutes:     h.DurationMinutes,
		Fee:                 h.Fee,
	}
}
