package models

import "project02/utils"

// ParkedVehicle 場內車輛表：一個車牌同時只能有一筆（主鍵）
type ParkedVehicle struct {
	Plate           string `gorm:"primaryKey;size:20;column:plate" json:"plate"`
	VehicleTypeName string `gorm:"size:20;not null;column:vehicle_type_name" json:"vehicle_type_name"`
	CheckInTime     int64  `gorm:"not null;column:check_in_time" json:"check_in_time"` // 毫秒時間戳
}

// TableName 指定表名
func (ParkedVehicle) TableName() string {
	return "parked_vehicles"
}

// VehicleType 解析儲存的類型名稱，資料損壞時回傳 ErrUnknownVehicleType
func (v *ParkedVehicle) VehicleType() (VehicleType, error) {
	return ParseVehicleType(v.VehicleTypeName)
}

// 給前端用的回應結構
type ParkedVehicleResponse struct {
	Plate                  string  `json:"plate"`
	VehicleTypeName        string  `json:"vehicle_type_name"`
	HourlyRate             float64 `json:"hourly_rate"`
	CheckInTime            int64   `json:"check_in_time"`
	CheckInTimeDisplay     string  `json:"check_in_time_display"`
	RunningDurationMinutes int64   `json:"running_duration_minutes"`
}

// ToResponse 轉為回應結構，nowMillis 用來計算目前停留時間
func (v *ParkedVehicle) ToResponse(nowMillis int64) ParkedVehicleResponse {
	return ParkedVehicleResponse{
		Plate:                  v.Plate,
		VehicleTypeName:        v.VehicleTypeName,
		HourlyRate:             VehicleType(v.VehicleTypeName).HourlyRate(),
		CheckInTime:            v.CheckInTime,
		CheckInTimeDisplay:     utils.FormatMillis(v.CheckInTime, utils.DisplayTimeFormat),
		RunningDurationMinutes: DurationMinutes(v.CheckInTime, nowMillis),
	}
}
