package models

// DurationMinutes 計算停留分鐘數（毫秒時間戳，無條件捨去）。
// end 早於 checkIn（時鐘偏移等異常輸入）時回傳 0，永不為負。
func DurationMinutes(checkInMillis, endMillis int64) int64 {
	if endMillis < checkInMillis {
		return 0
	}
	return (endMillis - checkInMillis) / 60000
}

// Fee 依分鐘數與車輛類型計算費用，不足一小時按比例計費，不進位
func Fee(durationMinutes int64, vehicleType VehicleType) float64 {
	return float64(durationMinutes) / 60.0 * vehicleType.HourlyRate()
}
