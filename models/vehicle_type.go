package models

import (
	"errors"
	"fmt"
)

// VehicleType 車輛類型（封閉集合，費率另外查表，不拿費率當 key）
type VehicleType string

const (
	VehicleTypeCar        VehicleType = "CAR"
	VehicleTypeMotorcycle VehicleType = "MOTORCYCLE"
	VehicleTypeVan        VehicleType = "VAN"
)

// ErrUnknownVehicleType 資料庫內出現未知車輛類型時回傳，不可默默套用預設費率
var ErrUnknownVehicleType = errors.New("unknown vehicle type")

// hourlyRates 每小時費率表（歐元）
var hourlyRates = map[VehicleType]float64{
	VehicleTypeCar:        1.5,
	VehicleTypeMotorcycle: 1.0,
	VehicleTypeVan:        2.0,
}

// AllVehicleTypes 回傳所有車輛類型，順序固定
func AllVehicleTypes() []VehicleType {
	return []VehicleType{VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeVan}
}

// HourlyRate 查詢每小時費率
func (t VehicleType) HourlyRate() float64 {
	return hourlyRates[t]
}

// Valid 檢查是否為已知類型
func (t VehicleType) Valid() bool {
	_, ok := hourlyRates[t]
	return ok
}

// ParseVehicleType 將字串轉為 VehicleType，未知類型回傳 ErrUnknownVehicleType
func ParseVehicleType(name string) (VehicleType, error) {
	t := VehicleType(name)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownVehicleType, name)
	}
	return t, nil
}
