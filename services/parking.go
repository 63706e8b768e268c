package services

import (
	"errors"
	"fmt"
	"log"
	"project02/models"
	"project02/store"
	"project02/utils"
	"strings"
	"time"
)

var (
	// ErrEmptyPlate 車牌為空
	ErrEmptyPlate = errors.New("license plate cannot be empty")
	// ErrInvalidVehicleType 進場時指定的車輛類型不在允許清單內
	ErrInvalidVehicleType = errors.New("invalid vehicle type")
)

// OccupancyStore 持久層介面，正式環境由 store.Store 實作
type OccupancyStore interface {
	InsertParked(vehicle *models.ParkedVehicle, capacity int) error
	FindParked(plate string) (*models.ParkedVehicle, error)
	RemoveAndArchive(plate string, record *models.HistoryRecord) error
	CountParked() (int64, error)
	ListParked() ([]models.ParkedVehicle, error)
	ListHistory(desc bool) ([]models.HistoryRecord, error)
}

// ParkingService 進出場引擎：容量管制、計費與進出場的狀態轉移
type ParkingService struct {
	store    OccupancyStore
	capacity int
	now      func() time.Time
}

func NewParkingService(occupancyStore OccupancyStore, capacity int) *ParkingService {
	return &ParkingService{
		store:    occupancyStore,
		capacity: capacity,
		now:      time.Now,
	}
}

// Capacity 回傳設定的總容量
func (s *ParkingService) Capacity() int {
	return s.capacity
}

// CheckInResult 進場結果
type CheckInResult struct {
	Plate           string `json:"plate"`
	VehicleTypeName string `json:"vehicle_type_name"`
	CheckInTime     int64  `json:"check_in_time"`
}

// CheckOutResult 出場結果，發票產生器只需要這裡的欄位
type CheckOutResult struct {
	Plate           string  `json:"plate"`
	VehicleTypeName string  `json:"vehicle_type_name"`
	CheckInTime     int64   `json:"check_in_time"`
	CheckOutTime    int64   `json:"check_out_time"`
	DurationMinutes int64   `json:"duration_minutes"`
	Fee             float64 `json:"fee"`
}

// NormalizePlate 車牌正規化：去空白、轉大寫
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// CheckCapacity 回傳是否還有空位。只是快照，進場時仍會在事務內重查，
// 兩次呼叫之間別的請求可能已把最後一個車位佔走。
func (s *ParkingService) CheckCapacity() (bool, error) {
	count, err := s.store.CountParked()
	if err != nil {
		return false, err
	}
	return count < int64(s.capacity), nil
}

// CountParked 回傳目前場內車輛數
func (s *ParkingService) CountParked() (int64, error) {
	return s.store.CountParked()
}

// CheckIn 車輛進場：正規化車牌、檢查重複，再由 store 在同一事務內檢查容量並寫入
func (s *ParkingService) CheckIn(plate string, vehicleType models.VehicleType) (*CheckInResult, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, ErrEmptyPlate
	}
	if !vehicleType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVehicleType, string(vehicleType))
	}

	// 先查一次給呼叫端友善的錯誤，真正的防線是主鍵約束
	existing, err := s.store.FindParked(plate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("vehicle %s: %w", plate, store.ErrAlreadyParked)
	}

	vehicle := &models.ParkedVehicle{
		Plate:           plate,
		VehicleTypeName: string(vehicleType),
		CheckInTime:     utils.TimeToMillis(s.now()),
	}

	if err := s.store.InsertParked(vehicle, s.capacity); err != nil {
		return nil, err
	}

	log.Printf("進場成功：%s（%s）於 %s 進入停車場",
		plate, vehicleType, utils.FormatMillis(vehicle.CheckInTime, utils.DisplayTimeFormat))

	return &CheckInResult{
		Plate:           plate,
		VehicleTypeName: string(vehicleType),
		CheckInTime:     vehicle.CheckInTime,
	}, nil
}

// CheckOut 車輛出場：計算停留時間與費用，刪場內紀錄並寫入歷史（原子操作）。
// 出場後發票等收據作業由呼叫端處理，收據失敗不會回滾已完成的出場。
func (s *ParkingService) CheckOut(plate string) (*CheckOutResult, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, ErrEmptyPlate
	}

	vehicle, err := s.store.FindParked(plate)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("vehicle %s: %w", plate, store.ErrVehicleNotParked)
	}

	// 類型損壞是資料完整性警報：車輛留在場內，不寫歷史，等人工處理
	vehicleType, err := vehicle.VehicleType()
	if err != nil {
		log.Printf("資料異常：車牌 %s 的車輛類型 %q 無法識別，拒絕出場", plate, vehicle.VehicleTypeName)
		return nil, err
	}

	checkOutTime := utils.TimeToMillis(s.now())
	durationMinutes := models.DurationMinutes(vehicle.CheckInTime, checkOutTime)
	fee := models.Fee(durationMinutes, vehicleType)

	record := &models.HistoryRecord{
		Plate:           vehicle.Plate,
		VehicleTypeName: vehicle.VehicleTypeName,
		CheckInTime:     vehicle.CheckInTime,
		CheckOutTime:    checkOutTime,
		DurationMinutes: durationMinutes,
		Fee:             fee,
	}

	if err := s.store.RemoveAndArchive(plate, record); err != nil {
		return nil, err
	}

	log.Printf("出場成功：%s 停車 %d 分鐘，費用 €%.2f", plate, durationMinutes, fee)

	return &CheckOutResult{
		Plate:           vehicle.Plate,
		VehicleTypeName: vehicle.VehicleTypeName,
		CheckInTime:     vehicle.CheckInTime,
		CheckOutTime:    checkOutTime,
		DurationMinutes: durationMinutes,
		Fee:             fee,
	}, nil
}

// OccupancySnapshot 場內車輛快照，含目前停留分鐘數，無副作用
func (s *ParkingService) OccupancySnapshot() ([]models.ParkedVehicleResponse, error) {
	vehicles, err := s.store.ListParked()
	if err != nil {
		return nil, err
	}

	nowMillis := utils.TimeToMillis(s.now())
	responses := make([]models.ParkedVehicleResponse, len(vehicles))
	for i, v := range vehicles {
		responses[i] = v.ToResponse(nowMillis)
	}
	return responses, nil
}

// HistorySnapshot 歷史紀錄快照，desc=true 依出場時間由新到舊
func (s *ParkingService) HistorySnapshot(desc bool) ([]models.HistoryRecordResponse, error) {
	records, err := s.store.ListHistory(desc)
	if err != nil {
		return nil, err
	}

	responses := make([]models.HistoryRecordResponse, len(records))
	for i, r := range records {
		responses[i] = r.ToResponse()
	}
	return responses, nil
}

// ListLongStays 回傳停留超過 threshold 的場內車輛，給定時任務用
func (s *ParkingService) ListLongStays(threshold time.Duration) ([]models.ParkedVehicleResponse, error) {
	vehicles, err := s.store.ListParked()
	if err != nil {
		return nil, err
	}

	nowMillis := utils.TimeToMillis(s.now())
	thresholdMinutes := int64(threshold.Minutes())

	var longStays []models.ParkedVehicleResponse
	for _, v := range vehicles {
		if models.DurationMinutes(v.CheckInTime, nowMillis) >= thresholdMinutes {
			longStays = append(longStays, v.ToResponse(nowMillis))
		}
	}
	return longStays, nil
}
