package store

import (
	"errors"
	"fmt"
	"log"
	"project02/models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCapacityFull 停車場已滿
	ErrCapacityFull = errors.New("parking lot is full")
	// ErrAlreadyParked 同車牌已在場內
	ErrAlreadyParked = errors.New("vehicle is already parked")
	// ErrVehicleNotParked 車牌不在場內
	ErrVehicleNotParked = errors.New("vehicle is not parked")
)

// Store 持久層：場內車輛表 + 歷史紀錄表，由進入點建立並顯式傳入，不用全域變數
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InsertParked 在同一個事務內檢查容量並寫入場內車輛。
// 容量檢查與 INSERT 必須同一把鎖，避免兩個請求同時搶到最後一個車位。
func (s *Store) InsertParked(vehicle *models.ParkedVehicle, capacity int) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin check-in transaction: %w", tx.Error)
	}

	var count int64
	if err := tx.Model(&models.ParkedVehicle{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Count(&count).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to count parked vehicles: %w", err)
	}

	if count >= int64(capacity) {
		tx.Rollback()
		return ErrCapacityFull
	}

	if err := tx.Create(vehicle).Error; err != nil {
		tx.Rollback()
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrAlreadyParked
		}
		return fmt.Errorf("failed to insert parked vehicle %s: %w", vehicle.Plate, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit check-in transaction: %w", err)
	}
	return nil
}

// FindParked 查詢場內車輛，不存在時回傳 (nil, nil)
func (s *Store) FindParked(plate string) (*models.ParkedVehicle, error) {
	var vehicle models.ParkedVehicle
	if err := s.db.Where("plate = ?", plate).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find parked vehicle %s: %w", plate, err)
	}
	return &vehicle, nil
}

// RemoveAndArchive 刪除場內車輛並寫入歷史紀錄，兩步在同一個事務內完成。
// 任何一步失敗就整個回滾，車輛維持在場內，不會出現只刪不記或只記不刪。
func (s *Store) RemoveAndArchive(plate string, record *models.HistoryRecord) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", tx.Error)
	}

	result := tx.Where("plate = ?", plate).Delete(&models.ParkedVehicle{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete parked vehicle %s: %w", plate, result.Error)
	}
	if result.RowsAffected == 0 {
		// 同車牌兩個併發結帳只有一個會成功，落後的在這裡看到 0 筆
		tx.Rollback()
		return ErrVehicleNotParked
	}

	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert history record for %s: %w", plate, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit checkout transaction: %w", err)
	}
	return nil
}

// CountParked 回傳目前場內車輛數
func (s *Store) CountParked() (int64, error) {
	var count int64
	if err := s.db.Model(&models.ParkedVehicle{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count parked vehicles: %w", err)
	}
	return count, nil
}

// ListParked 依進場時間由舊到新列出場內車輛。
// 類型欄位損壞的列會記錄並跳過，不會猜一個預設類型。
func (s *Store) ListParked() ([]models.ParkedVehicle, error) {
	var rows []models.ParkedVehicle
	if err := s.db.Order("check_in_time ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list parked vehicles: %w", err)
	}

	vehicles := make([]models.ParkedVehicle, 0, len(rows))
	for _, row := range rows {
		if _, err := row.VehicleType(); err != nil {
			log.Printf("Skipping parked vehicle %s with corrupted type %q: %v", row.Plate, row.VehicleTypeName, err)
			continue
		}
		vehicles = append(vehicles, row)
	}
	return vehicles, nil
}

// ListHistory 列出歷史紀錄，desc=true 時依出場時間由新到舊
func (s *Store) ListHistory(desc bool) ([]models.HistoryRecord, error) {
	order := "check_out_time ASC"
	if desc {
		order = "check_out_time DESC"
	}

	var records []models.HistoryRecord
	if err := s.db.Order(order).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicle history: %w", err)
	}
	return records, nil
}
