package services

import (
	"sort"
	"sync"
	"testing"
	"time"

	"project02/models"
	"project02/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseMillis      = int64(1678886400000) // 15 Mar 2023 12:00:00 GMT
	oneHourMillis   = int64(60 * 60 * 1000)
	ninetyMinMillis = int64(90 * 60 * 1000)
)

// fakeStore 記憶體版 OccupancyStore，行為與 store.Store 一致
type fakeStore struct {
	mu          sync.Mutex
	parked      map[string]models.ParkedVehicle
	history     []models.HistoryRecord
	nextID      int64
	failInsert  error
	failArchive error
}

func newFakeStore() *fakeStore {
	return &fakeStore{parked: map[string]models.ParkedVehicle{}}
}

func (f *fakeStore) InsertParked(vehicle *models.ParkedVehicle, capacity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return f.failInsert
	}
	if len(f.parked) >= capacity {
		return store.ErrCapacityFull
	}
	if _, ok := f.parked[vehicle.Plate]; ok {
		return store.ErrAlreadyParked
	}
	f.parked[vehicle.Plate] = *vehicle
	return nil
}

func (f *fakeStore) FindParked(plate string) (*models.ParkedVehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.parked[plate]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeStore) RemoveAndArchive(plate string, record *models.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failArchive != nil {
		return f.failArchive
	}
	if _, ok := f.parked[plate]; !ok {
		return store.ErrVehicleNotParked
	}
	delete(f.parked, plate)
	f.nextID++
	archived := *record
	archived.ID = f.nextID
	f.history = append(f.history, archived)
	return nil
}

func (f *fakeStore) CountParked() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.parked)), nil
}

func (f *fakeStore) ListParked() ([]models.ParkedVehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vehicles := make([]models.ParkedVehicle, 0, len(f.parked))
	for _, v := range f.parked {
		if _, err := v.VehicleType(); err != nil {
			continue
		}
		vehicles = append(vehicles, v)
	}
	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].CheckInTime < vehicles[j].CheckInTime
	})
	return vehicles, nil
}

func (f *fakeStore) ListHistory(desc bool) ([]models.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := make([]models.HistoryRecord, len(f.history))
	copy(records, f.history)
	sort.Slice(records, func(i, j int) bool {
		if desc {
			return records[i].CheckOutTime > records[j].CheckOutTime
		}
		return records[i].CheckOutTime < records[j].CheckOutTime
	})
	return records, nil
}

// newTestService 固定時鐘的引擎，回傳可變的時間指標方便推進
func newTestService(st OccupancyStore, capacity int) (*ParkingService, *int64) {
	svc := NewParkingService(st, capacity)
	nowMillis := new(int64)
	*nowMillis = baseMillis
	svc.now = func() time.Time {
		return time.UnixMilli(*nowMillis)
	}
	return svc, nowMillis
}

func TestNormalizePlate(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizePlate("  abc123  "))
	assert.Equal(t, "XYZ999", NormalizePlate("xyz999"))
	assert.Equal(t, "", NormalizePlate("   "))
}

func TestCheckInAssignsTimestamp(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), 10)

	result, err := svc.CheckIn("abc123", models.VehicleTypeCar)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", result.Plate)
	assert.Equal(t, string(models.VehicleTypeCar), result.VehicleTypeName)
	assert.Equal(t, baseMillis, result.CheckInTime)
}

func TestCheckInEmptyPlate(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st, 10)

	_, err := svc.CheckIn("", models.VehicleTypeCar)
	assert.ErrorIs(t, err, ErrEmptyPlate)

	_, err = svc.CheckIn("   ", models.VehicleTypeCar)
	assert.ErrorIs(t, err, ErrEmptyPlate)

	count, err := st.CountParked()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCheckInInvalidVehicleType(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), 10)

	_, err := svc.CheckIn("ABC123", models.VehicleType("BICYCLE"))
	assert.ErrorIs(t, err, ErrInvalidVehicleType)
}

func TestCheckInDuplicatePlate(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st, 10)

	_, err := svc.CheckIn("ABC123", models.VehicleTypeCar)
	require.NoError(t, err)

	// 同車牌不出場不能再進場，連大小寫不同也一樣
	_, err = svc.CheckIn("abc123", models.VehicleTypeMotorcycle)
	assert.ErrorIs(t, err, store.ErrAlreadyParked)

	count, err := st.CountParked()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCheckInCapacityExceeded(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st, 2)

	_, err := svc.CheckIn("A1", models.VehicleTypeCar)
	require.NoError(t, err)
	_, err = svc.CheckIn("B2", models.VehicleTypeVan)
	require.NoError(t, err)

	_, err = svc.CheckIn("C3", models.VehicleTypeMotorcycle)
	assert.ErrorIs(t, err, store.ErrCapacityFull)

	// 失敗的進場不得改變任何狀態
	count, err := st.CountParked()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCheckCapacity(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st, 1)

	free, err := svc.CheckCapacity()
	require.NoError(t, err)
	assert.True(t, free)

	_, err = svc.CheckIn("A1", models.VehicleTypeCar)
	require.NoError(t, err)

	free, err = svc.CheckCapacity()
	require.NoError(t, err)
	assert.False(t, free)
}

func TestCheckOutFullScenario(t *testing.T) {
	// 容量 1：A1 進場，B2 被拒，90 分鐘後 A1 出場收 €2.25，之後 B2 可進場
	st := newFakeStore()
	svc, nowMillis := newTestService(st, 1)

	_, err := svc.CheckIn("A1", models.VehicleTypeCar)
	require.NoError(t, err)

	_, err = svc.CheckIn("B2", models.VehicleTypeMotorcycle)
	assert.ErrorIs(t, err, store.ErrCapacityFull)

	*nowMillis = baseMillis + ninetyMinMillis
	result, err := svc.CheckOut("A1")
	require.NoError(t, err)
	assert.Equal(t, int64(90), result.DurationMinutes)
	assert.Equal(t, 2.25, result.Fee)
	assert.Equal(t, baseMillis, result.CheckInTime)
	assert.Equal(t, baseMillis+ninetyMinMillis, result.CheckOutTime)

	_, err = svc.CheckIn("B2", models.VehicleTypeMotorcycle)
	assert.NoError(t, err)
}

func TestCheckOutMovesVehicleToHistory(t *testing.T) {
	st := newFakeStore()
	svc, nowMillis := newTestService(st, 10)

	_, err := svc.CheckIn("XYZ999", models.VehicleTypeVan)
	require.NoError(t, err)

	*nowMillis = baseMillis + oneHourMillis
	_, err = svc.CheckOut("xyz999")
	require.NoError(t, err)

	// 出場後場內查不到，歷史恰好一筆且進場時間一致
	parked, err := st.FindParked("XYZ999")
	require.NoError(t, err)
	assert.Nil(t, parked)

	history, err := st.ListHistory(false)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "XYZ999", history[0].Plate)
	assert.Equal(t, baseMillis, history[0].CheckInTime)
	assert.Equal(t, int64(60), history[0].DurationMinutes)
	assert.Equal(t, 2.0, history[0].Fee)
}

func TestCheckOutNotParked(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st, 10)

	_, err := svc.CheckOut("NEVERPARKED")
	assert.ErrorIs(t, err, store.ErrVehicleNotParked)

	history, err := st.ListHistory(false)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCheckOutUnknownStoredType(t *testing.T) {
	st := newFakeStore()
	st.parked["BADROW1"] = models.ParkedVehicle{
		Plate:           "BADROW1",
		VehicleTypeName: "INVALIDTYPE",
		CheckInTime:     baseMillis,
	}
	svc, nowMillis := newTestService(st, 10)
	*nowMillis = baseMillis + oneHourMillis

	// 類型損壞要擋下出場：車留在場內、不寫歷史、不收費
	_, err := svc.CheckOut("BADROW1")
	assert.ErrorIs(t, err, models.ErrUnknownVehicleType)

	count, err := st.CountParked()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	history, err := st.ListHistory(false)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCheckOutStorageFailureKeepsVehicleParked(t *testing.T) {
	st := newFakeStore()
	svc, nowMillis := newTestService(st, 10)

	_, err := svc.CheckIn("ABC123", models.VehicleTypeCar)
	require.NoError(t, err)

	st.failArchive = assert.AnError
	*nowMillis = baseMillis + oneHourMillis

	_, err = svc.CheckOut("ABC123")
	assert.Error(t, err)

	// 事務失敗：車輛仍在場內、沒有歷史紀錄、沒有收費
	parked, err := st.FindParked("ABC123")
	require.NoError(t, err)
	require.NotNil(t, parked)
	assert.Equal(t, baseMillis, parked.CheckInTime)

	history, err := st.ListHistory(false)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestOccupancySnapshot(t *testing.T) {
	st := newFakeStore()
	svc, nowMillis := newTestService(st, 10)

	_, err := svc.CheckIn("CURR1", models.VehicleTypeCar)
	require.NoError(t, err)

	*nowMillis = baseMillis + 30000 // 30 秒後
	_, err = svc.CheckIn("CURR2", models.VehicleTypeMotorcycle)
	require.NoError(t, err)

	*nowMillis = baseMillis + oneHourMillis
	snapshot, err := svc.OccupancySnapshot()
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	// 進場時間由舊到新
	assert.Equal(t, "CURR1", snapshot[0].Plate)
	assert.Equal(t, int64(60), snapshot[0].RunningDurationMinutes)
	assert.Equal(t, "CURR2", snapshot[1].Plate)
	assert.Equal(t, int64(59), snapshot[1].RunningDurationMinutes)

	// 無副作用：重複呼叫結果相同
	again, err := svc.OccupancySnapshot()
	require.NoError(t, err)
	assert.Equal(t, snapshot, again)
}

func TestHistorySnapshotOrder(t *testing.T) {
	st := newFakeStore()
	svc, nowMillis := newTestService(st, 10)

	_, err := svc.CheckIn("FIRST", models.VehicleTypeCar)
	require.NoError(t, err)
	_, err = svc.CheckIn("SECOND", models.VehicleTypeVan)
	require.NoError(t, err)

	*nowMillis = baseMillis + oneHourMillis
	_, err = svc.CheckOut("FIRST")
	require.NoError(t, err)

	*nowMillis = baseMillis + 2*oneHourMillis
	_, err = svc.CheckOut("SECOND")
	require.NoError(t, err)

	snapshot, err := svc.HistorySnapshot(true)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "SECOND", snapshot[0].Plate)
	assert.Equal(t, "FIRST", snapshot[1].Plate)
}

func TestListLongStays(t *testing.T) {
	st := newFakeStore()
	svc, nowMillis := newTestService(st, 10)

	_, err := svc.CheckIn("OLD1", models.VehicleTypeCar)
	require.NoError(t, err)

	*nowMillis = baseMillis + 23*oneHourMillis
	_, err = svc.CheckIn("NEW1", models.VehicleTypeCar)
	require.NoError(t, err)

	*nowMillis = baseMillis + 25*oneHourMillis
	longStays, err := svc.ListLongStays(24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, longStays, 1)
	assert.Equal(t, "OLD1", longStays[0].Plate)
}
