// handlers/parking.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"project02/metrics"
	"project02/models"
	"project02/services"
	"project02/store"
	"time"

	"github.com/gin-gonic/gin"
)

// ParkingHandler 停車場 API 處理器，持有引擎與收據/辨識協作者
type ParkingHandler struct {
	Service    *services.ParkingService
	Invoices   *services.InvoiceRenderer
	Recognizer *services.PlateRecognizer
}

func NewParkingHandler(service *services.ParkingService, invoices *services.InvoiceRenderer, recognizer *services.PlateRecognizer) *ParkingHandler {
	return &ParkingHandler{
		Service:    service,
		Invoices:   invoices,
		Recognizer: recognizer,
	}
}

// CheckInInput 進場輸入
type CheckInInput struct {
	Plate       string `json:"plate" binding:"required"`
	VehicleType string `json:"vehicle_type" binding:"required"`
}

// CheckIn 車輛進場
func (h *ParkingHandler) CheckIn(c *gin.Context) {
	var input CheckInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid check-in input: %v", err)
		metrics.CheckInsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	vehicleType, err := models.ParseVehicleType(input.VehicleType)
	if err != nil {
		metrics.CheckInsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛類型", err.Error())
		return
	}

	result, err := h.Service.CheckIn(input.Plate, vehicleType)
	if err != nil {
		h.respondCheckInError(c, err)
		return
	}

	metrics.CheckInsTotal.WithLabelValues("success").Inc()
	h.refreshParkedGauge()
	SuccessResponse(c, http.StatusOK, "進場登記成功", result)
}

func (h *ParkingHandler) respondCheckInError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyPlate), errors.Is(err, services.ErrInvalidVehicleType):
		metrics.CheckInsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
	case errors.Is(err, store.ErrAlreadyParked):
		metrics.CheckInsTotal.WithLabelValues("rejected").Inc()
		ErrorResponse(c, http.StatusConflict, "此車牌已在停車場內", err.Error())
	case errors.Is(err, store.ErrCapacityFull):
		metrics.CheckInsTotal.WithLabelValues("rejected").Inc()
		ErrorResponse(c, http.StatusConflict, "停車場已滿", err.Error())
	default:
		log.Printf("Check-in failed: %v", err)
		metrics.CheckInsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusInternalServerError, "進場登記失敗", err.Error())
	}
}

// CheckOutInput 出場輸入
type CheckOutInput struct {
	Plate string `json:"plate" binding:"required"`
}

// CheckOut 車輛出場。出場成功後才產生收據，收據失敗以 warning 回報，不會撤銷出場。
func (h *ParkingHandler) CheckOut(c *gin.Context) {
	var input CheckOutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid check-out input: %v", err)
		metrics.CheckOutsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	result, err := h.Service.CheckOut(input.Plate)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPlate):
			metrics.CheckOutsTotal.WithLabelValues("error").Inc()
			ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		case errors.Is(err, store.ErrVehicleNotParked):
			metrics.CheckOutsTotal.WithLabelValues("rejected").Inc()
			ErrorResponse(c, http.StatusNotFound, "此車牌不在停車場內", err.Error())
		case errors.Is(err, models.ErrUnknownVehicleType):
			log.Printf("Check-out blocked by corrupted record: %v", err)
			metrics.CheckOutsTotal.WithLabelValues("error").Inc()
			ErrorResponse(c, http.StatusInternalServerError, "資料異常，請聯絡管理員", err.Error())
		default:
			log.Printf("Check-out failed: %v", err)
			metrics.CheckOutsTotal.WithLabelValues("error").Inc()
			ErrorResponse(c, http.StatusInternalServerError, "出場登記失敗", err.Error())
		}
		return
	}

	metrics.CheckOutsTotal.WithLabelValues("success").Inc()
	h.refreshParkedGauge()

	data := gin.H{
		"plate":            result.Plate,
		"vehicle_type":     result.VehicleTypeName,
		"check_in_time":    result.CheckInTime,
		"check_out_time":   result.CheckOutTime,
		"duration_minutes": result.DurationMinutes,
		"fee":              result.Fee,
	}

	invoicePath, err := h.Invoices.Generate(result)
	if err != nil {
		// 出場已入帳，收據失敗只是警告
		log.Printf("Invoice generation failed for %s: %v", result.Plate, err)
		SuccessResponseWithWarning(c, http.StatusOK, "出場登記成功", data, "收據產生失敗："+err.Error())
		return
	}
	data["invoice_file"] = invoicePath

	SuccessResponse(c, http.StatusOK, "出場登記成功", data)
}

// GetCapacity 查詢容量與剩餘狀態
func (h *ParkingHandler) GetCapacity(c *gin.Context) {
	count, err := h.Service.CountParked()
	if err != nil {
		log.Printf("Failed to count parked vehicles: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢容量失敗", err.Error())
		return
	}

	metrics.ParkedVehiclesGauge.Set(float64(count))
	SuccessResponse(c, http.StatusOK, "查詢成功", gin.H{
		"capacity":  h.Service.Capacity(),
		"occupied":  count,
		"available": count < int64(h.Service.Capacity()),
	})
}

// GetCurrentVehicles 查詢場內車輛
func (h *ParkingHandler) GetCurrentVehicles(c *gin.Context) {
	snapshot, err := h.Service.OccupancySnapshot()
	if err != nil {
		log.Printf("Failed to get occupancy snapshot: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢場內車輛失敗", err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", snapshot)
}

// GetVehicleHistory 查詢歷史紀錄（出場時間由新到舊）
func (h *ParkingHandler) GetVehicleHistory(c *gin.Context) {
	snapshot, err := h.Service.HistorySnapshot(true)
	if err != nil {
		log.Printf("Failed to get history snapshot: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢歷史紀錄失敗", err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", snapshot)
}

// ExportHistoryCSV 下載歷史紀錄 CSV
func (h *ParkingHandler) ExportHistoryCSV(c *gin.Context) {
	// 先寫進緩衝，全部成功才送出，避免半截檔案
	var buf bytes.Buffer
	count, err := h.Service.ExportHistoryCSV(&buf)
	if err != nil {
		log.Printf("CSV export failed: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "匯出失敗", err.Error())
		return
	}
	if count == 0 {
		ErrorResponse(c, http.StatusNotFound, "沒有歷史紀錄可以匯出", "history is empty")
		return
	}

	filename := fmt.Sprintf("parking_history_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportHistoryXLSX 下載歷史紀錄 Excel
func (h *ParkingHandler) ExportHistoryXLSX(c *gin.Context) {
	buf, count, err := h.Service.ExportHistoryXLSX()
	if err != nil {
		log.Printf("XLSX export failed: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "匯出失敗", err.Error())
		return
	}
	if count == 0 {
		ErrorResponse(c, http.StatusNotFound, "沒有歷史紀錄可以匯出", "history is empty")
		return
	}

	filename := fmt.Sprintf("parking_history_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ParkingHandler) refreshParkedGauge() {
	if count, err := h.Service.CountParked(); err == nil {
		metrics.ParkedVehiclesGauge.Set(float64(count))
	}
}
