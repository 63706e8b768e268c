package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"project02/metrics"
	"project02/models"
	"project02/services"

	"github.com/gin-gonic/gin"
)

// RecognizeCheckIn 以車牌辨識輔助進場：上傳影像（multipart 欄位 image），
// 若同時附上 vehicle_type 就直接完成進場，否則只回傳辨識到的車牌。
func (h *ParkingHandler) RecognizeCheckIn(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		metrics.RecognizerRequestsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusBadRequest, "缺少影像檔案", err.Error())
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		metrics.RecognizerRequestsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusBadRequest, "讀取影像失敗", err.Error())
		return
	}

	plate, err := h.Recognizer.Recognize(image)
	if err != nil {
		if errors.Is(err, services.ErrNoPlateFound) {
			metrics.RecognizerRequestsTotal.WithLabelValues("not_found").Inc()
			ErrorResponse(c, http.StatusUnprocessableEntity, "影像中沒有辨識到車牌", err.Error())
			return
		}
		log.Printf("Plate recognition failed: %v", err)
		metrics.RecognizerRequestsTotal.WithLabelValues("error").Inc()
		ErrorResponse(c, http.StatusBadGateway, "車牌辨識服務異常", err.Error())
		return
	}
	metrics.RecognizerRequestsTotal.WithLabelValues("success").Inc()

	typeName := c.Request.FormValue("vehicle_type")
	if typeName == "" {
		// 沒有指定類型：只回傳辨識結果，等使用者選完類型再進場
		SuccessResponse(c, http.StatusOK, "車牌辨識成功", gin.H{"plate": plate})
		return
	}

	vehicleType, err := models.ParseVehicleType(typeName)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛類型", err.Error())
		return
	}

	result, err := h.Service.CheckIn(plate, vehicleType)
	if err != nil {
		h.respondCheckInError(c, err)
		return
	}

	metrics.CheckInsTotal.WithLabelValues("success").Inc()
	h.refreshParkedGauge()
	SuccessResponse(c, http.StatusOK, "進場登記成功", result)
}
