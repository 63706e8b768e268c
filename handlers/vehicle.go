package handlers

import (
	"net/http"
	"project02/models"

	"github.com/gin-gonic/gin"
)

// VehicleTypeResponse 車輛類型與費率
type VehicleTypeResponse struct {
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
}

// GetVehicleTypes 取得所有車輛類型與每小時費率
func GetVehicleTypes(c *gin.Context) {
	types := models.AllVehicleTypes()
	resp := make([]VehicleTypeResponse, len(types))
	for i, t := range types {
		resp[i] = VehicleTypeResponse{
			Name:       string(t),
			HourlyRate: t.HourlyRate(),
		}
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", resp)
}
