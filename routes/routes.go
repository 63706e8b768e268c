package routes

import (
	"project02/handlers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware 為每個請求產生追蹤用的 request id
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Path 註冊所有 API 路由
func Path(api *gin.RouterGroup, h *handlers.ParkingHandler) {
	api.Use(RequestIDMiddleware())

	// 停車場路由
	parking := api.Group("/parking")
	{
		parking.POST("/checkin", h.CheckIn)                       // 車輛進場
		parking.POST("/checkout", h.CheckOut)                     // 車輛出場（含收據）
		parking.POST("/recognize", h.RecognizeCheckIn)            // 車牌辨識輔助進場
		parking.GET("/capacity", h.GetCapacity)                   // 查詢容量
		parking.GET("/current", h.GetCurrentVehicles)             // 查詢場內車輛
		parking.GET("/history", h.GetVehicleHistory)              // 查詢歷史紀錄
		parking.GET("/history/export", h.ExportHistoryCSV)        // 匯出 CSV
		parking.GET("/history/export/xlsx", h.ExportHistoryXLSX)  // 匯出 Excel
	}

	// 車輛類型路由
	api.GET("/vehicle-types", handlers.GetVehicleTypes) // 查詢類型與費率
}
