package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"project02/database"
	"project02/handlers"
	"project02/models"
	"project02/routes"
	"project02/services"
	"project02/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func main() {
	// 載入 .env 檔案
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using default environment variables: %v", err)
	}

	capacity := envInt("PARKING_CAPACITY", 10)
	longStayHours := envInt("LONG_STAY_HOURS", 24)
	invoiceDir := envString("INVOICE_DIR", "invoices")
	port := envString("PORT", "8080")

	// 初始化資料庫
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.CloseDB(db); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	// 執行資料庫遷移
	if err := db.AutoMigrate(
		&models.ParkedVehicle{},
		&models.HistoryRecord{},
	); err != nil {
		log.Printf("Database migration failed: %v", err)
		return
	}
	log.Println("Database migration completed")

	// 組裝引擎與協作者
	occupancyStore := store.New(db)
	parkingService := services.NewParkingService(occupancyStore, capacity)

	invoiceRenderer, err := services.NewInvoiceRenderer(invoiceDir)
	if err != nil {
		log.Printf("Failed to initialize invoice renderer: %v", err)
		return
	}

	recognizer := services.NewPlateRecognizer(
		envString("PLATE_RECOGNIZER_URL", services.DefaultPlateRecognizerURL),
		os.Getenv("PLATE_RECOGNIZER_TOKEN"),
		envString("PLATE_RECOGNIZER_REGION", "es"),
	)

	parkingHandler := handlers.NewParkingHandler(parkingService, invoiceRenderer, recognizer)

	// 設置 Gin 模式為 release
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)
	log.Printf("Gin mode set to %s", ginMode)

	// 初始化 Gin 路由器
	r := gin.Default()

	// 創建一個 API 路由組
	api := r.Group("/api")
	{
		routes.Path(api, parkingHandler)
	}

	// Prometheus 指標
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 啟動定時任務
	c := cron.New()

	// 檢查久停車輛定時任務（每 5 分鐘執行一次）
	longStay := time.Duration(longStayHours) * time.Hour
	_, err = c.AddFunc("*/5 * * * *", func() {
		vehicles, err := parkingService.ListLongStays(longStay)
		if err != nil {
			log.Printf("Failed to check long-stay vehicles: %v", err)
			return
		}
		for _, v := range vehicles {
			log.Printf("久停提醒：%s 已停 %d 分鐘（%s 進場）",
				v.Plate, v.RunningDurationMinutes, v.CheckInTimeDisplay)
		}
	})
	if err != nil {
		log.Printf("Failed to schedule long-stay check cron job: %v", err)
		return
	}

	c.Start()
	log.Println("Cron jobs started")

	// 啟動伺服器
	log.Printf("Starting server on :%s (capacity=%d)", port, capacity)
	if err := r.Run(":" + port); err != nil {
		log.Printf("Failed to start server: %v", err)
	}
}

// envString 讀取環境變數，未設置時用預設值
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt 讀取整數環境變數，未設置或格式錯誤時用預設值
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
