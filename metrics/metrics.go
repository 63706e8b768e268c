package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckInsTotal 進場請求計數，result 為 success/rejected/error
	CheckInsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_check_ins_total",
		Help: "Total number of vehicle check-in attempts",
	}, []string{"result"})

	// CheckOutsTotal 出場請求計數
	CheckOutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_check_outs_total",
		Help: "Total number of vehicle check-out attempts",
	}, []string{"result"})

	// RecognizerRequestsTotal 車牌辨識請求計數
	RecognizerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_recognizer_requests_total",
		Help: "Total number of plate recognizer calls",
	}, []string{"result"})

	// ParkedVehiclesGauge 目前場內車輛數
	ParkedVehiclesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parking_parked_vehicles",
		Help: "Current number of parked vehicles",
	})
)
