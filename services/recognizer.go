package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/sony/gobreaker"
)

// DefaultPlateRecognizerURL 車牌辨識服務端點
const DefaultPlateRecognizerURL = "https://api.platerecognizer.com/v1/plate-reader/"

// ErrNoPlateFound 影像中沒有辨識到車牌
var ErrNoPlateFound = errors.New("no plate recognized in image")

// PlateRecognizer 外部車牌辨識服務的客戶端。
// 外部 API 不穩定時由斷路器擋住，避免每個請求都等 timeout。
type PlateRecognizer struct {
	apiURL  string
	token   string
	region  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewPlateRecognizer(apiURL, token, region string) *PlateRecognizer {
	if apiURL == "" {
		apiURL = DefaultPlateRecognizerURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "plate-recognizer",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 影像裡沒有車牌是正常結果，不算服務故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoPlateFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &PlateRecognizer{
		apiURL:  apiURL,
		token:   token,
		region:  region,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: breaker,
	}
}

type plateReaderResponse struct {
	Results []struct {
		Plate string  `json:"plate"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// Recognize 將影像送到辨識 API，回傳清理過的大寫車牌
func (p *PlateRecognizer) Recognize(image []byte) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.recognize(image)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("plate recognizer temporarily unavailable: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (p *PlateRecognizer) recognize(image []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("upload", "frame.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to write image data: %w", err)
	}
	if p.region != "" {
		if err := writer.WriteField("regions", p.region); err != nil {
			return "", fmt.Errorf("failed to write regions field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, p.apiURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to build recognizer request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call plate recognizer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("plate recognizer returned status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed plateReaderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode recognizer response: %w", err)
	}

	if len(parsed.Results) == 0 || parsed.Results[0].Plate == "" {
		return "", ErrNoPlateFound
	}

	plate := CleanPlate(parsed.Results[0].Plate)
	log.Printf("車牌辨識成功：%s（信心值 %.2f）", plate, parsed.Results[0].Score)
	return plate, nil
}

// CleanPlate 只保留英數字並轉大寫
func CleanPlate(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
