package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"project02/utils"

	"github.com/xuri/excelize/v2"
)

// 匯出欄位順序固定：車牌、類型、進場、出場、分鐘數、費用
var exportHeaders = []string{"plate", "vehicle_type", "check_in_time", "check_out_time", "duration_minutes", "fee"}

// ExportHistoryCSV 將歷史紀錄（出場時間由舊到新）寫成 CSV，回傳寫出的筆數。
// 沒有任何紀錄時回傳 0 且不寫任何內容。
func (s *ParkingService) ExportHistoryCSV(w io.Writer) (int, error) {
	records, err := s.store.ListHistory(false)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		log.Println("沒有歷史紀錄可以匯出")
		return 0, nil
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Plate,
			r.VehicleTypeName,
			utils.FormatMillis(r.CheckInTime, utils.ExportTimeFormat),
			utils.FormatMillis(r.CheckOutTime, utils.ExportTimeFormat),
			fmt.Sprintf("%d", r.DurationMinutes),
			fmt.Sprintf("%.2f", r.Fee),
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write CSV row for %s: %w", r.Plate, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}

	log.Printf("歷史紀錄匯出完成，共 %d 筆", len(records))
	return len(records), nil
}

// ExportHistoryXLSX 將歷史紀錄寫成 Excel 檔，欄位與 CSV 相同
func (s *ParkingService) ExportHistoryXLSX() (*bytes.Buffer, int, error) {
	records, err := s.store.ListHistory(false)
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		log.Println("沒有歷史紀錄可以匯出")
		return nil, 0, nil
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, 0, fmt.Errorf("failed to write XLSX header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to locate XLSX cell: %w", err)
		}
		row := []interface{}{
			r.Plate,
			r.VehicleTypeName,
			utils.FormatMillis(r.CheckInTime, utils.ExportTimeFormat),
			utils.FormatMillis(r.CheckOutTime, utils.ExportTimeFormat),
			r.DurationMinutes,
			r.Fee,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, 0, fmt.Errorf("failed to write XLSX row for %s: %w", r.Plate, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, 0, fmt.Errorf("failed to write XLSX buffer: %w", err)
	}

	log.Printf("歷史紀錄匯出完成（Excel），共 %d 筆", len(records))
	return buf, len(records), nil
}
