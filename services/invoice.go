package services

import (
	"fmt"
	"os"
	"path/filepath"
	"project02/models"
	"project02/utils"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceRenderer 出場收據產生器。收據失敗是次要錯誤，
// 不影響已經完成的出場，由呼叫端以警告方式回報。
type InvoiceRenderer struct {
	dir string
}

func NewInvoiceRenderer(dir string) (*InvoiceRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create invoice directory %s: %w", dir, err)
	}
	return &InvoiceRenderer{dir: dir}, nil
}

// Generate 依出場結果產出 PDF 收據，回傳檔案路徑。
// 檔名以車牌 + 出場時間戳命名，同一次停留只會產生一份。
func (r *InvoiceRenderer) Generate(result *CheckOutResult) (string, error) {
	filename := fmt.Sprintf("invoice_%s_%d.pdf", result.Plate, result.CheckOutTime)
	path := filepath.Join(r.dir, filename)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 12, "Parking Invoice")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 12)
	rate := models.VehicleType(result.VehicleTypeName).HourlyRate()
	lines := []string{
		fmt.Sprintf("Plate: %s", result.Plate),
		fmt.Sprintf("Vehicle type: %s (EUR %.2f/hour)", result.VehicleTypeName, rate),
		fmt.Sprintf("Check-in: %s", utils.FormatMillis(result.CheckInTime, utils.DisplayTimeFormat)),
		fmt.Sprintf("Check-out: %s", utils.FormatMillis(result.CheckOutTime, utils.DisplayTimeFormat)),
		fmt.Sprintf("Duration: %d minutes", result.DurationMinutes),
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Total: EUR %.2f", result.Fee))

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to generate invoice %s: %w", path, err)
	}
	return path, nil
}
