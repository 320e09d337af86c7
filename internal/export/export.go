package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"karenta/internal/domain"
	"karenta/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders xlsx reports into the configured export directory.
type Exporter struct {
	store  domain.Store
	dir    string
	logger *zerolog.Logger
}

func NewExporter(store domain.Store, dir string, logger *zerolog.Logger) *Exporter {
	if dir == "" {
		dir = "exports"
	}
	return &Exporter{store: store, dir: dir, logger: logger}
}

// BookingSchedule writes a fleet occupancy grid: one row per vehicle, one
// column per day in the range, each cell listing that day's bookings.
func (e *Exporter) BookingSchedule(ctx context.Context, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	daily, err := e.store.GetDailyBookings(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("load bookings: %w", err)
	}
	vehicles, err := e.store.GetActiveVehicles(ctx)
	if err != nil {
		return "", fmt.Errorf("load vehicles: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Schedule"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Fleet schedule: %s to %s",
		start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006")))

	dateCols := e.writeDateHeaders(f, sheet, start, end)
	e.writeVehicleHeaders(f, sheet, vehicles)
	e.writeScheduleCells(f, sheet, daily, vehicles, dateCols)

	_ = f.SetColWidth(sheet, "A", "A", 28)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheet, string(i), string(i), 22)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.MergeCell(sheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	_ = f.DeleteSheet("Sheet1")

	path := filepath.Join(e.dir, fmt.Sprintf("schedule_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}

	e.logger.Info().Str("file_path", path).Msg("schedule export created")
	return path, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, sheet string, start, end time.Time) map[string]int {
	cols := make(map[string]int)
	col := 2
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheet, cell, d.Format("Jan 2"))
		cols[d.Format("2006-01-02")] = col

		style, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		_ = f.SetCellStyle(sheet, cell, cell, style)
		col++
	}
	return cols
}

func (e *Exporter) writeVehicleHeaders(f *excelize.File, sheet string, vehicles []*models.Vehicle) {
	row := 3
	for _, v := range vehicles {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheet, cell, fmt.Sprintf("%s (%s)", v.Name, v.PlateNumber))

		style, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
			Font: &excelize.Font{Bold: true},
		})
		_ = f.SetCellStyle(sheet, cell, cell, style)
		row++
	}
}

func (e *Exporter) writeScheduleCells(
	f *excelize.File, sheet string,
	daily map[string][]*models.Booking,
	vehicles []*models.Vehicle,
	dateCols map[string]int,
) {
	for dateKey, col := range dateCols {
		byVehicle := make(map[int64][]*models.Booking)
		for _, b := range daily[dateKey] {
			byVehicle[b.VehicleID] = append(byVehicle[b.VehicleID], b)
		}

		row := 3
		for _, v := range vehicles {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			cellBookings := byVehicle[v.ID]

			var text string
			for _, b := range cellBookings {
				text += fmt.Sprintf("%s %s %s\n", statusMark(b.Status), b.BookingNumber, b.CustomerName)
			}
			if text == "" {
				text = "free"
			}
			_ = f.SetCellValue(sheet, cell, text)

			if styleID, err := f.NewStyle(cellStyle(cellBookings)); err == nil {
				_ = f.SetCellStyle(sheet, cell, cell, styleID)
			}
			row++
		}
	}
}

func statusMark(status string) string {
	switch status {
	case models.StatusConfirmed, models.StatusActive, models.StatusCompleted:
		return "✅"
	case models.StatusPending:
		return "⏳"
	case models.StatusCancelled, models.StatusRefunded:
		return "❌"
	default:
		return "❓"
	}
}

// cellStyle picks the fill by the day's worst-case status: occupied days go
// red, unconfirmed go yellow, free days stay unfilled.
func cellStyle(bookings []*models.Booking) *excelize.Style {
	wrap := &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true}

	var active []*models.Booking
	for _, b := range bookings {
		if b.Status != models.StatusCancelled && b.Status != models.StatusRefunded {
			active = append(active, b)
		}
	}
	if len(active) == 0 {
		return &excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFFFFF"}, Pattern: 1},
			Alignment: wrap,
		}
	}

	for _, b := range active {
		if b.Status == models.StatusPending {
			return &excelize.Style{
				Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
				Alignment: wrap,
			}
		}
	}
	return &excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: wrap,
	}
}

// CustomerList writes a flat customer roster.
func (e *Exporter) CustomerList(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	customers, err := e.store.ListCustomers(ctx)
	if err != nil {
		return "", fmt.Errorf("load customers: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Customers"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "First name", "Last name", "Email", "Phone", "License", "Registered"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheet, "A1", "G1", headerStyle)

	for i, c := range customers {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c.ID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c.FirstName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.LastName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.Email)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), c.Phone)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), c.LicenseNumber)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), c.CreatedAt.Format("2006-01-02"))
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "F", 20)
	_ = f.SetColWidth(sheet, "G", "G", 14)
	_ = f.DeleteSheet("Sheet1")

	path := filepath.Join(e.dir, fmt.Sprintf("customers_%s.xlsx", time.Now().Format("2006-01-02_15-04-05")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}

	e.logger.Info().Str("file_path", path).Msg("customer export created")
	return path, nil
}
