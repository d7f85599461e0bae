// Package export renders seat manifests as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/seat-planner/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	seatSheet    = "Seats"
	summarySheet = "Summary"
)

// SeatHeader is the header row of the seat sheet.
var SeatHeader = []string{
	"Chair ID",
	"Element ID",
	"Element",
	"Label",
	"Price",
	"Category",
	"Status",
	"Reserved By",
}

// SummaryHeader is the header row of the per-element summary sheet.
var SummaryHeader = []string{
	"Element ID",
	"Element",
	"Seats",
	"Free",
	"Reserved",
	"Reserved Revenue",
}

// Manifest is the input of a seat manifest. Chairs should carry their derived
// reservation status.
type Manifest struct {
	Name     string
	Elements []*models.Element
	Chairs   []models.Chair
	Rules    *models.VenueRules
}

// WriteSeatManifest writes m as an xlsx workbook to w: one row per chair,
// grouped by element in z-order, plus a per-element summary.
func WriteSeatManifest(w io.Writer, m Manifest) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, sheet := range []string{seatSheet, summarySheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	// Indices shift after the delete
	if index, err := f.GetSheetIndex(seatSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	priceStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create price style: %w", err)
	}

	if err := writeHeader(f, seatSheet, SeatHeader, headerStyle, []float64{28, 28, 20, 10, 12, 16, 24, 20}); err != nil {
		return err
	}
	if err := writeHeader(f, summarySheet, SummaryHeader, headerStyle, []float64{28, 20, 10, 10, 10, 18}); err != nil {
		return err
	}

	byTable := make(map[string][]models.Chair)
	for _, c := range m.Chairs {
		byTable[c.TableID] = append(byTable[c.TableID], c)
	}

	row, summaryRow := 2, 2
	for _, el := range m.Elements {
		chairs := byTable[el.ID]
		if len(chairs) == 0 {
			continue
		}
		name := elementName(el)
		var free, reserved int
		var revenue float64
		for _, c := range chairs {
			category := ""
			if cat, ok := m.Rules.CategoryFor(c.Price); ok {
				category = cat.Name
			}
			values := []any{c.ID, el.ID, name, c.Label, c.Price, category, string(c.ReservationStatus), c.ReservedBy}
			if err := writeRow(f, seatSheet, row, values); err != nil {
				return err
			}
			priceCell, _ := excelize.CoordinatesToCellName(5, row)
			if err := f.SetCellStyle(seatSheet, priceCell, priceCell, priceStyle); err != nil {
				return fmt.Errorf("failed to set price style: %w", err)
			}
			row++

			switch c.ReservationStatus {
			case models.StatusFree, "":
				free++
			case models.StatusReserved, models.StatusPreReserved:
				reserved++
				revenue += c.Price
			}
		}
		values := []any{el.ID, name, len(chairs), free, reserved, revenue}
		if err := writeRow(f, summarySheet, summaryRow, values); err != nil {
			return err
		}
		summaryRow++
	}

	if m.Name != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: m.Name, Creator: "seat-planner"}); err != nil {
			return fmt.Errorf("failed to set document properties: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func elementName(el *models.Element) string {
	if el.Label != "" {
		return el.Label
	}
	return string(el.Type())
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int, widths []float64) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) {
			name, _ := excelize.ColumnNumberToName(col + 1)
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
