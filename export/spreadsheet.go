package export

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	sheetChecklist = "Checklist"
	sheetParts     = "Spare Parts"
	sheetVisit     = "Visit"
)

// runSpreadsheet renders the checklist workbook.
func (m *Manager) runSpreadsheet(dir string, data *reportData) (string, error) {
	f, err := renderSpreadsheet(data)
	if err != nil {
		return "", stepErr(StepRender, err)
	}
	defer f.Close()

	path := filepath.Join(dir, "checklist.xlsx")
	out, err := os.Create(path)
	if err != nil {
		return "", stepErr(StepWrite, err)
	}
	if _, err := f.WriteTo(out); err != nil {
		out.Close()
		return "", stepErr(StepWrite, err)
	}
	if err := out.Close(); err != nil {
		return "", stepErr(StepWrite, err)
	}
	if err := validateFile(path); err != nil {
		return "", err
	}
	return path, nil
}

func renderSpreadsheet(data *reportData) (*excelize.File, error) {
	f := excelize.NewFile()

	for _, name := range []string{sheetChecklist, sheetParts, sheetVisit} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#9BB7D4", Style: 2},
		},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	okStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: wordColorOK},
	})
	if err != nil {
		return nil, err
	}
	nokStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: wordColorNOK},
	})
	if err != nil {
		return nil, err
	}

	if err := writeChecklistSheet(f, data, headerStyle, okStyle, nokStyle); err != nil {
		return nil, err
	}
	if err := writePartsSheet(f, data, headerStyle, nokStyle); err != nil {
		return nil, err
	}
	if err := writeVisitSheet(f, data, headerStyle); err != nil {
		return nil, err
	}

	idx, err := f.GetSheetIndex(sheetChecklist)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func writeChecklistSheet(f *excelize.File, data *reportData, headerStyle, okStyle, nokStyle int) error {
	headers := []string{"#", "Module", "Item", "Status", "Comment", "Photos"}
	widths := []float64{5, 18, 44, 10, 40, 8}
	if err := writeHeaderRow(f, sheetChecklist, headers, widths, headerStyle); err != nil {
		return err
	}

	photosByItem := make(map[int64]int)
	for _, p := range data.Photos {
		if p.CheckItemID != nil {
			photosByItem[*p.CheckItemID]++
		}
	}

	row := 2
	n := 0
	for _, mod := range data.Modules {
		for _, item := range mod.Items {
			n++
			cells := []any{n, mod.Name, item.Title, statusLabel(item.Status), item.Comment, photosByItem[item.ID]}
			for col, v := range cells {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheetChecklist, cell, v); err != nil {
					return err
				}
			}
			statusCell, err := excelize.CoordinatesToCellName(4, row)
			if err != nil {
				return err
			}
			switch item.Status {
			case "ok":
				if err := f.SetCellStyle(sheetChecklist, statusCell, statusCell, okStyle); err != nil {
					return err
				}
			case "nok":
				if err := f.SetCellStyle(sheetChecklist, statusCell, statusCell, nokStyle); err != nil {
					return err
				}
			}
			row++
		}
	}

	return f.SetPanes(sheetChecklist, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writePartsSheet(f *excelize.File, data *reportData, headerStyle, urgentStyle int) error {
	headers := []string{"Part", "Part number", "Qty", "Urgent", "Note"}
	widths := []float64{32, 16, 6, 10, 42}
	if err := writeHeaderRow(f, sheetParts, headers, widths, headerStyle); err != nil {
		return err
	}

	for i, part := range data.Parts {
		row := i + 2
		urgent := ""
		if part.Urgent {
			urgent = "URGENT"
		}
		cells := []any{part.Name, part.PartNumber, part.Quantity, urgent, part.Note}
		for col, v := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetParts, cell, v); err != nil {
				return err
			}
		}
		if part.Urgent {
			cell, err := excelize.CoordinatesToCellName(4, row)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetParts, cell, cell, urgentStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeVisitSheet(f *excelize.File, data *reportData, headerStyle int) error {
	cu := data.CheckUp
	rows := [][2]any{
		{"Client", cu.Client},
		{"Facility", cu.FacilityName},
		{"Island", cu.IslandName},
		{"Serial number", cu.SerialNumber},
		{"Technician", cu.Technician},
		{"Status", cu.Status},
		{"Scheduled", formatTimePtr(cu.ScheduledFor)},
		{"Started", formatTimePtr(cu.StartedAt)},
		{"Completed", formatTimePtr(cu.CompletedAt)},
		{"Items checked", data.Stats.Done},
		{"Items total", data.Stats.Total},
		{"NOK findings", data.Stats.NOK},
		{"Spare parts", data.Stats.SpareParts},
		{"Photos", data.Stats.Photos},
	}
	if err := f.SetColWidth(sheetVisit, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetVisit, "B", "B", 40); err != nil {
		return err
	}
	for i, kv := range rows {
		row := i + 1
		keyCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		valCell, err := excelize.CoordinatesToCellName(2, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetVisit, keyCell, kv[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetVisit, valCell, kv[1]); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetVisit, keyCell, keyCell, headerStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, widths []float64, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}
