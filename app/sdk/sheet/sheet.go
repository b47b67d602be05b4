// Package sheet renders tenant listings as XLSX workbooks.
package sheet

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Tenants"

var header = []string{
	"ID",
	"Name",
	"Slug",
	"Status",
	"WhatsApp",
	"AI Assistant",
	"Members",
	"Admins",
	"Created",
}

var widths = []float64{38, 30, 24, 12, 12, 14, 10, 10, 22}

// Tenants writes the tenant summaries into a single sheet workbook.
func Tenants(items []lifecyclebus.TenantSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	f.SetActiveSheet(index)

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}

		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("header %s: %w", cell, err)
		}

		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return nil, fmt.Errorf("header style %s: %w", cell, err)
		}

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}

		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	for r, t := range items {
		row := []any{
			t.ID.String(),
			t.Name.String(),
			t.Slug.String(),
			t.Status.String(),
			yesNo(t.Features.WhatsAppEnabled()),
			yesNo(t.Features.AIAssistantEnabled()),
			t.MemberCount,
			t.AdminCount,
			t.CreatedAt.UTC().Format(time.DateTime),
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r+2, err)
		}

		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", r+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// Filename returns the attachment name for an export taken at now.
func Filename(now time.Time) string {
	return "tenants-" + strconv.FormatInt(now.Unix(), 10) + ".xlsx"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
