package leads

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Leads"

var exportHeaders = []string{
	"ID", "Created", "Status", "Name", "Email", "Project", "Message",
	"Source", "Medium", "Campaign", "Referrer", "Landing page", "Notify status", "Notified",
}

// ListAll pages through List until the store is exhausted or max leads have
// been collected. max <= 0 means no cap.
func ListAll(ctx context.Context, repo Repository, status Status, max int) ([]*Lead, error) {
	var out []*Lead
	offset := 0
	for {
		page, err := repo.List(ctx, ListFilter{Status: status, Limit: maxListLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if max > 0 && len(out) >= max {
			return out[:max], nil
		}
		if len(page) < maxListLimit {
			return out, nil
		}
		offset += len(page)
	}
}

// WriteXLSX renders leads as a single-sheet workbook.
func WriteXLSX(w io.Writer, leads []*Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("leads: export: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle)

	for r, lead := range leads {
		notified := ""
		if lead.NotifiedAt != nil {
			notified = lead.NotifiedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			lead.ID,
			lead.CreatedAt.UTC().Format(time.RFC3339),
			string(lead.Status),
			lead.Name,
			lead.Email,
			lead.Project,
			lead.Message,
			lead.Source,
			lead.Medium,
			lead.Campaign,
			lead.Referrer,
			lead.LandingPage,
			lead.NotifyStatus,
			notified,
		}
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, start, &row); err != nil {
			return fmt.Errorf("leads: export row %d: %w", r+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("leads: write workbook: %w", err)
	}
	return nil
}
