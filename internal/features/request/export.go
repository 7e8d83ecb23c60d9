package request

import (
	"context"
	"fmt"
	"time"

	"go-approvals/internal/common/apperrors"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExportHistory renders the full decision history of a request, every
// cycle included, as an xlsx workbook.
func (s *RequestServiceImpl) ExportHistory(ctx context.Context, requestID primitive.ObjectID) ([]byte, string, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if req == nil {
		return nil, "", &apperrors.NotFoundError{Resource: "request", ID: requestID.Hex()}
	}

	history, err := s.ledger.History(ctx, requestID)
	if err != nil {
		return nil, "", err
	}

	// Resolve reviewer names for display
	ids := make([]string, 0, len(history))
	seen := make(map[string]bool)
	for _, d := range history {
		hex := d.ReviewerID.Hex()
		if !seen[hex] {
			seen[hex] = true
			ids = append(ids, hex)
		}
	}
	names := make(map[string]string, len(ids))
	if users, err := s.reviewers.FindByIDs(ctx, ids); err == nil {
		for _, u := range users {
			names[u.ID.Hex()] = u.Username
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Decision History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"Cycle", "Category", "Ordinal", "Reviewer", "Status", "Comment", "Decided At"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, d := range history {
		reviewer := names[d.ReviewerID.Hex()]
		if reviewer == "" {
			reviewer = d.ReviewerID.Hex()
		}
		decidedAt := ""
		if d.DecidedAt != nil {
			decidedAt = d.DecidedAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{d.Cycle, string(d.Category), d.Ordinal, reviewer, string(d.Status), d.Comment, decidedAt}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("request_%s_history_%s.xlsx", requestID.Hex(), time.Now().Format("20060102_150405"))
	return buffer.Bytes(), filename, nil
}
