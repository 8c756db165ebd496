package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxReader emits a header segment per sheet followed by its non-empty rows.
type xlsxReader struct{}

func (xlsxReader) Name() string { return "excelize" }

func (xlsxReader) Extract(ctx context.Context, data []byte) ([]Segment, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var segments []Segment
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		segments = append(segments, sheetSegments(sheet, rows)...)
	}
	return segments, nil
}

// sheetSegments renders one sheet as a "=== Sheet: name ===" header followed
// by its non-empty rows joined with " | ". Empty sheets yield nothing.
func sheetSegments(sheet string, rows [][]string) []Segment {
	var sheetRows []Segment
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strings.TrimSpace(v)
		}
		if !anyNonEmpty(cells) {
			continue
		}
		sheetRows = append(sheetRows, Segment{
			Kind:  SegmentRow,
			Label: fmt.Sprintf("%s!%d", sheet, i+1),
			Text:  strings.Join(trimTrailingEmpty(cells), " | "),
		})
	}
	if len(sheetRows) == 0 {
		return nil
	}
	return append([]Segment{{Kind: SegmentSheet, Label: sheet, Text: "=== Sheet: " + sheet + " ==="}}, sheetRows...)
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
