package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/extrame/xls"
)

// xlsReader reads legacy BIFF workbooks with the same layout as xlsxReader.
type xlsReader struct{}

func (xlsReader) Name() string { return "extrame/xls" }

func (xlsReader) Extract(ctx context.Context, data []byte) ([]Segment, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("open workbook: no workbook stream")
	}

	var segments []Segment
	for i := 0; i < wb.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		segments = append(segments, sheetSegments(sheet.Name, xlsRows(sheet))...)
	}
	return segments, nil
}

// xlsRows flattens a sheet into rows indexed from zero. Missing rows stay
// empty so row labels keep their spreadsheet numbers.
func xlsRows(sheet *xls.WorkSheet) [][]string {
	rows := make([][]string, int(sheet.MaxRow)+1)
	for i := range rows {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows[i] = cells
	}
	return rows
}
