package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxReader reads paragraphs and table rows from word/document.xml.
type docxReader struct{}

func (docxReader) Name() string { return "docx" }

func (docxReader) Extract(ctx context.Context, data []byte) ([]Segment, error) {
	if len(data) == 0 {
		return nil, errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, errors.New("word/document.xml not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return walkDocxXML(ctx, rc)
}

// walkDocxXML emits one segment per body paragraph and one per top-level
// table row with cells joined by " | ".
func walkDocxXML(ctx context.Context, r io.Reader) ([]Segment, error) {
	decoder := xml.NewDecoder(r)
	var (
		segments []Segment
		para     strings.Builder
		cell     strings.Builder
		row      []string
		tblDepth int
		inText   bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					row = row[:0]
				}
			case "tc":
				if tblDepth == 1 {
					cell.Reset()
				}
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				para.Reset()
				if text == "" {
					continue
				}
				if tblDepth > 0 {
					if cell.Len() > 0 {
						cell.WriteByte(' ')
					}
					cell.WriteString(text)
				} else {
					segments = append(segments, Segment{Kind: SegmentParagraph, Text: text})
				}
			case "tc":
				if tblDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "tr":
				if tblDepth == 1 && anyNonEmpty(row) {
					segments = append(segments, Segment{Kind: SegmentRow, Text: strings.Join(row, " | ")})
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return segments, nil
}

func anyNonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
