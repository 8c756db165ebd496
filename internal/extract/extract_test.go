package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func buildXlsx(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Risk Title")
	_ = f.SetCellValue("Sheet1", "B1", "Likelihood")
	_ = f.SetCellValue("Sheet1", "A3", "Vendor data breach")
	_ = f.SetCellValue("Sheet1", "B3", 7)
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocxParagraphsAndTables(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Incident: Phishing campaign</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">Reported </w:t></w:r><w:r><w:t>2024-03-15</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Owner</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>SecOps</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	text, err := DefaultRegistry().Extract(context.Background(), UploadedDocument{
		Data:     data,
		MimeType: "application/zip",
		FileName: "incident.docx",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text.Type != TypeDOCX {
		t.Fatalf("expected docx, got %s", text.Type)
	}
	want := []Segment{
		{Kind: SegmentParagraph, Text: "Incident: Phishing campaign"},
		{Kind: SegmentParagraph, Text: "Reported 2024-03-15"},
		{Kind: SegmentRow, Text: "Owner | SecOps"},
	}
	if len(text.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %+v", len(want), text.Segments)
	}
	for i, seg := range want {
		if text.Segments[i] != seg {
			t.Fatalf("segment %d: got %+v want %+v", i, text.Segments[i], seg)
		}
	}
}

func TestExtractXlsxRowsPerSheet(t *testing.T) {
	text, err := DefaultRegistry().Extract(context.Background(), UploadedDocument{
		Data:     buildXlsx(t),
		FileName: "register.xlsx",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := text.String()
	want := "=== Sheet: Sheet1 ===\nRisk Title | Likelihood\nVendor data breach | 7"
	if got != want {
		t.Fatalf("unexpected text:\n%s\nwant:\n%s", got, want)
	}
	if text.Extractor != "excelize" {
		t.Fatalf("unexpected extractor %s", text.Extractor)
	}
}

func TestExtractPlainText(t *testing.T) {
	raw := "\xef\xbb\xbfTitle: Server outage\r\n\r\nDate: 03/15/2024\xff"
	text, err := DefaultRegistry().Extract(context.Background(), UploadedDocument{
		Data:     []byte(raw),
		MimeType: "text/plain; charset=utf-8",
		FileName: "note.txt",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := text.String(); got != "Title: Server outage\nDate: 03/15/2024" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractUnsupportedFormats(t *testing.T) {
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	w, _ := zw.Create("notes.txt")
	_, _ = w.Write([]byte("hello"))
	_ = zw.Close()

	cases := []UploadedDocument{
		{Data: []byte(`{\rtf1\ansi Incident report}`), MimeType: "application/rtf", FileName: "report.rtf"},
		{Data: []byte(`{\rtf1\ansi Incident report}`), MimeType: "text/plain", FileName: "report.rtf"},
		{Data: zipBuf.Bytes(), MimeType: "application/zip", FileName: "notes.zip"},
		{Data: append(append([]byte(nil), oleMagic...), 0, 0, 0), MimeType: "application/msword", FileName: "legacy.doc"},
		{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png", FileName: "scan.png"},
	}
	for _, doc := range cases {
		_, err := DefaultRegistry().Extract(context.Background(), doc)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", doc.FileName, err)
		}
	}
}

func TestExtractLegacyWorkbookIsSupported(t *testing.T) {
	_, err := DefaultRegistry().Extract(context.Background(), UploadedDocument{
		Data:     append(append([]byte(nil), oleMagic...), 0, 0, 0),
		MimeType: "application/vnd.ms-excel",
		FileName: "legacy.xls",
	})
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("xls must have an extractor, got %v", err)
	}
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("truncated workbook should fail extraction, got %v", err)
	}
}

func TestSheetSegmentsLayout(t *testing.T) {
	rows := [][]string{
		{"Risk Title", "Likelihood", ""},
		nil,
		{"", "", ""},
		{" Vendor data breach ", "7"},
	}
	segs := sheetSegments("Register", rows)
	text := ExtractedText{Segments: segs}.String()
	want := "=== Sheet: Register ===\nRisk Title | Likelihood\nVendor data breach | 7"
	if text != want {
		t.Fatalf("unexpected sheet text %q", text)
	}
	if segs[2].Label != "Register!4" {
		t.Fatalf("row labels should keep sheet numbering, got %q", segs[2].Label)
	}
	if got := sheetSegments("Empty", [][]string{{"", " "}}); got != nil {
		t.Fatalf("empty sheet should yield nothing, got %v", got)
	}
}

func TestExtractCorruptPDFFailsLoudly(t *testing.T) {
	_, err := DefaultRegistry().Extract(context.Background(), UploadedDocument{
		Data:     []byte("%PDF-1.7\nthis is not really a pdf"),
		MimeType: "application/pdf",
		FileName: "broken.pdf",
	})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

type stubExtractor struct {
	name     string
	segments []Segment
	err      error
	panicMsg string
	calls    *int
}

func (s stubExtractor) Name() string { return s.name }

func (s stubExtractor) Extract(context.Context, []byte) ([]Segment, error) {
	if s.calls != nil {
		*s.calls++
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.segments, s.err
}

func txtDoc() UploadedDocument {
	return UploadedDocument{Data: []byte("irrelevant"), FileName: "a.txt"}
}

func TestRegistryFallsBackOnlyOnError(t *testing.T) {
	var secondCalls int
	r := NewRegistry()
	r.Register(TypeTXT,
		stubExtractor{name: "primary", segments: []Segment{{Kind: SegmentPage, Text: "from primary"}}},
		stubExtractor{name: "secondary", segments: []Segment{{Kind: SegmentPage, Text: "from secondary"}}, calls: &secondCalls},
	)
	text, err := r.Extract(context.Background(), txtDoc())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text.Extractor != "primary" || secondCalls != 0 {
		t.Fatalf("secondary should not run when primary succeeds (extractor=%s calls=%d)", text.Extractor, secondCalls)
	}

	r = NewRegistry()
	r.Register(TypeTXT,
		stubExtractor{name: "primary", panicMsg: "bad xref"},
		stubExtractor{name: "secondary", segments: []Segment{{Kind: SegmentPage, Text: "from secondary"}}},
	)
	text, err = r.Extract(context.Background(), txtDoc())
	if err != nil {
		t.Fatalf("Extract with fallback: %v", err)
	}
	if text.Extractor != "secondary" || text.String() != "from secondary" {
		t.Fatalf("unexpected fallback result %+v", text)
	}
}

func TestRegistryEmptyTextIsFailure(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeTXT, stubExtractor{name: "blank", segments: []Segment{{Kind: SegmentPage, Text: "  \n "}}})
	_, err := r.Extract(context.Background(), txtDoc())
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "no text") {
		t.Fatalf("expected no-text cause, got %v", err)
	}
}

func TestRegistryAllCandidatesFail(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeTXT,
		stubExtractor{name: "a", err: errors.New("encrypted")},
		stubExtractor{name: "b", err: errors.New("bad encoding")},
	)
	_, err := r.Extract(context.Background(), txtDoc())
	if !errors.Is(err, ErrExtractionFailed) || !strings.Contains(err.Error(), "bad encoding") {
		t.Fatalf("expected wrapped last error, got %v", err)
	}
}

func TestRegistryMinTextChars(t *testing.T) {
	r := NewRegistry(WithMinTextChars(50))
	r.Register(TypeTXT, plainText{})
	_, err := r.Extract(context.Background(), UploadedDocument{Data: []byte("too short"), FileName: "n.txt"})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestSupportedTypes(t *testing.T) {
	got := DefaultRegistry().Supported()
	want := []Type{TypeDOCX, TypePDF, TypeTXT, TypeXLS, TypeXLSX}
	if len(got) != len(want) {
		t.Fatalf("unexpected supported types %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected supported types %v", got)
		}
	}
}
