package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfReader is the primary PDF extractor, one segment per page.
type pdfReader struct{}

func (pdfReader) Name() string { return "ledongthuc/pdf" }

func (pdfReader) Extract(ctx context.Context, data []byte) ([]Segment, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var segments []Segment
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		segments = append(segments, Segment{Kind: SegmentPage, Label: strconv.Itoa(i), Text: text})
	}
	if !hasText(segments) {
		return nil, errNoText
	}
	return segments, nil
}

// pdfContentStream is the fallback PDF extractor. It validates the file with
// pdfcpu and reads text-showing operators from each page content stream.
type pdfContentStream struct{}

func (pdfContentStream) Name() string { return "pdfcpu" }

func (pdfContentStream) Extract(ctx context.Context, data []byte) ([]Segment, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var segments []Segment
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d content: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("page %d read: %w", pageNr, err)
		}
		segments = append(segments, Segment{
			Kind:  SegmentPage,
			Label: strconv.Itoa(pageNr),
			Text:  textFromContentStream(raw),
		})
	}
	return segments, nil
}
