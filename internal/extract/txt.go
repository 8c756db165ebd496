package extract

import (
	"bytes"
	"context"
	"strings"
)

// plainText decodes UTF-8 text into blank-line separated paragraphs.
type plainText struct{}

func (plainText) Name() string { return "text" }

func (plainText) Extract(_ context.Context, data []byte) ([]Segment, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var segments []Segment
	for _, block := range strings.Split(text, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			segments = append(segments, Segment{Kind: SegmentParagraph, Text: block})
		}
	}
	return segments, nil
}
