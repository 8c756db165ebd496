package extract

import (
	"strings"
	"testing"
)

func TestChunksSplitOnSegmentBoundaries(t *testing.T) {
	text := ExtractedText{Segments: []Segment{
		{Text: strings.Repeat("a", 4)},
		{Text: strings.Repeat("b", 4)},
		{Text: strings.Repeat("c", 12)},
		{Text: "d"},
	}}
	got := text.Chunks(10)
	want := []string{"aaaa\nbbbb", "cccccccccc", "cc", "d"}
	if len(got) != len(want) {
		t.Fatalf("unexpected chunks %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHead(t *testing.T) {
	if got := Head("héllo", 2); got != "hé" {
		t.Fatalf("Head = %q", got)
	}
	if got := Head("abc", 0); got != "abc" {
		t.Fatalf("Head with zero limit = %q", got)
	}
}
