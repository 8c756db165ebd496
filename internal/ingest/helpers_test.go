package ingest

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

var fieldPromptName = regexp.MustCompile(`extract ONLY the "([A-Za-z]+)" field`)

// fakeCompleter answers aggregate prompts with aggregate and single-field
// prompts with fields[name]. A field mapped to blockField waits for the
// call deadline.
type fakeCompleter struct {
	mu        sync.Mutex
	aggregate []string
	fields    map[string]string
	calls     []string
}

const blockField = "<block>"

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	var reply string
	if m := fieldPromptName.FindStringSubmatch(prompt); m != nil {
		var ok bool
		reply, ok = f.fields[m[1]]
		if !ok {
			reply = `{"value": null, "confidence": 0.0}`
		}
	} else if len(f.aggregate) > 0 {
		reply = f.aggregate[0]
		if len(f.aggregate) > 1 {
			f.aggregate = f.aggregate[1:]
		}
	} else {
		reply = `{}`
	}
	f.mu.Unlock()

	if reply == blockField {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, nil
}

func (f *fakeCompleter) fieldCalls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if m := fieldPromptName.FindStringSubmatch(c); m != nil && m[1] == name {
			n++
		}
	}
	return n
}

func (f *fakeCompleter) aggregateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if !fieldPromptName.MatchString(c) {
			n++
		}
	}
	return n
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testNormalizer() Normalizer {
	return Normalizer{Now: fixedNow}
}

func assertSchemaComplete(t *testing.T, s *Schema, record map[string]any) {
	t.Helper()
	if len(record) != len(s.Fields) {
		t.Fatalf("record has %d keys, schema %s has %d fields", len(record), s.Name, len(s.Fields))
	}
	for _, name := range s.Names() {
		if _, ok := record[name]; !ok {
			t.Fatalf("record missing field %s", name)
		}
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
