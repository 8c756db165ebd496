package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	obj, err := store.Save(ctx, "imports/incident", "guest:abc", "report.txt", strings.NewReader("incident report body"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(obj.Key, "imports/incident/") {
		t.Fatalf("unexpected key: %s", obj.Key)
	}
	if !strings.HasSuffix(obj.Key, "_report.txt") {
		t.Fatalf("expected sanitized file name suffix, got %s", obj.Key)
	}
	if obj.Size != int64(len("incident report body")) {
		t.Fatalf("unexpected size %d", obj.Size)
	}
	if !strings.HasPrefix(obj.MimeType, "text/plain") {
		t.Fatalf("unexpected mime type %s", obj.MimeType)
	}

	rc, err := store.Open(ctx, obj.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "incident report body" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.SaveWithKey(ctx, "../escape.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
	if _, err := store.Open(ctx, "/etc/passwd"); err == nil {
		t.Fatalf("expected absolute key to be rejected")
	}
	if _, err := store.Save(ctx, "imports", "u", "../../x.txt", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal file name to be rejected")
	}
}
