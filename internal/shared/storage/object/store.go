package object

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"grc-backend/internal/shared/util"
)

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Save(ctx context.Context, scope, ownerID, fileName string, r io.Reader) (Object, error)
	SaveWithKey(ctx context.Context, storageKey, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// NewKey builds "<scope>/<hashed owner>/<random>_<file>" for a new upload.
func NewKey(scope, ownerID, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	cleanScope := strings.Trim(strings.TrimSpace(scope), "/")
	if strings.Contains(cleanScope, "..") {
		return "", fmt.Errorf("invalid scope %q", scope)
	}
	name := randomID() + "_" + sanitized
	return path.Join(cleanScope, util.HashUserKey(ownerID), name), nil
}

// CleanKey rejects absolute or traversing keys and returns the cleaned form.
func CleanKey(storageKey string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(storageKey, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("invalid storage key")
	}
	return clean, nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
