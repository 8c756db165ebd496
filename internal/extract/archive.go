package extract

import (
	"context"
	"strings"

	"grc-backend/internal/shared/storage/object"
)

// ExtractedKey is the storage key of the text derived from sourceKey.
func ExtractedKey(sourceKey string) string {
	return sourceKey + ".extracted.txt"
}

// SaveExtracted persists the derived text next to the source object.
func SaveExtracted(ctx context.Context, store object.ObjectStore, sourceKey string, text ExtractedText) (string, error) {
	key := ExtractedKey(sourceKey)
	_, err := store.SaveWithKey(ctx, key, "text/plain; charset=utf-8", strings.NewReader(text.String()))
	if err != nil {
		return "", err
	}
	return key, nil
}
