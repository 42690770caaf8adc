package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store keeps uploaded photos outside the database. Grams only hold the key.
type Store interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey builds a unique object key for a photo uploaded by userID.
func NewKey(userID uint, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == "/" || name == "" {
		name = "photo"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("grams/%d/%s_%s", userID, uuid.New().String(), name)
}

// CleanURL escapes spaces and normalizes a URL built from a key.
func CleanURL(urlStr string) string {
	urlStr = strings.ReplaceAll(urlStr, " ", "%20")
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	return parsedURL.String()
}
