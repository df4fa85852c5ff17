// Package images stores product photos. The catalog records only the
// public path returned by Put; the backing store is either a directory on
// disk or an S3-compatible bucket.
package images

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// MaxUploadBytes is the default upload limit.
const MaxUploadBytes = 5 << 20

// ErrStorage wraps every failure to write or remove an image.
var ErrStorage = errors.New("image storage")

// ErrUnsupportedType is returned for uploads that are not a known image type.
var ErrUnsupportedType = errors.New("unsupported image type")

// Store writes and removes image objects addressed by their public path.
type Store interface {
	// Put stores data under name and returns the public path.
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Delete removes the object behind a public path previously returned by
	// Put. Deleting a missing object is not an error.
	Delete(ctx context.Context, publicPath string) error
}

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// CheckType validates an upload by both its file extension and its content
// type and returns the extension to store it under.
func CheckType(filename, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	want, ok := allowedExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedType, ext)
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ct != want && !(ct == "image/jpg" && want == "image/jpeg") {
		return "", fmt.Errorf("%w: content type %q", ErrUnsupportedType, contentType)
	}
	return ext, nil
}

// ObjectName names a product image object. The name carries a digest of
// the content and a random suffix, so every upload gets a fresh name even
// when the bytes repeat.
func ObjectName(productID int64, ext string, data []byte) string {
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("product-%d-%s-%s%s", productID, hex.EncodeToString(sum[:8]), uuid.NewString()[:8], ext)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
