// Package storage persists uploaded project thumbnails and user avatars.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	ThumbnailFolder = "thumbnails"
	AvatarFolder    = "avatars"
)

// FileStorage saves uploads and returns the public path they are served from.
type FileStorage interface {
	Save(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
	// Delete removes a file previously returned by Save. Paths the storage
	// does not own and files that are already gone are ignored.
	Delete(ctx context.Context, publicPath string) error
}

// objectName gives every upload a unique name while keeping the extension.
func objectName(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return folder + "/" + uuid.NewString() + ext
}
