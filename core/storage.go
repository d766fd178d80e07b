package core

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Upload kinds, used as the second segment of the storage keys
const (
	UploadAvatar     = "avatars"
	UploadDocument   = "documents"
	UploadTask       = "tasks"
	UploadTrade      = "trades"
	UploadEnrollment = "enrollments"
)

// FileStorage is any object storage the uploads can be saved to.
type FileStorage interface {
	// Save stores the content of `r` under `key` and returns its public URL.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// UploadKey returns a new storage key under the per-user prefix: `<user_id>/<kind>/<uuid><ext>`.
func UploadKey(userID, kind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(userID, kind, uuid.NewString()+ext)
}
