package core

import (
	"context"
	"io"
)

// MediaStore stores uploaded files (avatars, lesson videos) and returns their public URL.
type MediaStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}
