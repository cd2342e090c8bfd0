// Package media stores uploaded files on Backblaze B2 or the local disk.
package media

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
)

type B2 struct {
	client *b2.Client
	bucket *b2.Bucket
}

var _ core.MediaStore = (*B2)(nil)

func NewB2(ctx context.Context, conf core.MediaConfig) (*B2, error) {
	client, err := b2.NewClient(ctx, conf.B2KeyID, conf.B2AppKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, conf.B2Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &B2{client: client, bucket: bucket}, nil
}

func (s *B2) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "closing object writer")
	}
	return fmt.Sprintf("%s/file/%s/%s", s.bucket.BaseURL(), s.bucket.Name(), key), nil
}

func (s *B2) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if b2.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "deleting object")
	}
	return nil
}
