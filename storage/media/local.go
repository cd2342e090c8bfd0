package media

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
)

var ErrInvalidKey = errors.New("media: invalid key")

// Local writes files under a directory served at baseURL.
type Local struct {
	dir     string
	baseURL string
}

var _ core.MediaStore = (*Local)(nil)

func NewLocal(conf core.MediaConfig) (*Local, error) {
	if err := os.MkdirAll(conf.LocalDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media directory")
	}
	return &Local{dir: conf.LocalDir, baseURL: strings.TrimSuffix(conf.BaseURL, "/")}, nil
}

// Dir is the directory files are written to.
func (s *Local) Dir() string {
	return s.dir
}

func (s *Local) file(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *Local) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fpath, err := s.file(key)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
		return "", errors.Wrap(err, "creating media directory")
	}

	f, err := os.Create(fpath)
	if err != nil {
		return "", errors.Wrap(err, "creating media file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fpath)
		return "", errors.Wrap(err, "writing media file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing media file")
	}
	return s.baseURL + path.Clean("/"+key), nil
}

func (s *Local) Delete(_ context.Context, key string) error {
	fpath, err := s.file(key)
	if err != nil {
		return err
	}
	if err = os.Remove(fpath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting media file")
	}
	return nil
}
