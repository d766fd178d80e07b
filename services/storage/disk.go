// Package storagesvc stores the uploaded files on local disk or Aliyun OSS.
package storagesvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
)

type diskStorage struct {
	dir     string
	baseURL string
}

var _ core.FileStorage = (*diskStorage)(nil)

// NewDiskStorage stores the files under conf.Storage.MediaDir, served at conf.Storage.MediaURL.
func NewDiskStorage(conf *core.Config) (core.FileStorage, error) {
	if err := os.MkdirAll(conf.Storage.MediaDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media dir")
	}
	return &diskStorage{dir: conf.Storage.MediaDir, baseURL: conf.Storage.MediaURL}, nil
}

func (s *diskStorage) path(key string) (string, error) {
	fp := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(fp, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return "", errors.Errorf("invalid storage key %q", key)
	}
	return fp, nil
}

func (s *diskStorage) Save(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	fp, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	f, err := os.Create(fp)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "writing upload file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing upload file")
	}
	return s.baseURL + "/" + strings.TrimLeft(key, "/"), nil
}

func (s *diskStorage) Delete(_ context.Context, key string) error {
	fp, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting upload file")
	}
	return nil
}
