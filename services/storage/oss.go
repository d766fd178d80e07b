package storagesvc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
)

type ossStorage struct {
	bucket    *oss.Bucket
	publicURL string
}

var _ core.FileStorage = (*ossStorage)(nil)

// NewOSSStorage stores the files in the conf.Storage.OSSBucket bucket.
func NewOSSStorage(conf *core.Config) (core.FileStorage, error) {
	sc := conf.Storage
	if sc.OSSEndpoint == "" || sc.OSSAccessKeyID == "" || sc.OSSAccessKeySecret == "" || sc.OSSBucket == "" {
		return nil, errors.New("missing OSS endpoint, access keys or bucket")
	}
	client, err := oss.New(sc.OSSEndpoint, sc.OSSAccessKeyID, sc.OSSAccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "creating OSS client")
	}
	bucket, err := client.Bucket(sc.OSSBucket)
	if err != nil {
		return nil, errors.Wrap(err, "opening OSS bucket")
	}

	publicURL := sc.OSSPublicURL
	if publicURL == "" {
		endpoint := strings.TrimPrefix(strings.TrimPrefix(sc.OSSEndpoint, "https://"), "http://")
		publicURL = fmt.Sprintf("https://%s.%s", sc.OSSBucket, endpoint)
	}
	return &ossStorage{bucket: bucket, publicURL: publicURL}, nil
}

func (s *ossStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
	}
	if size > 0 {
		opts = append(opts, oss.ContentLength(size))
	}
	if err := s.bucket.PutObject(key, r, opts...); err != nil {
		return "", errors.Wrap(err, "uploading to OSS")
	}
	return s.publicURL + "/" + key, nil
}

func (s *ossStorage) Delete(ctx context.Context, key string) error {
	return errors.Wrap(s.bucket.DeleteObject(key, oss.WithContext(ctx)), "deleting from OSS")
}
