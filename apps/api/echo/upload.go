package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
)

const (
	uploadField = "file"

	maxImageSize = 5 << 20
	maxFileSize  = 10 << 20
)

var (
	imageTypes    = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}
	documentTypes = append([]string{"application/pdf"}, imageTypes...)
)

type uploadRule struct {
	kind    string
	maxSize int64
	types   []string
}

var (
	avatarUpload     = uploadRule{kind: core.UploadAvatar, maxSize: maxImageSize, types: imageTypes}
	documentUpload   = uploadRule{kind: core.UploadDocument, maxSize: maxImageSize, types: documentTypes}
	taskUpload       = uploadRule{kind: core.UploadTask, maxSize: maxFileSize, types: documentTypes}
	tradeUpload      = uploadRule{kind: core.UploadTrade, maxSize: maxFileSize, types: documentTypes}
	enrollmentUpload = uploadRule{kind: core.UploadEnrollment, maxSize: maxFileSize, types: documentTypes}
)

// uploader stores the multipart `file` field(s) of a request under the uploading user's prefix.
type uploader struct {
	storage core.FileStorage
}

func uploadError(msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: uploadField, Error: msg})
}

// one stores the single uploaded file. An absent file returns an empty URL, or an error when `required`.
func (up uploader) one(ctx echo.Context, userID string, rule uploadRule, required bool) (string, error) {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				return "", uploadError("this field is required")
			}
			return "", nil
		}
		return "", errors.Wrap(err, "reading uploaded file")
	}
	return up.save(ctx, fh, userID, rule)
}

// all stores every uploaded file, in order.
func (up uploader) all(ctx echo.Context, userID string, rule uploadRule) ([]string, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading multipart form")
	}
	urls := make([]string, 0, len(form.File[uploadField]))
	for _, fh := range form.File[uploadField] {
		url, err := up.save(ctx, fh, userID, rule)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (up uploader) save(ctx echo.Context, fh *multipart.FileHeader, userID string, rule uploadRule) (string, error) {
	if fh.Size > rule.maxSize {
		return "", uploadError("file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	// sniff the content instead of trusting the client
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.Wrap(err, "reading uploaded file")
	}
	contentType := http.DetectContentType(head[:n])
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !core.StringInSlice(contentType, rule.types) {
		return "", uploadError("unsupported file type")
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "rewinding uploaded file")
	}

	key := core.UploadKey(userID, rule.kind, fh.Filename)
	url, err := up.storage.Save(ctx.Request().Context(), key, f, fh.Size, contentType)
	return url, errors.Wrap(err, "storing uploaded file")
}
