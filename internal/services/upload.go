package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sinar-app/sinar-api/internal/apperror"
)

const (
	MaxDocumentSize = 10 << 20
	MaxAudioSize    = 30 << 20
	MaxVideoSize    = 500 << 20
	MaxLogoSize     = 2 << 20
)

// FileUpload is a file received from a client. Open may be called more
// than once.
type FileUpload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func FileFromHeader(fh *multipart.FileHeader) *FileUpload {
	return &FileUpload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func FileFromBytes(name string, data []byte) *FileUpload {
	return &FileUpload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func (f *FileUpload) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// fileRule describes what one upload field accepts. accept receives the
// sniffed type and the lower-cased extension.
type fileRule struct {
	label   string
	maxSize int64
	accept  func(m *mimetype.MIME, ext string) bool
}

var (
	documentRule = fileRule{
		label:   "Document",
		maxSize: MaxDocumentSize,
		accept: func(m *mimetype.MIME, ext string) bool {
			switch {
			case m.Is("application/pdf"),
				m.Is("application/msword"),
				m.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
				return true
			case m.Is("application/zip"):
				return ext == ".docx"
			case m.Is("application/x-ole-storage"):
				return ext == ".doc"
			}
			return false
		},
	}
	audioRule = fileRule{
		label:   "Audio",
		maxSize: MaxAudioSize,
		accept: func(m *mimetype.MIME, ext string) bool {
			return hasTypePrefix(m, "audio/") || (ext == ".m4a" && m.Is("video/mp4"))
		},
	}
	videoRule = fileRule{
		label:   "Video",
		maxSize: MaxVideoSize,
		accept: func(m *mimetype.MIME, _ string) bool {
			return hasTypePrefix(m, "video/")
		},
	}
	logoRule = fileRule{
		label:   "Logo",
		maxSize: MaxLogoSize,
		accept: func(m *mimetype.MIME, _ string) bool {
			return m.Is("image/png") || m.Is("image/jpeg") || m.Is("image/gif") || m.Is("image/webp")
		},
	}
)

func hasTypePrefix(m *mimetype.MIME, prefix string) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), prefix) {
			return true
		}
	}
	return false
}

// check enforces the size limit and sniffs the content type. It returns
// the detected type without parameters.
func (r fileRule) check(f *FileUpload) (string, error) {
	if f == nil || f.Size == 0 {
		return "", apperror.Validation("%s file is empty", r.label)
	}
	if f.Size > r.maxSize {
		return "", apperror.Validation("%s file exceeds %d MB limit", r.label, r.maxSize>>20)
	}

	rc, err := f.Open()
	if err != nil {
		return "", apperror.Validation("%s file could not be read", r.label)
	}
	defer rc.Close()

	m, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", apperror.Validation("%s file could not be read", r.label)
	}
	if !r.accept(m, f.Ext()) {
		return "", apperror.Validation("Unsupported %s file type", strings.ToLower(r.label))
	}

	contentType, _, _ := strings.Cut(m.String(), ";")
	return contentType, nil
}

// objectKey generates a fresh storage key keeping the original extension.
func objectKey(prefix, name string) string {
	return fmt.Sprintf("%s%s%s", prefix, uuid.NewString(), strings.ToLower(filepath.Ext(name)))
}
