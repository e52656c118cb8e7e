package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/services"
)

// multipartMemory is how much of a multipart body is buffered in memory;
// the rest spills to temp files.
const multipartMemory = 32 << 20

func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid %s", name)
	}
	return uint(id), nil
}

// queryUint reads an optional positive integer from the query string.
func queryUint(c *gin.Context, key string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, apperror.Validation("%s must be a positive integer", key)
	}
	id := uint(n)
	return &id, nil
}

// limitBody caps the request body. Oversized uploads then fail while the
// multipart form is parsed.
func limitBody(c *gin.Context, max int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
}

func parseMultipart(c *gin.Context) (*multipart.Form, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.Validation("File too large")
		}
		return nil, apperror.Validation("Invalid multipart form")
	}
	return form, nil
}

// formString returns a pointer to the field's value, or nil when the field
// was not sent at all.
func formString(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// formIDs reads an id list sent as repeated fields, as key[] fields, as a
// comma-joined string or as a JSON array. ok is false when nothing was sent.
func formIDs(form *multipart.Form, key string) (ids []uint, ok bool, err error) {
	var raw []string
	for _, k := range []string{key, key + "[]"} {
		if values, present := form.Value[k]; present {
			ok = true
			raw = append(raw, values...)
		}
	}
	if !ok {
		return nil, false, nil
	}

	ids = []uint{}
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var arr []uint
			if err := json.Unmarshal([]byte(v), &arr); err != nil {
				return nil, true, apperror.Validation("%s must be a list of ids", key)
			}
			ids = append(ids, arr...)
			continue
		}
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseUint(part, 10, 64)
			if err != nil || n == 0 {
				return nil, true, apperror.Validation("%s must be a list of ids", key)
			}
			ids = append(ids, uint(n))
		}
	}
	return ids, true, nil
}

func formFiles(form *multipart.Form, key string) []*services.FileUpload {
	headers := append(form.File[key], form.File[key+"[]"]...)
	files := make([]*services.FileUpload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, services.FileFromHeader(fh))
	}
	return files
}

func formFile(form *multipart.Form, key string) *services.FileUpload {
	if files := formFiles(form, key); len(files) > 0 {
		return files[0]
	}
	return nil
}

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}
