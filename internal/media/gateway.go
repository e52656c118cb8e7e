// Package media serves stored objects to HTTP clients: whole-file
// downloads, byte-range streaming and in-browser previews.
package media

import (
	"context"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/apperror"
)

// MaxPreviewSize bounds how much of a .docx is read into memory for conversion.
const MaxPreviewSize = 20 << 20

const retrieveFailed = "Failed to retrieve file"

type Gateway struct {
	store ObjectStore
}

func NewGateway(store ObjectStore) *Gateway {
	return &Gateway{store: store}
}

// OnComplete runs after a body was copied to the client in full.
type OnComplete func(ctx context.Context) error

// Methods return an error only when nothing has been written yet; the
// caller renders it. Failures after the headers went out are logged.

// Download sends the whole object as an attachment.
func (g *Gateway) Download(c *gin.Context, obj Object, done OnComplete) error {
	ctx := c.Request.Context()
	info, err := g.stat(ctx, obj)
	if err != nil {
		return err
	}

	contentType := info.ContentType
	if contentType == "" || contentType == octetStream {
		contentType = TypeByName(obj.Name)
	}

	body, err := g.open(ctx, obj, 0, -1)
	if err != nil {
		return err
	}
	defer body.Close()

	h := c.Writer.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	h.Set("Content-Disposition", disposition("attachment", obj.Name))
	if !g.copy(c, http.StatusOK, body, info.Size, obj) || done == nil {
		return nil
	}

	if err := done(context.WithoutCancel(ctx)); err != nil {
		log.Printf("media: download hook for %s/%s failed: %v", obj.Bucket, obj.Key, err)
	}
	return nil
}

// Stream serves audio and video with byte-range support.
func (g *Gateway) Stream(c *gin.Context, obj Object) error {
	return g.ranged(c, obj, MediaType(obj.Name), "")
}

// Preview renders .docx files as HTML and streams every other type inline.
func (g *Gateway) Preview(c *gin.Context, obj Object) error {
	if !IsDOCX(obj.Name) {
		return g.Inline(c, obj, "")
	}

	ctx := c.Request.Context()
	info, err := g.stat(ctx, obj)
	if err != nil {
		return err
	}
	if info.Size > MaxPreviewSize {
		return apperror.Validation("Document is too large to preview")
	}

	body, err := g.open(ctx, obj, 0, -1)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxPreviewSize+1))
	if err != nil {
		log.Printf("media: read %s/%s: %v", obj.Bucket, obj.Key, err)
		return apperror.Internal(retrieveFailed, err)
	}

	out, err := ConvertDOCX(data)
	if err != nil {
		log.Printf("media: convert %s/%s: %v", obj.Bucket, obj.Key, err)
		return apperror.Internal("Failed to convert document", err)
	}

	name := strings.TrimSuffix(obj.Name, filepath.Ext(obj.Name)) + ".html"
	c.Header("Content-Disposition", disposition("inline", name))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
	return nil
}

// Inline streams the object for display in the browser. A non-empty
// cacheControl is sent as Cache-Control.
func (g *Gateway) Inline(c *gin.Context, obj Object, cacheControl string) error {
	contentType := TypeByName(obj.Name)
	return g.ranged(c, obj, contentType, cacheControl)
}

func (g *Gateway) ranged(c *gin.Context, obj Object, contentType, cacheControl string) error {
	ctx := c.Request.Context()
	info, err := g.stat(ctx, obj)
	if err != nil {
		return err
	}
	if contentType == octetStream && info.ContentType != "" {
		contentType = info.ContentType
	}

	h := c.Writer.Header()
	h.Set("Accept-Ranges", "bytes")
	if cacheControl != "" {
		h.Set("Cache-Control", cacheControl)
	}

	header := c.GetHeader("Range")
	if header == "" {
		body, err := g.open(ctx, obj, 0, -1)
		if err != nil {
			return err
		}
		defer body.Close()

		h.Set("Content-Type", contentType)
		h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
		h.Set("Content-Disposition", disposition("inline", obj.Name))
		g.copy(c, http.StatusOK, body, info.Size, obj)
		return nil
	}

	br, err := ParseRange(header, info.Size)
	if err != nil {
		h.Set("Content-Range", "bytes */"+strconv.FormatInt(info.Size, 10))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		c.Writer.WriteHeaderNow()
		return nil
	}

	body, err := g.open(ctx, obj, br.Start, br.Length())
	if err != nil {
		return err
	}
	defer body.Close()

	h.Set("Content-Type", contentType)
	h.Set("Content-Range", br.ContentRange(info.Size))
	h.Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	g.copy(c, http.StatusPartialContent, body, br.Length(), obj)
	return nil
}

func (g *Gateway) stat(ctx context.Context, obj Object) (ObjectInfo, error) {
	info, err := g.store.Stat(ctx, obj.Bucket, obj.Key)
	if err != nil {
		log.Printf("media: stat %s/%s: %v", obj.Bucket, obj.Key, err)
		return ObjectInfo{}, apperror.Internal(retrieveFailed, err)
	}
	return info, nil
}

func (g *Gateway) open(ctx context.Context, obj Object, offset, length int64) (io.ReadCloser, error) {
	body, err := g.store.Open(ctx, obj.Bucket, obj.Key, offset, length)
	if err != nil {
		log.Printf("media: open %s/%s: %v", obj.Bucket, obj.Key, err)
		return nil, apperror.Internal(retrieveFailed, err)
	}
	return body, nil
}

// copy writes status and exactly want bytes of body. It reports whether
// the full body reached the client.
func (g *Gateway) copy(c *gin.Context, status int, body io.Reader, want int64, obj Object) bool {
	c.Status(status)
	c.Writer.WriteHeaderNow()
	n, err := io.CopyN(c.Writer, body, want)
	if err != nil {
		log.Printf("media: copy %s/%s stopped after %d of %d bytes: %v", obj.Bucket, obj.Key, n, want, err)
		return false
	}
	return true
}
