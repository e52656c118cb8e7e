package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAccept = r.Method, r.URL.Path, r.Header.Get("Accept")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, "\n  Surat Edaran Menteri  \n")
	}))
	defer srv.Close()

	svc := NewTextExtractionService(&config.Config{TikaURL: srv.URL})
	text, err := svc.ExtractText(context.Background(), strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "Surat Edaran Menteri", text)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/tika", gotPath)
	assert.Equal(t, "text/plain", gotAccept)
	assert.Equal(t, "%PDF-1.4", gotBody)
}

func TestExtractTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	svc := NewTextExtractionService(&config.Config{TikaURL: srv.URL})
	_, err := svc.ExtractText(context.Background(), strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
