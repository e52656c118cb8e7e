package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sinar-app/sinar-api/internal/config"
)

// TextExtractor turns a document body into plain text for indexing.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader) (string, error)
}

type TextExtractionService struct {
	tikaURL string
	client  *http.Client
}

func NewTextExtractionService(cfg *config.Config) *TextExtractionService {
	return &TextExtractionService{
		tikaURL: cfg.TikaURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *TextExtractionService) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.tikaURL+"/tika", r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tika returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(bytes.TrimSpace(body)), nil
}
