package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/models"
)

const documentsIndex = "documents"

// DocumentIndexer is the full-text index behind document search.
type DocumentIndexer interface {
	IndexDocuments(docs []SearchDocument) error
	DeleteDocument(id uint) error
	// Search returns matching document ids in relevance order. A non-nil
	// categoryID restricts hits to documents linked to that category.
	Search(query string, categoryID *uint, limit int) ([]uint, error)
}

// SearchDocument is the indexed shape of a document.
type SearchDocument struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Remark       string `json:"remark"`
	OriginalName string `json:"original_name"`
	Content      string `json:"content"`
	CategoryIDs  []uint `json:"category_ids"`
	UploadedAt   int64  `json:"uploaded_at"`
}

func NewSearchDocument(doc *models.Document, content string) SearchDocument {
	return SearchDocument{
		ID:           doc.ID,
		Title:        doc.Title,
		Remark:       doc.Remark,
		OriginalName: doc.OriginalName,
		Content:      content,
		CategoryIDs:  doc.CategoryIDs(),
		UploadedAt:   doc.UploadedAt.Unix(),
	}
}

type SearchService struct {
	client *meilisearch.Client
	index  string
}

func NewSearchService(cfg *config.Config) *SearchService {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   cfg.MeiliURL,
		APIKey: cfg.MeiliAPIKey,
	})

	// Ensure documents index exists (best effort)
	_, err := client.GetIndex(documentsIndex)
	if err != nil {
		_, err = client.CreateIndex(&meilisearch.IndexConfig{
			Uid:        documentsIndex,
			PrimaryKey: "id",
		})
		if err != nil {
			log.Printf("Failed to create meilisearch documents index: %v", err)
		}

		_, err = client.Index(documentsIndex).UpdateFilterableAttributes(&[]string{"category_ids"})
		if err != nil {
			log.Printf("Failed to update filterable attributes: %v", err)
		}

		_, err = client.Index(documentsIndex).UpdateSortableAttributes(&[]string{"uploaded_at"})
		if err != nil {
			log.Printf("Failed to update sortable attributes: %v", err)
		}

		_, err = client.Index(documentsIndex).UpdateSearchableAttributes(&[]string{"title", "remark", "original_name", "content"})
		if err != nil {
			log.Printf("Failed to update searchable attributes: %v", err)
		}
	}

	return &SearchService{
		client: client,
		index:  documentsIndex,
	}
}

func (s *SearchService) IndexDocuments(docs []SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs, "id")
	return err
}

func (s *SearchService) DeleteDocument(id uint) error {
	_, err := s.client.Index(s.index).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

func (s *SearchService) Search(query string, categoryID *uint, limit int) ([]uint, error) {
	request := &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	}
	if categoryID != nil {
		request.Filter = fmt.Sprintf("category_ids = %d", *categoryID)
	}

	resp, err := s.client.Index(s.index).Search(query, request)
	if err != nil {
		return nil, err
	}
	return hitIDs(resp.Hits), nil
}

func (s *SearchService) GetDocumentCount() (int64, error) {
	stats, err := s.client.Index(s.index).GetStats()
	if err != nil {
		return 0, err
	}
	return stats.NumberOfDocuments, nil
}

// hitIDs pulls the numeric id out of each hit; hits without one are skipped.
func hitIDs(hits []interface{}) []uint {
	ids := make([]uint, 0, len(hits))
	for _, h := range hits {
		m, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		switch v := m["id"].(type) {
		case float64:
			if v > 0 {
				ids = append(ids, uint(v))
			}
		case string:
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				ids = append(ids, uint(n))
			}
		}
	}
	return ids
}

// indexAsync pushes one document to the index in the background, pulling
// its text through the extractor first when one is configured.
func indexAsync(index DocumentIndexer, extractor TextExtractor, doc models.Document, file *FileUpload) {
	if index == nil {
		return
	}
	go func() {
		var content string
		if extractor != nil && file != nil {
			text, err := extractFile(extractor, file)
			if err != nil {
				log.Printf("Text extraction for document %d failed: %v", doc.ID, err)
			}
			content = text
		}
		if err := index.IndexDocuments([]SearchDocument{NewSearchDocument(&doc, content)}); err != nil {
			log.Printf("Failed to index document %d: %v", doc.ID, err)
		}
	}()
}

func extractFile(extractor TextExtractor, file *FileUpload) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	return extractor.ExtractText(ctx, rc)
}
