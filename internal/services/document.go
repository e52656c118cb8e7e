package services

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/media"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/query"
	"gorm.io/gorm"
)

const MaxSearchResults = 50

var documentList = query.Spec{
	Sortable: map[string]string{
		"id":            "documents.id",
		"title":         "documents.title",
		"original_name": "documents.original_name",
		"uploaded_at":   "documents.uploaded_at",
		"created_at":    "documents.created_at",
		"updated_at":    "documents.updated_at",
	},
	Searchable: []string{"documents.title", "documents.remark", "documents.original_name"},
	Preload:    []string{"Categories", "Uploader", "Uploader.Role"},
	Base:       query.Eq("documents.is_active", true),
}

// DocumentView is a document with its derived links.
type DocumentView struct {
	models.Document
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url"`
}

// DocumentInput carries create and update fields. Nil pointers and a nil
// CategoryIDs slice leave the stored value alone on update.
type DocumentInput struct {
	Title       *string
	Remark      *string
	CategoryIDs []uint
	File        *FileUpload
}

type DocumentService struct {
	db        *gorm.DB
	store     ObjectStorage
	bucket    string
	urls      URLBuilder
	activity  *ActivityService
	index     DocumentIndexer
	extractor TextExtractor
}

func NewDocumentService(db *gorm.DB, store ObjectStorage, buckets Buckets, urls URLBuilder, activity *ActivityService) *DocumentService {
	return &DocumentService{
		db:       db,
		store:    store,
		bucket:   buckets.Document,
		urls:     urls,
		activity: activity,
	}
}

// WithSearch enables the full-text index. Either argument may be nil.
func (s *DocumentService) WithSearch(index DocumentIndexer, extractor TextExtractor) *DocumentService {
	s.index = index
	s.extractor = extractor
	return s
}

func (s *DocumentService) View(doc models.Document) DocumentView {
	return DocumentView{
		Document:   doc,
		URL:        s.urls.DocumentDownload(doc.ID),
		PreviewURL: s.urls.DocumentPreview(doc.ID),
	}
}

func (s *DocumentService) views(docs []models.Document) []DocumentView {
	out := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.View(d))
	}
	return out
}

// List returns active documents visible to p. A non-nil categoryID narrows
// the result further; it never widens the caller's scope.
func (s *DocumentService) List(ctx context.Context, p authz.Principal, params query.Params, categoryID *uint) (*query.Page[DocumentView], error) {
	where := []query.Expr{authz.DocumentScope(p), params.Where}
	if categoryID != nil {
		where = append(where, query.Exists(
			"SELECT 1 FROM document_kategori f WHERE f.document_id = documents.id AND f.kategori_id = ?",
			*categoryID,
		))
	}
	params.Where = query.And(where...)

	page, err := query.List[models.Document](ctx, s.db, documentList, params)
	if err != nil {
		return nil, err
	}
	return mapPage(page, s.views), nil
}

// Get loads one active document within p's scope.
func (s *DocumentService) Get(ctx context.Context, p authz.Principal, id uint) (*models.Document, error) {
	var doc models.Document
	q := s.db.WithContext(ctx).Preload("Categories").Preload("Uploader").Preload("Uploader.Role")
	q = query.Apply(q, query.And(documentList.Base, authz.DocumentScope(p), query.Eq("documents.id", id)))
	if err := q.First(&doc).Error; err != nil {
		return nil, lookupErr(err, "Document not found", "Failed to fetch document")
	}
	return &doc, nil
}

func (s *DocumentService) Create(ctx context.Context, actor authz.Principal, in DocumentInput) (*models.Document, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Admin access required")
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperror.Validation("title is required")
	}
	if in.File == nil {
		return nil, apperror.Validation("file is required")
	}
	if len(in.CategoryIDs) == 0 {
		return nil, apperror.Validation("category_ids is required")
	}

	contentType, err := documentRule.check(in.File)
	if err != nil {
		return nil, err
	}
	categories, err := s.activeCategories(ctx, in.CategoryIDs)
	if err != nil {
		return nil, err
	}

	key := objectKey("", in.File.Name)
	if err := s.upload(ctx, key, in.File, contentType); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := models.Document{
		Title:        strings.TrimSpace(*in.Title),
		Filename:     key,
		OriginalName: in.File.Name,
		MimeType:     documentMimeType(contentType, in.File.Name),
		FileSize:     in.File.Size,
		UploadedBy:   actor.UserID,
		UploadedAt:   now,
		IsActive:     true,
		CreatedBy:    &actor.UserID,
		UpdatedBy:    &actor.UserID,
	}
	if in.Remark != nil {
		doc.Remark = strings.TrimSpace(*in.Remark)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Create(&doc).Error; err != nil {
			return err
		}
		return linkCategories(tx, doc.ID, categories)
	})
	if err != nil {
		s.removeObject(ctx, key)
		return nil, apperror.Internal("Failed to save document", err)
	}
	doc.Categories = categories

	s.activity.record(ctx, actor.UserID, models.ActivityDocumentUploaded, &doc.ID, nil, map[string]any{
		"title":         doc.Title,
		"original_name": doc.OriginalName,
	})
	indexAsync(s.index, s.extractor, doc, in.File)

	return s.Get(ctx, actor, doc.ID)
}

func (s *DocumentService) Update(ctx context.Context, actor authz.Principal, id uint, in DocumentInput) (*models.Document, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Admin access required")
	}
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_by": actor.UserID}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
		updates["title"] = title
	}
	if in.Remark != nil {
		updates["remark"] = strings.TrimSpace(*in.Remark)
	}

	var categories []models.Kategori
	if in.CategoryIDs != nil {
		if len(in.CategoryIDs) == 0 {
			return nil, apperror.Validation("category_ids cannot be empty")
		}
		if categories, err = s.activeCategories(ctx, in.CategoryIDs); err != nil {
			return nil, err
		}
	}

	var newKey string
	if in.File != nil {
		contentType, err := documentRule.check(in.File)
		if err != nil {
			return nil, err
		}
		newKey = objectKey("", in.File.Name)
		if err := s.upload(ctx, newKey, in.File, contentType); err != nil {
			return nil, err
		}
		updates["filename"] = newKey
		updates["original_name"] = in.File.Name
		updates["mime_type"] = documentMimeType(contentType, in.File.Name)
		updates["file_size"] = in.File.Size
		updates["uploaded_at"] = time.Now()
		updates["is_downloaded"] = false
		updates["downloaded_at"] = nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
			return err
		}
		if categories != nil {
			return linkCategories(tx, doc.ID, categories)
		}
		return nil
	})
	if err != nil {
		if newKey != "" {
			s.removeObject(ctx, newKey)
		}
		return nil, apperror.Internal("Failed to update document", err)
	}
	if newKey != "" {
		s.removeObject(ctx, doc.Filename)
	}

	updated, err := s.Get(ctx, actor, doc.ID)
	if err != nil {
		return nil, err
	}
	s.activity.record(ctx, actor.UserID, models.ActivityDocumentUpdated, &doc.ID, nil, map[string]any{
		"title":        updated.Title,
		"file_changed": newKey != "",
	})
	file := in.File
	if newKey == "" {
		file = s.storedFile(updated)
	}
	indexAsync(s.index, s.extractor, *updated, file)
	return updated, nil
}

// Delete deactivates the document. The stored object is kept.
func (s *DocumentService) Delete(ctx context.Context, actor authz.Principal, id uint) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("Admin access required")
	}
	res := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{"is_active": false, "updated_by": actor.UserID})
	if res.Error != nil {
		return apperror.Internal("Failed to delete document", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Document not found")
	}

	s.activity.record(ctx, actor.UserID, models.ActivityDocumentDeleted, &id, nil, nil)
	if s.index != nil {
		go func() {
			if err := s.index.DeleteDocument(id); err != nil {
				log.Printf("Failed to remove document %d from index: %v", id, err)
			}
		}()
	}
	return nil
}

// Download resolves the object for a scoped download. The returned hook
// flips the download latch and must run only after a complete transfer.
func (s *DocumentService) Download(ctx context.Context, p authz.Principal, id uint) (media.Object, media.OnComplete, error) {
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return media.Object{}, nil, err
	}
	done := func(ctx context.Context) error {
		if err := s.MarkDownloaded(ctx, doc.ID); err != nil {
			return err
		}
		s.activity.record(ctx, p.UserID, models.ActivityDocumentDownloaded, &doc.ID, nil, map[string]any{
			"original_name": doc.OriginalName,
		})
		return nil
	}
	return s.object(doc), done, nil
}

func (s *DocumentService) Preview(ctx context.Context, p authz.Principal, id uint) (media.Object, error) {
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return media.Object{}, err
	}
	return s.object(doc), nil
}

// MarkDownloaded sets is_downloaded once. Later calls leave downloaded_at
// untouched.
func (s *DocumentService) MarkDownloaded(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ? AND is_downloaded = ?", id, false).
		Updates(map[string]any{"is_downloaded": true, "downloaded_at": time.Now()}).Error
}

// Search runs a full-text query through the index and reloads hits under
// p's scope. Without an index it falls back to a substring search.
func (s *DocumentService) Search(ctx context.Context, p authz.Principal, q string, limit int) ([]DocumentView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("q is required")
	}
	if limit < 1 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	if s.index == nil {
		page, err := s.List(ctx, p, query.Params{Search: q, Limit: limit}, nil)
		if err != nil {
			return nil, err
		}
		return page.Data, nil
	}

	var categoryID *uint
	if !p.IsAdmin() {
		if p.CategoryID == nil {
			return []DocumentView{}, nil
		}
		categoryID = p.CategoryID
	}
	ids, err := s.index.Search(q, categoryID, limit)
	if err != nil {
		return nil, apperror.Internal("Search failed", err)
	}
	if len(ids) == 0 {
		return []DocumentView{}, nil
	}

	var docs []models.Document
	dbq := s.db.WithContext(ctx).Preload("Categories").Preload("Uploader").Preload("Uploader.Role")
	dbq = query.Apply(dbq, query.And(documentList.Base, authz.DocumentScope(p), query.In("documents.id", ids)))
	if err := dbq.Find(&docs).Error; err != nil {
		return nil, apperror.Internal("Failed to fetch documents", err)
	}

	byID := make(map[uint]models.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	out := make([]DocumentView, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, s.View(d))
		}
	}
	return out, nil
}

// Reindex pushes every active document to the index in batches.
func (s *DocumentService) Reindex(ctx context.Context, batchSize int) (int, error) {
	if s.index == nil {
		return 0, apperror.Internal("Search index is not configured", nil)
	}
	if batchSize < 1 {
		batchSize = 100
	}

	total := 0
	var batch []models.Document
	err := s.db.WithContext(ctx).Preload("Categories").
		Where("is_active = ?", true).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			docs := make([]SearchDocument, 0, len(batch))
			for i := range batch {
				var content string
				if s.extractor != nil {
					content = s.extractStored(ctx, &batch[i])
				}
				docs = append(docs, NewSearchDocument(&batch[i], content))
			}
			if err := s.index.IndexDocuments(docs); err != nil {
				return err
			}
			total += len(docs)
			return nil
		}).Error
	return total, err
}

func (s *DocumentService) extractStored(ctx context.Context, doc *models.Document) string {
	body, err := s.store.Open(ctx, s.bucket, doc.Filename, 0, -1)
	if err != nil {
		log.Printf("Failed to open document %d for extraction: %v", doc.ID, err)
		return ""
	}
	defer body.Close()
	text, err := s.extractor.ExtractText(ctx, body)
	if err != nil {
		log.Printf("Text extraction for document %d failed: %v", doc.ID, err)
	}
	return text
}

// storedFile reads the document's current object back from storage so a
// metadata-only reindex keeps its extracted text.
func (s *DocumentService) storedFile(doc *models.Document) *FileUpload {
	bucket, key := s.bucket, doc.Filename
	return &FileUpload{
		Name: doc.OriginalName,
		Open: func() (io.ReadCloser, error) {
			return s.store.Open(context.Background(), bucket, key, 0, -1)
		},
	}
}

func (s *DocumentService) object(doc *models.Document) media.Object {
	return media.Object{Bucket: s.bucket, Key: doc.Filename, Name: doc.OriginalName}
}

func (s *DocumentService) upload(ctx context.Context, key string, f *FileUpload, contentType string) error {
	rc, err := f.Open()
	if err != nil {
		return apperror.Validation("Document file could not be read")
	}
	defer rc.Close()
	if err := s.store.Upload(ctx, s.bucket, key, rc, f.Size, contentType); err != nil {
		log.Printf("Failed to upload document object: %v", err)
		return apperror.Internal("Failed to upload file", err)
	}
	return nil
}

func (s *DocumentService) removeObject(ctx context.Context, key string) {
	if err := s.store.Remove(context.WithoutCancel(ctx), s.bucket, key); err != nil {
		log.Printf("Failed to remove document object: %v", err)
	}
}

// activeCategories loads the given ids and fails unless every one is an
// active category.
func (s *DocumentService) activeCategories(ctx context.Context, ids []uint) ([]models.Kategori, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, apperror.Validation("category_ids is required")
	}
	var categories []models.Kategori
	if err := s.db.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Order("id").Find(&categories).Error; err != nil {
		return nil, apperror.Internal("Failed to fetch categories", err)
	}
	if len(categories) != len(ids) {
		return nil, apperror.Validation("category_ids contains an unknown or inactive category")
	}
	return categories, nil
}

// linkCategories replaces the document's category links.
func linkCategories(tx *gorm.DB, documentID uint, categories []models.Kategori) error {
	if err := tx.Exec("DELETE FROM document_kategori WHERE document_id = ?", documentID).Error; err != nil {
		return err
	}
	rows := make([]map[string]any, 0, len(categories))
	for _, k := range categories {
		rows = append(rows, map[string]any{"document_id": documentID, "kategori_id": k.ID})
	}
	return tx.Table("document_kategori").Create(rows).Error
}

func documentMimeType(detected, name string) string {
	switch detected {
	case "application/zip", "application/x-ole-storage":
		return media.TypeByName(name)
	}
	return detected
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func mapPage[T, V any](page *query.Page[T], fn func([]T) []V) *query.Page[V] {
	return &query.Page[V]{
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		Data:       fn(page.Data),
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
	}
}
