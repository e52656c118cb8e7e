package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/media"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/query"
	"gorm.io/gorm"
)

var reportList = query.Spec{
	Sortable: map[string]string{
		"id":         "document_reports.id",
		"type":       "document_reports.type",
		"created_at": "document_reports.created_at",
		"updated_at": "document_reports.updated_at",
	},
	Searchable: []string{
		"document_reports.description",
		"document_reports.original_name",
		"documents.original_name",
		"documents.title",
	},
	Joins:   []string{"JOIN documents ON documents.id = document_reports.document_id"},
	Preload: []string{"Document", "Document.Categories", "User"},
}

var validate = validator.New()

// ReportView is a report with links for media content.
type ReportView struct {
	models.DocumentReport
	DownloadURL string `json:"download_url,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// ReportInput is one create call. Each of Text, Link and every file
// becomes its own row.
type ReportInput struct {
	DocumentID  uint
	Text        *string
	Link        *string
	Description *string
	Audio       []*FileUpload
	Video       []*FileUpload
}

// ReportUpdate replaces a report's content. File must match the report's
// media type; Text and Link only apply to TEXT and LINK reports.
type ReportUpdate struct {
	Text        *string
	Link        *string
	Description *string
	File        *FileUpload
}

type ReportService struct {
	db       *gorm.DB
	store    ObjectStorage
	bucket   string
	urls     URLBuilder
	activity *ActivityService
}

func NewReportService(db *gorm.DB, store ObjectStorage, buckets Buckets, urls URLBuilder, activity *ActivityService) *ReportService {
	return &ReportService{
		db:       db,
		store:    store,
		bucket:   buckets.Report,
		urls:     urls,
		activity: activity,
	}
}

func (s *ReportService) View(r models.DocumentReport) ReportView {
	v := ReportView{DocumentReport: r}
	if r.Type.IsMedia() {
		v.DownloadURL = s.urls.ReportDownload(r.ID)
		v.PreviewURL = s.urls.ReportPreview(r.ID)
	}
	return v
}

func (s *ReportService) views(reports []models.DocumentReport) []ReportView {
	out := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		out = append(out, s.View(r))
	}
	return out
}

// ReportFilter narrows a report listing.
type ReportFilter struct {
	DocumentID *uint
	Type       string
}

func (s *ReportService) List(ctx context.Context, p authz.Principal, params query.Params, f ReportFilter) (*query.Page[ReportView], error) {
	where := []query.Expr{authz.ReportScope(p), params.Where}
	if f.DocumentID != nil {
		where = append(where, query.Eq("document_reports.document_id", *f.DocumentID))
	}
	if f.Type != "" {
		t := models.ReportType(strings.ToUpper(f.Type))
		if !t.Valid() {
			return nil, apperror.Validation("Invalid report type: %s", f.Type)
		}
		where = append(where, query.Eq("document_reports.type", t))
	}
	params.Where = query.And(where...)

	page, err := query.List[models.DocumentReport](ctx, s.db, reportList, params)
	if err != nil {
		return nil, err
	}
	return mapPage(page, s.views), nil
}

func (s *ReportService) Get(ctx context.Context, p authz.Principal, id uint) (*models.DocumentReport, error) {
	var report models.DocumentReport
	q := s.db.WithContext(ctx).Preload("Document").Preload("Document.Categories").Preload("User")
	q = query.Apply(q, query.And(authz.ReportScope(p), query.Eq("document_reports.id", id)))
	if err := q.First(&report).Error; err != nil {
		return nil, lookupErr(err, "Report not found", "Failed to fetch report")
	}
	return &report, nil
}

type pendingMedia struct {
	file        *FileUpload
	kind        models.ReportType
	contentType string
	key         string
}

// Create validates every part of the call before anything is stored, then
// uploads media and inserts all rows in one transaction.
func (s *ReportService) Create(ctx context.Context, p authz.Principal, in ReportInput) ([]ReportView, error) {
	if in.DocumentID == 0 {
		return nil, apperror.Validation("document_id is required")
	}

	var doc models.Document
	q := query.Apply(s.db.WithContext(ctx), query.And(
		query.Eq("documents.id", in.DocumentID),
		query.Eq("documents.is_active", true),
		authz.DocumentScope(p),
	))
	if err := q.First(&doc).Error; err != nil {
		return nil, lookupErr(err, "Document not found", "Failed to fetch document")
	}
	if !doc.IsDownloaded {
		return nil, apperror.Validation("Document must be downloaded before a report can be submitted")
	}

	text := trimmed(in.Text)
	link := trimmed(in.Link)
	if text == "" && link == "" && len(in.Audio) == 0 && len(in.Video) == 0 {
		return nil, apperror.Validation("At least one of text, link, audio or video is required")
	}
	if link != "" {
		if err := validateLink(link); err != nil {
			return nil, err
		}
	}

	pending := make([]*pendingMedia, 0, len(in.Audio)+len(in.Video))
	for _, f := range in.Audio {
		ct, err := audioRule.check(f)
		if err != nil {
			return nil, err
		}
		pending = append(pending, &pendingMedia{file: f, kind: models.ReportAudio, contentType: ct})
	}
	for _, f := range in.Video {
		ct, err := videoRule.check(f)
		if err != nil {
			return nil, err
		}
		pending = append(pending, &pendingMedia{file: f, kind: models.ReportVideo, contentType: ct})
	}

	var uploaded []string
	cleanup := func() {
		for _, key := range uploaded {
			s.removeObject(ctx, key)
		}
	}
	for _, m := range pending {
		m.key = objectKey(strings.ToLower(string(m.kind))+"/", m.file.Name)
		if err := s.upload(ctx, m.key, m.file, m.contentType); err != nil {
			cleanup()
			return nil, err
		}
		uploaded = append(uploaded, m.key)
	}

	description := trimmedPtr(in.Description)
	base := func(t models.ReportType, content string) models.DocumentReport {
		return models.DocumentReport{
			Type:        t,
			Content:     content,
			Description: description,
			DocumentID:  doc.ID,
			UserID:      p.UserID,
			CreatedBy:   &p.UserID,
			UpdatedBy:   &p.UserID,
		}
	}

	var rows []models.DocumentReport
	if text != "" {
		rows = append(rows, base(models.ReportText, text))
	}
	if link != "" {
		rows = append(rows, base(models.ReportLink, link))
	}
	for _, m := range pending {
		r := base(m.kind, m.key)
		name := m.file.Name
		r.OriginalName = &name
		rows = append(rows, r)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		cleanup()
		return nil, apperror.Internal("Failed to save report", err)
	}

	for i := range rows {
		s.activity.record(ctx, p.UserID, models.ActivityReportCreated, &doc.ID, &rows[i].ID, map[string]any{
			"type": rows[i].Type,
		})
	}
	return s.views(rows), nil
}

func (s *ReportService) Update(ctx context.Context, p authz.Principal, id uint, in ReportUpdate) (*ReportView, error) {
	report, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_by": p.UserID}
	if in.Description != nil {
		updates["description"] = trimmedPtr(in.Description)
	}

	replaced := false
	if in.Text != nil {
		if report.Type != models.ReportText {
			return nil, apperror.Validation("text can only be set on TEXT reports")
		}
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, apperror.Validation("text cannot be empty")
		}
		updates["content"] = text
		replaced = true
	}
	if in.Link != nil {
		if report.Type != models.ReportLink {
			return nil, apperror.Validation("link can only be set on LINK reports")
		}
		link := strings.TrimSpace(*in.Link)
		if err := validateLink(link); err != nil {
			return nil, err
		}
		updates["content"] = link
		replaced = true
	}

	var newKey string
	if in.File != nil {
		var rule fileRule
		switch report.Type {
		case models.ReportAudio:
			rule = audioRule
		case models.ReportVideo:
			rule = videoRule
		default:
			return nil, apperror.Validation("Files can only be uploaded to AUDIO or VIDEO reports")
		}
		ct, err := rule.check(in.File)
		if err != nil {
			return nil, err
		}
		newKey = objectKey(strings.ToLower(string(report.Type))+"/", in.File.Name)
		if err := s.upload(ctx, newKey, in.File, ct); err != nil {
			return nil, err
		}
		updates["content"] = newKey
		updates["original_name"] = in.File.Name
		replaced = true
	}

	if replaced {
		updates["is_downloaded"] = false
		updates["downloaded_at"] = nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.DocumentReport{}).Where("id = ?", report.ID).Updates(updates).Error
	})
	if err != nil {
		if newKey != "" {
			s.removeObject(ctx, newKey)
		}
		return nil, apperror.Internal("Failed to update report", err)
	}
	if newKey != "" {
		s.removeObject(ctx, report.Content)
	}

	updated, err := s.Get(ctx, p, report.ID)
	if err != nil {
		return nil, err
	}
	v := s.View(*updated)
	return &v, nil
}

// Delete removes the row, then the media object if there is one.
func (s *ReportService) Delete(ctx context.Context, p authz.Principal, id uint) error {
	report, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.DocumentReport{}, report.ID).Error; err != nil {
		return apperror.Internal("Failed to delete report", err)
	}
	if report.Type.IsMedia() {
		s.removeObject(ctx, report.Content)
	}
	s.activity.record(ctx, p.UserID, models.ActivityReportDeleted, &report.DocumentID, nil, map[string]any{
		"report_id": report.ID,
		"type":      report.Type,
	})
	return nil
}

func (s *ReportService) Download(ctx context.Context, p authz.Principal, id uint) (media.Object, media.OnComplete, error) {
	report, err := s.mediaReport(ctx, p, id)
	if err != nil {
		return media.Object{}, nil, err
	}
	done := func(ctx context.Context) error {
		return s.MarkDownloaded(ctx, report.ID)
	}
	return s.object(report), done, nil
}

func (s *ReportService) Preview(ctx context.Context, p authz.Principal, id uint) (media.Object, error) {
	report, err := s.mediaReport(ctx, p, id)
	if err != nil {
		return media.Object{}, err
	}
	return s.object(report), nil
}

func (s *ReportService) MarkDownloaded(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.DocumentReport{}).
		Where("id = ? AND is_downloaded = ?", id, false).
		Updates(map[string]any{"is_downloaded": true, "downloaded_at": time.Now()}).Error
}

func (s *ReportService) mediaReport(ctx context.Context, p authz.Principal, id uint) (*models.DocumentReport, error) {
	report, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !report.Type.IsMedia() {
		return nil, apperror.Validation("Only AUDIO and VIDEO reports have a file")
	}
	return report, nil
}

func (s *ReportService) object(r *models.DocumentReport) media.Object {
	name := r.Content
	if r.OriginalName != nil && *r.OriginalName != "" {
		name = *r.OriginalName
	}
	return media.Object{Bucket: s.bucket, Key: r.Content, Name: name}
}

func (s *ReportService) upload(ctx context.Context, key string, f *FileUpload, contentType string) error {
	rc, err := f.Open()
	if err != nil {
		return apperror.Validation("Report file could not be read")
	}
	defer rc.Close()
	if err := s.store.Upload(ctx, s.bucket, key, rc, f.Size, contentType); err != nil {
		log.Printf("Failed to upload report object: %v", err)
		return apperror.Internal("Failed to upload file", err)
	}
	return nil
}

func (s *ReportService) removeObject(ctx context.Context, key string) {
	if err := s.store.Remove(context.WithoutCancel(ctx), s.bucket, key); err != nil {
		log.Printf("Failed to remove report object: %v", err)
	}
}

func validateLink(link string) error {
	if err := validate.Var(link, "required,http_url"); err != nil {
		return apperror.Validation("link must be a valid http or https URL")
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
