package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/sinar-app/sinar-api/internal/utils"
	"gorm.io/gorm"
)

var kategoriList = query.Spec{
	Sortable: map[string]string{
		"id":         "kategori.id",
		"name":       "kategori.name",
		"created_at": "kategori.created_at",
		"updated_at": "kategori.updated_at",
	},
	Searchable: []string{"kategori.name"},
	Base:       query.Eq("kategori.is_active", true),
}

type KategoriService struct {
	db *gorm.DB
}

func NewKategoriService(db *gorm.DB) *KategoriService {
	return &KategoriService{db: db}
}

func (s *KategoriService) List(ctx context.Context, p authz.Principal, params query.Params) (*query.Page[models.Kategori], error) {
	params.Where = query.And(authz.KategoriScope(p), params.Where)
	return query.List[models.Kategori](ctx, s.db, kategoriList, params)
}

func (s *KategoriService) Get(ctx context.Context, p authz.Principal, id uint) (*models.Kategori, error) {
	var k models.Kategori
	q := query.Apply(s.db.WithContext(ctx), query.And(kategoriList.Base, authz.KategoriScope(p), query.Eq("kategori.id", id)))
	if err := q.First(&k).Error; err != nil {
		return nil, lookupErr(err, "Category not found", "Failed to fetch category")
	}
	return &k, nil
}

func (s *KategoriService) Create(ctx context.Context, actor authz.Principal, name string) (*models.Kategori, error) {
	name, err := s.normalizeName(ctx, name, 0)
	if err != nil {
		return nil, err
	}

	k := models.Kategori{Name: name, IsActive: true, CreatedBy: &actor.UserID, UpdatedBy: &actor.UserID}
	if err := s.db.WithContext(ctx).Create(&k).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Category name already exists")
		}
		return nil, apperror.Internal("Failed to create category", err)
	}
	return &k, nil
}

func (s *KategoriService) Update(ctx context.Context, actor authz.Principal, id uint, name string) (*models.Kategori, error) {
	k, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if name, err = s.normalizeName(ctx, name, k.ID); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(k).Updates(map[string]any{"name": name, "updated_by": actor.UserID}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Category name already exists")
		}
		return nil, apperror.Internal("Failed to update category", err)
	}
	return s.Get(ctx, actor, id)
}

// Delete deactivates the category and frees its name by renaming it.
func (s *KategoriService) Delete(ctx context.Context, actor authz.Principal, id uint) error {
	k, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(k).Updates(map[string]any{
		"name":       deletedName(k.Name, time.Now()),
		"is_active":  false,
		"updated_by": actor.UserID,
	}).Error
	if err != nil {
		return apperror.Internal("Failed to delete category", err)
	}
	return nil
}

// normalizeName trims and title-cases name and rejects a clash with another
// active category. exceptID is the row being renamed.
func (s *KategoriService) normalizeName(ctx context.Context, name string, exceptID uint) (string, error) {
	name = utils.TitleCase(name)
	if name == "" {
		return "", apperror.Validation("name is required")
	}

	var count int64
	q := s.db.WithContext(ctx).Model(&models.Kategori{}).
		Where("LOWER(name) = ? AND is_active = ?", strings.ToLower(name), true)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return "", apperror.Internal("Failed to check category name", err)
	}
	if count > 0 {
		return "", apperror.Conflict("Category name already exists")
	}
	return name, nil
}

func deletedName(name string, at time.Time) string {
	return fmt.Sprintf("%s_deleted_%d", name, at.UnixMilli())
}
