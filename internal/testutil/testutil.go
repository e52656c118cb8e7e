// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sinar-app/sinar-api/internal/database"
	"github.com/sinar-app/sinar-api/internal/media"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with the full schema and
// the two roles seeded.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, database.SeedRoles(db))
	return db
}

// Role loads a seeded role by name.
func Role(t *testing.T, db *gorm.DB, name string) models.Role {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where("name = ?", name).First(&role).Error)
	return role
}

func CreateKategori(t *testing.T, db *gorm.DB, name string) models.Kategori {
	t.Helper()
	k := models.Kategori{Name: name, IsActive: true}
	require.NoError(t, db.Create(&k).Error)
	return k
}

// CreateUser inserts an active user with the given role and category.
// The password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, username, role string, categoryID *uint) models.User {
	t.Helper()
	hash, err := passwordHash()
	require.NoError(t, err)
	u := models.User{
		Username:   username,
		Password:   hash,
		RoleID:     Role(t, db, role).ID,
		CategoryID: categoryID,
		NameMentri: username,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Preload("Role").Preload("Category").First(&u, u.ID).Error)
	return u
}

// CreateDocument inserts an active document linked to the given categories.
func CreateDocument(t *testing.T, db *gorm.DB, title string, uploader uint, categories ...models.Kategori) models.Document {
	t.Helper()
	doc := models.Document{
		Title:        title,
		Filename:     fmt.Sprintf("%s.pdf", strings.ReplaceAll(strings.ToLower(title), " ", "-")),
		OriginalName: title + ".pdf",
		MimeType:     "application/pdf",
		FileSize:     4,
		UploadedBy:   uploader,
		IsActive:     true,
		Categories:   categories,
	}
	require.NoError(t, db.Create(&doc).Error)
	return doc
}

var ErrObjectNotFound = errors.New("object not found")

type object struct {
	data        []byte
	contentType string
}

// MemoryStore is an in-memory object store. Set Err to make every call fail.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]object
	Err     error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]object{}}
}

func (m *MemoryStore) Put(bucket, key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = object{data: data, contentType: contentType}
}

func (m *MemoryStore) Has(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[bucket+"/"+key]
	return ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *MemoryStore) Upload(_ context.Context, bucket, key string, r io.Reader, _ int64, contentType string) error {
	if m.Err != nil {
		return m.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.Put(bucket, key, data, contentType)
	return nil
}

func (m *MemoryStore) Stat(_ context.Context, bucket, key string) (media.ObjectInfo, error) {
	if m.Err != nil {
		return media.ObjectInfo{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return media.ObjectInfo{}, ErrObjectNotFound
	}
	return media.ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (m *MemoryStore) Open(_ context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	if offset > int64(len(obj.data)) {
		offset = int64(len(obj.data))
	}
	data := obj.data[offset:]
	if length >= 0 && length < int64(len(data)) {
		data = data[:length]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Remove(_ context.Context, bucket, key string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}
