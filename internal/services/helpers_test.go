package services_test

import (
	"archive/zip"
	"bytes"
	"strconv"
	"sync"
	"testing"

	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/services"
	"github.com/sinar-app/sinar-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	pdf = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	mp3 = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 64)...)
	mp4 = append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42mp41isom"), make([]byte, 64)...)
	png = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
)

var buckets = services.Buckets{Document: "documents", Report: "reports"}

type fixture struct {
	db       *gorm.DB
	store    *testutil.MemoryStore
	urls     services.URLBuilder
	activity *services.ActivityService
	admin    models.User
	kemenkes models.Kategori
	kemendag models.Kategori
	health   models.User
	trade    models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		store:    testutil.NewMemoryStore(),
		urls:     services.NewURLBuilder("http://api.test/"),
		activity: services.NewActivityService(db),
	}
	f.kemenkes = testutil.CreateKategori(t, db, "Kementerian Kesehatan")
	f.kemendag = testutil.CreateKategori(t, db, "Kementerian Perdagangan")
	f.admin = testutil.CreateUser(t, db, "admin", models.RoleAdmin, nil)
	f.health = testutil.CreateUser(t, db, "kemenkes", models.RoleUser, &f.kemenkes.ID)
	f.trade = testutil.CreateUser(t, db, "kemendag", models.RoleUser, &f.kemendag.ID)
	return f
}

func principal(u models.User) authz.Principal {
	return authz.Principal{UserID: u.ID, Role: u.Role.Name, CategoryID: u.CategoryID}
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

func itoa(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func docx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)
	w, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func activityCount(t *testing.T, db *gorm.DB, kind models.ActivityType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Activity{}).Where("activity_type = ?", kind).Count(&n).Error)
	return n
}

// fakeIndex records index calls and answers Search with a fixed id list.
type fakeIndex struct {
	mu      sync.Mutex
	indexed map[uint]services.SearchDocument
	deleted []uint
	hits    []uint
	gotCat  *uint
}

func newFakeIndex(hits ...uint) *fakeIndex {
	return &fakeIndex{indexed: map[uint]services.SearchDocument{}, hits: hits}
}

func (f *fakeIndex) IndexDocuments(docs []services.SearchDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.indexed[d.ID] = d
	}
	return nil
}

func (f *fakeIndex) DeleteDocument(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ string, categoryID *uint, _ int) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCat = categoryID
	return f.hits, nil
}

func (f *fakeIndex) document(id uint) (services.SearchDocument, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.indexed[id]
	return d, ok
}

func (f *fakeIndex) wasDeleted(id uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deleted {
		if d == id {
			return true
		}
	}
	return false
}
