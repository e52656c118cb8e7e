package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/router"
	"github.com/sinar-app/sinar-api/internal/services"
	"github.com/sinar-app/sinar-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pdf = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

type envelope struct {
	Status  bool            `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Total   *int64          `json:"total"`
}

type app struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	store  *testutil.MemoryStore
}

func newApp(t *testing.T) *app {
	t.Helper()
	cfg := &config.Config{
		GinMode:             gin.TestMode,
		BaseURL:             "http://api.test",
		MinIOBucketDocument: "document",
		MinIOBucketReport:   "report",
		JWTSecret:           "router-secret",
		JWTExpiresIn:        "1h",
		CORSOrigins:         []string{"http://localhost:5173"},
	}
	db := testutil.NewDB(t)
	store := testutil.NewMemoryStore()
	engine := router.New(cfg, router.Deps{
		DB:        db,
		Store:     store,
		Blacklist: services.NewMemoryBlacklist(),
	})
	return &app{t: t, engine: engine, db: db, store: store}
}

func (a *app) do(method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	a.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *app) json(method, path, token string, payload any) *httptest.ResponseRecorder {
	a.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(a.t, err)
	return a.do(method, path, token, bytes.NewBuffer(data), "application/json")
}

func (a *app) form(method, path, token string, fields map[string][]string, files map[string][]byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(a.t, mw.WriteField(key, v))
		}
	}
	for name, data := range files {
		key, filename, _ := strings.Cut(name, ":")
		fw, err := mw.CreateFormFile(key, filename)
		require.NoError(a.t, err)
		_, err = fw.Write(data)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())
	return a.do(method, path, token, &buf, mw.FormDataContentType())
}

func (a *app) login(username string) string {
	a.t.Helper()
	w := a.json(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": testutil.Password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(decode(a.t, w).Data, &data))
	return data.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func id(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var data struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	return strconv.FormatUint(uint64(data.ID), 10)
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	w := a.do(http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"ok","cache":"disabled"}`, w.Body.String())
}

func TestLoginValidation(t *testing.T) {
	a := newApp(t)

	w := a.json(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password is required", decode(t, w).Message)

	testutil.CreateUser(t, a.db, "admin", models.RoleAdmin, nil)
	w = a.json(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username or password", decode(t, w).Message)
}

func TestDocumentReportFlow(t *testing.T) {
	a := newApp(t)
	testutil.CreateUser(t, a.db, "admin", models.RoleAdmin, nil)
	adminToken := a.login("admin")

	w := a.json(http.MethodPost, "/api/v1/admin/categories", adminToken, map[string]string{"name": "kementerian kesehatan"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	categoryID := id(t, w)

	w = a.json(http.MethodPost, "/api/v1/admin/categories", adminToken, map[string]string{"name": "KEMENTERIAN KESEHATAN"})
	assert.Equal(t, http.StatusConflict, w.Code)

	var kategori models.Kategori
	require.NoError(t, a.db.Where("id = ?", categoryID).First(&kategori).Error)
	assert.Equal(t, "Kementerian Kesehatan", kategori.Name)
	testutil.CreateUser(t, a.db, "kemenkes", models.RoleUser, &kategori.ID)
	userToken := a.login("kemenkes")

	w = a.form(http.MethodPost, "/api/v1/admin/documents", adminToken,
		map[string][]string{"title": {"Surat Edaran"}, "category_ids[]": {categoryID}},
		map[string][]byte{"file:surat.pdf": pdf},
	)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	docID := id(t, w)

	w = a.form(http.MethodPost, "/api/v1/admin/documents", userToken,
		map[string][]string{"title": {"x"}, "category_ids": {categoryID}},
		map[string][]byte{"file:x.pdf": pdf},
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/documents?limit=5", userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Total)
	assert.Equal(t, int64(1), *env.Total)

	w = a.form(http.MethodPost, "/api/v1/admin/reports", userToken,
		map[string][]string{"document_id": {docID}, "text": {"sudah dibaca"}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "a report needs a downloaded document")

	w = a.do(http.MethodGet, "/api/v1/documents/download/"+docID, userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdf, w.Body.Bytes())
	assert.Equal(t, `attachment; filename=surat.pdf`, w.Header().Get("Content-Disposition"))

	w = a.do(http.MethodGet, "/api/v1/documents/"+docID, userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		IsDownloaded bool   `json:"is_downloaded"`
		URL          string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &doc))
	assert.True(t, doc.IsDownloaded)
	assert.Equal(t, "http://api.test/api/v1/documents/download/"+docID, doc.URL)

	w = a.form(http.MethodPost, "/api/v1/admin/reports", userToken,
		map[string][]string{"document_id": {docID}, "text": {"sudah dibaca"}, "link": {"https://kemkes.example/tl"}}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/v1/admin/reports?type=link", userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), *decode(t, w).Total)

	w = a.do(http.MethodGet, "/api/v1/admin/dashboard/overview", adminToken, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/admin/activities/recent?limit=3", adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var activities []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &activities))
	assert.Len(t, activities, 3)

	w = a.do(http.MethodGet, "/api/v1/admin/users", userToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogout(t *testing.T) {
	a := newApp(t)
	testutil.CreateUser(t, a.db, "admin", models.RoleAdmin, nil)
	token := a.login("admin")

	w := a.do(http.MethodGet, "/api/v1/auth/me", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/logout", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/users/me", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been revoked", decode(t, w).Message)
}

func TestUnknownOrderByIsRejected(t *testing.T) {
	a := newApp(t)
	testutil.CreateUser(t, a.db, "admin", models.RoleAdmin, nil)
	token := a.login("admin")

	w := a.do(http.MethodGet, "/api/v1/admin/users?orderBy=password", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid orderBy field: password", decode(t, w).Message)
}

func TestUserReadsAreScopedToCategory(t *testing.T) {
	a := newApp(t)
	health := testutil.CreateKategori(t, a.db, "Kementerian Kesehatan")
	trade := testutil.CreateKategori(t, a.db, "Kementerian Perdagangan")
	testutil.CreateUser(t, a.db, "admin", models.RoleAdmin, nil)
	testutil.CreateUser(t, a.db, "kemenkes", models.RoleUser, &health.ID)
	colleague := testutil.CreateUser(t, a.db, "kemenkes-2", models.RoleUser, &health.ID)
	outsider := testutil.CreateUser(t, a.db, "kemendag", models.RoleUser, &trade.ID)
	token := a.login("kemenkes")

	w := a.do(http.MethodGet, "/api/v1/users", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var users []struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &users))
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"kemenkes", "kemenkes-2"}, names)

	w = a.do(http.MethodGet, "/api/v1/users/"+strconv.FormatUint(uint64(colleague.ID), 10), token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/users/"+strconv.FormatUint(uint64(outsider.ID), 10), token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/v1/users/me", token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.json(http.MethodPost, "/api/v1/admin/users", token, map[string]string{"username": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
