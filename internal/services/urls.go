package services

import (
	"strconv"
	"strings"
)

// URLBuilder derives client-facing links from BASE_URL and row ids.
type URLBuilder struct {
	base string
}

func NewURLBuilder(baseURL string) URLBuilder {
	return URLBuilder{base: strings.TrimRight(baseURL, "/")}
}

func (u URLBuilder) path(prefix string, id uint) string {
	return u.base + "/api/v1/" + prefix + "/" + strconv.FormatUint(uint64(id), 10)
}

func (u URLBuilder) DocumentDownload(id uint) string { return u.path("documents/download", id) }
func (u URLBuilder) DocumentPreview(id uint) string  { return u.path("documents/preview", id) }
func (u URLBuilder) ReportDownload(id uint) string   { return u.path("admin/reports/download", id) }
func (u URLBuilder) ReportPreview(id uint) string    { return u.path("admin/reports/preview", id) }
func (u URLBuilder) UserLogo(id uint) string         { return u.path("admin/users", id) + "/logo" }
