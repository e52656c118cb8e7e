// Package authz derives row-level filters from the authenticated caller.
package authz

import (
	"strings"

	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/query"
)

// Principal is the caller as described by a verified token.
type Principal struct {
	UserID     uint
	Role       string
	CategoryID *uint
}

func (p Principal) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(p.Role), models.RoleAdmin)
}

// scoped returns the restriction for a non-admin with a category, None for a
// non-admin without one, and no restriction for admins.
func scoped(p Principal, build func(categoryID uint) query.Expr) query.Expr {
	if p.IsAdmin() {
		return query.And()
	}
	if p.CategoryID == nil {
		return query.None()
	}
	return build(*p.CategoryID)
}

// DocumentScope keeps documents linked to the caller's category.
func DocumentScope(p Principal) query.Expr {
	return scoped(p, func(categoryID uint) query.Expr {
		return query.Exists(
			"SELECT 1 FROM document_kategori dk WHERE dk.document_id = documents.id AND dk.kategori_id = ?",
			categoryID,
		)
	})
}

// ReportScope keeps reports whose parent document is linked to the caller's category.
func ReportScope(p Principal) query.Expr {
	return scoped(p, func(categoryID uint) query.Expr {
		return query.Exists(
			"SELECT 1 FROM document_kategori dk WHERE dk.document_id = document_reports.document_id AND dk.kategori_id = ?",
			categoryID,
		)
	})
}

func UserScope(p Principal) query.Expr {
	return scoped(p, func(categoryID uint) query.Expr {
		return query.Eq("users.category_id", categoryID)
	})
}

func KategoriScope(p Principal) query.Expr {
	return scoped(p, func(categoryID uint) query.Expr {
		return query.Eq("kategori.id", categoryID)
	})
}

// CanSeeDocument evaluates DocumentScope against an already loaded document.
// Categories must be preloaded.
func CanSeeDocument(p Principal, doc *models.Document) bool {
	if p.IsAdmin() {
		return true
	}
	if p.CategoryID == nil || doc == nil {
		return false
	}
	for _, k := range doc.Categories {
		if k.ID == *p.CategoryID {
			return true
		}
	}
	return false
}
