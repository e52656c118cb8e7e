package query

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"gorm.io/gorm"
)

const (
	DefaultPage    = 1
	DefaultLimit   = 100
	DefaultOrderBy = "id"
)

// Params are the caller-facing list options. Where is ANDed with the
// search clause and the entity's base filter, never replaced by them.
type Params struct {
	Page    int
	Limit   int
	OrderBy string
	Order   string
	Search  string
	Where   Expr
}

// ParseParams reads page, limit, orderBy, order and search from a query string.
func ParseParams(values url.Values) (Params, error) {
	p := Params{
		OrderBy: firstNonEmpty(values.Get("orderBy"), values.Get("order_by")),
		Order:   values.Get("order"),
		Search:  values.Get("search"),
	}

	var err error
	if p.Page, err = positiveInt(values.Get("page"), "page"); err != nil {
		return p, err
	}
	if p.Limit, err = positiveInt(values.Get("limit"), "limit"); err != nil {
		return p, err
	}
	return p.normalize(), nil
}

func (p Params) normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if strings.TrimSpace(p.OrderBy) == "" {
		p.OrderBy = DefaultOrderBy
	}
	return p
}

// Descending is true only for the literal "desc".
func (p Params) Descending() bool {
	return strings.EqualFold(strings.TrimSpace(p.Order), "desc")
}

// Spec describes one listable entity.
type Spec struct {
	// Sortable maps orderBy values to qualified columns. It must contain "id".
	Sortable   map[string]string
	Searchable []string
	Joins      []string
	Preload    []string
	Base       Expr
}

type Page[T any] struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Data       []T   `json:"data"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// SearchExpr ORs a case-insensitive substring match over fields. A blank
// term returns nil.
func SearchExpr(term string, fields []string) Expr {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return nil
	}
	exprs := make([]Expr, 0, len(fields))
	for _, f := range fields {
		exprs = append(exprs, Contains(f, term))
	}
	return Or(exprs...)
}

// List counts and fetches one page of T under spec.Base ∧ p.Where ∧ search.
func List[T any](ctx context.Context, db *gorm.DB, spec Spec, p Params) (*Page[T], error) {
	p = p.normalize()

	column, ok := spec.Sortable[p.OrderBy]
	if !ok {
		return nil, apperror.Validation("Invalid orderBy field: %s", p.OrderBy)
	}
	tieBreak := spec.Sortable[DefaultOrderBy]

	filter := And(spec.Base, p.Where, SearchExpr(p.Search, spec.Searchable))

	scoped := func() *gorm.DB {
		q := db.WithContext(ctx).Model(new(T))
		for _, j := range spec.Joins {
			q = q.Joins(j)
		}
		return Apply(q, filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, apperror.Internal("Failed to count records", err)
	}

	direction := " ASC"
	if p.Descending() {
		direction = " DESC"
	}

	q := scoped()
	for _, rel := range spec.Preload {
		q = q.Preload(rel)
	}
	q = q.Order(column + direction)
	if tieBreak != "" && tieBreak != column {
		q = q.Order(tieBreak + " ASC")
	}

	data := make([]T, 0, p.Limit)
	if err := q.Offset((p.Page - 1) * p.Limit).Limit(p.Limit).Find(&data).Error; err != nil {
		return nil, apperror.Internal("Failed to fetch records", err)
	}

	totalPages := int(total / int64(p.Limit))
	if total%int64(p.Limit) != 0 {
		totalPages++
	}

	return &Page[T]{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		Data:       data,
		TotalPages: totalPages,
		HasNext:    int64((p.Page-1)*p.Limit+p.Limit) < total,
		HasPrev:    p.Page > 1,
	}, nil
}

func positiveInt(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.Validation("%s must be a positive integer", name)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
