// Package pagination parses page parameters and renders them for SQL
// dialects or in-memory lists.
package pagination

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/austinhq/austin-web/internal/config"
	"github.com/austinhq/austin-web/internal/models"
)

// Request holds page parameters. Page numbers start at 1.
type Request struct {
	Page    int                   `form:"page" json:"page"`
	Size    int                   `form:"size" json:"size"`
	OrderBy models.NullableString `form:"order_by" json:"order_by"`
}

// Normalize clamps the request to valid values. A missing or negative
// size falls back to defaultSize; sizes above maxSize are capped. Page is
// capped so that Offset cannot overflow.
func (r *Request) Normalize(defaultSize, maxSize int) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Size <= 0 {
		r.Size = defaultSize
	}
	if maxSize > 0 && r.Size > maxSize {
		r.Size = maxSize
	}
	if r.Size > 0 && r.Page > math.MaxInt/r.Size {
		r.Page = math.MaxInt / r.Size
	}
}

// Offset is the number of rows skipped before the page. It saturates at
// math.MaxInt instead of overflowing.
func (r Request) Offset() int {
	if r.Page < 1 || r.Size <= 0 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.Size {
		return math.MaxInt
	}
	return (r.Page - 1) * r.Size
}

// Limit is the page size
func (r Request) Limit() int {
	return r.Size
}

// FromContext binds page parameters from the query string and normalizes
// them with the configured sizes.
func FromContext(c *gin.Context, cfg config.PaginationConfig) (Request, error) {
	var req Request
	if err := c.ShouldBindQuery(&req); err != nil {
		return Request{}, fmt.Errorf("bind page parameters: %w", err)
	}
	req.Normalize(cfg.DefaultSize, cfg.MaxSize)
	return req, nil
}

// Dialect renders LIMIT clauses for a database flavour
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the configured dialect name
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case MySQL, Postgres, SQLite:
		return d, nil
	case "postgresql":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported pagination dialect %q", name)
	}
}

// Paginate appends the dialect's LIMIT clause for page to query.
func (d Dialect) Paginate(query string, page Request) string {
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	limit := strconv.Itoa(page.Limit())
	offset := strconv.Itoa(page.Offset())

	switch d {
	case MySQL:
		if page.Offset() == 0 {
			return query + " LIMIT " + limit
		}
		return query + " LIMIT " + offset + "," + limit
	default:
		if page.Offset() == 0 {
			return query + " LIMIT " + limit
		}
		return query + " LIMIT " + limit + " OFFSET " + offset
	}
}

// Page is one page of results
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Apply slices an in-memory list. Pages past the end are empty, never nil.
func Apply[T any](items []T, page Request) Page[T] {
	total := len(items)
	out := Page[T]{
		Items: []T{},
		Page:  page.Page,
		Size:  page.Size,
		Total: total,
	}
	if page.Size > 0 && total > 0 {
		out.Pages = (total-1)/page.Size + 1
	}

	start := page.Offset()
	if page.Size <= 0 || start >= total {
		return out
	}
	end := total
	if total-start > page.Size {
		end = start + page.Size
	}
	out.Items = append(out.Items, items[start:end]...)
	return out
}
