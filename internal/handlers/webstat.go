package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/austinhq/austin-web/internal/apierror"
	"github.com/austinhq/austin-web/internal/config"
	"github.com/austinhq/austin-web/internal/logger"
	"github.com/austinhq/austin-web/internal/models"
	"github.com/austinhq/austin-web/internal/pagination"
	"github.com/austinhq/austin-web/internal/webstat"
)

type WebStatHandler struct {
	collector *webstat.Collector
	paging    config.PaginationConfig
}

// NewWebStatHandler creates the statistics console handler
func NewWebStatHandler(collector *webstat.Collector, paging config.PaginationConfig) *WebStatHandler {
	return &WebStatHandler{
		collector: collector,
		paging:    paging,
	}
}

type statFilter struct {
	Since models.NullableTime `form:"since"`
}

type statPage struct {
	pagination.Page[webstat.URIStat]
	OrderBy webstat.Order `json:"order_by"`
	Dropped int64         `json:"dropped"`
}

// List handles GET on the console path
// Query params:
//   - page, size: paging (size capped by pagination.max_size)
//   - order_by: requests (default), errors, total_time, max_time, last_access, uri
//   - since: RFC 3339 time; only URIs accessed after it are listed
func (h *WebStatHandler) List(c *gin.Context) {
	requestID := apierror.GetRequestID(c)

	page, err := pagination.FromContext(c, h.paging)
	if err != nil {
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: "page", Message: "page and size must be integers", Code: "invalid"},
		}))
		return
	}

	order, err := webstat.ParseOrder(page.OrderBy.OrElse(""))
	if err != nil {
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: "order_by", Message: err.Error(), Code: "invalid"},
		}))
		return
	}

	var filter statFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: "since", Message: "since must be an RFC 3339 time", Code: "invalid"},
		}))
		return
	}

	rows := h.collector.Snapshot(order)
	if filter.Since.Valid {
		kept := rows[:0]
		for _, row := range rows {
			if row.LastAccess.After(filter.Since.Value) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	c.JSON(http.StatusOK, statPage{
		Page:    pagination.Apply(rows, page),
		OrderBy: order,
		Dropped: h.collector.Dropped(),
	})
}

// Reset handles DELETE on the console path
func (h *WebStatHandler) Reset(c *gin.Context) {
	h.collector.Reset()
	logger.Ctx(c.Request.Context()).Info("web statistics reset")
	c.Status(http.StatusNoContent)
}
