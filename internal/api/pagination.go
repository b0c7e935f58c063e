package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

// Paginator reads page/limit query parameters and builds the list envelope.
type Paginator struct {
	DefaultSize int
	MaxSize     int
}

type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Parse answers 404 and returns false when page is not a positive integer.
// A bad limit falls back to the default size.
func (p Paginator) Parse(c *gin.Context) (pageParams, bool) {
	params := pageParams{Page: 1, Limit: p.DefaultSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
			return params, false
		}
		params.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if p.MaxSize > 0 && params.Limit > p.MaxSize {
		params.Limit = p.MaxSize
	}
	return params, true
}

// Respond writes the page envelope, or 404 when the page lies past the end.
func (p Paginator) Respond(c *gin.Context, params pageParams, total int64, results any) {
	if params.Page > 1 && int64(params.Offset()) >= total {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
		return
	}

	page := types.Page{Count: total, Results: results}
	if int64(params.Offset()+params.Limit) < total {
		next := pageURL(c, params.Page+1)
		page.Next = &next
	}
	if params.Page > 1 {
		prev := pageURL(c, params.Page-1)
		page.Previous = &prev
	}
	c.JSON(http.StatusOK, page)
}

// pageURL rebuilds the absolute request URL pointing at page. Page 1 drops
// the parameter.
func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
