package pagination

import (
	"encoding/json"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many items any single page request can ask for.
	MaxLimit = 100
)

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Continuation identifies where the next fetch resumes: a page number for
// page-numbered listings or an opaque cursor for cursor listings.
type Continuation struct {
	Page   int    `json:"page,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// First is the continuation of a fresh feed.
func First() Continuation {
	return Continuation{Page: 1}
}

// IsFirst reports whether c points at the first page.
func (c Continuation) IsFirst() bool {
	return c.Cursor == "" && c.Page <= 1
}

// Query renders c and limit as listing query parameters.
func (c Continuation) Query(limit int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(NormalizeLimit(limit)))
	if c.Cursor != "" {
		q.Set("cursor", c.Cursor)
		return q
	}
	page := c.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	return q
}

// Meta is the pagination block listing endpoints return next to their items.
// Both camelCase and snake_case member names are accepted, and a bare
// "cursor" is read as the next cursor.
type Meta struct {
	HasMore    *bool
	NextCursor string
	Page       int
	TotalPages int
	Total      int
}

type metaWire struct {
	HasMore         *bool  `json:"hasMore"`
	HasMoreSnake    *bool  `json:"has_more"`
	NextCursor      string `json:"nextCursor"`
	NextSnake       string `json:"next_cursor"`
	Next            string `json:"next"`
	Cursor          string `json:"cursor"`
	Page            int    `json:"page"`
	TotalPages      int    `json:"totalPages"`
	TotalPagesSnake int    `json:"total_pages"`
	Total           int    `json:"total"`
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	var w metaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.HasMore = w.HasMore
	if m.HasMore == nil {
		m.HasMore = w.HasMoreSnake
	}
	m.NextCursor = firstNonEmpty(w.NextCursor, w.NextSnake, w.Next, w.Cursor)
	m.Page = w.Page
	m.TotalPages = w.TotalPages
	if m.TotalPages == 0 {
		m.TotalPages = w.TotalPagesSnake
	}
	m.Total = w.Total
	return nil
}

func (m Meta) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		HasMore    *bool  `json:"hasMore,omitempty"`
		NextCursor string `json:"nextCursor,omitempty"`
		Page       int    `json:"page,omitempty"`
		TotalPages int    `json:"totalPages,omitempty"`
		Total      int    `json:"total,omitempty"`
	}{m.HasMore, m.NextCursor, m.Page, m.TotalPages, m.Total})
}

// MoreAvailable derives the server's continuation signal: an explicit flag
// first, then a next cursor, then page against total pages, then page
// against the item total.
func (m Meta) MoreAvailable(limit int) bool {
	switch {
	case m.HasMore != nil:
		return *m.HasMore
	case m.NextCursor != "":
		return true
	case m.TotalPages > 0:
		return m.Page < m.TotalPages
	case m.Total > 0 && m.Page > 0:
		return m.Page*NormalizeLimit(limit) < m.Total
	}
	return false
}

// HasMore combines the server signal with the short-page rule: a page with
// fewer items than requested always ends the feed.
func HasMore(m Meta, itemCount, limit int) bool {
	if itemCount < NormalizeLimit(limit) {
		return false
	}
	return m.MoreAvailable(limit)
}

// Next returns the continuation after the page described by m, which was
// fetched with current.
func (m Meta) Next(current Continuation) Continuation {
	if m.NextCursor != "" {
		return Continuation{Cursor: m.NextCursor}
	}
	page := m.Page
	if page < 1 {
		page = current.Page
		if page < 1 {
			page = 1
		}
	}
	return Continuation{Page: page + 1}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
