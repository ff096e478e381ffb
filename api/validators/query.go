package validators

import (
	"net/http"

	"github.com/angelmondragon/campusmarket-client/internal/feed"
)

const maxCriteriaLen = 120

// ParseCriteria reads the feed filters from the query string.
func ParseCriteria(r *http.Request) feed.Criteria {
	q := r.URL.Query()
	return feed.Criteria{
		Search:   SanitizeString(q.Get("search"), maxCriteriaLen),
		Category: SanitizeString(q.Get("category"), maxCriteriaLen),
		Author:   SanitizeString(q.Get("author"), maxCriteriaLen),
	}
}
