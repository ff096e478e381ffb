package favorites

import "sort"

// Set is the product ids the current identity has favorited.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the ids sorted.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IDsDTO is the favorites listing payload.
type IDsDTO struct {
	ProductIDs []string `json:"product_ids"`
}

// toggleDTO is optional: the backend may answer a toggle with no body.
type toggleDTO struct {
	Favorited *bool `json:"favorited"`
}

// ToggleResult reports the server-confirmed state after a toggle.
type ToggleResult struct {
	ProductID string   `json:"productId"`
	Favorited bool     `json:"favorited"`
	IDs       []string `json:"productIds"`
}
