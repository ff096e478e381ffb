package pagination

import (
	"bytes"
	"encoding/json"
)

// List is one page of a listing response. It accepts a bare item array,
// {data: [...]} or {items: [...]} with pagination fields at the top level or
// under "pagination", and a nested {data: {items, cursor}} page. Fields under
// "pagination" win over nested ones, which win over top-level ones.
type List[T any] struct {
	Items []T  `json:"items" validate:"dive"`
	Meta  Meta `json:"pagination"`
}

type listWire[T any] struct {
	Data       json.RawMessage `json:"data"`
	Items      []T             `json:"items"`
	Pagination *Meta           `json:"pagination"`
}

func (l *List[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		l.Meta = Meta{}
		return json.Unmarshal(trimmed, &l.Items)
	}

	var w listWire[T]
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return err
	}
	var meta Meta
	if err := json.Unmarshal(trimmed, &meta); err != nil {
		return err
	}

	items := w.Items
	if raw := bytes.TrimSpace(w.Data); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if raw[0] == '[' {
			if err := json.Unmarshal(raw, &items); err != nil {
				return err
			}
		} else {
			var inner List[T]
			if err := json.Unmarshal(raw, &inner); err != nil {
				return err
			}
			items = inner.Items
			meta = meta.merge(inner.Meta)
		}
	}
	if w.Pagination != nil {
		meta = meta.merge(*w.Pagination)
	}

	l.Items = items
	l.Meta = meta
	return nil
}

// merge returns m with every field set in over replacing it.
func (m Meta) merge(over Meta) Meta {
	if over.HasMore != nil {
		m.HasMore = over.HasMore
	}
	if over.NextCursor != "" {
		m.NextCursor = over.NextCursor
	}
	if over.Page != 0 {
		m.Page = over.Page
	}
	if over.TotalPages != 0 {
		m.TotalPages = over.TotalPages
	}
	if over.Total != 0 {
		m.Total = over.Total
	}
	return m
}
