package feed

import (
	"context"

	"github.com/angelmondragon/campusmarket-client/pkg/pagination"
)

// Criteria filters a feed. Two criteria are the same feed when equal by value.
type Criteria struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Author   string `json:"author,omitempty"`
}

// Page is one fetched page plus its pagination metadata.
type Page[T any] struct {
	Items []T
	Meta  pagination.Meta
}

// Source fetches one page of a feed.
type Source[T any] func(ctx context.Context, criteria Criteria, cont pagination.Continuation, limit int) (Page[T], error)

type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateReady       State = "ready"
	StateLoadingMore State = "loading_more"
	StateError       State = "error"
)

// Snapshot is a consistent copy of a fetcher's observable state.
type Snapshot[T any] struct {
	Name     string   `json:"feed"`
	State    State    `json:"state"`
	Criteria Criteria `json:"criteria"`
	Items    []T      `json:"items"`
	HasMore  bool     `json:"hasMore"`
	Stale    bool     `json:"stale"`
	Message  string   `json:"error,omitempty"`
	Err      error    `json:"-"`
}
