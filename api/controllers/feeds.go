package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campusmarket-client/api/responses"
	"github.com/angelmondragon/campusmarket-client/api/validators"
	"github.com/angelmondragon/campusmarket-client/internal/feed"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// FeedHandle drives one named feed regardless of its item type.
type FeedHandle struct {
	query func(ctx context.Context, c feed.Criteria) any
	next  func(ctx context.Context) any
}

// BindFeed adapts a typed fetcher for the feed routes.
func BindFeed[T any](f *feed.Fetcher[T]) FeedHandle {
	return FeedHandle{
		query: func(ctx context.Context, c feed.Criteria) any { return f.SetCriteria(ctx, c) },
		next:  func(ctx context.Context) any { return f.FetchNextPage(ctx) },
	}
}

// FeedQuery applies the query-string criteria and returns the feed. A failed
// page is reported inside the snapshot (state "error"), not as an HTTP error.
func FeedQuery(feeds map[string]FeedHandle, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		handle, ok := feeds[chi.URLParam(r, "feed")]
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown feed"))
			return
		}
		responses.WriteSuccess(w, handle.query(ctx, validators.ParseCriteria(r)))
	}
}

// FeedNext requests the next page of the current criteria.
func FeedNext(feeds map[string]FeedHandle, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		handle, ok := feeds[chi.URLParam(r, "feed")]
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown feed"))
			return
		}
		responses.WriteSuccess(w, handle.next(ctx))
	}
}
