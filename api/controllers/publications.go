package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campusmarket-client/api/responses"
	"github.com/angelmondragon/campusmarket-client/api/validators"
	"github.com/angelmondragon/campusmarket-client/internal/publications"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// PublicationService is the mutation surface the API drives.
type PublicationService interface {
	Create(ctx context.Context, draft publications.Draft) (*publications.Publication, error)
	Update(ctx context.Context, id string, draft publications.Draft) (*publications.Publication, error)
	Delete(ctx context.Context, id string) error
}

// PublicationLookup loads one publication for the edit form.
type PublicationLookup interface {
	Get(ctx context.Context, id string) (*publications.Publication, error)
}

type publicationDetailResponse struct {
	Publication *publications.Publication `json:"publication"`
	Draft       publications.Draft        `json:"draft"`
}

// PublicationDetail returns the publication and the draft that prefills its
// edit form.
func PublicationDetail(lookup PublicationLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		pub, err := lookup.Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, publicationDetailResponse{
			Publication: pub,
			Draft:       publications.DraftFromPublication(*pub),
		})
	}
}

func PublicationCreate(svc PublicationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var draft publications.Draft
		if err := validators.DecodeJSON(r, &draft); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pub, err := svc.Create(ctx, draft)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pub)
	}
}

func PublicationUpdate(svc PublicationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var draft publications.Draft
		if err := validators.DecodeJSON(r, &draft); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pub, err := svc.Update(ctx, chi.URLParam(r, "id"), draft)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pub)
	}
}

func PublicationDelete(svc PublicationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")
		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": id, "status": "deleted"})
	}
}
