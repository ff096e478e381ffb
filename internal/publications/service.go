// Package publications runs the create, edit and delete flows for a user's
// listings and reads them back for feeds and edit forms.
package publications

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/campusmarket-client/internal/querycache"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// MyPublicationsPath is where the UI lands after a successful submit.
const MyPublicationsPath = "/my-publications"

type delayedNavigator interface {
	NavigateAfter(delay time.Duration, path string)
}

// ServiceParams groups dependencies for the publication service.
type ServiceParams struct {
	Client        Doer
	Cache         *querycache.Client
	Navigator     delayedNavigator
	Limits        Limits
	RedirectDelay time.Duration
	Logger        *logger.Logger
}

// Service exposes publication mutations.
type Service interface {
	Create(ctx context.Context, draft Draft) (*Publication, error)
	Update(ctx context.Context, id string, draft Draft) (*Publication, error)
	Delete(ctx context.Context, id string) error
	Limits() Limits
}

type service struct {
	client        Doer
	cache         *querycache.Client
	navigator     delayedNavigator
	limits        Limits
	redirectDelay time.Duration
	logg          *logger.Logger
}

// NewService builds a publication service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "http client is required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query cache is required")
	}
	if params.Navigator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "navigator is required")
	}
	if params.RedirectDelay < 0 {
		params.RedirectDelay = 0
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		client:        params.Client,
		cache:         params.Cache,
		navigator:     params.Navigator,
		limits:        params.Limits.normalized(),
		redirectDelay: params.RedirectDelay,
		logg:          params.Logger,
	}, nil
}

func (s *service) Limits() Limits { return s.limits }

// Create validates, encodes and posts a new publication.
func (s *service) Create(ctx context.Context, draft Draft) (*Publication, error) {
	ctx = s.logg.WithOperation(ctx, "publication.create")
	payload, err := s.prepare(draft, ModeCreate)
	if err != nil {
		return nil, err
	}

	var created Publication
	if err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/publications",
		Body:   payload,
	}, &created); err != nil {
		return nil, err
	}
	s.succeeded(ctx, querycache.MutationPublicationCreate, created.ID)
	return &created, nil
}

// Update validates, encodes and patches an existing publication.
func (s *service) Update(ctx context.Context, id string, draft Draft) (*Publication, error) {
	ctx = s.logg.WithOperation(ctx, "publication.update")
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "publication id is required")
	}
	payload, err := s.prepare(draft, ModeUpdate)
	if err != nil {
		return nil, err
	}

	var updated Publication
	if err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPatch,
		Path:   "/publications/" + url.PathEscape(id),
		Route:  "/publications/{id}",
		Body:   payload,
	}, &updated); err != nil {
		return nil, err
	}
	s.succeeded(ctx, querycache.MutationPublicationUpdate, id)
	return &updated, nil
}

// Delete removes a publication. It does not navigate.
func (s *service) Delete(ctx context.Context, id string) error {
	ctx = s.logg.WithOperation(ctx, "publication.delete")
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "publication id is required")
	}
	if err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   "/publications/" + url.PathEscape(id),
		Route:  "/publications/{id}",
	}, nil); err != nil {
		return err
	}
	s.cache.InvalidateFor(ctx, querycache.MutationPublicationDelete)
	s.logg.Info(s.logg.WithField(ctx, "publication_id", id), "publication.deleted")
	return nil
}

func (s *service) prepare(draft Draft, mode Mode) (Payload, error) {
	if err := draft.Validate(mode, s.limits); err != nil {
		return Payload{}, err
	}
	// Images decoded from a request body never went through AddImage.
	checked := draft
	checked.Images = nil
	for _, img := range draft.Images {
		if err := checked.AddImage(img, s.limits); err != nil {
			return Payload{}, err
		}
	}
	return checked.Encode(s.limits)
}

func (s *service) succeeded(ctx context.Context, kind querycache.MutationKind, id string) {
	s.cache.InvalidateFor(ctx, kind)
	s.navigator.NavigateAfter(s.redirectDelay, MyPublicationsPath)
	s.logg.Info(s.logg.WithField(ctx, "publication_id", id), "publication.saved")
}
