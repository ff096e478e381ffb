// Package auth exchanges provider credentials for a bearer identity and keeps
// the session in step. Token issuance and validation belong to the backend.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/campusmarket-client/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"github.com/angelmondragon/campusmarket-client/pkg/nav"
	"github.com/angelmondragon/campusmarket-client/pkg/validation"
)

const invalidCredentialsMessage = "Sign in with your campus account to continue."

// Doer is the subset of the HTTP client the service needs.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

type sessionStore interface {
	Set(ctx context.Context, identity session.Identity) error
	UpdateProfile(ctx context.Context, profile session.Profile) error
	Clear(ctx context.Context) error
	IsAuthenticated() bool
}

// Service defines the identity operations exposed to the UI.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (session.Profile, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (session.Profile, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Client    Doer
	Session   sessionStore
	Navigator nav.Navigator
	LoginPath string
	Logger    *logger.Logger
}

type service struct {
	client    Doer
	session   sessionStore
	navigator nav.Navigator
	loginPath string
	logg      *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "http client is required")
	}
	if params.Session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	if params.LoginPath == "" {
		params.LoginPath = "/login"
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		client:    params.Client,
		session:   params.Session,
		navigator: params.Navigator,
		loginPath: params.LoginPath,
		logg:      params.Logger,
	}, nil
}

// Login exchanges the credential and stores the resulting identity.
func (s *service) Login(ctx context.Context, req LoginRequest) (session.Profile, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Credential = strings.TrimSpace(req.Credential)
	if !req.hasCredential() {
		return session.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, invalidCredentialsMessage)
	}
	if err := validation.Check(pkgerrors.CodeValidation, "invalid login request", req); err != nil {
		return session.Profile{}, err
	}

	var resp LoginResponse
	if err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   req,
	}, &resp); err != nil {
		return session.Profile{}, err
	}
	token := resp.token()
	if token == "" {
		return session.Profile{}, pkgerrors.New(pkgerrors.CodeDecode, "login response carried no token")
	}

	profile := resp.User.toProfile()
	if err := s.session.Set(ctx, session.Identity{Token: token, Profile: profile}); err != nil {
		return session.Profile{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session")
	}
	s.logg.Info(s.logg.WithUserID(ctx, profile.ID), "auth.login")
	return profile, nil
}

// Logout forgets the identity and returns the UI to the login page.
func (s *service) Logout(ctx context.Context) error {
	err := s.session.Clear(ctx)
	nav.Redirect(s.navigator, s.loginPath)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear session")
	}
	s.logg.Info(ctx, "auth.logout")
	return nil
}

// Me refreshes the stored profile from the backend.
func (s *service) Me(ctx context.Context) (session.Profile, error) {
	if !s.session.IsAuthenticated() {
		return session.Profile{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	var dto profileDTO
	if err := s.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/auth/me"}, &dto); err != nil {
		return session.Profile{}, err
	}
	profile := dto.toProfile()
	if err := s.session.UpdateProfile(ctx, profile); err != nil {
		return session.Profile{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store profile")
	}
	return profile, nil
}
