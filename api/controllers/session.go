package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/campusmarket-client/api/responses"
	"github.com/angelmondragon/campusmarket-client/api/validators"
	"github.com/angelmondragon/campusmarket-client/internal/auth"
	"github.com/angelmondragon/campusmarket-client/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// SessionReader exposes the current identity.
type SessionReader interface {
	IsAuthenticated() bool
	Profile() (session.Profile, bool)
}

// AuthService performs the identity exchange.
type AuthService interface {
	Login(ctx context.Context, req auth.LoginRequest) (session.Profile, error)
	Logout(ctx context.Context) error
}

// Locator exposes and moves the current UI location.
type Locator interface {
	Navigate(path string)
	Current() string
	History() []string
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Profile       *session.Profile `json:"profile,omitempty"`
}

type locationResponse struct {
	Current string   `json:"current"`
	History []string `json:"history"`
}

type navigatePayload struct {
	Path string `json:"path" validate:"required,startswith=/"`
}

func SessionFetch(reader SessionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, currentSession(reader))
	}
}

func SessionLogin(svc AuthService, reader SessionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req auth.LoginRequest
		if err := validators.DecodeJSON(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := svc.Login(ctx, req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, currentSession(reader))
	}
}

func SessionLogout(svc AuthService, reader SessionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := svc.Logout(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, currentSession(reader))
	}
}

func LocationFetch(loc Locator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, locationResponse{Current: loc.Current(), History: loc.History()})
	}
}

// LocationNavigate records a navigation made by the UI shell.
func LocationNavigate(loc Locator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload navigatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if strings.HasPrefix(payload.Path, "//") {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "path must be local"))
			return
		}
		loc.Navigate(payload.Path)
		responses.WriteSuccess(w, locationResponse{Current: loc.Current(), History: loc.History()})
	}
}

func currentSession(reader SessionReader) sessionResponse {
	resp := sessionResponse{Authenticated: reader.IsAuthenticated()}
	if profile, ok := reader.Profile(); ok {
		resp.Profile = &profile
	}
	return resp
}
