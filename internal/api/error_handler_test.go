package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/api/handler"
	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/listing"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

type failingAuthService struct {
	registerErr error
	loginErr    error
}

func (s *failingAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return nil, s.registerErr
}

func (s *failingAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return "", nil, s.loginErr
}

func (s *failingAuthService) SignOut(uid string) {}

func (s *failingAuthService) UpdateProfile(ctx context.Context, caller ports.Caller, in ports.ProfileInput) (*domain.User, error) {
	return nil, nil
}

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrItemNotFound, http.StatusNotFound},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrAccountBanned, http.StatusForbidden},
		{domain.ErrAccountMuted, http.StatusForbidden},
		{domain.ErrOwnerProtected, http.StatusForbidden},
		{domain.ErrInvalidRating, http.StatusBadRequest},
		{domain.ErrInvalidCategory, http.StatusBadRequest},
		{listing.ErrFetchInFlight, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		h(tc.err, c)
		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalDetails(t *testing.T) {
	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h(errors.New("mongo: connection pool exhausted"), c)
	if strings.Contains(rec.Body.String(), "mongo") {
		t.Fatalf("internal details leaked: %s", rec.Body.String())
	}
}

// Handlers return domain sentinels; the wired echo instance must turn them
// into the right status codes.
func TestHTTPErrorHandler_ResolvesHandlerErrors(t *testing.T) {
	svc := &failingAuthService{
		registerErr: domain.ErrUserExists,
		loginErr:    domain.ErrAccountBanned,
	}
	ah := handler.NewAuthHandler(svc)

	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	e.POST("/auth/register", ah.Register)
	e.POST("/auth/login", ah.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"bob","password":"hunter22"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"bob","password":"hunter22"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("banned login: expected 403, got %d", rec.Code)
	}
}
