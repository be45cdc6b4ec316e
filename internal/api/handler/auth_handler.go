package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type socialsRequest struct {
	Discord  *string `json:"discord"`
	WhatsApp *string `json:"whatsapp"`
	YouTube  *string `json:"youtube"`
}

type updateProfileRequest struct {
	ProfilePic        *string         `json:"profilePic"`
	ProfileBorder     *string         `json:"profileBorder"`
	CustomColor       *string         `json:"customColor"`
	CustomBorderWidth *int            `json:"customBorderWidth" validate:"omitempty,gte=0,lte=10"`
	Bio               *string         `json:"bio"`
	Socials           *socialsRequest `json:"socials"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Account credentials"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates an account and returns a JWT token. Banned accounts
// fail here even with correct credentials.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Account credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		// A missing account and a wrong password must be indistinguishable,
		// and on this path they are 401, not the 400 a validation failure
		// would map to.
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": domain.ErrInvalidCredentials.Error()})
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Logout ends the caller's session.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      204  "No Content"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	h.authService.SignOut(caller.UID)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's live profile snapshot.
//
// @Summary      Get own profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, caller.User)
}

// UpdateProfile patches the caller's display fields. Absent fields are left
// unchanged.
//
// @Summary      Update own profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /me [patch]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	in := ports.ProfileInput{
		ProfilePic:        req.ProfilePic,
		ProfileBorder:     req.ProfileBorder,
		CustomColor:       req.CustomColor,
		CustomBorderWidth: req.CustomBorderWidth,
		Bio:               req.Bio,
	}
	if req.Socials != nil {
		socials := caller.User.Socials
		if req.Socials.Discord != nil {
			socials.Discord = *req.Socials.Discord
		}
		if req.Socials.WhatsApp != nil {
			socials.WhatsApp = *req.Socials.WhatsApp
		}
		if req.Socials.YouTube != nil {
			socials.YouTube = *req.Socials.YouTube
		}
		in.Socials = &socials
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
