package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smoothmove/internal/config"
	"github.com/iliyamo/smoothmove/internal/middleware"
	"github.com/iliyamo/smoothmove/internal/model"
	"github.com/iliyamo/smoothmove/internal/repository"
	"github.com/iliyamo/smoothmove/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	User   *model.User       `json:"user"`
	Access utils.AccessToken `json:"access"`
}

// Register: create user and return an access token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return jsonError(c, http.StatusBadRequest, "first_name, email and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid email")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		slog.Error("hash password failed", "error", err)
		return jsonError(c, http.StatusInternalServerError, "create user failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.AddUser(ctx, &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return jsonError(c, http.StatusConflict, "email already exists")
		}
		slog.Error("create user failed", "email", req.Email, "error", err)
		return jsonError(c, http.StatusInternalServerError, "create user failed")
	}

	access, err := h.issue(u)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue access failed")
	}
	slog.Info("user registered", "user_id", u.ID)
	return c.JSON(http.StatusCreated, authResp{User: u, Access: access})
}

// Login: verify credentials and return a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if u == nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	access, err := h.issue(u)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue access failed")
	}
	return c.JSON(http.StatusOK, authResp{User: u, Access: access})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetUserByID(ctx, uid)
	if err != nil {
		slog.Error("load current user failed", "user_id", uid, "error", err)
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if u == nil {
		// token outlived the account
		return jsonError(c, http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) issue(u *model.User) (utils.AccessToken, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		slog.Error("issue access token failed", "user_id", u.ID, "error", err)
	}
	return access, err
}
