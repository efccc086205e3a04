package handler

import (
	"context"
	"net/http"
	"time"

	auth "auctions/internal/authService"
	"auctions/services/auction/helpers"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -destination=mock_auth_service.go -package=handler auctions/services/auction/handler AuthServiceInterface

type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.Session, error)
	Login(ctx context.Context, username, password string) (auth.Session, error)
	Logout(ctx context.Context, identity auth.Identity) error
}

type AuthHandler struct {
	service      AuthServiceInterface
	secureCookie bool
}

// NewAuthHandler creates the session handlers. secureCookie marks the session
// cookie Secure, for deployments behind TLS.
func NewAuthHandler(service AuthServiceInterface, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

// RegisterHandler handles POST /register
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err, req.Redacted())
		return
	}

	session, err := h.service.Register(c.Request.Context(), auth.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		helpers.HandleServiceError(c, err, req.Redacted())
		utils.Warn("RegisterHandler: registration failed", map[string]any{"username": req.Username, "error": err.Error()})
		return
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	utils.JSONResponse(c, http.StatusCreated, helpers.NewSessionResponse(session.Token, session.ExpiresAt, session.User), "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{"user_id": session.User.ID})
}

// LoginHandler handles POST /login
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err, nil)
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("LoginHandler: login failed", map[string]any{"username": req.Username, "error": err.Error()})
		return
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	utils.JSONResponse(c, http.StatusOK, helpers.NewSessionResponse(session.Token, session.ExpiresAt, session.User), "logged in successfully")
	helpers.LogSuccess("LoginHandler", "logged in successfully", map[string]any{"user_id": session.User.ID})
}

// LogoutHandler handles POST /logout
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), identity); err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("LogoutHandler: logout failed", map[string]any{"user_id": identity.UserID, "error": err.Error()})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(helpers.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	utils.JSONResponse(c, http.StatusOK, nil, "logged out successfully")
	helpers.LogSuccess("LogoutHandler", "logged out successfully", map[string]any{"user_id": identity.UserID})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(helpers.SessionCookie, token, maxAge, "/", "", h.secureCookie, true)
}
