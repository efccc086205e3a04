package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auctions/internal/auctionerrors"
	auth "auctions/internal/authService"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie carries the session token for form-based clients
	SessionCookie = "auction_session"
	identityKey   = "identity"
)

// HandleBindError sends a standardized JSON error for binding failures. A
// non-nil form is echoed back with the error.
func HandleBindError(c *gin.Context, handlerName string, err error, form any) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	if form != nil {
		utils.JSONFormError(c, http.StatusBadRequest, wrappedErr, "invalid request payload", form)
	} else {
		utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	}
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// HandleServiceError maps err and writes it. Validation and bid errors echo
// form back when it is non-nil.
func HandleServiceError(c *gin.Context, err error, form any) (int, string) {
	status, message := MapErrorToHTTP(err)
	if status == http.StatusUnauthorized && errors.Is(err, auctionerrors.ErrUnauthenticated) {
		c.Header("Location", "/login")
	}
	wrappedErr := fmt.Errorf("%s: %w", message, err)
	if form != nil && echoesForm(status) {
		utils.JSONFormError(c, status, wrappedErr, message, form)
	} else {
		utils.JSONError(c, status, wrappedErr, message)
	}
	return status, message
}

func echoesForm(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusConflict
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrListingNotFound):
		return http.StatusNotFound, "listing not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidListing):
		return http.StatusBadRequest, "invalid listing details"
	case errors.Is(err, auctionerrors.ErrInvalidComment):
		return http.StatusBadRequest, "invalid comment"
	case errors.Is(err, auctionerrors.ErrInvalidCategory):
		return http.StatusBadRequest, "unknown category"
	case errors.Is(err, auctionerrors.ErrInvalidRegistration):
		return http.StatusBadRequest, "invalid registration details"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrListingClosed):
		return http.StatusConflict, "listing is closed"
	case errors.Is(err, auctionerrors.ErrDuplicateUser):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, auctionerrors.ErrNotSeller):
		return http.StatusForbidden, "only the seller can close this listing"
	case errors.Is(err, auctionerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auctionerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username and/or password"
	case errors.Is(err, auctionerrors.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// SetIdentity attaches the caller to both the gin context and the request context
func SetIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(identityKey, identity)
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
}

// CurrentIdentity returns the authenticated caller, if any
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(auth.Identity); ok {
			return identity, true
		}
	}
	return auth.IdentityFromContext(c.Request.Context())
}

// CurrentUserID returns the caller's id, or "" for anonymous requests
func CurrentUserID(c *gin.Context) string {
	identity, ok := CurrentIdentity(c)
	if !ok {
		return ""
	}
	return identity.UserID
}
