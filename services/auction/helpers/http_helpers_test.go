package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"auctions/internal/auctionerrors"
	auth "auctions/internal/authService"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{auctionerrors.ErrListingNotFound, http.StatusNotFound},
		{auctionerrors.ErrUserNotFound, http.StatusNotFound},
		{auctionerrors.ErrInvalidBid, http.StatusBadRequest},
		{auctionerrors.ErrInvalidListing, http.StatusBadRequest},
		{auctionerrors.ErrInvalidComment, http.StatusBadRequest},
		{auctionerrors.ErrInvalidCategory, http.StatusBadRequest},
		{auctionerrors.ErrInvalidRegistration, http.StatusBadRequest},
		{auctionerrors.ErrBidTooLow, http.StatusConflict},
		{auctionerrors.ErrListingClosed, http.StatusConflict},
		{auctionerrors.ErrDuplicateUser, http.StatusConflict},
		{auctionerrors.ErrNotSeller, http.StatusForbidden},
		{auctionerrors.ErrUnauthenticated, http.StatusUnauthorized},
		{auctionerrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{auctionerrors.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		wrapped := fmt.Errorf("service: %w - context", tc.err)
		status, message := MapErrorToHTTP(wrapped)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.NotEmpty(t, message)
	}
}

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	form := NewCommentRequest{ListingID: "l1", Content: "hi"}

	run := func(err error, form any) (*httptest.ResponseRecorder, map[string]any) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/newComment", nil)
		HandleServiceError(c, err, form)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w, resp
	}

	w, resp := run(auctionerrors.ErrInvalidComment, form)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "hi", resp["form"].(map[string]any)["content"])

	// not-found errors carry no form
	w, resp = run(auctionerrors.ErrListingNotFound, form)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotContains(t, resp, "form")

	w, _ = run(auctionerrors.ErrUnauthenticated, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	w, _ = run(auctionerrors.ErrInvalidCredentials, nil)
	require.Empty(t, w.Header().Get("Location"))
}

func TestCurrentIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := CurrentIdentity(c)
	require.False(t, ok)
	require.Empty(t, CurrentUserID(c))

	SetIdentity(c, auth.Identity{UserID: "u1", Username: "alice"})
	require.Equal(t, "u1", CurrentUserID(c))

	fromRequest, ok := auth.IdentityFromContext(c.Request.Context())
	require.True(t, ok)
	require.Equal(t, "alice", fromRequest.Username)
}

func TestRegisterRequest_Redacted(t *testing.T) {
	r := RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret1", Confirmation: "secret1"}.Redacted()
	require.Empty(t, r.Password)
	require.Empty(t, r.Confirmation)
	require.Equal(t, "alice", r.Username)
}
