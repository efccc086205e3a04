package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "auctions/internal/auctionService"
	auth "auctions/internal/authService"
	"auctions/internal/events"
	model "auctions/internal/models"
	"auctions/internal/repository"
	"auctions/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration_test_secret_0123456789abcdef"

// testApp is the full HTTP stack over the in-memory store
type testApp struct {
	router   *gin.Engine
	repo     *repository.MemoryRepo
	auctions *auction.AuctionService
}

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter(t *testing.T, limiter *server.RateLimiter) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	authSvc := auth.NewAuthService(repo, tokens)
	auctionSvc := auction.NewAuctionService(repo, events.NewLogPublisher(nil))

	router := server.SetupRouter(server.Dependencies{
		Auctions:    auctionSvc,
		Auth:        authSvc,
		Verifier:    authSvc,
		RateLimiter: limiter,
	})
	return &testApp{router: router, repo: repo, auctions: auctionSvc}
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses the envelope
func (a *testApp) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	a.router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// registerUser signs a user up through the API and returns the session token and user id
func (a *testApp) registerUser(t *testing.T, username string) (string, string) {
	t.Helper()
	resp, w := a.ExecuteRequestAndParse(t, "POST", "/register", "", map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"password":     "secret1",
		"confirmation": "secret1",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	data := resp["data"].(map[string]any)
	user := data["user"].(map[string]any)
	return data["token"].(string), user["id"].(string)
}

// createListing opens a listing through the API and returns its id
func (a *testApp) createListing(t *testing.T, token, title string, startingBid float64, category string) string {
	t.Helper()
	resp, w := a.ExecuteRequestAndParse(t, "POST", "/newListing", token, map[string]any{
		"title":        title,
		"description":  title + " for sale",
		"starting_bid": startingBid,
		"category":     category,
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["id"].(string)
}

func (a *testApp) listing(t *testing.T, id string) model.Listing {
	t.Helper()
	l, err := a.repo.GetListing(context.Background(), id)
	require.NoError(t, err)
	return l
}
