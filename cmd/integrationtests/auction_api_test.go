package integrationtests

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"auctions/internal/server"

	"github.com/stretchr/testify/require"
)

func TestBiddingFlow(t *testing.T) {
	app := SetupTestRouter(t, nil)
	sellerToken, _ := app.registerUser(t, "seller")
	aliceToken, aliceID := app.registerUser(t, "alice")
	bobToken, bobID := app.registerUser(t, "bob")

	listingID := app.createListing(t, sellerToken, "Lamp", 10, "HO")

	bids := []struct {
		name       string
		token      string
		amount     float64
		wantStatus int
		wantMsg    string
	}{
		{name: "Below_Starting_Bid", token: aliceToken, amount: 5, wantStatus: http.StatusConflict, wantMsg: "bid amount too low"},
		{name: "Equal_To_Starting_Bid", token: aliceToken, amount: 10, wantStatus: http.StatusConflict, wantMsg: "bid amount too low"},
		{name: "First_Valid_Bid", token: aliceToken, amount: 15, wantStatus: http.StatusCreated, wantMsg: "bid recorded successfully"},
		{name: "Equal_To_Current_Bid", token: bobToken, amount: 15, wantStatus: http.StatusConflict, wantMsg: "bid amount too low"},
		{name: "Outbid_By_A_Cent", token: bobToken, amount: 15.01, wantStatus: http.StatusCreated, wantMsg: "bid recorded successfully"},
		{name: "Zero_Amount", token: aliceToken, amount: 0, wantStatus: http.StatusBadRequest, wantMsg: "invalid request payload"},
	}

	for _, tt := range bids {
		resp, w := app.ExecuteRequestAndParse(t, http.MethodPost, "/bid", tt.token, map[string]any{
			"listing_id": listingID,
			"amount":     tt.amount,
		})
		require.Equal(t, tt.wantStatus, w.Code, tt.name)
		require.Equal(t, tt.wantMsg, resp["message"], tt.name)
		if tt.wantStatus == http.StatusConflict {
			require.NotNil(t, resp["form"], tt.name)
		}
	}

	listing := app.listing(t, listingID)
	require.Equal(t, 15.01, *listing.CurrentBid)
	require.Equal(t, bobID, *listing.HighestBidderID)

	resp, w := app.ExecuteRequestAndParse(t, http.MethodGet, "/auction/"+listingID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := resp["data"].(map[string]any)
	require.Equal(t, "seller", detail["seller_username"])
	require.Equal(t, "bob", detail["highest_bidder_username"])
	require.Equal(t, 15.01, detail["minimum_bid"])
	require.Equal(t, 2.0, detail["bid_count"])
	require.Equal(t, false, detail["watched"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/auction/"+listingID+"/bids", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := resp["data"].([]any)
	require.Len(t, history, 2)
	require.Equal(t, aliceID, history[0].(map[string]any)["user_id"])
	require.Equal(t, bobID, history[1].(map[string]any)["user_id"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/myBids", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 1)

	_, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/bid", aliceToken, map[string]any{"listing_id": "missing", "amount": 50})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloseListingFlow(t *testing.T) {
	app := SetupTestRouter(t, nil)
	sellerToken, _ := app.registerUser(t, "seller")
	aliceToken, aliceID := app.registerUser(t, "alice")

	listingID := app.createListing(t, sellerToken, "Radio", 20, "Electronics")
	_, w := app.ExecuteRequestAndParse(t, http.MethodPost, "/bid", aliceToken, map[string]any{"listing_id": listingID, "amount": 25})
	require.Equal(t, http.StatusCreated, w.Code)

	resp, w := app.ExecuteRequestAndParse(t, http.MethodPost, "/closeBid", aliceToken, map[string]any{"listing_id": listingID})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "only the seller can close this listing", resp["message"])
	require.True(t, app.listing(t, listingID).Active)

	resp, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/closeBid", sellerToken, map[string]any{"listing_id": listingID})
	require.Equal(t, http.StatusOK, w.Code)
	closed := resp["data"].(map[string]any)
	require.Equal(t, false, closed["active"])
	require.Equal(t, aliceID, closed["highest_bidder_id"])

	// closing twice changes nothing
	_, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/closeBid", sellerToken, map[string]any{"listing_id": listingID})
	require.Equal(t, http.StatusOK, w.Code)

	resp, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/bid", aliceToken, map[string]any{"listing_id": listingID, "amount": 100})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "listing is closed", resp["message"])
	require.Equal(t, 25.0, *app.listing(t, listingID).CurrentBid)

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, resp["data"].([]any))

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/categories/EL", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 1)

	// closed listings still take comments
	_, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/newComment", aliceToken, map[string]any{"listing_id": listingID, "content": "Thanks!"})
	require.Equal(t, http.StatusCreated, w.Code)
	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/auction/"+listingID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := resp["data"].([]any)
	require.Len(t, comments, 1)
	require.Equal(t, "alice", comments[0].(map[string]any)["author_username"])
}

func TestListingQueries(t *testing.T) {
	app := SetupTestRouter(t, nil)
	sellerToken, _ := app.registerUser(t, "seller")

	toy := app.createListing(t, sellerToken, "Kite", 5, "Toys")
	jacket := app.createListing(t, sellerToken, "Jacket", 40, "FA")
	app.createListing(t, sellerToken, "Vase", 12, "")

	resp, w := app.ExecuteRequestAndParse(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 3)

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/?category=TO", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listings := resp["data"].([]any)
	require.Len(t, listings, 1)
	require.Equal(t, toy, listings[0].(map[string]any)["id"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/categories/Fashion", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, jacket, resp["data"].([]any)[0].(map[string]any)["id"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/categories/OT", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 1)

	_, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/?category=Boats", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 5)

	_, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/auction/missing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	resp, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/newListing", sellerToken, map[string]any{
		"title": "Boat", "description": "Small boat", "starting_bid": 100, "image_url": "not a url",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid listing details", resp["message"])
	require.Equal(t, "Boat", resp["form"].(map[string]any)["title"])
}

func TestWatchlistFlow(t *testing.T) {
	app := SetupTestRouter(t, nil)
	sellerToken, _ := app.registerUser(t, "seller")
	aliceToken, _ := app.registerUser(t, "alice")
	listingID := app.createListing(t, sellerToken, "Clock", 30, "HO")

	resp, w := app.ExecuteRequestAndParse(t, http.MethodPost, "/watchListing", aliceToken, map[string]any{"listing_id": listingID})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["data"].(map[string]any)["watched"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/myWatchList", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 1)

	resp, _ = app.ExecuteRequestAndParse(t, http.MethodGet, "/auction/"+listingID, aliceToken, nil)
	require.Equal(t, true, resp["data"].(map[string]any)["watched"])

	// anonymous viewers get no watched flag
	resp, _ = app.ExecuteRequestAndParse(t, http.MethodGet, "/auction/"+listingID, "", nil)
	require.NotContains(t, resp["data"].(map[string]any), "watched")

	resp, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/watchListing", aliceToken, map[string]any{"listing_id": listingID})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, resp["data"].(map[string]any)["watched"])

	resp, _ = app.ExecuteRequestAndParse(t, http.MethodGet, "/myWatchList", aliceToken, nil)
	require.Empty(t, resp["data"].([]any))

	_, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/watchListing", aliceToken, map[string]any{"listing_id": "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionFlow(t *testing.T) {
	app := SetupTestRouter(t, nil)
	token, _ := app.registerUser(t, "alice")

	resp, w := app.ExecuteRequestAndParse(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "secret1", "confirmation": "secret1",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "username already taken", resp["message"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "secret1", "confirmation": "secret2",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid registration details", resp["message"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "invalid username and/or password", resp["message"])

	resp, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	loginToken := resp["data"].(map[string]any)["token"].(string)

	_, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/logout", loginToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/myBids", loginToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	// the registration session is still valid
	_, w = app.ExecuteRequestAndParse(t, http.MethodGet, "/myBids", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = app.ExecuteRequestAndParse(t, http.MethodPost, "/newListing", "", map[string]any{"title": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBidRateLimit(t *testing.T) {
	// two registrations drain the shared client IP bucket, bids use the user's own bucket
	app := SetupTestRouter(t, server.NewRateLimiter(0.001, 2))
	sellerToken, _ := app.registerUser(t, "seller")
	aliceToken, _ := app.registerUser(t, "alice")
	listingID := app.createListing(t, sellerToken, "Pen", 1, "OT")

	statuses := make([]int, 0, 3)
	for _, amount := range []float64{2, 3, 4} {
		_, w := app.ExecuteRequestAndParse(t, http.MethodPost, "/bid", aliceToken, map[string]any{"listing_id": listingID, "amount": amount})
		statuses = append(statuses, w.Code)
	}
	require.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, statuses)
}

func TestConcurrentBids(t *testing.T) {
	app := SetupTestRouter(t, nil)
	sellerToken, _ := app.registerUser(t, "seller")
	listingID := app.createListing(t, sellerToken, "Painting", 1, "HO")

	const bidders = 4
	tokens := make([]string, bidders)
	for i := range tokens {
		tokens[i], _ = app.registerUser(t, fmt.Sprintf("bidder%d", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []float64
	)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 1; j <= 25; j++ {
				amount := float64(j*bidders + i + 1)
				_, w := app.ExecuteRequestAndParse(t, http.MethodPost, "/bid", tokens[i], map[string]any{"listing_id": listingID, "amount": amount})
				if w.Code == http.StatusCreated {
					mu.Lock()
					accepted = append(accepted, amount)
					mu.Unlock()
				}
			}
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, accepted)
	highest := accepted[0]
	for _, a := range accepted {
		if a > highest {
			highest = a
		}
	}
	require.Equal(t, highest, *app.listing(t, listingID).CurrentBid)

	resp, w := app.ExecuteRequestAndParse(t, http.MethodGet, "/auction/"+listingID+"/bids", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := resp["data"].([]any)
	require.Len(t, history, len(accepted))
	for i := 1; i < len(history); i++ {
		prev := history[i-1].(map[string]any)["amount"].(float64)
		cur := history[i].(map[string]any)["amount"].(float64)
		require.Greater(t, cur, prev)
	}
}
