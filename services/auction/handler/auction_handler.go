package handler

import (
	"context"
	"net/http"

	auction "auctions/internal/auctionService"
	"auctions/internal/auctionerrors"
	auth "auctions/internal/authService"
	model "auctions/internal/models"
	"auctions/services/auction/helpers"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -destination=mock_auction_service.go -package=handler auctions/services/auction/handler AuctionServiceInterface

type AuctionServiceInterface interface {
	CreateListing(ctx context.Context, sellerID string, in auction.NewListingInput) (model.Listing, error)
	GetListingDetail(ctx context.Context, listingID, viewerID string) (model.ListingDetail, error)
	ListListings(ctx context.Context, q auction.ListingQuery) ([]model.Listing, error)
	Categories() []model.CategoryInfo
	PlaceBid(ctx context.Context, listingID, userID string, amount float64) (model.Listing, error)
	CloseListing(ctx context.Context, listingID, userID string) (model.Listing, error)
	ToggleWatch(ctx context.Context, userID, listingID string) (bool, error)
	GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error)
	AddComment(ctx context.Context, listingID, authorID, content string) (model.Comment, error)
	GetComments(ctx context.Context, listingID string) ([]model.Comment, error)
	GetBidsForListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// IndexHandler handles GET /
func (h *AuctionHandler) IndexHandler(c *gin.Context) {
	var q helpers.ListingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		helpers.HandleBindError(c, "IndexHandler", err, nil)
		return
	}

	listings, err := h.service.ListListings(c.Request.Context(), auction.ListingQuery{Category: q.Category, ActiveOnly: true})
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("IndexHandler: error listing active listings", map[string]any{"category": q.Category, "error": err.Error()})
		return
	}

	respondListings(c, "IndexHandler", listings, map[string]any{"category": q.Category})
}

// CategoriesHandler handles GET /categories
func (h *AuctionHandler) CategoriesHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, h.service.Categories(), "categories retrieved successfully")
}

// CategoryListingsHandler handles GET /categories/:category
func (h *AuctionHandler) CategoryListingsHandler(c *gin.Context) {
	category := c.Param("category")
	listings, err := h.service.ListListings(c.Request.Context(), auction.ListingQuery{Category: category})
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("CategoryListingsHandler: error listing category", map[string]any{"category": category, "error": err.Error()})
		return
	}

	respondListings(c, "CategoryListingsHandler", listings, map[string]any{"category": category})
}

// ListingDetailHandler handles GET /auction/:listing_id
func (h *AuctionHandler) ListingDetailHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	detail, err := h.service.GetListingDetail(c.Request.Context(), listingID, helpers.CurrentUserID(c))
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("ListingDetailHandler: error retrieving listing", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}

	if detail.Comments == nil {
		detail.Comments = []model.Comment{}
	}
	utils.JSONResponse(c, http.StatusOK, detail, "listing retrieved successfully")
}

// GetBidsByListingHandler handles GET /auction/:listing_id/bids
func (h *AuctionHandler) GetBidsByListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bids, err := h.service.GetBidsForListing(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("GetBidsByListingHandler: error retrieving bids", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByListingHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(bids),
	})
}

// GetCommentsHandler handles GET /auction/:listing_id/comments
func (h *AuctionHandler) GetCommentsHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	comments, err := h.service.GetComments(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("GetCommentsHandler: error retrieving comments", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}

	if comments == nil {
		comments = []model.Comment{}
	}
	utils.JSONResponse(c, http.StatusOK, comments, "comments retrieved successfully")
}

// NewListingHandler handles POST /newListing
func (h *AuctionHandler) NewListingHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req helpers.NewListingRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "NewListingHandler", err, req)
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), identity.UserID, auction.NewListingInput{
		Title:       req.Title,
		Description: req.Description,
		StartingBid: req.StartingBid,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	})
	if err != nil {
		helpers.HandleServiceError(c, err, req)
		utils.Warn("NewListingHandler: failed to create listing", map[string]any{
			"handler":   "NewListingHandler",
			"seller_id": identity.UserID,
			"error":     err.Error(),
		})
		return
	}

	c.Header("Location", "/auction/"+listing.ID)
	utils.JSONResponse(c, http.StatusCreated, listing, "listing created successfully")
	helpers.LogSuccess("NewListingHandler", "listing created successfully", map[string]any{
		"listing_id": listing.ID,
		"seller_id":  identity.UserID,
		"category":   string(listing.Category),
	})
}

// PlaceBidHandler handles POST /bid
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err, req)
		return
	}

	listing, err := h.service.PlaceBid(c.Request.Context(), req.ListingID, identity.UserID, req.Amount)
	if err != nil {
		status, _ := helpers.HandleServiceError(c, err, req)
		fields := map[string]any{
			"handler":    "PlaceBidHandler",
			"listing_id": req.ListingID,
			"user_id":    identity.UserID,
			"amount":     req.Amount,
			"error":      err.Error(),
		}
		if status >= http.StatusInternalServerError {
			utils.Error("PlaceBidHandler: failed to record bid", fields)
		} else {
			utils.Warn("PlaceBidHandler: bid rejected", fields)
		}
		return
	}

	resp := helpers.BidResponse{
		ListingID:       req.ListingID,
		Amount:          req.Amount,
		CurrentBid:      listing.PriceToBeat(),
		HighestBidderID: identity.UserID,
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"listing_id": req.ListingID,
		"user_id":    identity.UserID,
		"amount":     req.Amount,
	})
}

// CloseListingHandler handles POST /closeBid
func (h *AuctionHandler) CloseListingHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req helpers.ListingActionRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "CloseListingHandler", err, nil)
		return
	}

	listing, err := h.service.CloseListing(c.Request.Context(), req.ListingID, identity.UserID)
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("CloseListingHandler: failed to close listing", map[string]any{
			"listing_id": req.ListingID,
			"user_id":    identity.UserID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "listing closed successfully")
	helpers.LogSuccess("CloseListingHandler", "listing closed successfully", map[string]any{
		"listing_id": listing.ID,
		"seller_id":  identity.UserID,
	})
}

// WatchListingHandler handles POST /watchListing
func (h *AuctionHandler) WatchListingHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req helpers.ListingActionRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "WatchListingHandler", err, nil)
		return
	}

	watched, err := h.service.ToggleWatch(c.Request.Context(), identity.UserID, req.ListingID)
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("WatchListingHandler: failed to toggle watch", map[string]any{
			"listing_id": req.ListingID,
			"user_id":    identity.UserID,
			"error":      err.Error(),
		})
		return
	}

	message := "listing removed from watchlist"
	if watched {
		message = "listing added to watchlist"
	}
	utils.JSONResponse(c, http.StatusOK, helpers.WatchResponse{ListingID: req.ListingID, Watched: watched}, message)
	helpers.LogSuccess("WatchListingHandler", message, map[string]any{
		"listing_id": req.ListingID,
		"user_id":    identity.UserID,
	})
}

// WatchlistHandler handles GET /myWatchList
func (h *AuctionHandler) WatchlistHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	listings, err := h.service.GetWatchlist(c.Request.Context(), identity.UserID)
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("WatchlistHandler: error retrieving watchlist", map[string]any{"user_id": identity.UserID, "error": err.Error()})
		return
	}

	respondListings(c, "WatchlistHandler", listings, map[string]any{"user_id": identity.UserID})
}

// MyBidsHandler handles GET /myBids
func (h *AuctionHandler) MyBidsHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	listings, err := h.service.GetListingsByBidder(c.Request.Context(), identity.UserID)
	if err != nil {
		helpers.HandleServiceError(c, err, nil)
		utils.Warn("MyBidsHandler: error retrieving listings", map[string]any{"user_id": identity.UserID, "error": err.Error()})
		return
	}

	respondListings(c, "MyBidsHandler", listings, map[string]any{"user_id": identity.UserID})
}

// NewCommentHandler handles POST /newComment
func (h *AuctionHandler) NewCommentHandler(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req helpers.NewCommentRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "NewCommentHandler", err, req)
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), req.ListingID, identity.UserID, req.Content)
	if err != nil {
		helpers.HandleServiceError(c, err, req)
		utils.Warn("NewCommentHandler: failed to add comment", map[string]any{
			"listing_id": req.ListingID,
			"user_id":    identity.UserID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, comment, "comment added successfully")
	helpers.LogSuccess("NewCommentHandler", "comment added successfully", map[string]any{
		"comment_id": comment.ID,
		"listing_id": req.ListingID,
		"user_id":    identity.UserID,
	})
}

func respondListings(c *gin.Context, handlerName string, listings []model.Listing, fields map[string]any) {
	if listings == nil {
		listings = []model.Listing{}
	}
	utils.JSONResponse(c, http.StatusOK, listings, "listings retrieved successfully")
	fields["count"] = len(listings)
	helpers.LogSuccess(handlerName, "listings retrieved successfully", fields)
}

// requireIdentity writes a 401 when the route was reached without a session
func requireIdentity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := helpers.CurrentIdentity(c)
	if !ok {
		helpers.HandleServiceError(c, auctionerrors.ErrUnauthenticated, nil)
		return auth.Identity{}, false
	}
	return identity, true
}
