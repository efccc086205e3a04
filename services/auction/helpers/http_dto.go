package helpers

import (
	"time"

	model "auctions/internal/models"
)

// Request DTOs. Each accepts a JSON body or a form post.

type PlaceBidRequest struct {
	ListingID string  `form:"listing_id" json:"listing_id" binding:"required"`
	Amount    float64 `form:"amount" json:"amount" binding:"required,gt=0"`
}

type ListingActionRequest struct {
	ListingID string `form:"listing_id" json:"listing_id" binding:"required"`
}

type NewListingRequest struct {
	Title       string  `form:"title" json:"title" binding:"required,max=64"`
	Description string  `form:"description" json:"description" binding:"required,max=300"`
	StartingBid float64 `form:"starting_bid" json:"starting_bid" binding:"required,gt=0"`
	ImageURL    string  `form:"image_url" json:"image_url" binding:"omitempty,max=200"`
	Category    string  `form:"category" json:"category"`
}

type NewCommentRequest struct {
	ListingID string `form:"listing_id" json:"listing_id" binding:"required"`
	Content   string `form:"content" json:"content" binding:"required,max=600"`
}

type RegisterRequest struct {
	Username     string `form:"username" json:"username" binding:"required,max=150"`
	Email        string `form:"email" json:"email" binding:"required,email"`
	Password     string `form:"password" json:"password" binding:"required"`
	Confirmation string `form:"confirmation" json:"confirmation" binding:"required"`
}

type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// ListingsQuery is the optional filter on the index page
type ListingsQuery struct {
	Category string `form:"category"`
}

// Response DTOs

type BidResponse struct {
	ListingID       string  `json:"listing_id"`
	Amount          float64 `json:"amount"`
	CurrentBid      float64 `json:"current_bid"`
	HighestBidderID string  `json:"highest_bidder_id"`
}

type WatchResponse struct {
	ListingID string `json:"listing_id"`
	Watched   bool   `json:"watched"`
}

type SessionResponse struct {
	Token     string     `json:"token"`
	ExpiresAt string     `json:"expires_at"`
	User      model.User `json:"user"`
}

// NewSessionResponse formats the expiry the way every other timestamp leaves the API
func NewSessionResponse(token string, expiresAt time.Time, user model.User) SessionResponse {
	return SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      user,
	}
}

// Redacted drops the passwords before the form is echoed back
func (r RegisterRequest) Redacted() RegisterRequest {
	r.Password = ""
	r.Confirmation = ""
	return r
}
