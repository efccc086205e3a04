package models

import (
	"fmt"
	"math"
	"time"

	"auctions/internal/auctionerrors"
)

// User represents a participant in the auction
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Listing represents an item up for auction
type Listing struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	StartingBid     float64   `json:"starting_bid" db:"starting_bid"`
	CurrentBid      *float64  `json:"current_bid" db:"current_bid"`
	ImageURL        *string   `json:"image_url" db:"image_url"`
	Category        Category  `json:"category" db:"category"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	SellerID        string    `json:"seller_id" db:"seller_id"`
	HighestBidderID *string   `json:"highest_bidder_id" db:"highest_bidder_id"`
	Active          bool      `json:"active" db:"active"`
}

// Bid represents a user's offer on a listing. Bids are never updated once stored.
type Bid struct {
	ID        string    `json:"id" db:"id"`
	ListingID string    `json:"listing_id" db:"listing_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Comment is a free-text remark left on a listing
type Comment struct {
	ID             string    `json:"id" db:"id"`
	ListingID      string    `json:"listing_id" db:"listing_id"`
	AuthorID       string    `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ListingFilter narrows ListListings. Zero value matches every listing.
type ListingFilter struct {
	Category   Category
	ActiveOnly bool
}

// Matches reports whether l passes the filter
func (f ListingFilter) Matches(l Listing) bool {
	if f.ActiveOnly && !l.Active {
		return false
	}
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	return true
}

// ListingDetail is everything the listing page shows
type ListingDetail struct {
	Listing               Listing   `json:"listing"`
	SellerUsername        string    `json:"seller_username"`
	HighestBidderUsername *string   `json:"highest_bidder_username"`
	MinimumBid            float64   `json:"minimum_bid"`
	BidCount              int       `json:"bid_count"`
	Comments              []Comment `json:"comments"`
	// Watched is nil for anonymous viewers
	Watched *bool `json:"watched,omitempty"`
}

// PriceToBeat returns the amount a new bid has to exceed
func (l Listing) PriceToBeat() float64 {
	if l.CurrentBid != nil {
		return *l.CurrentBid
	}
	return l.StartingBid
}

// CheckBid applies the acceptance rule: the listing must be active and the
// amount strictly greater than the current bid, or the starting bid when
// nobody has bid yet.
func (l Listing) CheckBid(amount float64) error {
	if !l.Active {
		return fmt.Errorf("%w - listing %s no longer accepts bids", auctionerrors.ErrListingClosed, l.ID)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}
	if current := l.PriceToBeat(); amount <= current {
		return fmt.Errorf("%w - current highest bid is %.2f", auctionerrors.ErrBidTooLow, current)
	}
	return nil
}

// ApplyBid records an accepted bid on the listing
func (l *Listing) ApplyBid(bid Bid) {
	amount := bid.Amount
	bidder := bid.UserID
	l.CurrentBid = &amount
	l.HighestBidderID = &bidder
}
