package repository

import (
	"context"

	model "auctions/internal/models"
)

//go:generate mockgen -destination=mock_repository.go -package=repository auctions/internal/repository AuctionDB

// UserStore persists registered users
type UserStore interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// ListingStore persists listings and everything attached to them: bids,
// comments and the watchlist relation.
type ListingStore interface {
	CreateListing(ctx context.Context, listing model.Listing) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)
	// RecordBid re-checks the bid against the stored listing and, if it is
	// still acceptable, stores it and moves the listing's current bid in one
	// atomic step.
	RecordBid(ctx context.Context, bid model.Bid) (model.Listing, error)
	GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)
	CloseListing(ctx context.Context, listingID string) (model.Listing, error)
	AddComment(ctx context.Context, comment model.Comment) (model.Comment, error)
	GetCommentsByListing(ctx context.Context, listingID string) ([]model.Comment, error)
	ToggleWatch(ctx context.Context, userID, listingID string) (bool, error)
	IsWatching(ctx context.Context, userID, listingID string) (bool, error)
	GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error)
}

// AuctionDB defines the storage interface for the auction system
type AuctionDB interface {
	UserStore
	ListingStore
}
