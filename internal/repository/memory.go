package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
)

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu        sync.RWMutex
	users     map[string]model.User           // key: userID
	usernames map[string]string               // key: username -> userID
	listings  map[string]model.Listing        // key: listingID
	bids      map[string][]model.Bid          // key: listingID -> bids in arrival order
	userBids  map[string][]string             // key: userID -> listingIDs the user has bid on
	comments  map[string][]model.Comment      // key: listingID
	watchlist map[string]map[string]time.Time // key: userID -> listingID -> added at
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:     make(map[string]model.User),
		usernames: make(map[string]string),
		listings:  make(map[string]model.Listing),
		bids:      make(map[string][]model.Bid),
		userBids:  make(map[string][]string),
		comments:  make(map[string][]model.Comment),
		watchlist: make(map[string]map[string]time.Time),
	}
}

// CreateUser stores a new user; usernames are unique
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usernames[user.Username]; taken {
		return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrDuplicateUser)
	}
	r.users[user.ID] = user
	r.usernames[user.Username] = user.ID
	return nil
}

// GetUserByID returns a user by id
func (r *MemoryRepo) GetUserByID(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername returns a user by username
func (r *MemoryRepo) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", username, auctionerrors.ErrUserNotFound)
	}
	return r.users[id], nil
}

// CreateListing stores a new listing for an existing seller
func (r *MemoryRepo) CreateListing(_ context.Context, listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[listing.SellerID]; !ok {
		return fmt.Errorf("create listing for seller %s: %w", listing.SellerID, auctionerrors.ErrUserNotFound)
	}
	r.listings[listing.ID] = listing
	return nil
}

// GetListing returns a listing by id
func (r *MemoryRepo) GetListing(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return listing, nil
}

// ListListings returns the listings matching filter, newest first
func (r *MemoryRepo) ListListings(_ context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if filter.Matches(l) {
			out = append(out, l)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// RecordBid checks and applies a bid while holding the write lock, so two
// bids racing on one listing can never both be accepted against the same price.
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[bid.ListingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("record bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}
	if _, ok := r.users[bid.UserID]; !ok {
		return model.Listing{}, fmt.Errorf("record bid by user %s: %w", bid.UserID, auctionerrors.ErrUserNotFound)
	}
	if err := listing.CheckBid(bid.Amount); err != nil {
		return model.Listing{}, fmt.Errorf("record bid for listing %s: %w", bid.ListingID, err)
	}

	r.bids[bid.ListingID] = append(r.bids[bid.ListingID], bid)
	listing.ApplyBid(bid)
	r.listings[bid.ListingID] = listing

	for _, id := range r.userBids[bid.UserID] {
		if id == bid.ListingID {
			return listing, nil
		}
	}
	r.userBids[bid.UserID] = append(r.userBids[bid.UserID], bid.ListingID)

	return listing, nil
}

// GetBidsByListing returns all bids for a listing, oldest first
func (r *MemoryRepo) GetBidsByListing(_ context.Context, listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Bid{}, r.bids[listingID]...), nil
}

// GetListingsByBidder returns all listings a user has bid on, newest first
func (r *MemoryRepo) GetListingsByBidder(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listingIDs := r.userBids[userID]
	out := make([]model.Listing, 0, len(listingIDs))
	for _, id := range listingIDs {
		if listing, exists := r.listings[id]; exists {
			out = append(out, listing)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// CloseListing marks a listing inactive
func (r *MemoryRepo) CloseListing(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("close listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	listing.Active = false
	r.listings[listingID] = listing
	return listing, nil
}

// AddComment appends a comment and returns it with the author's username filled in
func (r *MemoryRepo) AddComment(_ context.Context, comment model.Comment) (model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[comment.ListingID]; !ok {
		return model.Comment{}, fmt.Errorf("add comment to listing %s: %w", comment.ListingID, auctionerrors.ErrListingNotFound)
	}
	author, ok := r.users[comment.AuthorID]
	if !ok {
		return model.Comment{}, fmt.Errorf("add comment by user %s: %w", comment.AuthorID, auctionerrors.ErrUserNotFound)
	}
	comment.AuthorUsername = author.Username
	r.comments[comment.ListingID] = append(r.comments[comment.ListingID], comment)
	return comment, nil
}

// GetCommentsByListing returns the comments on a listing, oldest first
func (r *MemoryRepo) GetCommentsByListing(_ context.Context, listingID string) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Comment{}, r.comments[listingID]...), nil
}

// ToggleWatch adds the listing to the user's watchlist, or removes it if it
// is already there, and returns the new state.
func (r *MemoryRepo) ToggleWatch(_ context.Context, userID, listingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listingID]; !ok {
		return false, fmt.Errorf("toggle watch on listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if _, ok := r.users[userID]; !ok {
		return false, fmt.Errorf("toggle watch for user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}

	watched := r.watchlist[userID]
	if _, ok := watched[listingID]; ok {
		delete(watched, listingID)
		return false, nil
	}
	if watched == nil {
		watched = make(map[string]time.Time)
		r.watchlist[userID] = watched
	}
	watched[listingID] = time.Now().UTC()
	return true, nil
}

// IsWatching reports whether the listing is on the user's watchlist
func (r *MemoryRepo) IsWatching(_ context.Context, userID, listingID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.watchlist[userID][listingID]
	return ok, nil
}

// GetWatchlist returns the user's watched listings, most recently added first
func (r *MemoryRepo) GetWatchlist(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	watched := r.watchlist[userID]
	ids := make([]string, 0, len(watched))
	for id := range watched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if watched[ids[i]].Equal(watched[ids[j]]) {
			return ids[i] < ids[j]
		}
		return watched[ids[i]].After(watched[ids[j]])
	})

	out := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		if listing, ok := r.listings[id]; ok {
			out = append(out, listing)
		}
	}
	return out, nil
}

func sortNewestFirst(listings []model.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ID < listings[j].ID
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
}
