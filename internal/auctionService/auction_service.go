package auction

import (
	"context"
	"fmt"
	"time"

	"auctions/internal/auctionerrors"
	"auctions/internal/events"
	"auctions/internal/metrics"
	model "auctions/internal/models"
	"auctions/internal/repository"
	"auctions/utils"
)

// AuctionService defines the business logic of the auction: listings, bids,
// closing, watching and comments
type AuctionService struct {
	repo      repository.AuctionDB
	publisher events.Publisher
	now       func() time.Time
}

// NewAuctionService creates a new AuctionService instance. A nil publisher
// falls back to logging events.
func NewAuctionService(repo repository.AuctionDB, publisher events.Publisher) *AuctionService {
	if publisher == nil {
		publisher = events.NewLogPublisher(nil)
	}
	return &AuctionService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateListing validates the form and opens a new active listing for sellerID
func (s *AuctionService) CreateListing(ctx context.Context, sellerID string, in NewListingInput) (model.Listing, error) {
	if sellerID == "" {
		return model.Listing{}, fmt.Errorf("service: %w - missing seller", auctionerrors.ErrUnauthenticated)
	}
	in, category, err := validateNewListing(in)
	if err != nil {
		return model.Listing{}, err
	}

	listing := model.Listing{
		ID:          utils.GenerateID(),
		Title:       in.Title,
		Description: in.Description,
		StartingBid: in.StartingBid,
		Category:    category,
		CreatedAt:   s.now().UTC(),
		SellerID:    sellerID,
		Active:      true,
	}
	if in.ImageURL != "" {
		imageURL := in.ImageURL
		listing.ImageURL = &imageURL
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to create listing for seller %s: %w", sellerID, err)
	}

	metrics.RecordListingCreated()
	return listing, nil
}

// GetListing returns a single listing
func (s *AuctionService) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	if listingID == "" {
		return model.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrListingNotFound)
	}
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	return listing, nil
}

// GetListingDetail gathers everything the listing page shows. viewerID is
// empty for anonymous visitors, who get no watched flag.
func (s *AuctionService) GetListingDetail(ctx context.Context, listingID, viewerID string) (model.ListingDetail, error) {
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return model.ListingDetail{}, err
	}

	seller, err := s.repo.GetUserByID(ctx, listing.SellerID)
	if err != nil {
		return model.ListingDetail{}, fmt.Errorf("service: failed to load seller of listing %s: %w", listingID, err)
	}

	detail := model.ListingDetail{
		Listing:        listing,
		SellerUsername: seller.Username,
		MinimumBid:     listing.PriceToBeat(),
	}

	if listing.HighestBidderID != nil {
		bidder, err := s.repo.GetUserByID(ctx, *listing.HighestBidderID)
		if err != nil {
			return model.ListingDetail{}, fmt.Errorf("service: failed to load highest bidder of listing %s: %w", listingID, err)
		}
		detail.HighestBidderUsername = &bidder.Username
	}

	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return model.ListingDetail{}, fmt.Errorf("service: failed to count bids for listing %s: %w", listingID, err)
	}
	detail.BidCount = len(bids)

	comments, err := s.repo.GetCommentsByListing(ctx, listingID)
	if err != nil {
		return model.ListingDetail{}, fmt.Errorf("service: failed to get comments for listing %s: %w", listingID, err)
	}
	detail.Comments = comments

	if viewerID != "" {
		watched, err := s.repo.IsWatching(ctx, viewerID, listingID)
		if err != nil {
			return model.ListingDetail{}, fmt.Errorf("service: failed to check watchlist for listing %s: %w", listingID, err)
		}
		detail.Watched = &watched
	}

	return detail, nil
}

// ListListings returns listings newest first, optionally narrowed to one
// category and to listings still accepting bids
func (s *AuctionService) ListListings(ctx context.Context, q ListingQuery) ([]model.Listing, error) {
	filter := model.ListingFilter{ActiveOnly: q.ActiveOnly}
	if q.Category != "" {
		category, err := model.ParseCategory(q.Category)
		if err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		filter.Category = category
	}

	listings, err := s.repo.ListListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return listings, nil
}

// Categories returns every category code with its label
func (s *AuctionService) Categories() []model.CategoryInfo {
	return model.Categories()
}

// PlaceBid validates and records a user's bid on a listing and returns the
// listing as it stands after the bid
func (s *AuctionService) PlaceBid(ctx context.Context, listingID, userID string, amount float64) (model.Listing, error) {
	listing, err := s.placeBid(ctx, listingID, userID, amount)
	if err != nil {
		metrics.RecordBid(metrics.BidRejected)
		return model.Listing{}, err
	}

	metrics.RecordBid(metrics.BidAccepted)
	s.publish(ctx, events.Event{
		Type:      events.BidPlaced,
		ListingID: listingID,
		ActorID:   userID,
		Amount:    &amount,
	})
	return listing, nil
}

func (s *AuctionService) placeBid(ctx context.Context, listingID, userID string, amount float64) (model.Listing, error) {
	if err := validateBid(listingID, userID, amount); err != nil {
		return model.Listing{}, err
	}

	// reject early without a write; RecordBid re-checks against the locked row
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	if err := listing.CheckBid(amount); err != nil {
		return model.Listing{}, fmt.Errorf("service: %w", err)
	}

	bid := model.Bid{
		ID:        utils.GenerateID(),
		ListingID: listingID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: s.now().UTC(),
	}

	updated, err := s.repo.RecordBid(ctx, bid)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to record bid for listing %s by user %s: %w", listingID, userID, err)
	}
	return updated, nil
}

// CloseListing stops bidding on a listing. Only its seller may close it;
// closing an already closed listing changes nothing.
func (s *AuctionService) CloseListing(ctx context.Context, listingID, userID string) (model.Listing, error) {
	if userID == "" {
		return model.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrUnauthenticated)
	}
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, err
	}
	if listing.SellerID != userID {
		return model.Listing{}, fmt.Errorf("service: %w - user %s on listing %s", auctionerrors.ErrNotSeller, userID, listingID)
	}
	if !listing.Active {
		return listing, nil
	}

	closed, err := s.repo.CloseListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to close listing %s: %w", listingID, err)
	}

	metrics.RecordListingClosed()
	s.publish(ctx, events.Event{
		Type:      events.ListingClosed,
		ListingID: listingID,
		ActorID:   userID,
		Amount:    closed.CurrentBid,
		WinnerID:  closed.HighestBidderID,
	})
	return closed, nil
}

// ToggleWatch adds the listing to the user's watchlist or removes it, and
// returns whether the listing is watched afterwards
func (s *AuctionService) ToggleWatch(ctx context.Context, userID, listingID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("service: %w", auctionerrors.ErrUnauthenticated)
	}
	if listingID == "" {
		return false, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrListingNotFound)
	}

	watched, err := s.repo.ToggleWatch(ctx, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("service: failed to toggle watch on listing %s for user %s: %w", listingID, userID, err)
	}
	return watched, nil
}

// GetWatchlist returns the listings a user watches
func (s *AuctionService) GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w", auctionerrors.ErrUnauthenticated)
	}
	listings, err := s.repo.GetWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get watchlist for user %s: %w", userID, err)
	}
	return listings, nil
}

// AddComment posts a comment on a listing. Closed listings still accept comments.
func (s *AuctionService) AddComment(ctx context.Context, listingID, authorID, content string) (model.Comment, error) {
	content, err := validateComment(listingID, authorID, content)
	if err != nil {
		return model.Comment{}, err
	}

	stored, err := s.repo.AddComment(ctx, model.Comment{
		ID:        utils.GenerateID(),
		ListingID: listingID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.Comment{}, fmt.Errorf("service: failed to add comment to listing %s: %w", listingID, err)
	}

	s.publish(ctx, events.Event{
		Type:      events.CommentAdded,
		ListingID: listingID,
		ActorID:   authorID,
	})
	return stored, nil
}

// GetComments returns the comments on a listing, oldest first
func (s *AuctionService) GetComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	if _, err := s.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	comments, err := s.repo.GetCommentsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

// GetBidsForListing returns the bid history of a listing, oldest first
func (s *AuctionService) GetBidsForListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	if _, err := s.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

// GetListingsByBidder returns all listings a user has placed bids on
func (s *AuctionService) GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w", auctionerrors.ErrUnauthenticated)
	}
	listings, err := s.repo.GetListingsByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get listings for bidder %s: %w", userID, err)
	}
	return listings, nil
}

// publish stamps and sends an event. Delivery failures are logged only: the
// bid, close or comment has already been stored.
func (s *AuctionService) publish(ctx context.Context, event events.Event) {
	event.ID = utils.GenerateID()
	event.OccurredAt = s.now().UTC()

	if err := s.publisher.Publish(ctx, event); err != nil {
		utils.Warn("failed to publish event", map[string]any{
			"event_type": string(event.Type),
			"listing_id": event.ListingID,
			"error":      err.Error(),
		})
	}
}
