package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"auctions/internal/auctionerrors"
	model "auctions/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	userColumns    = `id, username, email, password_hash, created_at`
	listingColumns = `id, title, description, starting_bid, current_bid, image_url, category, created_at, seller_id, highest_bidder_id, active`
	// same columns, qualified for joins against the listings table aliased as l
	listingColumnsL = `l.id, l.title, l.description, l.starting_bid, l.current_bid, l.image_url, l.category, l.created_at, l.seller_id, l.highest_bidder_id, l.active`
)

// Postgres error codes the store translates into domain errors
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresRepo implements AuctionDB on top of PostgreSQL
type PostgresRepo struct {
	db *sqlx.DB
}

// NewPostgresRepo creates a repository backed by db
func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// CreateUser inserts a user; a username collision yields ErrDuplicateUser
func (r *PostgresRepo) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.db.NamedExecContext(ctx, `
	INSERT INTO users (id, username, email, password_hash, created_at)
	VALUES (:id, :username, :email, :password_hash, :created_at)`, user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrDuplicateUser)
		}
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

// GetUserByID returns a user by id
func (r *PostgresRepo) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	if !isUUID(userID) {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// GetUserByUsername returns a user by username
func (r *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("get user %s: %w", username, auctionerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return user, nil
}

// CreateListing inserts a listing
func (r *PostgresRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	_, err := r.db.NamedExecContext(ctx, `
	INSERT INTO listings (`+listingColumns+`)
	VALUES (:id, :title, :description, :starting_bid, :current_bid, :image_url, :category, :created_at, :seller_id, :highest_bidder_id, :active)`, listing)
	if err != nil {
		return fmt.Errorf("create listing %s: %w", listing.ID, translateFKError(err))
	}
	return nil
}

// GetListing returns a listing by id
func (r *PostgresRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	if !isUUID(listingID) {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	var listing model.Listing
	err := r.db.GetContext(ctx, &listing, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, err)
	}
	return listing, nil
}

// ListListings returns the listings matching filter, newest first
func (r *PostgresRepo) ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.ActiveOnly {
		conditions = append(conditions, "active = TRUE")
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// RecordBid locks the listing row, re-checks the bid against the locked
// state, then stores the bid and the new current bid in the same transaction.
func (r *PostgresRepo) RecordBid(ctx context.Context, bid model.Bid) (model.Listing, error) {
	if !isUUID(bid.ListingID) {
		return model.Listing{}, fmt.Errorf("record bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Listing{}, fmt.Errorf("record bid: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var listing model.Listing
	err = tx.GetContext(ctx, &listing, `SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, bid.ListingID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, fmt.Errorf("record bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, fmt.Errorf("record bid: lock listing %s: %w", bid.ListingID, err)
	}

	if err := listing.CheckBid(bid.Amount); err != nil {
		return model.Listing{}, fmt.Errorf("record bid for listing %s: %w", bid.ListingID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bids (id, listing_id, user_id, amount, created_at) VALUES ($1, $2, $3, $4, $5)`,
		bid.ID, bid.ListingID, bid.UserID, bid.Amount, bid.CreatedAt,
	); err != nil {
		return model.Listing{}, fmt.Errorf("record bid: insert: %w", translateFKError(err))
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE listings SET current_bid = $1, highest_bidder_id = $2 WHERE id = $3`,
		bid.Amount, bid.UserID, bid.ListingID,
	); err != nil {
		return model.Listing{}, fmt.Errorf("record bid: update listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Listing{}, fmt.Errorf("record bid: commit: %w", err)
	}

	listing.ApplyBid(bid)
	return listing, nil
}

// GetBidsByListing returns all bids for a listing, oldest first
func (r *PostgresRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	bids := []model.Bid{}
	if !isUUID(listingID) {
		return bids, nil
	}
	err := r.db.SelectContext(ctx, &bids, `
	SELECT id, listing_id, user_id, amount, created_at
	FROM bids
	WHERE listing_id = $1
	ORDER BY created_at, id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

// GetListingsByBidder returns all listings a user has bid on, newest first
func (r *PostgresRepo) GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := r.db.SelectContext(ctx, &listings, `
	SELECT `+listingColumnsL+`
	FROM listings l
	WHERE l.id IN (SELECT listing_id FROM bids WHERE user_id = $1)
	ORDER BY l.created_at DESC, l.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get listings for bidder %s: %w", userID, err)
	}
	return listings, nil
}

// CloseListing marks a listing inactive and returns its final state
func (r *PostgresRepo) CloseListing(ctx context.Context, listingID string) (model.Listing, error) {
	if !isUUID(listingID) {
		return model.Listing{}, fmt.Errorf("close listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	var listing model.Listing
	err := r.db.GetContext(ctx, &listing,
		`UPDATE listings SET active = FALSE WHERE id = $1 RETURNING `+listingColumns, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, fmt.Errorf("close listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, fmt.Errorf("close listing %s: %w", listingID, err)
	}
	return listing, nil
}

// AddComment inserts a comment and returns it joined with the author's username
func (r *PostgresRepo) AddComment(ctx context.Context, comment model.Comment) (model.Comment, error) {
	if !isUUID(comment.ListingID) {
		return model.Comment{}, fmt.Errorf("add comment to listing %s: %w", comment.ListingID, auctionerrors.ErrListingNotFound)
	}
	var stored model.Comment
	err := r.db.GetContext(ctx, &stored, `
	WITH inserted AS (
		INSERT INTO comments (id, listing_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, listing_id, author_id, content, created_at
	)
	SELECT i.id, i.listing_id, i.author_id, u.username AS author_username, i.content, i.created_at
	FROM inserted i JOIN users u ON u.id = i.author_id`,
		comment.ID, comment.ListingID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		return model.Comment{}, fmt.Errorf("add comment to listing %s: %w", comment.ListingID, translateFKError(err))
	}
	return stored, nil
}

// GetCommentsByListing returns the comments on a listing, oldest first
func (r *PostgresRepo) GetCommentsByListing(ctx context.Context, listingID string) ([]model.Comment, error) {
	comments := []model.Comment{}
	if !isUUID(listingID) {
		return comments, nil
	}
	err := r.db.SelectContext(ctx, &comments, `
	SELECT c.id, c.listing_id, c.author_id, u.username AS author_username, c.content, c.created_at
	FROM comments c JOIN users u ON u.id = c.author_id
	WHERE c.listing_id = $1
	ORDER BY c.created_at, c.id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("get comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

// ToggleWatch removes the (user, listing) pair if present, otherwise inserts
// it, and reports the resulting state.
func (r *PostgresRepo) ToggleWatch(ctx context.Context, userID, listingID string) (bool, error) {
	if !isUUID(listingID) {
		return false, fmt.Errorf("toggle watch on listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("toggle watch: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND listing_id = $2`, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("toggle watch: delete: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle watch: rows affected: %w", err)
	}

	watched := removed == 0
	if watched {
		// a concurrent toggle may have inserted the pair since the delete; it stays watched
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO watchlist (user_id, listing_id, added_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, listing_id) DO NOTHING`,
			userID, listingID, time.Now().UTC(),
		); err != nil {
			return false, fmt.Errorf("toggle watch: insert: %w", translateFKError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("toggle watch: commit: %w", err)
	}
	return watched, nil
}

// IsWatching reports whether the listing is on the user's watchlist
func (r *PostgresRepo) IsWatching(ctx context.Context, userID, listingID string) (bool, error) {
	if !isUUID(listingID) {
		return false, nil
	}
	var watched bool
	err := r.db.GetContext(ctx, &watched,
		`SELECT EXISTS (SELECT 1 FROM watchlist WHERE user_id = $1 AND listing_id = $2)`, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("check watch on listing %s: %w", listingID, err)
	}
	return watched, nil
}

// GetWatchlist returns the user's watched listings, most recently added first
func (r *PostgresRepo) GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := r.db.SelectContext(ctx, &listings, `
	SELECT `+listingColumnsL+`
	FROM listings l JOIN watchlist w ON w.listing_id = l.id
	WHERE w.user_id = $1
	ORDER BY w.added_at DESC, l.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get watchlist for user %s: %w", userID, err)
	}
	return listings, nil
}

// translateFKError maps a foreign key violation to the not-found error of the
// referenced entity. Constraint names follow Postgres' <table>_<column>_fkey default.
func translateFKError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqForeignKeyViolation {
		return err
	}
	if strings.HasSuffix(pqErr.Constraint, "_listing_id_fkey") {
		return auctionerrors.ErrListingNotFound
	}
	return auctionerrors.ErrUserNotFound
}

// isUUID guards uuid columns against malformed ids coming from request paths
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
