package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateUser   = errors.New("username already taken")
)

// Validation errors, surfaced to the caller together with the submitted form
var (
	ErrInvalidBid          = errors.New("invalid bid")
	ErrInvalidListing      = errors.New("invalid listing")
	ErrInvalidComment      = errors.New("invalid comment")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// business logic errors
var (
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrListingClosed = errors.New("listing is closed")
)

// Authorization errors
var (
	ErrNotSeller          = errors.New("only the seller may close this listing")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username and/or password")
	ErrRateLimited        = errors.New("too many requests")
)
