package auction

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
)

const (
	maxTitleLength       = 64
	maxDescriptionLength = 300
	maxImageURLLength    = 200
	maxCommentLength     = 600
)

// NewListingInput is the form a seller submits to open an auction.
// Category accepts a code ("EL") or a label ("Electronics"); empty means Others.
type NewListingInput struct {
	Title       string
	Description string
	StartingBid float64
	ImageURL    string
	Category    string
}

// ListingQuery selects listings for the index and category pages
type ListingQuery struct {
	Category   string
	ActiveOnly bool
}

// validateNewListing trims the input and resolves its category
func validateNewListing(in NewListingInput) (NewListingInput, model.Category, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	switch {
	case in.Title == "":
		return in, "", fmt.Errorf("service: %w - title is required", auctionerrors.ErrInvalidListing)
	case utf8.RuneCountInString(in.Title) > maxTitleLength:
		return in, "", fmt.Errorf("service: %w - title longer than %d characters", auctionerrors.ErrInvalidListing, maxTitleLength)
	case in.Description == "":
		return in, "", fmt.Errorf("service: %w - description is required", auctionerrors.ErrInvalidListing)
	case utf8.RuneCountInString(in.Description) > maxDescriptionLength:
		return in, "", fmt.Errorf("service: %w - description longer than %d characters", auctionerrors.ErrInvalidListing, maxDescriptionLength)
	case !isPositiveAmount(in.StartingBid):
		return in, "", fmt.Errorf("service: %w - starting bid must be a positive amount", auctionerrors.ErrInvalidListing)
	}

	if in.ImageURL != "" {
		if err := validateImageURL(in.ImageURL); err != nil {
			return in, "", err
		}
	}

	category := model.DefaultCategory
	if strings.TrimSpace(in.Category) != "" {
		parsed, err := model.ParseCategory(in.Category)
		if err != nil {
			return in, "", fmt.Errorf("service: %w", err)
		}
		category = parsed
	}
	return in, category, nil
}

func validateImageURL(raw string) error {
	if len(raw) > maxImageURLLength {
		return fmt.Errorf("service: %w - image URL longer than %d characters", auctionerrors.ErrInvalidListing, maxImageURLLength)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service: %w - image URL must be an absolute http(s) URL", auctionerrors.ErrInvalidListing)
	}
	return nil
}

// validateBid checks the input shape only; the amount rule needs the listing
func validateBid(listingID, userID string, amount float64) error {
	if listingID == "" || userID == "" {
		return fmt.Errorf("service: %w - missing listingID or userID", auctionerrors.ErrInvalidBid)
	}
	if !isPositiveAmount(amount) {
		return fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}
	return nil
}

// validateComment returns the trimmed content
func validateComment(listingID, authorID, content string) (string, error) {
	content = strings.TrimSpace(content)
	switch {
	case listingID == "" || authorID == "":
		return "", fmt.Errorf("service: %w - missing listingID or authorID", auctionerrors.ErrInvalidComment)
	case content == "":
		return "", fmt.Errorf("service: %w - comment is empty", auctionerrors.ErrInvalidComment)
	case utf8.RuneCountInString(content) > maxCommentLength:
		return "", fmt.Errorf("service: %w - comment longer than %d characters", auctionerrors.ErrInvalidComment, maxCommentLength)
	}
	return content, nil
}

func isPositiveAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
