package perftests

import (
	"context"
	"fmt"
	"io"
	"time"

	auction "auctions/internal/auctionService"
	"auctions/internal/events"
	model "auctions/internal/models"
	"auctions/internal/repository"

	"github.com/sirupsen/logrus"
)

// quietPublisher drops events so benchmark output stays readable
func quietPublisher() events.Publisher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return events.NewLogPublisher(logger)
}

// setupRepo creates the repository and auction service with numUsers bidders
// and numListings active listings, each starting at startingBid
func setupRepo(numUsers, numListings int, startingBid float64) (*repository.MemoryRepo, *auction.AuctionService) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := auction.NewAuctionService(repo, quietPublisher())

	_ = repo.CreateUser(ctx, model.User{ID: "seller", Username: "seller", Email: "seller@example.com", CreatedAt: time.Now()})
	for i := 0; i < numUsers; i++ {
		id := userID(i)
		_ = repo.CreateUser(ctx, model.User{ID: id, Username: id, Email: id + "@example.com", CreatedAt: time.Now()})
	}
	for i := 0; i < numListings; i++ {
		_ = repo.CreateListing(ctx, model.Listing{
			ID:          listingID(i),
			Title:       fmt.Sprintf("title_%d", i),
			Description: "Load test listing",
			StartingBid: startingBid,
			Category:    model.CategoryOthers,
			CreatedAt:   time.Now(),
			SellerID:    "seller",
			Active:      true,
		})
	}
	return repo, svc
}

func userID(i int) string    { return fmt.Sprintf("user_%d", i) }
func listingID(i int) string { return fmt.Sprintf("listing_%d", i) }
