package server

import (
	"net/http"

	"auctions/internal/metrics"
	handler "auctions/services/auction/handler"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer routes to
type Dependencies struct {
	Auctions     handler.AuctionServiceInterface
	Auth         handler.AuthServiceInterface
	Verifier     TokenVerifier
	RateLimiter  *RateLimiter
	SecureCookie bool
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(metrics.GinMiddleware)

	auctionHandler := handler.NewAuctionHandler(deps.Auctions)
	authHandler := handler.NewAuthHandler(deps.Auth, deps.SecureCookie)
	authn := NewAuthenticator(deps.Verifier)

	limited := []gin.HandlerFunc{}
	if deps.RateLimiter != nil {
		limited = append(limited, deps.RateLimiter.Handler)
	}

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "service healthy")
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	public := router.Group("", authn.OptionalAuth)
	{
		public.GET("/", auctionHandler.IndexHandler)
		public.GET("/categories", auctionHandler.CategoriesHandler)
		public.GET("/categories/:category", auctionHandler.CategoryListingsHandler)
		public.GET("/auction/:listing_id", auctionHandler.ListingDetailHandler)
		public.GET("/auction/:listing_id/bids", auctionHandler.GetBidsByListingHandler)
		public.GET("/auction/:listing_id/comments", auctionHandler.GetCommentsHandler)
	}

	sessions := router.Group("", limited...)
	{
		sessions.POST("/register", authHandler.RegisterHandler)
		sessions.POST("/login", authHandler.LoginHandler)
	}

	private := router.Group("", authn.RequireAuth)
	{
		private.POST("/logout", authHandler.LogoutHandler)
		private.GET("/myWatchList", auctionHandler.WatchlistHandler)
		private.GET("/myBids", auctionHandler.MyBidsHandler)
		private.POST("/watchListing", auctionHandler.WatchListingHandler)
	}

	writes := private.Group("", limited...)
	{
		writes.POST("/newListing", auctionHandler.NewListingHandler)
		writes.POST("/bid", auctionHandler.PlaceBidHandler)
		writes.POST("/closeBid", auctionHandler.CloseListingHandler)
		writes.POST("/newComment", auctionHandler.NewCommentHandler)
	}

	return router
}
