package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	auction "auctions/internal/auctionService"
	auth "auctions/internal/authService"
	"auctions/internal/config"
	"auctions/internal/events"
	"auctions/internal/repository"
	"auctions/internal/server"
	"auctions/utils"

	"github.com/jmoiron/sqlx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		utils.Fatal("failed to configure logger", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, db, err := openStore(cfg)
	if err != nil {
		utils.Fatal("failed to open storage", map[string]any{"driver": cfg.StorageDriver, "error": err.Error()})
	}

	publisher, err := openPublisher(cfg)
	if err != nil {
		utils.Fatal("failed to connect to event broker", map[string]any{"error": err.Error()})
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		utils.Fatal("failed to create token manager", map[string]any{"error": err.Error()})
	}
	authSvc := auth.NewAuthService(repo, tokens)
	auctionSvc := auction.NewAuctionService(repo, publisher)

	if cfg.SeedDemoData {
		prepopulateListings(ctx, authSvc, auctionSvc)
	}

	limiter := server.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, time.Minute)

	router := server.SetupRouter(server.Dependencies{
		Auctions:     auctionSvc,
		Auth:         authSvc,
		Verifier:     authSvc,
		RateLimiter:  limiter,
		SecureCookie: cfg.SecureCookie,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "storage": cfg.StorageDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		utils.Info("shutdown signal received", nil)
	case err := <-serverErr:
		if err != nil {
			utils.Error("server stopped unexpectedly", map[string]any{"error": err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("failed to drain http server", map[string]any{"error": err.Error()})
	}

	if err := publisher.Close(); err != nil {
		utils.Warn("failed to close event publisher", map[string]any{"error": err.Error()})
	}
	if db != nil {
		if err := db.Close(); err != nil {
			utils.Warn("failed to close database", map[string]any{"error": err.Error()})
		}
	}
	utils.Info("auction server stopped", nil)
}

// openStore returns the configured repository. db is nil for the in-memory store.
func openStore(cfg *config.Config) (repository.AuctionDB, *sqlx.DB, error) {
	if cfg.StorageDriver == config.StorageMemory {
		utils.Warn("using in-memory storage; data is lost on restart", nil)
		return repository.NewMemoryRepo(), nil, nil
	}

	db, err := repository.OpenPostgres(cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := repository.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return repository.NewPostgresRepo(db), db, nil
}

// openPublisher connects to RabbitMQ when configured and logs events otherwise
func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		return events.NewLogPublisher(nil), nil
	}
	return events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
}

// prepopulateListings registers a demo seller and opens a few listings
func prepopulateListings(ctx context.Context, authSvc *auth.AuthService, auctionSvc *auction.AuctionService) {
	session, err := authSvc.Register(ctx, auth.RegisterInput{
		Username:     "demo_seller",
		Email:        "seller@example.com",
		Password:     "demo_password",
		Confirmation: "demo_password",
	})
	if err != nil {
		utils.Warn("skipping demo data", map[string]any{"error": err.Error()})
		return
	}

	listings := []auction.NewListingInput{
		{Title: "Wooden train set", Description: "Hand-painted, 24 pieces", StartingBid: 35, Category: "TO"},
		{Title: "Leather jacket", Description: "Size M, barely worn", StartingBid: 80, Category: "FA"},
		{Title: "Mechanical keyboard", Description: "Brown switches, full size", StartingBid: 60, Category: "EL"},
		{Title: "Cast iron skillet", Description: "12 inch, pre-seasoned", StartingBid: 20, Category: "HO"},
	}
	for _, in := range listings {
		if _, err := auctionSvc.CreateListing(ctx, session.User.ID, in); err != nil {
			utils.Warn("failed to seed listing", map[string]any{"title": in.Title, "error": err.Error()})
		}
	}
	utils.Info("demo data loaded", map[string]any{"seller_id": session.User.ID, "listings": len(listings)})
}
