package main

import (
	"context"
	"fmt"
	"os"
	"time"

	auction "mazadi/internal/auctionService"
	"mazadi/internal/config"
	"mazadi/internal/directory"
	model "mazadi/internal/models"
	"mazadi/internal/repository"
	"mazadi/internal/server"
	"mazadi/internal/ws"
	"mazadi/utils"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	repo, cleanup, err := newRepo(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open auction store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	dir := directory.NewMemoryDirectory()
	if cfg.DatabaseURL == "" {
		prepopulate(repo, dir)
	}

	hub := ws.NewHub(repo, dir)
	auctionSvc := auction.NewAuctionService(repo, dir, hub)

	sweeper := auction.NewSweeper(auctionSvc, cfg.LifecycleTick)
	sweeper.Start()
	defer sweeper.Stop()

	// Session validation is owned by the auth service; nothing to inject here.
	router := server.SetupRouter(auctionSvc, ws.NewHandler(hub), nil)

	fmt.Printf("Starting auction server on %s...\n", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// newRepo picks the Postgres store when DATABASE_URL is set, the in-memory
// store otherwise.
func newRepo(cfg config.Config) (repository.AuctionDB, func(), error) {
	if cfg.DatabaseURL == "" {
		return repository.NewMemoryRepo(), func() {}, nil
	}

	pg, err := repository.NewPostgresRepo(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	utils.Info("using postgres auction store", nil)
	return pg, pg.Close, nil
}

// prepopulate seeds demo products, users and one running auction for
// standalone/in-memory mode
func prepopulate(repo repository.AuctionDB, dir *directory.MemoryDirectory) {
	products := []model.Product{
		{ProductID: "product1", Name: "Vintage Camera", Description: "1960s rangefinder", Category: "collectibles"},
		{ProductID: "product2", Name: "Mechanical Watch", Description: "Hand-wound chronograph", Category: "watches"},
		{ProductID: "product3", Name: "Oil Painting", Description: "Signed landscape", Category: "art"},
	}
	for _, p := range products {
		dir.AddProduct(p)
	}

	users := []model.User{
		{UserID: "user1", Name: "Amira", Email: "amira@example.com"},
		{UserID: "user2", Name: "Karim", Email: "karim@example.com"},
	}
	for _, u := range users {
		dir.AddUser(u)
	}

	now := time.Now().UTC()
	demo := model.Auction{
		AuctionID:     "auction1",
		ProductID:     "product1",
		StartingPrice: decimal.NewFromInt(100),
		CurrentPrice:  decimal.NewFromInt(100),
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(24 * time.Hour),
		Status:        model.StatusActive,
		Bids:          []model.Bid{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateAuction(demo); err != nil {
		utils.Warn("failed to seed demo auction", map[string]any{"error": err.Error()})
	}
}
