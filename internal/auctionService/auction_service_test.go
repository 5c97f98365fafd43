package auction

import (
	"testing"
	"time"

	"mazadi/internal/auctionerrors"
	"mazadi/internal/directory"
	"mazadi/internal/models"
	"mazadi/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testDirectory() *directory.MemoryDirectory {
	dir := directory.NewMemoryDirectory()
	dir.AddProduct(models.Product{ProductID: "product1", Name: "Vintage Camera"})
	dir.AddUser(models.User{UserID: "user1", Name: "Amira"})
	dir.AddUser(models.User{UserID: "user2", Name: "Karim"})
	return dir
}

func activeAuction(auctionID string, price int64) models.Auction {
	now := time.Now().UTC()
	p := decimal.NewFromInt(price)
	return models.Auction{
		AuctionID:     auctionID,
		ProductID:     "product1",
		StartingPrice: p,
		CurrentPrice:  p,
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		Status:        models.StatusActive,
		Bids:          []models.Bid{},
	}
}

// Tests PlaceBid
func TestAuctionService_PlaceBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name          string
		auctionID     string
		userID        string
		amount        decimal.Decimal
		mockSetup     func(repo *repository.MockAuctionDB, bc *MockBroadcaster)
		expectedError error
	}{
		{
			name:      "first_bid_no_outbid_notification",
			auctionID: "a1",
			userID:    "user1",
			amount:    decimal.NewFromInt(150),
			mockSetup: func(repo *repository.MockAuctionDB, bc *MockBroadcaster) {
				updated := activeAuction("a1", 150)
				updated.Bids = []models.Bid{{BidID: "b1", Bidder: "user1", Amount: decimal.NewFromInt(150)}}
				repo.EXPECT().
					AppendBidIfHigher("a1", gomock.Any(), gomock.Any()).
					Return(updated, nil, nil)
				bc.EXPECT().BroadcastAuctionUpdate(gomock.Any())
			},
		},
		{
			name:      "second_bid_notifies_previous_bidder",
			auctionID: "a1",
			userID:    "user2",
			amount:    decimal.NewFromInt(200),
			mockSetup: func(repo *repository.MockAuctionDB, bc *MockBroadcaster) {
				updated := activeAuction("a1", 200)
				previous := &models.Bid{BidID: "b1", Bidder: "user1", Amount: decimal.NewFromInt(150)}
				repo.EXPECT().
					AppendBidIfHigher("a1", gomock.Any(), gomock.Any()).
					Return(updated, previous, nil)
				bc.EXPECT().BroadcastAuctionUpdate(gomock.Any())
				bc.EXPECT().NotifyOutbid("user1", "a1", decimal.NewFromInt(200))
			},
		},
		{
			name:          "empty_auction_id",
			auctionID:     "",
			userID:        "user1",
			amount:        decimal.NewFromInt(100),
			mockSetup:     func(*repository.MockAuctionDB, *MockBroadcaster) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "empty_user_id",
			auctionID:     "a1",
			userID:        "",
			amount:        decimal.NewFromInt(100),
			mockSetup:     func(*repository.MockAuctionDB, *MockBroadcaster) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "zero_amount",
			auctionID:     "a1",
			userID:        "user1",
			amount:        decimal.Zero,
			mockSetup:     func(*repository.MockAuctionDB, *MockBroadcaster) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "negative_amount",
			auctionID:     "a1",
			userID:        "user1",
			amount:        decimal.NewFromInt(-10),
			mockSetup:     func(*repository.MockAuctionDB, *MockBroadcaster) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:      "rejection_does_not_broadcast",
			auctionID: "a1",
			userID:    "user1",
			amount:    decimal.NewFromInt(100),
			mockSetup: func(repo *repository.MockAuctionDB, bc *MockBroadcaster) {
				repo.EXPECT().
					AppendBidIfHigher("a1", gomock.Any(), gomock.Any()).
					Return(models.Auction{}, nil, &auctionerrors.BidTooLowError{CurrentPrice: decimal.NewFromInt(100)})
			},
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:      "inactive_auction",
			auctionID: "a1",
			userID:    "user1",
			amount:    decimal.NewFromInt(150),
			mockSetup: func(repo *repository.MockAuctionDB, bc *MockBroadcaster) {
				repo.EXPECT().
					AppendBidIfHigher("a1", gomock.Any(), gomock.Any()).
					Return(models.Auction{}, nil, auctionerrors.ErrAuctionNotActive)
			},
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := repository.NewMockAuctionDB(ctrl)
			mockBroadcaster := NewMockBroadcaster(ctrl)
			tc.mockSetup(mockRepo, mockBroadcaster)

			service := NewAuctionService(mockRepo, testDirectory(), mockBroadcaster)
			price, err := service.PlaceBid(tc.auctionID, tc.userID, tc.amount)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.True(t, price.Equal(tc.amount))
		})
	}
}

// Tests CreateAuction
func TestAuctionService_CreateAuction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now().UTC()

	tests := []struct {
		name          string
		productID     string
		startingPrice decimal.Decimal
		startTime     time.Time
		endTime       time.Time
		wantStatus    models.AuctionStatus
		mockSetup     func(repo *repository.MockAuctionDB)
		expectedError error
	}{
		{
			name:          "future_start_is_upcoming",
			productID:     "product1",
			startingPrice: decimal.NewFromInt(100),
			startTime:     now.Add(time.Hour),
			endTime:       now.Add(2 * time.Hour),
			wantStatus:    models.StatusUpcoming,
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().CreateAuction(gomock.Any()).Return(nil)
			},
		},
		{
			name:          "missing_product_id",
			productID:     "",
			startingPrice: decimal.NewFromInt(100),
			startTime:     now.Add(time.Hour),
			endTime:       now.Add(2 * time.Hour),
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "non_positive_price",
			productID:     "product1",
			startingPrice: decimal.Zero,
			startTime:     now.Add(time.Hour),
			endTime:       now.Add(2 * time.Hour),
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "start_in_past",
			productID:     "product1",
			startingPrice: decimal.NewFromInt(100),
			startTime:     now.Add(-time.Hour),
			endTime:       now.Add(2 * time.Hour),
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "end_before_start",
			productID:     "product1",
			startingPrice: decimal.NewFromInt(100),
			startTime:     now.Add(2 * time.Hour),
			endTime:       now.Add(time.Hour),
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "unknown_product",
			productID:     "missing",
			startingPrice: decimal.NewFromInt(100),
			startTime:     now.Add(time.Hour),
			endTime:       now.Add(2 * time.Hour),
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: auctionerrors.ErrProductNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := repository.NewMockAuctionDB(ctrl)
			tc.mockSetup(mockRepo)

			service := NewAuctionService(mockRepo, testDirectory(), NoopBroadcaster{})
			auction, err := service.CreateAuction(tc.productID, tc.startingPrice, tc.startTime, tc.endTime)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, auction.AuctionID)
			require.Equal(t, tc.wantStatus, auction.Status)
			require.True(t, auction.CurrentPrice.Equal(tc.startingPrice))
			require.Empty(t, auction.Bids)
		})
	}
}

// Tests EndAuction
func TestAuctionService_EndAuction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("winner_notified_with_product_name", func(t *testing.T) {
		mockRepo := repository.NewMockAuctionDB(ctrl)
		mockBroadcaster := NewMockBroadcaster(ctrl)

		ended := activeAuction("a1", 200)
		ended.Status = models.StatusEnded
		ended.WinningBid = &models.WinningBid{Bidder: "user2", Amount: decimal.NewFromInt(200)}

		mockRepo.EXPECT().EndAuction("a1", gomock.Any()).Return(ended, nil)
		mockBroadcaster.EXPECT().BroadcastAuctionUpdate(gomock.Any())
		mockBroadcaster.EXPECT().NotifyAuctionWon("user2", "a1", "Vintage Camera")

		service := NewAuctionService(mockRepo, testDirectory(), mockBroadcaster)
		auction, err := service.EndAuction("a1")
		require.NoError(t, err)
		require.Equal(t, models.StatusEnded, auction.Status)
	})

	t.Run("no_bids_no_winner_notification", func(t *testing.T) {
		mockRepo := repository.NewMockAuctionDB(ctrl)
		mockBroadcaster := NewMockBroadcaster(ctrl)

		ended := activeAuction("a1", 100)
		ended.Status = models.StatusEnded

		mockRepo.EXPECT().EndAuction("a1", gomock.Any()).Return(ended, nil)
		mockBroadcaster.EXPECT().BroadcastAuctionUpdate(gomock.Any())

		service := NewAuctionService(mockRepo, testDirectory(), mockBroadcaster)
		auction, err := service.EndAuction("a1")
		require.NoError(t, err)
		require.Nil(t, auction.WinningBid)
	})

	t.Run("terminal_auction_rejected", func(t *testing.T) {
		mockRepo := repository.NewMockAuctionDB(ctrl)

		mockRepo.EXPECT().EndAuction("a1", gomock.Any()).
			Return(models.Auction{}, auctionerrors.ErrInvalidTransition)

		service := NewAuctionService(mockRepo, testDirectory(), NoopBroadcaster{})
		_, err := service.EndAuction("a1")
		require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
	})

	t.Run("empty_auction_id", func(t *testing.T) {
		service := NewAuctionService(repository.NewMockAuctionDB(ctrl), testDirectory(), NoopBroadcaster{})
		_, err := service.EndAuction("")
		require.ErrorIs(t, err, auctionerrors.ErrInvalidAuction)
	})
}

// SweepExpired closes time-expired auctions that still read active and
// leaves everything else alone.
func TestAuctionService_SweepExpired(t *testing.T) {
	repo := repository.NewMemoryRepo()
	now := time.Now().UTC()

	expired := activeAuction("expired", 100)
	expired.StartTime = now.Add(-2 * time.Hour)
	expired.EndTime = now.Add(-time.Hour)
	running := activeAuction("running", 100)
	require.NoError(t, repo.CreateAuction(expired))
	require.NoError(t, repo.CreateAuction(running))

	service := NewAuctionService(repo, testDirectory(), NoopBroadcaster{})
	require.Equal(t, 1, service.SweepExpired())

	a, err := service.GetAuction("expired")
	require.NoError(t, err)
	require.Equal(t, models.StatusEnded, a.Status)

	b, err := service.GetAuction("running")
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, b.Status)

	// idempotent: nothing left to close
	require.Equal(t, 0, service.SweepExpired())
}
