package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mazadi/internal/auctionerrors"
	model "mazadi/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const pgQueryTimeout = 5 * time.Second

// PostgresRepo is an AuctionDB backed by Postgres. Bid commits take a row
// lock on the auction, so the price check and the ledger append are a single
// atomic conditional write even across processes.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresRepo connects to Postgres and ensures the auction schema exists.
func NewPostgresRepo(ctx context.Context, databaseURL string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres repo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pgQueryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres repo: ping: %w", err)
	}

	r := &PostgresRepo{pool: pool}
	if err := r.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the connection pool.
func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) ensureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS auctions (
		id                TEXT PRIMARY KEY,
		product_id        TEXT NOT NULL,
		starting_price    NUMERIC NOT NULL,
		current_price     NUMERIC NOT NULL,
		start_time        TIMESTAMPTZ NOT NULL,
		end_time          TIMESTAMPTZ NOT NULL,
		status            TEXT NOT NULL,
		winning_bidder    TEXT,
		winning_amount    NUMERIC,
		winning_timestamp TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS bids (
		position   BIGSERIAL PRIMARY KEY,
		bid_id     TEXT NOT NULL,
		auction_id TEXT NOT NULL REFERENCES auctions(id),
		bidder     TEXT NOT NULL,
		amount     NUMERIC NOT NULL,
		bid_time   TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS bids_auction_idx ON bids(auction_id, position);`

	ctx, cancel := context.WithTimeout(ctx, pgQueryTimeout)
	defer cancel()
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres repo: ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRepo) CreateAuction(auction model.Auction) error {
	ctx, cancel := context.WithTimeout(context.Background(), pgQueryTimeout)
	defer cancel()

	const q = `
		INSERT INTO auctions
			(id, product_id, starting_price, current_price, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, q,
		auction.AuctionID, auction.ProductID,
		auction.StartingPrice.String(), auction.CurrentPrice.String(),
		auction.StartTime, auction.EndTime, string(auction.Status),
		auction.CreatedAt, auction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, err)
	}
	return nil
}

func (r *PostgresRepo) GetAuction(auctionID string) (model.Auction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgQueryTimeout)
	defer cancel()

	a, err := r.fetchAuction(ctx, r.pool, auctionID, false)
	if err != nil {
		return model.Auction{}, err
	}
	return *a, nil
}

func (r *PostgresRepo) ListAuctions() ([]model.Auction, error) {
	return r.listWhere("", nil)
}

func (r *PostgresRepo) ListActiveAuctions(now time.Time) ([]model.Auction, error) {
	return r.listWhere(`WHERE start_time <= $1 AND end_time >= $1 AND status = 'active'`, []any{now})
}

func (r *PostgresRepo) listWhere(where string, args []any) ([]model.Auction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgQueryTimeout)
	defer cancel()

	q := `
		SELECT id, product_id, starting_price::text, current_price::text,
		       start_time, end_time, status,
		       winning_bidder, winning_amount::text, winning_timestamp,
		       created_at, updated_at
		FROM auctions ` + where + ` ORDER BY end_time ASC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	auctions := make([]model.Auction, 0)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("list auctions: %w", err)
		}
		auctions = append(auctions, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}

	for i := range auctions {
		bids, err := r.fetchBids(ctx, r.pool, auctions[i].AuctionID)
		if err != nil {
			return nil, err
		}
		auctions[i].Bids = bids
	}
	return auctions, nil
}

func (r *PostgresRepo) AppendBidIfHigher(auctionID string, bid model.Bid, now time.Time) (model.Auction, *model.Bid, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: begin: %w", auctionID, err)
	}
	defer tx.Rollback(ctx)

	// Row lock serializes concurrent bids on the same auction; the checks
	// below therefore see the latest committed price.
	a, err := r.fetchAuction(ctx, tx, auctionID, true)
	if err != nil {
		return model.Auction{}, nil, err
	}

	if !a.IsActive(now) {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: %w", auctionID, auctionerrors.ErrAuctionNotActive)
	}
	if !bid.Amount.GreaterThan(a.CurrentPrice) {
		return model.Auction{}, nil, fmt.Errorf("append bid of %s to auction %s: %w",
			bid.Amount, auctionID, &auctionerrors.BidTooLowError{CurrentPrice: a.CurrentPrice})
	}

	var previous *model.Bid
	if len(a.Bids) > 0 {
		prev := a.Bids[len(a.Bids)-1]
		previous = &prev
	}

	const insertBid = `
		INSERT INTO bids (bid_id, auction_id, bidder, amount, bid_time)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insertBid, bid.BidID, auctionID, bid.Bidder, bid.Amount.String(), bid.Timestamp); err != nil {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: insert: %w", auctionID, err)
	}

	const updatePrice = `
		UPDATE auctions SET current_price = $2, updated_at = $3
		WHERE id = $1 AND current_price < $2`
	tag, err := tx.Exec(ctx, updatePrice, auctionID, bid.Amount.String(), now)
	if err != nil {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: update price: %w", auctionID, err)
	}
	if tag.RowsAffected() != 1 {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: %w",
			auctionID, &auctionerrors.BidTooLowError{CurrentPrice: a.CurrentPrice})
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: commit: %w", auctionID, err)
	}

	a.Bids = append(a.Bids, bid)
	a.CurrentPrice = bid.Amount
	a.UpdatedAt = now
	return *a, previous, nil
}

func (r *PostgresRepo) EndAuction(auctionID string, now time.Time) (model.Auction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Auction{}, fmt.Errorf("end auction %s: begin: %w", auctionID, err)
	}
	defer tx.Rollback(ctx)

	a, err := r.fetchAuction(ctx, tx, auctionID, true)
	if err != nil {
		return model.Auction{}, err
	}
	if a.Status.IsTerminal() {
		return model.Auction{}, fmt.Errorf("end auction %s in status %s: %w", auctionID, a.Status, auctionerrors.ErrInvalidTransition)
	}

	if highest := a.HighestBid(); highest != nil {
		a.WinningBid = &model.WinningBid{
			Bidder:    highest.Bidder,
			Amount:    highest.Amount,
			Timestamp: highest.Timestamp,
		}
	}
	a.Status = model.StatusEnded
	a.UpdatedAt = now

	const q = `
		UPDATE auctions
		SET status = 'ended', winning_bidder = $2, winning_amount = $3, winning_timestamp = $4, updated_at = $5
		WHERE id = $1`
	var bidder, amount any
	var bidTime any
	if a.WinningBid != nil {
		bidder, amount, bidTime = a.WinningBid.Bidder, a.WinningBid.Amount.String(), a.WinningBid.Timestamp
	}
	if _, err := tx.Exec(ctx, q, auctionID, bidder, amount, bidTime, now); err != nil {
		return model.Auction{}, fmt.Errorf("end auction %s: update: %w", auctionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Auction{}, fmt.Errorf("end auction %s: commit: %w", auctionID, err)
	}
	return *a, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepo) fetchAuction(ctx context.Context, q querier, auctionID string, forUpdate bool) (*model.Auction, error) {
	query := `
		SELECT id, product_id, starting_price::text, current_price::text,
		       start_time, end_time, status,
		       winning_bidder, winning_amount::text, winning_timestamp,
		       created_at, updated_at
		FROM auctions WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	a, err := scanAuction(q.QueryRow(ctx, query, auctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, err)
	}

	bids, err := r.fetchBids(ctx, q, auctionID)
	if err != nil {
		return nil, err
	}
	a.Bids = bids
	return a, nil
}

func (r *PostgresRepo) fetchBids(ctx context.Context, q querier, auctionID string) ([]model.Bid, error) {
	const query = `
		SELECT bid_id, bidder, amount::text, bid_time
		FROM bids WHERE auction_id = $1 ORDER BY position ASC`
	rows, err := q.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	defer rows.Close()

	bids := make([]model.Bid, 0)
	for rows.Next() {
		var b model.Bid
		var amount string
		if err := rows.Scan(&b.BidID, &b.Bidder, &amount, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
		}
		b.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("get bids for auction %s: bad amount: %w", auctionID, err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func scanAuction(row pgx.Row) (*model.Auction, error) {
	var a model.Auction
	var startingPrice, currentPrice string
	var status string
	var winBidder, winAmount *string
	var winTime *time.Time

	err := row.Scan(&a.AuctionID, &a.ProductID, &startingPrice, &currentPrice,
		&a.StartTime, &a.EndTime, &status,
		&winBidder, &winAmount, &winTime,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if a.StartingPrice, err = decimal.NewFromString(startingPrice); err != nil {
		return nil, fmt.Errorf("bad starting price: %w", err)
	}
	if a.CurrentPrice, err = decimal.NewFromString(currentPrice); err != nil {
		return nil, fmt.Errorf("bad current price: %w", err)
	}
	a.Status = model.AuctionStatus(status)

	if winBidder != nil && winAmount != nil && winTime != nil {
		amount, err := decimal.NewFromString(*winAmount)
		if err != nil {
			return nil, fmt.Errorf("bad winning amount: %w", err)
		}
		a.WinningBid = &model.WinningBid{Bidder: *winBidder, Amount: amount, Timestamp: *winTime}
	}
	return &a, nil
}
