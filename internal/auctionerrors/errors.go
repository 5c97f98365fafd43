package auctionerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
)

// business logic errors
var (
	ErrInvalidAuction    = errors.New("invalid auction")
	ErrInvalidBid        = errors.New("invalid bid")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrInvalidTransition = errors.New("auction is already ended or cancelled")
)

// BidTooLowError rejects a bid that does not beat the current price. It
// carries the price observed at evaluation time so the client can show a
// specific inline message.
type BidTooLowError struct {
	CurrentPrice decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount must be higher than current price (%s)", e.CurrentPrice)
}

// Unwrap makes errors.Is(err, ErrBidTooLow) match.
func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}
