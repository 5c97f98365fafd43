package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"mazadi/internal/auctionerrors"
	"mazadi/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	utils.JSONError(c, http.StatusBadRequest, "All fields are required")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to an HTTP status code and a
// user-facing message. Business rejections keep their specific reason;
// anything unexpected becomes an opaque 500.
func MapErrorToHTTP(err error) (int, string) {
	var tooLow *auctionerrors.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		return http.StatusBadRequest, fmt.Sprintf("Bid must be higher than current price ($%s)", tooLow.CurrentPrice)
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusBadRequest, "Bid must be higher than current price"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusBadRequest, "Auction is not active"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusBadRequest, "Auction is already ended or cancelled"
	case errors.Is(err, auctionerrors.ErrInvalidAuction), errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "Auction not found"
	case errors.Is(err, auctionerrors.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
