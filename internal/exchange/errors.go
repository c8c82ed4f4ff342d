package exchange

import (
	"github.com/wallkanda/exchange-svc/internal/pricing"
	"github.com/wallkanda/exchange-svc/internal/types"
)

var (
	ErrInvalidSignature     = types.Reject(types.CodeInvalidSignature, "Sale: Incorrect order signature")
	ErrInvalidMetaSignature = types.Reject(types.CodeInvalidSignature, "Sale: Incorrect order meta signature")
	ErrUnauthorizedBuyer    = types.Reject(types.CodeUnauthorizedBuyer, "Sale Metadata not for operator")
	ErrNotTaker             = types.Reject(types.CodeUnauthorizedBuyer, "Sale: Order reserved to another taker")
	ErrExpired              = types.Reject(types.CodeExpired, "Sale: Buy Order expired")
	ErrOrderExpired         = types.Reject(types.CodeOrderExpired, "Sale: Order expired")
	ErrOrderClosed          = types.Reject(types.CodeOrderClosed, "Sale: Order already closed or quantity too high")
	ErrQuantityExceeded     = types.Reject(types.CodeQuantityExceeded, "Sale: quantity too high")
	ErrZeroQuantity         = types.Reject(types.CodeQuantityExceeded, "Sale: quantity must be positive")
	ErrIncorrectPayment     = types.Reject(types.CodeIncorrectPayment, "Sale: Sent value is incorrect")
	ErrWrongExchange        = types.Reject(types.CodeInvalidOrder, "Sale: Order not for this exchange")
	ErrSaleMetaRequired     = types.Reject(types.CodeInvalidSignature, "Sale: Order meta required")
	ErrInvalidFees          = types.Reject(types.CodeInvalidOrder, "Sale: fees exceed sale total")
	ErrInvalidOrder         = types.Reject(types.CodeInvalidOrder, "Sale: invalid order")
)

// rejection maps pricing failures onto the settlement taxonomy.
func rejection(err error) error {
	switch err {
	case pricing.ErrZeroQuantity:
		return ErrZeroQuantity
	case pricing.ErrQuantityExceeded:
		return ErrQuantityExceeded
	case pricing.ErrSaleMetaRequired:
		return ErrSaleMetaRequired
	case pricing.ErrInvalidFees:
		return ErrInvalidFees
	case pricing.ErrEmptyOrder, pricing.ErrAmountOverflow, pricing.ErrUnknownOrderShape:
		return types.Reject(types.CodeInvalidOrder, err.Error())
	default:
		return err
	}
}
