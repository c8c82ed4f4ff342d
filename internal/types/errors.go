package types

import "errors"

// Code classifies why a state transition was rejected.
type Code string

const (
	CodeInvalidSignature  Code = "InvalidSignature"
	CodeUnauthorizedBuyer Code = "UnauthorizedBuyer"
	CodeExpired           Code = "Expired"
	CodeOrderExpired      Code = "OrderExpired"
	CodeOrderClosed       Code = "OrderClosed"
	CodeQuantityExceeded  Code = "QuantityExceeded"
	CodeIncorrectPayment  Code = "IncorrectPayment"
	CodeAlreadyMinted     Code = "AlreadyMinted"
	CodeAlreadyUsed       Code = "AlreadyUsed"
	CodeInvalidOrder      Code = "InvalidOrder"
	CodeTransferFailed    Code = "TransferFailed"
	CodeUnauthorized      Code = "Unauthorized"
)

// Rejection is a refused transition. State is left untouched; the caller has
// to resubmit a corrected request.
type Rejection struct {
	Code   Code
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func Reject(code Code, reason string) *Rejection {
	return &Rejection{Code: code, Reason: reason}
}

// CodeOf returns the rejection code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code, true
	}
	return "", false
}
