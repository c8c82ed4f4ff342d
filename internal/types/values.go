package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Values is the computed price and distribution of a single fill.
type Values struct {
	Total              *big.Int       `json:"total"`
	ServiceFees        *big.Int       `json:"serviceFees"`
	BuyerFee           *big.Int       `json:"buyerFee"`
	SellerFee          *big.Int       `json:"sellerFee"`
	RoyaltiesAmount    *big.Int       `json:"royaltiesAmount"`
	RoyaltiesRecipient common.Address `json:"royaltiesRecipient"`
	SellerEndValue     *big.Int       `json:"sellerEndValue"`
	DonationValue      *big.Int       `json:"donationValue"`
	TotalTransaction   *big.Int       `json:"totalTransaction"`
}

// Buy is emitted on every successful fill.
type Buy struct {
	Key      OrderKey
	Buyer    common.Address
	Token    common.Address
	TokenID  *big.Int
	Quantity *big.Int
	Values   Values
}

// CloseOrder is emitted when a fill exhausts the order capacity.
type CloseOrder struct {
	Key OrderKey
}
