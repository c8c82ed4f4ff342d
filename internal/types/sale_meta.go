package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SaleMeta is the operator-countersigned sale authorization binding a buyer to
// fee rates until Expiration.
type SaleMeta struct {
	Buyer common.Address `json:"buyer"`
	// basis points
	SellerFee *big.Int `json:"sellerFee"`
	// basis points
	BuyerFee   *big.Int `json:"buyerFee"`
	Expiration *big.Int `json:"expiration"`
	Nonce      *big.Int `json:"nonce"`
}

func (m *SaleMeta) Expired(now time.Time) bool {
	return bigOrZero(m.Expiration).Cmp(big.NewInt(now.Unix())) < 0
}

// Signature is a recoverable secp256k1 signature with V in {27, 28}.
type Signature struct {
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
	V uint8       `json:"v"`
}

// Bytes returns the 65 byte R || S || V form.
func (s Signature) Bytes() []byte {
	b := make([]byte, 0, 65)
	b = append(b, s.R.Bytes()...)
	b = append(b, s.S.Bytes()...)
	return append(b, s.V)
}
