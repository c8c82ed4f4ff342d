package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Schema is the order schema generation. It is part of the order identity.
type Schema uint8

const (
	SchemaV1 Schema = 1
	SchemaV2 Schema = 2
	SchemaV3 Schema = 3
)

func (s Schema) String() string {
	switch s {
	case SchemaV1:
		return "v1"
	case SchemaV2:
		return "v2"
	case SchemaV3:
		return "v3"
	default:
		return "unknown"
	}
}

// Order is implemented by *OrderV1, *OrderV2 and *OrderV3 only.
type Order interface {
	Schema() Schema
	Key() OrderKey
	// Capacity is the total quantity of the out asset the order sells.
	Capacity() *big.Int
	MaxPerBuy() *big.Int
	Taker() common.Address
	ExchangeAddress() common.Address
	MakerAddress() common.Address
	// Out describes the asset the maker sells, normalised to the nested asset tags.
	Out() Asset

	sealed()
}

// OrderKey identifies the fill state of an order.
type OrderKey struct {
	Schema   Schema
	Exchange common.Address
	Maker    common.Address
	Nonce    *big.Int
}

func (k OrderKey) String() string {
	return k.Schema.String() + ":" + k.Exchange.Hex() + ":" + k.Maker.Hex() + ":" + k.Nonce.String()
}

// OrderV1 is the flat order sold through Buy.
type OrderV1 struct {
	TokenType  V1TokenType    `json:"tokenType"`
	Exchange   common.Address `json:"exchange"`
	Maker      common.Address `json:"maker"`
	Token      common.Address `json:"token"`
	TokenID    *big.Int       `json:"tokenId"`
	Quantity   *big.Int       `json:"quantity"`
	OrderNonce *big.Int       `json:"orderNonce"`
	UnitPrice  *big.Int       `json:"unitPrice"`
	// zero address means anyone may buy
	TakerAddr common.Address `json:"taker"`
	// zero address means native currency
	BuyToken   common.Address `json:"buyToken"`
	MaxPerBuyN *big.Int       `json:"maxPerBuy"`
}

func (o *OrderV1) Schema() Schema { return SchemaV1 }

func (o *OrderV1) Key() OrderKey {
	return OrderKey{Schema: SchemaV1, Exchange: o.Exchange, Maker: o.Maker, Nonce: bigOrZero(o.OrderNonce)}
}

func (o *OrderV1) Capacity() *big.Int              { return bigOrZero(o.Quantity) }
func (o *OrderV1) MaxPerBuy() *big.Int             { return bigOrZero(o.MaxPerBuyN) }
func (o *OrderV1) Taker() common.Address           { return o.TakerAddr }
func (o *OrderV1) ExchangeAddress() common.Address { return o.Exchange }
func (o *OrderV1) MakerAddress() common.Address    { return o.Maker }

func (o *OrderV1) Out() Asset {
	t := AssetERC1155
	if o.TokenType == V1ERC721 {
		t = AssetERC721
	}
	return Asset{TokenType: t, Token: o.Token, TokenID: bigOrZero(o.TokenID), Quantity: bigOrZero(o.Quantity)}
}

// Currency is the asset the buyer pays with.
func (o *OrderV1) Currency() Asset {
	if o.BuyToken == (common.Address{}) {
		return Ether(bigOrZero(o.UnitPrice))
	}
	return Asset{TokenType: AssetERC20, Token: o.BuyToken, TokenID: new(big.Int), Quantity: bigOrZero(o.UnitPrice)}
}

func (o *OrderV1) sealed() {}

// OrderV2 is the nested order data. Expiration is a unix timestamp.
type OrderV2 struct {
	Exchange   common.Address `json:"exchange"`
	Maker      common.Address `json:"maker"`
	TakerAddr  common.Address `json:"taker"`
	OutAsset   Asset          `json:"outAsset"`
	InAsset    Asset          `json:"inAsset"`
	MaxPerBuyN *big.Int       `json:"maxPerBuy"`
	OrderNonce *big.Int       `json:"orderNonce"`
	Expiration *big.Int       `json:"expiration"`
}

func (o *OrderV2) Schema() Schema { return SchemaV2 }

func (o *OrderV2) Key() OrderKey {
	return OrderKey{Schema: SchemaV2, Exchange: o.Exchange, Maker: o.Maker, Nonce: bigOrZero(o.OrderNonce)}
}

func (o *OrderV2) Capacity() *big.Int              { return bigOrZero(o.OutAsset.Quantity) }
func (o *OrderV2) MaxPerBuy() *big.Int             { return bigOrZero(o.MaxPerBuyN) }
func (o *OrderV2) Taker() common.Address           { return o.TakerAddr }
func (o *OrderV2) ExchangeAddress() common.Address { return o.Exchange }
func (o *OrderV2) MakerAddress() common.Address    { return o.Maker }
func (o *OrderV2) Out() Asset                      { return o.OutAsset }

// Expired reports whether the order can no longer be filled at now.
func (o *OrderV2) Expired(now time.Time) bool {
	return bigOrZero(o.Expiration).Cmp(big.NewInt(now.Unix())) < 0
}

func (o *OrderV2) sealed() {}

// OrderV3 wraps OrderV2 with revenue and donation routing.
type OrderV3 struct {
	OrderData         OrderV2        `json:"orderData"`
	RevenueRecipient  common.Address `json:"revenueRecipient"`
	DonationRecipient common.Address `json:"donationRecipient"`
	// basis points
	DonationPercentage *big.Int `json:"donationPercentage"`
}

func (o *OrderV3) Schema() Schema { return SchemaV3 }

func (o *OrderV3) Key() OrderKey {
	k := o.OrderData.Key()
	k.Schema = SchemaV3
	return k
}

func (o *OrderV3) Capacity() *big.Int              { return o.OrderData.Capacity() }
func (o *OrderV3) MaxPerBuy() *big.Int             { return o.OrderData.MaxPerBuy() }
func (o *OrderV3) Taker() common.Address           { return o.OrderData.TakerAddr }
func (o *OrderV3) ExchangeAddress() common.Address { return o.OrderData.Exchange }
func (o *OrderV3) MakerAddress() common.Address    { return o.OrderData.Maker }
func (o *OrderV3) Out() Asset                      { return o.OrderData.OutAsset }

// Payee is the address receiving the seller end value.
func (o *OrderV3) Payee() common.Address {
	if o.RevenueRecipient == (common.Address{}) {
		return o.OrderData.Maker
	}
	return o.RevenueRecipient
}

func (o *OrderV3) sealed() {}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
