package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var ErrUnknownSchema = errors.New("unknown order schema")

var (
	uint8Type   = mustType("uint8")
	uint256Type = mustType("uint256")
	addressType = mustType("address")
	bytes32Type = mustType("bytes32")
	bytesType   = mustType("bytes")
)

var (
	assetArgs = abi.Arguments{
		{Type: uint8Type},   // tokenType
		{Type: addressType}, // token
		{Type: uint256Type}, // tokenId
		{Type: uint256Type}, // quantity
	}

	orderV1Args = abi.Arguments{
		{Type: uint8Type},   // tokenType
		{Type: addressType}, // exchange
		{Type: addressType}, // maker
		{Type: addressType}, // token
		{Type: uint256Type}, // tokenId
		{Type: uint256Type}, // quantity
		{Type: uint256Type}, // orderNonce
		{Type: uint256Type}, // unitPrice
		{Type: addressType}, // taker
		{Type: addressType}, // buyToken
		{Type: uint256Type}, // maxPerBuy
	}

	orderV2HeadArgs = abi.Arguments{
		{Type: addressType}, // exchange
		{Type: addressType}, // maker
		{Type: addressType}, // taker
	}

	orderV2TailArgs = abi.Arguments{
		{Type: uint256Type}, // maxPerBuy
		{Type: uint256Type}, // orderNonce
		{Type: uint256Type}, // expiration
	}

	orderV3Args = abi.Arguments{
		{Type: addressType}, // revenueRecipient
		{Type: addressType}, // donationRecipient
		{Type: uint256Type}, // donationPercentage
	}

	metaArgs = abi.Arguments{
		{Type: bytes32Type}, // signature r
		{Type: bytes32Type}, // signature s
		{Type: uint8Type},   // signature v
		{Type: addressType}, // buyer
		{Type: uint256Type}, // sellerFee
		{Type: uint256Type}, // buyerFee
		{Type: uint256Type}, // expiration
		{Type: uint256Type}, // nonce
	}

	mintArgs = abi.Arguments{
		{Type: addressType}, // recipient
		{Type: bytesType},   // data
	}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(errors.Wrap(err, "failed to create abi type", logan.F{"type": t}))
	}
	return typ
}

// PrepareOrderMessage hashes a flat order.
func PrepareOrderMessage(o *types.OrderV1) (common.Hash, error) {
	encoded, err := orderV1Args.Pack(
		uint8(o.TokenType),
		o.Exchange,
		o.Maker,
		o.Token,
		num(o.TokenID),
		num(o.Quantity),
		num(o.OrderNonce),
		num(o.UnitPrice),
		o.TakerAddr,
		o.BuyToken,
		num(o.MaxPerBuyN),
	)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to encode order")
	}
	return crypto.Keccak256Hash(encoded), nil
}

// PrepareOrderV2Message hashes a nested order, with the revenue and donation
// fields appended for the wrapped form.
func PrepareOrderV2Message(o types.Order) (common.Hash, error) {
	switch order := o.(type) {
	case *types.OrderV2:
		encoded, err := encodeOrderV2(order)
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(encoded), nil
	case *types.OrderV3:
		encoded, err := encodeOrderV2(&order.OrderData)
		if err != nil {
			return common.Hash{}, err
		}
		tail, err := orderV3Args.Pack(order.RevenueRecipient, order.DonationRecipient, num(order.DonationPercentage))
		if err != nil {
			return common.Hash{}, errors.Wrap(err, "failed to encode order revenue routing")
		}
		return crypto.Keccak256Hash(encoded, tail), nil
	default:
		return common.Hash{}, ErrUnknownSchema
	}
}

// PrepareMessage dispatches on the order schema.
func PrepareMessage(o types.Order) (common.Hash, error) {
	if v1, ok := o.(*types.OrderV1); ok {
		return PrepareOrderMessage(v1)
	}
	return PrepareOrderV2Message(o)
}

// PrepareOrderMetaMessage binds a sale authorization to the order signature it
// was issued for.
func PrepareOrderMetaMessage(orderSig types.Signature, meta *types.SaleMeta) (common.Hash, error) {
	encoded, err := metaArgs.Pack(
		[32]byte(orderSig.R),
		[32]byte(orderSig.S),
		orderSig.V,
		meta.Buyer,
		num(meta.SellerFee),
		num(meta.BuyerFee),
		num(meta.Expiration),
		num(meta.Nonce),
	)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to encode sale meta")
	}
	return crypto.Keccak256Hash(encoded), nil
}

// PrepareMintMessage is the message an editions minter signs to allow recipient
// to mint the edition described by data.
func PrepareMintMessage(recipient common.Address, data []byte) (common.Hash, error) {
	encoded, err := mintArgs.Pack(recipient, data)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to encode mint message")
	}
	return crypto.Keccak256Hash(encoded), nil
}

func encodeOrderV2(o *types.OrderV2) ([]byte, error) {
	head, err := orderV2HeadArgs.Pack(o.Exchange, o.Maker, o.TakerAddr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode order parties")
	}
	out, err := encodeAsset(o.OutAsset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode out asset")
	}
	in, err := encodeAsset(o.InAsset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode in asset")
	}
	tail, err := orderV2TailArgs.Pack(num(o.MaxPerBuyN), num(o.OrderNonce), num(o.Expiration))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode order limits")
	}

	encoded := make([]byte, 0, len(head)+len(out)+len(in)+len(tail))
	encoded = append(encoded, head...)
	encoded = append(encoded, out...)
	encoded = append(encoded, in...)
	return append(encoded, tail...), nil
}

func encodeAsset(a types.Asset) ([]byte, error) {
	return assetArgs.Pack(uint8(a.TokenType), a.Token, num(a.TokenID), num(a.Quantity))
}

func num(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
