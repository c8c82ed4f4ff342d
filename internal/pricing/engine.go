package pricing

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// BasisPoints is 100%.
const BasisPoints = 10000

var (
	ErrZeroQuantity      = errors.New("Sale: quantity must be positive")
	ErrQuantityExceeded  = errors.New("Sale: quantity too high")
	ErrInvalidFees       = errors.New("Sale: fees exceed sale total")
	ErrSaleMetaRequired  = errors.New("Sale: sale meta required")
	ErrEmptyOrder        = errors.New("Sale: order sells nothing")
	ErrAmountOverflow    = errors.New("Sale: amount overflows uint256")
	ErrUnknownOrderShape = errors.New("Sale: unknown order schema")
)

// FeeModel decides who carries the service fee.
type FeeModel int

const (
	// FeeModelSplit charges the buyer fee on top of the total and deducts the
	// seller fee from the seller end value.
	FeeModelSplit FeeModel = iota
	// FeeModelBuyerOnTop charges only the buyer fee, on top of the total.
	FeeModelBuyerOnTop
)

func (m FeeModel) String() string {
	if m == FeeModelBuyerOnTop {
		return "buyer_on_top"
	}
	return "split"
}

func ParseFeeModel(s string) (FeeModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "split":
		return FeeModelSplit, nil
	case "buyer_on_top":
		return FeeModelBuyerOnTop, nil
	default:
		return 0, errors.From(errors.New("unknown fee model"), logan.F{"fee_model": s})
	}
}

// RoyaltyProvider exposes the royalty metadata of traded tokens. Implementations
// return a zero recipient when the token carries no royalty.
type RoyaltyProvider interface {
	RoyaltyInfo(token common.Address, tokenID, salePrice *big.Int) (common.Address, *big.Int)
}

// Rates are fee rates in basis points.
type Rates struct {
	BuyerFee  *big.Int
	SellerFee *big.Int
}

type Engine struct {
	model     FeeModel
	defaults  Rates
	royalties RoyaltyProvider
}

// New returns an engine. defaults are the rates applied to flat orders, which
// carry no sale authorization.
func New(model FeeModel, defaults Rates, royalties RoyaltyProvider) *Engine {
	return &Engine{model: model, defaults: defaults, royalties: royalties}
}

func (e *Engine) Model() FeeModel {
	return e.model
}

// Compute prices a fill of quantity units of o. meta is required for nested
// orders. Flat orders always use the default rates and meta is ignored for
// them, since a flat buy carries no sale meta to settle under.
//
// Every share is floor(total * bps / 10000), computed in the order royalty,
// donation, service fee. The seller receives the remainder, so the shares
// always add up to the total transaction.
func (e *Engine) Compute(o types.Order, quantity *big.Int, meta *types.SaleMeta) (*types.Values, error) {
	if quantity == nil || quantity.Sign() <= 0 {
		return nil, ErrZeroQuantity
	}
	if limit := o.MaxPerBuy(); limit.Sign() > 0 && quantity.Cmp(limit) > 0 {
		return nil, ErrQuantityExceeded
	}

	rates := e.defaults
	var donationBps *big.Int
	var total *uint256.Int
	var err error

	switch order := o.(type) {
	case *types.OrderV1:
		total, err = mul(order.UnitPrice, quantity)
	case *types.OrderV2:
		if meta == nil {
			return nil, ErrSaleMetaRequired
		}
		rates = Rates{BuyerFee: meta.BuyerFee, SellerFee: meta.SellerFee}
		total, err = nestedTotal(order, quantity)
	case *types.OrderV3:
		if meta == nil {
			return nil, ErrSaleMetaRequired
		}
		rates = Rates{BuyerFee: meta.BuyerFee, SellerFee: meta.SellerFee}
		donationBps = order.DonationPercentage
		total, err = nestedTotal(&order.OrderData, quantity)
	default:
		return nil, ErrUnknownOrderShape
	}
	if err != nil {
		return nil, err
	}

	out := o.Out()
	values := &types.Values{Total: total.ToBig()}

	royalty := new(uint256.Int)
	if e.royalties != nil {
		recipient, amount := e.royalties.RoyaltyInfo(out.Token, out.TokenID, values.Total)
		if recipient != (common.Address{}) && amount != nil {
			if royalty, err = toUint(amount); err != nil {
				return nil, err
			}
			values.RoyaltiesRecipient = recipient
		}
	}

	donation, err := share(total, donationBps)
	if err != nil {
		return nil, err
	}
	buyerFee, err := share(total, rates.BuyerFee)
	if err != nil {
		return nil, err
	}
	sellerFee := new(uint256.Int)
	if e.model == FeeModelSplit {
		if sellerFee, err = share(total, rates.SellerFee); err != nil {
			return nil, err
		}
	}

	deductions, overflow := new(uint256.Int).AddOverflow(royalty, donation)
	if !overflow {
		deductions, overflow = deductions.AddOverflow(deductions, sellerFee)
	}
	if overflow || deductions.Gt(total) {
		return nil, ErrInvalidFees
	}

	totalTx, overflow := new(uint256.Int).AddOverflow(total, buyerFee)
	if overflow {
		return nil, ErrAmountOverflow
	}

	values.RoyaltiesAmount = royalty.ToBig()
	values.DonationValue = donation.ToBig()
	values.BuyerFee = buyerFee.ToBig()
	values.SellerFee = sellerFee.ToBig()
	values.ServiceFees = new(uint256.Int).Add(buyerFee, sellerFee).ToBig()
	values.SellerEndValue = new(uint256.Int).Sub(total, deductions).ToBig()
	values.TotalTransaction = totalTx.ToBig()
	return values, nil
}

// nestedTotal is inAsset.quantity * quantity / outAsset.quantity, multiplied
// before dividing.
func nestedTotal(o *types.OrderV2, quantity *big.Int) (*uint256.Int, error) {
	capacity, err := toUint(o.OutAsset.Quantity)
	if err != nil {
		return nil, err
	}
	if capacity.IsZero() {
		return nil, ErrEmptyOrder
	}
	total, err := mul(o.InAsset.Quantity, quantity)
	if err != nil {
		return nil, err
	}
	return total.Div(total, capacity), nil
}

func share(total *uint256.Int, bps *big.Int) (*uint256.Int, error) {
	if bps == nil || bps.Sign() == 0 {
		return new(uint256.Int), nil
	}
	if bps.Sign() < 0 || bps.Cmp(big.NewInt(BasisPoints)) > 0 {
		return nil, ErrInvalidFees
	}
	rate, _ := uint256.FromBig(bps)
	res, overflow := new(uint256.Int).MulOverflow(total, rate)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return res.Div(res, uint256.NewInt(BasisPoints)), nil
}

func mul(a, b *big.Int) (*uint256.Int, error) {
	x, err := toUint(a)
	if err != nil {
		return nil, err
	}
	y, err := toUint(b)
	if err != nil {
		return nil, err
	}
	res, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return res, nil
}

func toUint(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrAmountOverflow
	}
	res, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return res, nil
}
