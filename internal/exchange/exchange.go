package exchange

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/data"
	"github.com/wallkanda/exchange-svc/internal/pricing"
	"github.com/wallkanda/exchange-svc/internal/proxy"
	"github.com/wallkanda/exchange-svc/internal/signer"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
)

type Config struct {
	Address common.Address
	// Beneficiary receives the service fees.
	Beneficiary common.Address
	// Signer countersigns sale metas.
	Signer   common.Address
	FeeModel pricing.FeeModel
	// default rates of flat orders, in basis points
	BuyerFee  *big.Int
	SellerFee *big.Int
}

// Exchange settles signed maker orders. Settlements are serialised: each one
// either commits entirely or leaves every balance and counter untouched.
type Exchange struct {
	mu      sync.Mutex
	cfg     Config
	log     *logan.Entry
	fills   data.Fills
	proxy   *proxy.TransferProxy
	pricing *pricing.Engine
	now     func() time.Time
}

type Option func(*Exchange)

// WithClock replaces the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(e *Exchange) {
		e.now = now
	}
}

func New(cfg Config, log *logan.Entry, fills data.Fills, p *proxy.TransferProxy, royalties pricing.RoyaltyProvider, opts ...Option) *Exchange {
	e := &Exchange{
		cfg:   cfg,
		log:   log.WithField("exchange", cfg.Address.Hex()),
		fills: fills,
		proxy: p,
		pricing: pricing.New(cfg.FeeModel, pricing.Rates{
			BuyerFee:  cfg.BuyerFee,
			SellerFee: cfg.SellerFee,
		}, royalties),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exchange) Address() common.Address {
	return e.cfg.Address
}

func (e *Exchange) PrepareOrderMessage(o *types.OrderV1) (common.Hash, error) {
	return signer.PrepareOrderMessage(o)
}

func (e *Exchange) PrepareOrderV2Message(o types.Order) (common.Hash, error) {
	return signer.PrepareOrderV2Message(o)
}

func (e *Exchange) PrepareOrderMetaMessage(orderSig types.Signature, meta *types.SaleMeta) (common.Hash, error) {
	return signer.PrepareOrderMetaMessage(orderSig, meta)
}

// ComputeValues prices a fill without touching any state.
func (e *Exchange) ComputeValues(o types.Order, quantity *big.Int, meta *types.SaleMeta) (*types.Values, error) {
	values, err := e.pricing.Compute(o, quantity, meta)
	if err != nil {
		return nil, rejection(err)
	}
	return values, nil
}

// Fill returns the settlement state of an order, nil if it was never filled.
func (e *Exchange) Fill(key types.OrderKey) (*data.Fill, error) {
	return e.fills.Get(key)
}

// Buy settles a flat order.
func (e *Exchange) Buy(buyer common.Address, o *types.OrderV1, sig types.Signature, quantity, value *big.Int) (*Receipt, error) {
	return e.Settle(BuyRequest{
		Buyer:     buyer,
		Order:     o,
		Signature: sig,
		Quantity:  quantity,
		Value:     value,
	})
}

// BuyV2 settles a nested order under a sale meta countersigned by the
// exchange signer.
func (e *Exchange) BuyV2(buyer common.Address, o types.Order, sig types.Signature, quantity *big.Int,
	meta *types.SaleMeta, metaSig types.Signature, value *big.Int) (*Receipt, error) {
	return e.Settle(BuyRequest{
		Buyer:             buyer,
		Order:             o,
		Signature:         sig,
		Quantity:          quantity,
		SaleMeta:          meta,
		SaleMetaSignature: &metaSig,
		Value:             value,
	})
}
