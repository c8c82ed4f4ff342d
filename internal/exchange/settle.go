package exchange

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/data"
	"github.com/wallkanda/exchange-svc/internal/ledger"
	"github.com/wallkanda/exchange-svc/internal/signer"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type BuyRequest struct {
	Buyer     common.Address
	Order     types.Order
	Signature types.Signature
	Quantity  *big.Int
	// required by nested orders, ignored for flat ones
	SaleMeta          *types.SaleMeta
	SaleMetaSignature *types.Signature
	// Value is the payment offered in the order currency.
	Value *big.Int
}

type Receipt struct {
	Values types.Values
	Filled *big.Int
	Buy    types.Buy
	// Close is set when the fill exhausted the order.
	Close *types.CloseOrder
}

var errNoProxy = errors.New("exchange has no transfer proxy")

// Check runs every validation Settle runs and prices the fill, without
// executing it. The payment is only compared when Value is set.
func (e *Exchange) Check(req BuyRequest) (*types.Values, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	values, err := e.validate(req)
	if err != nil {
		return nil, err
	}
	if req.Value != nil && req.Value.Cmp(values.TotalTransaction) != 0 {
		return nil, ErrIncorrectPayment
	}
	return values, nil
}

// Settle validates and executes a fill. Every check runs before any transfer.
func (e *Exchange) Settle(req BuyRequest) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	values, err := e.validate(req)
	if err != nil {
		return nil, err
	}
	if req.Value == nil || req.Value.Cmp(values.TotalTransaction) != 0 {
		return nil, ErrIncorrectPayment
	}
	if e.proxy == nil {
		return nil, errNoProxy
	}

	o := req.Order
	key := o.Key()
	log := e.log.WithFields(logan.F{
		"order":    key.String(),
		"buyer":    req.Buyer.Hex(),
		"quantity": req.Quantity,
	})

	transfers, err := e.transfers(req, values)
	if err != nil {
		return nil, err
	}

	fill, err := e.fills.Settle(key, req.Quantity, o.Capacity(), func(*big.Int) error {
		return e.proxy.Execute(e.cfg.Address, req.Buyer, transfers)
	})
	switch err {
	case nil:
	case data.ErrFillClosed:
		return nil, ErrOrderClosed
	case data.ErrFillExceeded:
		return nil, ErrQuantityExceeded
	default:
		if _, ok := types.CodeOf(err); ok {
			return nil, err
		}
		log.WithError(err).Warn("settlement transfers failed")
		return nil, types.Reject(types.CodeTransferFailed, "Sale: transfer failed: "+err.Error())
	}

	out := o.Out()
	receipt := &Receipt{
		Values: *values,
		Filled: fill.Filled,
		Buy: types.Buy{
			Key:      key,
			Buyer:    req.Buyer,
			Token:    out.Token,
			TokenID:  out.TokenID,
			Quantity: req.Quantity,
			Values:   *values,
		},
	}
	log.WithField("total_transaction", values.TotalTransaction).Info("order filled")

	if fill.Closed {
		receipt.Close = &types.CloseOrder{Key: key}
		log.Info("order closed")
	}
	return receipt, nil
}

func (e *Exchange) validate(req BuyRequest) (*types.Values, error) {
	if err := e.authorize(req); err != nil {
		return nil, err
	}
	if err := e.checkAvailable(req.Order, req.Order.Key(), req.Quantity); err != nil {
		return nil, err
	}
	return e.ComputeValues(req.Order, req.Quantity, req.SaleMeta)
}

// authorize checks the maker signature, the sale meta and the buyer.
func (e *Exchange) authorize(req BuyRequest) error {
	o := req.Order
	if o == nil {
		return ErrInvalidOrder
	}

	hash, err := signer.PrepareMessage(o)
	if err != nil {
		return ErrInvalidOrder
	}
	if !signer.Verify(hash, req.Signature, o.MakerAddress()) {
		return ErrInvalidSignature
	}
	if o.ExchangeAddress() != e.cfg.Address {
		return ErrWrongExchange
	}

	if o.Schema() != types.SchemaV1 {
		if req.SaleMeta == nil || req.SaleMetaSignature == nil {
			return ErrSaleMetaRequired
		}
		metaHash, err := signer.PrepareOrderMetaMessage(req.Signature, req.SaleMeta)
		if err != nil {
			return ErrInvalidMetaSignature
		}
		if !signer.Verify(metaHash, *req.SaleMetaSignature, e.cfg.Signer) {
			return ErrInvalidMetaSignature
		}
		if req.SaleMeta.Buyer != req.Buyer {
			return ErrUnauthorizedBuyer
		}
		if req.SaleMeta.Expired(e.now()) {
			return ErrExpired
		}
	}

	if taker := o.Taker(); taker != (common.Address{}) && taker != req.Buyer {
		return ErrNotTaker
	}
	return nil
}

func (e *Exchange) checkAvailable(o types.Order, key types.OrderKey, quantity *big.Int) error {
	var nested *types.OrderV2
	switch order := o.(type) {
	case *types.OrderV2:
		nested = order
	case *types.OrderV3:
		nested = &order.OrderData
	}
	if nested != nil && nested.Expired(e.now()) {
		return ErrOrderExpired
	}

	fill, err := e.fills.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get order fill", logan.F{"order": key.String()})
	}
	filled := new(big.Int)
	if fill != nil {
		if fill.Closed {
			return ErrOrderClosed
		}
		filled = fill.Filled
	}

	if quantity == nil || quantity.Sign() <= 0 {
		return ErrZeroQuantity
	}
	remaining := new(big.Int).Sub(o.Capacity(), filled)
	if quantity.Cmp(remaining) > 0 {
		return ErrQuantityExceeded
	}
	if limit := o.MaxPerBuy(); limit.Sign() > 0 && quantity.Cmp(limit) > 0 {
		return ErrQuantityExceeded
	}
	return nil
}

// transfers lists the asset delivery and the payment distribution of a fill.
func (e *Exchange) transfers(req BuyRequest, values *types.Values) ([]ledger.Transfer, error) {
	o := req.Order
	maker := o.MakerAddress()
	payee := maker

	var currency types.Asset
	switch order := o.(type) {
	case *types.OrderV1:
		currency = order.Currency()
	case *types.OrderV2:
		currency = order.InAsset
	case *types.OrderV3:
		currency = order.OrderData.InAsset
		payee = order.Payee()
	default:
		return nil, ErrInvalidOrder
	}
	if !currency.TokenType.IsCurrency() {
		return nil, types.Reject(types.CodeInvalidOrder, "Sale: order must be paid in currency")
	}

	out := o.Out()
	transfers := []ledger.Transfer{{Asset: unit(out, req.Quantity), From: maker, To: req.Buyer}}

	payment := []struct {
		to     common.Address
		amount *big.Int
	}{
		{payee, values.SellerEndValue},
		{e.cfg.Beneficiary, values.ServiceFees},
		{values.RoyaltiesRecipient, values.RoyaltiesAmount},
	}
	if v3, ok := o.(*types.OrderV3); ok {
		payment = append(payment, struct {
			to     common.Address
			amount *big.Int
		}{v3.DonationRecipient, values.DonationValue})
	}

	for _, p := range payment {
		if p.amount == nil || p.amount.Sign() == 0 {
			continue
		}
		transfers = append(transfers, ledger.Transfer{Asset: unit(currency, p.amount), From: req.Buyer, To: p.to})
	}
	return transfers, nil
}

func unit(a types.Asset, quantity *big.Int) types.Asset {
	a.Quantity = quantity
	return a
}
