package service

import (
	"context"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/wallkanda/exchange-svc/internal/contracts"
	"github.com/wallkanda/exchange-svc/internal/data"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func (r *indexer) handleBuy(_ context.Context, eventName string, log *ethtypes.Log) error {
	var event contracts.ExchangeBuy
	if err := contracts.Unpack(r.exchangeAbi, &event, eventName, *log); err != nil {
		return errors.Wrap(err, "failed to unpack event", logan.F{
			"event": eventName,
		})
	}

	key := types.OrderKey{
		Schema:   types.Schema(event.Schema),
		Exchange: log.Address,
		Maker:    event.Maker,
		Nonce:    event.OrderNonce,
	}
	if err := r.fills.Record(key, event.Quantity, data.LogID{TxHash: log.TxHash, Index: log.Index}); err != nil {
		return errors.Wrap(err, "failed to record fill", logan.F{"order": key.String()})
	}

	r.log.WithFields(logan.F{
		"order":    key.String(),
		"buyer":    event.Buyer.Hex(),
		"quantity": event.Quantity.String(),
		"block":    log.BlockNumber,
	}).Debug("indexed buy")
	return nil
}

func (r *indexer) handleCloseOrder(_ context.Context, eventName string, log *ethtypes.Log) error {
	var event contracts.ExchangeCloseOrder
	if err := contracts.Unpack(r.exchangeAbi, &event, eventName, *log); err != nil {
		return errors.Wrap(err, "failed to unpack event", logan.F{
			"event": eventName,
		})
	}

	key := types.OrderKey{
		Schema:   types.Schema(event.Schema),
		Exchange: log.Address,
		Maker:    event.Maker,
		Nonce:    event.OrderNonce,
	}
	if err := r.fills.Close(key); err != nil {
		return errors.Wrap(err, "failed to close order", logan.F{"order": key.String()})
	}

	r.log.WithFields(logan.F{
		"order": key.String(),
		"block": log.BlockNumber,
	}).Debug("indexed order close")
	return nil
}
