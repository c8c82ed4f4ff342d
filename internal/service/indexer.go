package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/wallkanda/exchange-svc/internal/contracts"
	"github.com/wallkanda/exchange-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// chainClient is the part of ethclient.Client the indexer uses.
type chainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- ethtypes.Log) (ethereum.Subscription, error)
}

type Handler func(ctx context.Context, eventName string, log *ethtypes.Log) error

type indexerOpts struct {
	Log            *logan.Entry
	Client         chainClient
	Contract       common.Address
	BlockRange     uint64
	RequestTimeout time.Duration
	LastBlock      uint64
	Fills          data.Fills
	Blocks         data.Blocks
}

// indexer mirrors the settlement events of the exchange contract into the fill
// store, so fills made on chain are visible to off-chain pricing and checks.
type indexer struct {
	log       *logan.Entry
	ethClient chainClient
	fills     data.Fills
	blocks    data.Blocks

	blockRange     uint64
	lastBlock      uint64
	requestTimeout time.Duration

	handlers        map[string]Handler
	exchangeAbi     abi.ABI
	contractAddress common.Address
}

func newIndexer(opts indexerOpts) (*indexer, error) {
	exchangeAbi, err := contracts.ExchangeABI()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ABI")
	}

	r := &indexer{
		log:             opts.Log.WithField("contract", opts.Contract.Hex()),
		ethClient:       opts.Client,
		fills:           opts.Fills,
		blocks:          opts.Blocks,
		blockRange:      opts.BlockRange,
		lastBlock:       opts.LastBlock,
		requestTimeout:  opts.RequestTimeout,
		exchangeAbi:     exchangeAbi,
		contractAddress: opts.Contract,
	}
	r.handlers = map[string]Handler{
		contracts.EventBuy:        r.handleBuy,
		contracts.EventCloseOrder: r.handleCloseOrder,
	}
	return r, nil
}

// run catches up with the chain and then follows new logs until the
// subscription fails or ctx is done.
func (r *indexer) run(ctx context.Context) error {
	if err := r.catchUp(ctx); err != nil {
		return errors.Wrap(err, "failed to catch up")
	}

	newEvents := make(chan ethtypes.Log, 1024)
	sub, err := r.ethClient.SubscribeFilterLogs(ctx, r.filters(), newEvents)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to logs")
	}
	defer sub.Unsubscribe()

	r.log.WithField("last_block", r.lastBlock).Info("listening for new events")
	return errors.Wrap(r.waitForEvents(ctx, sub, newEvents), "failed to wait for events")
}

func (r *indexer) waitForEvents(ctx context.Context, sub ethereum.Subscription, events <-chan ethtypes.Log) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return errors.Wrap(err, "log subscription failed")
		case event := <-events:
			// blocks before the one of event are complete
			if event.BlockNumber > 0 {
				if err := r.saveLastBlock(event.BlockNumber - 1); err != nil {
					return err
				}
			}
			if err := r.handleEvent(ctx, event); err != nil {
				return errors.Wrap(err, "failed to handle event")
			}
		}
	}
}

func (r *indexer) handleEvent(ctx context.Context, log ethtypes.Log) error {
	if len(log.Topics) == 0 {
		return errors.New("log without topics")
	}
	if log.Removed {
		r.log.WithField("tx_hash", log.TxHash.Hex()).Warn("skipping log removed by reorg")
		return nil
	}

	topic := log.Topics[0] // First topic must be a hashed signature of the event

	event, err := r.exchangeAbi.EventByID(topic)
	if err != nil {
		return errors.Wrap(err, "failed to get event by topic", logan.F{
			"topic": topic.Hex(),
		})
	}

	handler, ok := r.handlers[event.Name]
	if !ok {
		return errors.From(errors.New("no handler for such event name"), logan.F{
			"event_name": event.Name,
		})
	}

	err = handler(ctx, event.Name, &log)
	return errors.Wrap(err, "handling of event failed", logan.F{
		"topic":      topic.Hex(),
		"event_name": event.Name,
	})
}

func (r *indexer) saveLastBlock(block uint64) error {
	if block <= r.lastBlock {
		return nil
	}
	if err := r.blocks.Set(block); err != nil {
		return errors.Wrap(err, "failed to save last block", logan.F{"last_block": block})
	}
	r.lastBlock = block
	return nil
}
