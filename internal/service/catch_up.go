package service

import (
	"context"
	"math/big"

	"gitlab.com/distributed_lab/logan/v3/errors"
)

// catchUp handles the logs between the saved block and the chain head, in
// windows of blockRange blocks when it is set.
func (r *indexer) catchUp(ctx context.Context) error {
	childCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	currBlock, err := r.ethClient.BlockNumber(childCtx)
	cancel()
	if err != nil {
		return errors.Wrap(err, "failed to get latest block from the network")
	}
	if currBlock == r.lastBlock {
		return nil
	}
	if currBlock < r.lastBlock {
		return errors.Errorf("given saved_last_block=%d is greater than network_latest_block=%d", r.lastBlock, currBlock)
	}

	step := r.blockRange
	if step == 0 {
		step = currBlock - r.lastBlock
	}

	for start := r.lastBlock + 1; start <= currBlock; start += step {
		end := start + step - 1
		if end > currBlock {
			end = currBlock
		}
		if err = r.handleRange(ctx, start, end); err != nil {
			return errors.Wrap(err, "failed to handle events")
		}
	}

	r.log.WithField("last_block", r.lastBlock).Info("successfully caught up")
	return nil
}

func (r *indexer) handleRange(ctx context.Context, start, end uint64) error {
	filters := r.filters()
	filters.FromBlock = new(big.Int).SetUint64(start)
	filters.ToBlock = new(big.Int).SetUint64(end)

	childCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	logs, err := r.ethClient.FilterLogs(childCtx, filters)
	if err != nil {
		return errors.Wrap(err, "failed to get filter logs")
	}

	for _, log := range logs {
		if err := r.handleEvent(ctx, log); err != nil {
			return errors.Wrap(err, "failed to handle event")
		}
	}

	return r.saveLastBlock(end)
}
