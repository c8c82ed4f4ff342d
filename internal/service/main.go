package service

import (
	"context"
	"time"

	"github.com/wallkanda/exchange-svc/internal/config"
	"github.com/wallkanda/exchange-svc/internal/data/postgres"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
)

type service struct {
	log     *logan.Entry
	indexer *indexer
	period  time.Duration
}

func (s *service) run(ctx context.Context) error {
	s.log.Info("Service started")
	running.WithBackOff(ctx, s.log, "indexer", s.indexer.run, s.period, s.period, 10*s.period)
	return nil
}

func newService(cfg config.Config) *service {
	network := cfg.Network()
	blocks := postgres.NewBlocks(cfg.DB(), network.ContractAddress)

	last, err := blocks.Get()
	if err != nil {
		panic(errors.Wrap(err, "failed to get last indexed block"))
	}
	var lastBlock uint64
	if last != nil {
		lastBlock = *last
	}

	idx, err := newIndexer(indexerOpts{
		Log:            cfg.Log(),
		Client:         network.EthClient,
		Contract:       network.ContractAddress,
		BlockRange:     network.BlockRange,
		RequestTimeout: network.RequestTimeout,
		LastBlock:      lastBlock,
		Fills:          postgres.NewFills(cfg.DB()),
		Blocks:         blocks,
	})
	if err != nil {
		panic(errors.Wrap(err, "failed to create indexer"))
	}

	return &service{
		log:     cfg.Log(),
		indexer: idx,
		period:  network.IndexPeriod,
	}
}

func Run(ctx context.Context, cfg config.Config) {
	if err := newService(cfg).run(ctx); err != nil {
		panic(err)
	}
}
