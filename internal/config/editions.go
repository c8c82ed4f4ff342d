package config

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/editions"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Editions struct {
	editions.Config
}

func (c *config) Editions() Editions {
	return c.editionsOnce.Do(func() interface{} {
		var cfg struct {
			Address         common.Address `fig:"address,required"`
			Owner           common.Address `fig:"owner"`
			URI             string         `fig:"uri"`
			Minter          common.Address `fig:"minter"`
			ContractURI     string         `fig:"contract_uri"`
			OpenseaRegistry common.Address `fig:"opensea_registry"`
		}

		err := figure.Out(&cfg).
			With(figure.BaseHooks, figure.EthereumHooks).
			From(kv.MustGetStringMap(c.getter, "editions")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out editions"))
		}

		return Editions{editions.Config{
			Address:         cfg.Address,
			Owner:           cfg.Owner,
			BaseURI:         cfg.URI,
			ContractURI:     cfg.ContractURI,
			Minter:          cfg.Minter,
			OpenseaRegistry: cfg.OpenseaRegistry,
		}}
	}).(Editions)
}
