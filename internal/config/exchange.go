package config

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/pricing"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Exchange struct {
	Address     common.Address
	Beneficiary common.Address
	Signer      common.Address
	FeeModel    pricing.FeeModel
	// basis points
	BuyerFee  *big.Int
	SellerFee *big.Int
}

func (c *config) Exchange() Exchange {
	return c.exchangeOnce.Do(func() interface{} {
		var cfg struct {
			Address     common.Address `fig:"address,required"`
			Beneficiary common.Address `fig:"service_fee_beneficiary,required"`
			BuyerFee    int64          `fig:"buyer_fee"`
			SellerFee   int64          `fig:"seller_fee"`
			FeeModel    string         `fig:"fee_model"`
			Signer      common.Address `fig:"signer"`
		}

		err := figure.Out(&cfg).
			With(figure.BaseHooks, figure.EthereumHooks).
			From(kv.MustGetStringMap(c.getter, "exchange")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out exchange"))
		}

		model, err := pricing.ParseFeeModel(cfg.FeeModel)
		if err != nil {
			panic(errors.Wrap(err, "failed to parse fee model"))
		}
		for name, bps := range map[string]int64{"buyer_fee": cfg.BuyerFee, "seller_fee": cfg.SellerFee} {
			if bps < 0 || bps > pricing.BasisPoints {
				panic(errors.From(errors.New("fee out of basis points range"), logan.F{name: bps}))
			}
		}

		return Exchange{
			Address:     cfg.Address,
			Beneficiary: cfg.Beneficiary,
			Signer:      cfg.Signer,
			FeeModel:    model,
			BuyerFee:    big.NewInt(cfg.BuyerFee),
			SellerFee:   big.NewInt(cfg.SellerFee),
		}
	}).(Exchange)
}
