package config

import (
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/kit/pgdb"
)

type Config interface {
	comfig.Logger
	pgdb.Databaser

	Network() Network
	Exchange() Exchange
	Editions() Editions
	Signer() Signer
}

type config struct {
	comfig.Logger
	pgdb.Databaser
	getter kv.Getter

	networkOnce  comfig.Once
	exchangeOnce comfig.Once
	editionsOnce comfig.Once
	signerOnce   comfig.Once
}

func New(getter kv.Getter) Config {
	getter = WithEnv(getter)
	return &config{
		getter:    getter,
		Databaser: pgdb.NewDatabaser(getter),
		Logger:    comfig.NewLogger(getter, comfig.LoggerOpts{}),
	}
}
