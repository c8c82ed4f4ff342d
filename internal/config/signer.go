package config

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Signer struct {
	// nil when the section is absent
	PrivateKey *ecdsa.PrivateKey
}

func (c *config) Signer() Signer {
	return c.signerOnce.Do(func() interface{} {
		var cfg struct {
			PrivateKey string `fig:"private_key"`
		}

		err := figure.Out(&cfg).
			From(kv.MustGetStringMap(c.getter, "signer")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out signer"))
		}
		if cfg.PrivateKey == "" {
			return Signer{}
		}

		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			panic(errors.Wrap(err, "failed to parse signer private key"))
		}
		return Signer{PrivateKey: key}
	}).(Signer)
}
