package config

import (
	"os"

	"gitlab.com/distributed_lab/kit/kv"
)

// envOverrides maps section keys onto the environment variables the deploy
// scripts export. A non-empty variable wins over the file value.
var envOverrides = map[string]map[string]string{
	"exchange": {
		"service_fee_beneficiary": "SERVICE_FEE_BENEFICIARY",
		"buyer_fee":               "BUYER_FEE",
		"seller_fee":              "SELLER_FEE",
		"signer":                  "EXCHANGE_SIGNER",
	},
	"editions": {
		"uri":              "EDITIONS_URI",
		"minter":           "MINTER_ADDRESS",
		"contract_uri":     "CONTRACT_URI",
		"opensea_registry": "OPENSEA_REGISTRY",
	},
}

type envGetter struct {
	kv.Getter
	lookup func(string) (string, bool)
}

// WithEnv overlays the deployment environment variables on getter.
func WithEnv(getter kv.Getter) kv.Getter {
	return &envGetter{Getter: getter, lookup: os.LookupEnv}
}

func (g *envGetter) GetStringMap(key string) (map[string]interface{}, error) {
	values, err := g.Getter.GetStringMap(key)
	if err != nil {
		return nil, err
	}

	overrides, ok := envOverrides[key]
	if !ok {
		return values, nil
	}

	merged := make(map[string]interface{}, len(values)+len(overrides))
	for k, v := range values {
		merged[k] = v
	}
	for field, env := range overrides {
		if v, ok := g.lookup(env); ok && v != "" {
			merged[field] = v
		}
	}
	return merged, nil
}
