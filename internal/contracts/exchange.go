package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	EventBuy        = "Buy"
	EventCloseOrder = "CloseOrder"
)

// ExchangeEventsABI describes the settlement events emitted by the exchange.
const ExchangeEventsABI = `[
	{
		"anonymous": false,
		"name": "Buy",
		"type": "event",
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "maker", "type": "address"},
			{"indexed": true, "internalType": "uint256", "name": "orderNonce", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
			{"indexed": false, "internalType": "uint8", "name": "schema", "type": "uint8"},
			{"indexed": false, "internalType": "address", "name": "token", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "quantity", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "value", "type": "uint256"}
		]
	},
	{
		"anonymous": false,
		"name": "CloseOrder",
		"type": "event",
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "maker", "type": "address"},
			{"indexed": true, "internalType": "uint256", "name": "orderNonce", "type": "uint256"},
			{"indexed": false, "internalType": "uint8", "name": "schema", "type": "uint8"}
		]
	}
]`

type ExchangeBuy struct {
	Maker      common.Address
	OrderNonce *big.Int
	Buyer      common.Address
	Schema     uint8
	Token      common.Address
	TokenId    *big.Int
	Quantity   *big.Int
	Value      *big.Int
	Raw        ethtypes.Log
}

type ExchangeCloseOrder struct {
	Maker      common.Address
	OrderNonce *big.Int
	Schema     uint8
	Raw        ethtypes.Log
}

func ExchangeABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(ExchangeEventsABI))
	if err != nil {
		return abi.ABI{}, errors.Wrap(err, "failed to parse exchange ABI")
	}
	return parsed, nil
}

// Unpack decodes log into out, both the indexed topics and the data.
func Unpack(exchangeABI abi.ABI, out interface{}, eventName string, log ethtypes.Log) error {
	event, ok := exchangeABI.Events[eventName]
	if !ok {
		return errors.From(errors.New("unknown event"), logan.F{"event": eventName})
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return errors.From(errors.New("event signature mismatch"), logan.F{"event": eventName})
	}

	if len(log.Data) > 0 {
		if err := exchangeABI.UnpackIntoInterface(out, eventName, log.Data); err != nil {
			return errors.Wrap(err, "failed to unpack event data", logan.F{"event": eventName})
		}
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	err := abi.ParseTopics(out, indexed, log.Topics[1:])
	return errors.Wrap(err, "failed to parse event topics", logan.F{"event": eventName})
}

// Pack builds the log the exchange emits for eventName. indexed and data hold
// the argument values in declaration order.
func Pack(exchangeABI abi.ABI, contract common.Address, eventName string, indexed []interface{}, data ...interface{}) (ethtypes.Log, error) {
	event, ok := exchangeABI.Events[eventName]
	if !ok {
		return ethtypes.Log{}, errors.From(errors.New("unknown event"), logan.F{"event": eventName})
	}

	query := make([][]interface{}, 0, len(indexed))
	for _, v := range indexed {
		query = append(query, []interface{}{v})
	}
	topics, err := abi.MakeTopics(query...)
	if err != nil {
		return ethtypes.Log{}, errors.Wrap(err, "failed to make topics", logan.F{"event": eventName})
	}

	encoded, err := event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return ethtypes.Log{}, errors.Wrap(err, "failed to pack event data", logan.F{"event": eventName})
	}

	log := ethtypes.Log{Address: contract, Topics: []common.Hash{event.ID}, Data: encoded}
	for _, t := range topics {
		log.Topics = append(log.Topics, t[0])
	}
	return log, nil
}
