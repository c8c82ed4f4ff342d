package service

import (
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func (r *indexer) filters() ethereum.FilterQuery {
	topics := make([]common.Hash, 0, len(r.handlers))
	for eventName := range r.handlers {
		event := r.exchangeAbi.Events[eventName]

		topics = append(topics, event.ID)
	}

	return ethereum.FilterQuery{
		Addresses: []common.Address{
			r.contractAddress,
		},
		Topics: [][]common.Hash{
			topics,
		},
	}
}
