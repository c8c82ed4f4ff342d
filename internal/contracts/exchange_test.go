package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestExchangeABIEventIDs(t *testing.T) {
	parsed, err := ExchangeABI()
	require.NoError(t, err)

	require.Equal(t,
		crypto.Keccak256Hash([]byte("Buy(address,uint256,address,uint8,address,uint256,uint256,uint256)")),
		parsed.Events[EventBuy].ID)
	require.Equal(t,
		crypto.Keccak256Hash([]byte("CloseOrder(address,uint256,uint8)")),
		parsed.Events[EventCloseOrder].ID)
}

func TestUnpackBuy(t *testing.T) {
	parsed, err := ExchangeABI()
	require.NoError(t, err)

	exchange := common.HexToAddress("0xe0")
	maker := common.HexToAddress("0xa0")
	buyer := common.HexToAddress("0xb0")
	token := common.HexToAddress("0xc0")

	log, err := Pack(parsed, exchange, EventBuy,
		[]interface{}{maker, big.NewInt(1337), buyer},
		uint8(3), token, big.NewInt(1), big.NewInt(2), big.NewInt(20_500_000))
	require.NoError(t, err)
	require.Len(t, log.Topics, 4)

	var event ExchangeBuy
	require.NoError(t, Unpack(parsed, &event, EventBuy, log))
	require.Equal(t, maker, event.Maker)
	require.Equal(t, buyer, event.Buyer)
	require.Equal(t, int64(1337), event.OrderNonce.Int64())
	require.Equal(t, uint8(3), event.Schema)
	require.Equal(t, token, event.Token)
	require.Equal(t, int64(2), event.Quantity.Int64())
	require.Equal(t, int64(20_500_000), event.Value.Int64())

	var closed ExchangeCloseOrder
	require.Error(t, Unpack(parsed, &closed, EventCloseOrder, log))
}
