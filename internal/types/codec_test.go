package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrder(t *testing.T) {
	o, err := DecodeOrder([]byte(`{
		"schema": 3,
		"order": {
			"orderData": {
				"exchange": "0x00000000000000000000000000000000000000e0",
				"maker": "0x00000000000000000000000000000000000000a0",
				"taker": "0x0000000000000000000000000000000000000000",
				"outAsset": {"tokenType": 3, "token": "0x00000000000000000000000000000000000000c0", "tokenId": 7, "quantity": 1},
				"inAsset": {"tokenType": 0, "token": "0x0000000000000000000000000000000000000000", "tokenId": 0, "quantity": 1000000000000000000},
				"maxPerBuy": 0,
				"orderNonce": 42,
				"expiration": 1900000000
			},
			"revenueRecipient": "0x0000000000000000000000000000000000000000",
			"donationRecipient": "0x00000000000000000000000000000000000000d0",
			"donationPercentage": 150
		}
	}`))
	require.NoError(t, err)

	v3, ok := o.(*OrderV3)
	require.True(t, ok)
	require.Equal(t, SchemaV3, v3.Key().Schema)
	require.Equal(t, int64(42), v3.Key().Nonce.Int64())
	require.Equal(t, AssetERC721, v3.Out().TokenType)
	require.Equal(t, "1000000000000000000", v3.OrderData.InAsset.Quantity.String())
	require.Equal(t, common.HexToAddress("0xa0"), v3.Payee())

	again, err := EncodeOrder(o)
	require.NoError(t, err)
	decoded, err := DecodeOrder(again)
	require.NoError(t, err)
	require.Equal(t, o.Key().String(), decoded.Key().String())
}

func TestDecodeOrderUnknownSchema(t *testing.T) {
	_, err := DecodeOrder([]byte(`{"schema": 9, "order": {}}`))
	require.Error(t, err)
}
