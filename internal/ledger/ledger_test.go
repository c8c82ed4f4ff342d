package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/wallkanda/exchange-svc/internal/types"
)

var (
	alice = common.HexToAddress("0xa1")
	bob   = common.HexToAddress("0xb0")
	nft   = common.HexToAddress("0xc0")
)

func TestApplyIsAllOrNothing(t *testing.T) {
	l := New()
	l.Credit(alice, big.NewInt(100))
	l.MintERC1155(nft, alice, big.NewInt(1), big.NewInt(2))

	err := l.Apply([]Transfer{
		{Asset: types.Ether(big.NewInt(60)), From: alice, To: bob},
		{Asset: types.Asset{TokenType: types.AssetERC1155, Token: nft, TokenID: big.NewInt(1), Quantity: big.NewInt(3)}, From: alice, To: bob},
	})
	require.Error(t, err)
	require.Equal(t, int64(100), l.NativeBalance(alice).Int64())
	require.Zero(t, l.NativeBalance(bob).Sign())
	require.Equal(t, int64(2), l.ERC1155Balance(nft, big.NewInt(1), alice).Int64())

	err = l.Apply([]Transfer{
		{Asset: types.Ether(big.NewInt(60)), From: alice, To: bob},
		{Asset: types.Ether(big.NewInt(50)), From: alice, To: bob},
	})
	require.Error(t, err, "second transfer must see the staged balance")
	require.Equal(t, int64(100), l.NativeBalance(alice).Int64())
}

func TestApplyERC721(t *testing.T) {
	l := New()
	id := big.NewInt(7)
	require.NoError(t, l.MintERC721(nft, alice, id))
	require.ErrorIs(t, l.MintERC721(nft, bob, id), ErrAlreadyMinted)

	one := types.Asset{TokenType: types.AssetERC721, Token: nft, TokenID: id, Quantity: big.NewInt(1)}
	require.Error(t, l.Apply([]Transfer{{Asset: one, From: bob, To: alice}}))

	require.NoError(t, l.Apply([]Transfer{{Asset: one, From: alice, To: bob}}))
	require.Equal(t, bob, l.OwnerOf(nft, id))
}

func TestRoyaltyInfo(t *testing.T) {
	l := New()
	l.SetRoyalty(nft, big.NewInt(1), bob, 250)

	to, amount := l.RoyaltyInfo(nft, big.NewInt(1), big.NewInt(10000))
	require.Equal(t, bob, to)
	require.Equal(t, int64(250), amount.Int64())

	to, amount = l.RoyaltyInfo(nft, big.NewInt(2), big.NewInt(10000))
	require.Equal(t, common.Address{}, to)
	require.Zero(t, amount.Sign())
}
