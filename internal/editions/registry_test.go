package editions

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/wallkanda/exchange-svc/internal/ledger"
	"github.com/wallkanda/exchange-svc/internal/signer"
	"gitlab.com/distributed_lab/logan/v3"
)

var (
	registryAddr = common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	deployer     = common.HexToAddress("0xd0")
	creator      = common.HexToAddress("0xc0")
	recipient    = common.HexToAddress("0xee")
	opensea      = common.HexToAddress("0x05")
)

func newRegistry(t *testing.T) *Registry {
	minterKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	return New(Config{
		Address:         registryAddr,
		Owner:           deployer,
		BaseURI:         "https://api.example.com/{contract}/{id}.json",
		ContractURI:     "https://api.example.com/contract.json",
		Minter:          crypto.PubkeyToAddress(minterKey.PublicKey),
		OpenseaRegistry: opensea,
	}, ledger.New(), logan.New().Level(logan.ErrorLevel))
}

func TestRegistryDeploy(t *testing.T) {
	minterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	minter := crypto.PubkeyToAddress(minterKey.PublicKey)

	r := New(Config{
		Address:     registryAddr,
		Owner:       deployer,
		ContractURI: "https://api.example.com/contract.json",
		Minter:      minter,
	}, ledger.New(), logan.New())

	require.Equal(t, "https://api.example.com/contract.json", r.ContractURI())
	require.Equal(t, deployer, r.Owner())
	require.True(t, r.IsOperator(minter))
	require.False(t, r.IsOperator(creator))
}

func TestMint(t *testing.T) {
	minterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	l := ledger.New()
	r := New(Config{
		Address: registryAddr,
		Owner:   deployer,
		Minter:  crypto.PubkeyToAddress(minterKey.PublicKey),
	}, l, logan.New().Level(logan.ErrorLevel))

	data := []byte("012345-133456")
	hash, err := r.PrepareMessage(creator, data)
	require.NoError(t, err)
	sig, err := signer.Sign(hash, minterKey)
	require.NoError(t, err)

	bad := sig
	bad.R[31] ^= 0xff
	_, err = r.Mint(creator, big.NewInt(5), 500, creator, data, bad)
	require.Equal(t, ErrWrongSignature, err)

	// signed for someone else
	_, err = r.Mint(recipient, big.NewInt(5), 500, recipient, data, sig)
	require.Equal(t, ErrWrongSignature, err)

	id, err := r.Mint(creator, big.NewInt(5), 500, creator, data, sig)
	require.NoError(t, err)
	require.Equal(t, TokenID(data), id)
	require.Equal(t, int64(5), r.BalanceOf(creator, id).Int64())

	to, amount := r.RoyaltyInfo(id, big.NewInt(1000))
	require.Equal(t, creator, to)
	require.Equal(t, int64(50), amount.Int64())

	_, err = r.Mint(creator, big.NewInt(5), 500, creator, data, sig)
	require.Equal(t, ErrAlreadyMinted, err)
	require.Equal(t, int64(5), r.BalanceOf(creator, id).Int64())
}

func TestSafeMintBatchForArtistsAndTransfer(t *testing.T) {
	r := newRegistry(t)

	artists := make([]common.Address, 8)
	ids := make([]*big.Int, 8)
	amounts := make([]*big.Int, 8)
	for i, amount := range []int64{2, 2, 1, 2, 2, 2, 1, 2} {
		artists[i] = common.BigToAddress(big.NewInt(int64(0xb1 + i)))
		ids[i] = big.NewInt(int64(i + 1))
		amounts[i] = big.NewInt(amount)
	}

	require.Equal(t, ErrNotMinter, r.SafeMintBatchForArtistsAndTransfer(creator, artists, ids, amounts, recipient, nil))
	require.Equal(t, ErrLengthMismatch, r.SafeMintBatchForArtistsAndTransfer(deployer, artists[:7], ids, amounts, recipient, nil))

	require.NoError(t, r.SafeMintBatchForArtistsAndTransfer(deployer, artists, ids, amounts, recipient, nil))

	owners := make([]common.Address, len(ids))
	for i := range owners {
		owners[i] = recipient
	}
	balances, err := r.BalanceOfBatch(owners, ids)
	require.NoError(t, err)
	for i, b := range balances {
		require.Equal(t, int64(1), b.Int64())
		require.Equal(t, amounts[i].Int64()-1, r.BalanceOf(artists[i], ids[i]).Int64())
	}

	err = r.SafeMintBatchForArtistsAndTransfer(deployer, artists, ids, amounts, recipient, nil)
	require.Equal(t, ErrAlreadyUsed, err)

	// a single reused id spoils the whole batch
	err = r.SafeMintBatchForArtistsAndTransfer(deployer,
		[]common.Address{artists[0], artists[1]},
		[]*big.Int{big.NewInt(100), ids[7]},
		[]*big.Int{big.NewInt(1), big.NewInt(1)},
		recipient, nil)
	require.Equal(t, ErrAlreadyUsed, err)
	require.Zero(t, r.BalanceOf(recipient, big.NewInt(100)).Sign())
}

func TestSafeMintBatchInvalidLeavesNothing(t *testing.T) {
	r := newRegistry(t)
	artists := []common.Address{common.HexToAddress("0xb1"), common.HexToAddress("0xb2")}
	ids := []*big.Int{big.NewInt(1), big.NewInt(2)}

	err := r.SafeMintBatchForArtistsAndTransfer(deployer, artists, ids,
		[]*big.Int{big.NewInt(3), big.NewInt(0)}, recipient, nil)
	require.Equal(t, ErrZeroAmount, err)

	err = r.SafeMintBatchForArtistsAndTransfer(deployer, artists, []*big.Int{big.NewInt(1), big.NewInt(1)},
		[]*big.Int{big.NewInt(1), big.NewInt(1)}, recipient, nil)
	require.Equal(t, ErrAlreadyUsed, err)

	for _, id := range ids {
		require.Zero(t, r.BalanceOf(recipient, id).Sign())
		require.Zero(t, r.BalanceOf(artists[0], id).Sign())
	}

	// the ids of the rejected batches are still free
	require.NoError(t, r.SafeMintBatchForArtistsAndTransfer(deployer, artists, ids,
		[]*big.Int{big.NewInt(3), big.NewInt(1)}, recipient, nil))
	require.Equal(t, int64(2), r.BalanceOf(artists[0], ids[0]).Int64())
	require.Zero(t, r.BalanceOf(artists[1], ids[1]).Sign())
	require.Equal(t, int64(1), r.BalanceOf(recipient, ids[1]).Int64())
}

func TestURI(t *testing.T) {
	r := newRegistry(t)

	require.Equal(t,
		"https://api.example.com/0x5fbdb2315678afecb367f032d93f642f64180aa3/000000000000000000000000000000000000000000000000000000000000000a.json",
		r.URI(big.NewInt(10)))

	require.Equal(t, ErrNotOwner, r.SetBaseURI(creator, "ipfs://nope/{id}"))
	require.NoError(t, r.SetBaseURI(deployer, "ipfs://root/{id}"))
	require.Equal(t, "ipfs://root/0000000000000000000000000000000000000000000000000000000000000001", r.URI(big.NewInt(1)))
}

func TestOperatorsAndApprovals(t *testing.T) {
	r := newRegistry(t)

	require.Equal(t, ErrNotOwner, r.AddOperators(creator, []common.Address{creator}))
	require.NoError(t, r.AddOperators(deployer, []common.Address{creator}))
	require.True(t, r.IsOperator(creator))

	require.True(t, r.IsApprovedForAll(creator, opensea))
	require.False(t, r.IsApprovedForAll(creator, recipient))
	r.SetApprovalForAll(creator, recipient, true)
	require.True(t, r.IsApprovedForAll(creator, recipient))
}
