package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// V1TokenType is the tag space of flat (V1) orders, where the traded token type
// lives on the order itself.
type V1TokenType uint8

const (
	V1ERC1155 V1TokenType = 0
	V1ERC721  V1TokenType = 1
)

func (t V1TokenType) Valid() bool {
	return t == V1ERC1155 || t == V1ERC721
}

// AssetType is the per-asset tag space used by nested (V2/V3) orders. It is
// unrelated to V1TokenType: equal numbers do not mean equal types.
type AssetType uint8

const (
	AssetEther   AssetType = 0
	AssetERC20   AssetType = 1
	AssetERC1155 AssetType = 2
	AssetERC721  AssetType = 3
)

func (t AssetType) Valid() bool {
	return t <= AssetERC721
}

func (t AssetType) String() string {
	switch t {
	case AssetEther:
		return "ETHER"
	case AssetERC20:
		return "ERC20"
	case AssetERC1155:
		return "ERC1155"
	case AssetERC721:
		return "ERC721"
	default:
		return "UNKNOWN"
	}
}

// IsCurrency reports whether the asset is fungible payment rather than an NFT.
func (t AssetType) IsCurrency() bool {
	return t == AssetEther || t == AssetERC20
}

type Asset struct {
	TokenType AssetType      `json:"tokenType"`
	Token     common.Address `json:"token"`
	TokenID   *big.Int       `json:"tokenId"`
	Quantity  *big.Int       `json:"quantity"`
}

// Ether returns a native currency asset of the given amount.
func Ether(amount *big.Int) Asset {
	return Asset{TokenType: AssetEther, TokenID: new(big.Int), Quantity: amount}
}
