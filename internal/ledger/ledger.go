package ledger

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotOwner            = errors.New("transfer from incorrect owner")
	ErrAlreadyMinted       = errors.New("token already minted")
	ErrUnsupportedAsset    = errors.New("unsupported asset type")
)

// Transfer moves Asset.Quantity units of the asset from From to To.
type Transfer struct {
	Asset types.Asset
	From  common.Address
	To    common.Address
}

type tokenKey struct {
	token common.Address
	id    string
}

type holdingKey struct {
	token common.Address
	id    string
	owner common.Address
}

type approvalKey struct {
	token    common.Address
	owner    common.Address
	operator common.Address
}

type royalty struct {
	recipient common.Address
	bps       int64
}

// Ledger is an in-memory host ledger for native currency, ERC20, ERC721 and
// ERC1155 balances. Every mutation is atomic under a single lock.
type Ledger struct {
	mu sync.RWMutex

	// native and ERC20 balances, ERC20 keyed with an empty id
	fungible  map[holdingKey]*big.Int
	owners    map[tokenKey]common.Address
	editions  map[holdingKey]*big.Int
	approvals map[approvalKey]bool
	royalties map[tokenKey]royalty
}

func New() *Ledger {
	return &Ledger{
		fungible:  make(map[holdingKey]*big.Int),
		owners:    make(map[tokenKey]common.Address),
		editions:  make(map[holdingKey]*big.Int),
		approvals: make(map[approvalKey]bool),
		royalties: make(map[tokenKey]royalty),
	}
}

// Credit adds native currency to addr.
func (l *Ledger) Credit(addr common.Address, amount *big.Int) {
	l.MintERC20(common.Address{}, addr, amount)
}

// MintERC20 adds amount of token to addr. The zero token is native currency.
func (l *Ledger) MintERC20(token, addr common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := holdingKey{token: token, owner: addr}
	l.fungible[k] = new(big.Int).Add(l.fungibleOf(k), amount)
}

func (l *Ledger) MintERC721(token, to common.Address, id *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := tokenKey{token: token, id: id.String()}
	if _, ok := l.owners[k]; ok {
		return ErrAlreadyMinted
	}
	l.owners[k] = to
	return nil
}

func (l *Ledger) MintERC1155(token, to common.Address, id, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := holdingKey{token: token, id: id.String(), owner: to}
	l.editions[k] = new(big.Int).Add(l.editionsOf(k), amount)
}

func (l *Ledger) SetApprovalForAll(token, owner, operator common.Address, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.approvals[approvalKey{token: token, owner: owner, operator: operator}] = approved
}

func (l *Ledger) IsApprovedForAll(token, owner, operator common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approvals[approvalKey{token: token, owner: owner, operator: operator}]
}

// SetRoyalty records an ERC-2981 style royalty of bps basis points for a token.
func (l *Ledger) SetRoyalty(token common.Address, id *big.Int, recipient common.Address, bps int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.royalties[tokenKey{token: token, id: id.String()}] = royalty{recipient: recipient, bps: bps}
}

// RoyaltyInfo returns the royalty recipient and amount owed on salePrice.
func (l *Ledger) RoyaltyInfo(token common.Address, id, salePrice *big.Int) (common.Address, *big.Int) {
	l.mu.RLock()
	r, ok := l.royalties[tokenKey{token: token, id: id.String()}]
	l.mu.RUnlock()
	if !ok || r.recipient == (common.Address{}) {
		return common.Address{}, new(big.Int)
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(r.bps))
	return r.recipient, amount.Div(amount, big.NewInt(10000))
}

func (l *Ledger) NativeBalance(addr common.Address) *big.Int {
	return l.ERC20Balance(common.Address{}, addr)
}

func (l *Ledger) ERC20Balance(token, addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.fungibleOf(holdingKey{token: token, owner: addr}))
}

func (l *Ledger) OwnerOf(token common.Address, id *big.Int) common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owners[tokenKey{token: token, id: id.String()}]
}

func (l *Ledger) ERC1155Balance(token common.Address, id *big.Int, owner common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.editionsOf(holdingKey{token: token, id: id.String(), owner: owner}))
}

// Apply performs transfers in order, all or nothing.
func (l *Ledger) Apply(transfers []Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fungible := make(map[holdingKey]*big.Int)
	owners := make(map[tokenKey]common.Address)
	editions := make(map[holdingKey]*big.Int)

	for i, t := range transfers {
		amount := t.Asset.Quantity
		if amount == nil {
			amount = new(big.Int)
		}
		fields := logan.F{"transfer": i, "asset": t.Asset.TokenType.String(), "from": t.From.Hex()}

		switch t.Asset.TokenType {
		case types.AssetEther, types.AssetERC20:
			token := t.Asset.Token
			if t.Asset.TokenType == types.AssetEther {
				token = common.Address{}
			}
			from := holdingKey{token: token, owner: t.From}
			to := holdingKey{token: token, owner: t.To}
			balance := staged(fungible, from, l.fungibleOf)
			if balance.Cmp(amount) < 0 {
				return errors.From(ErrInsufficientBalance, fields)
			}
			fungible[from] = new(big.Int).Sub(balance, amount)
			fungible[to] = new(big.Int).Add(staged(fungible, to, l.fungibleOf), amount)
		case types.AssetERC721:
			k := tokenKey{token: t.Asset.Token, id: t.Asset.TokenID.String()}
			owner, ok := owners[k]
			if !ok {
				owner = l.owners[k]
			}
			if owner != t.From || amount.Cmp(big.NewInt(1)) != 0 {
				return errors.From(ErrNotOwner, fields)
			}
			owners[k] = t.To
		case types.AssetERC1155:
			id := t.Asset.TokenID.String()
			from := holdingKey{token: t.Asset.Token, id: id, owner: t.From}
			to := holdingKey{token: t.Asset.Token, id: id, owner: t.To}
			balance := staged(editions, from, l.editionsOf)
			if balance.Cmp(amount) < 0 {
				return errors.From(ErrInsufficientBalance, fields)
			}
			editions[from] = new(big.Int).Sub(balance, amount)
			editions[to] = new(big.Int).Add(staged(editions, to, l.editionsOf), amount)
		default:
			return errors.From(ErrUnsupportedAsset, fields)
		}
	}

	for k, v := range fungible {
		l.fungible[k] = v
	}
	for k, v := range owners {
		l.owners[k] = v
	}
	for k, v := range editions {
		l.editions[k] = v
	}
	return nil
}

func staged(overlay map[holdingKey]*big.Int, k holdingKey, base func(holdingKey) *big.Int) *big.Int {
	if v, ok := overlay[k]; ok {
		return v
	}
	return base(k)
}

func (l *Ledger) fungibleOf(k holdingKey) *big.Int {
	if v, ok := l.fungible[k]; ok {
		return v
	}
	return new(big.Int)
}

func (l *Ledger) editionsOf(k holdingKey) *big.Int {
	if v, ok := l.editions[k]; ok {
		return v
	}
	return new(big.Int)
}
