package editions

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wallkanda/exchange-svc/internal/ledger"
	"github.com/wallkanda/exchange-svc/internal/signer"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrWrongSignature = types.Reject(types.CodeInvalidSignature, "Wrong Signature")
	ErrAlreadyMinted  = types.Reject(types.CodeAlreadyMinted, "ERC1155: Already minted")
	ErrAlreadyUsed    = types.Reject(types.CodeAlreadyUsed, "Already used.")
	ErrNotOwner       = types.Reject(types.CodeUnauthorized, "Ownable: caller is not the owner")
	ErrNotMinter      = types.Reject(types.CodeUnauthorized, "Editions: caller is not the owner nor an operator")
	ErrLengthMismatch = types.Reject(types.CodeInvalidOrder, "Editions: ids, amounts and artists length mismatch")
	ErrZeroSupply     = types.Reject(types.CodeInvalidOrder, "Editions: supply must be positive")
	ErrRoyaltyTooHigh = types.Reject(types.CodeInvalidOrder, "Editions: royalties too high")
	ErrZeroRecipient  = types.Reject(types.CodeInvalidOrder, "Editions: recipient is the zero address")
	ErrZeroAmount     = types.Reject(types.CodeInvalidOrder, "Editions: amount must cover the recipient unit")
)

const maxRoyaltyBps = 10000

type Config struct {
	Address common.Address
	Owner   common.Address
	// BaseURI may contain {contract}, replaced with the registry address, and
	// {id}, left for clients as ERC-1155 metadata URIs do.
	BaseURI     string
	ContractURI string
	Minter      common.Address
	// OpenseaRegistry is pre-approved to move every holder's editions.
	OpenseaRegistry common.Address
}

// Registry mints ERC-1155 editions whose ids are derived from their metadata,
// so each edition can only ever be minted once.
type Registry struct {
	mu          sync.RWMutex
	address     common.Address
	owner       common.Address
	baseURI     string
	contractURI string
	opensea     common.Address
	operators   map[common.Address]bool
	// ids minted through Mint or the batch path
	used   map[string]bool
	ledger *ledger.Ledger
	log    *logan.Entry
}

func New(cfg Config, l *ledger.Ledger, log *logan.Entry) *Registry {
	r := &Registry{
		address:     cfg.Address,
		owner:       cfg.Owner,
		contractURI: cfg.ContractURI,
		opensea:     cfg.OpenseaRegistry,
		operators:   make(map[common.Address]bool),
		used:        make(map[string]bool),
		ledger:      l,
		log:         log.WithField("editions", cfg.Address.Hex()),
	}
	r.baseURI = r.expand(cfg.BaseURI)
	if cfg.Minter != (common.Address{}) {
		r.operators[cfg.Minter] = true
	}
	return r
}

func (r *Registry) Address() common.Address {
	return r.address
}

func (r *Registry) Owner() common.Address {
	return r.owner
}

func (r *Registry) ContractURI() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contractURI
}

func (r *Registry) IsOperator(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.operators[addr]
}

func (r *Registry) AddOperators(caller common.Address, operators []common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrNotOwner
	}
	for _, op := range operators {
		r.operators[op] = true
	}
	return nil
}

func (r *Registry) SetBaseURI(caller common.Address, uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrNotOwner
	}
	r.baseURI = r.expand(uri)
	return nil
}

func (r *Registry) SetContractURI(caller common.Address, uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrNotOwner
	}
	r.contractURI = uri
	return nil
}

// URI returns the metadata location of id, with {id} as 64 lowercase hex digits.
func (r *Registry) URI(id *big.Int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return strings.ReplaceAll(r.baseURI, "{id}", fmt.Sprintf("%064x", id))
}

// TokenID is the id of the edition described by data.
func TokenID(data []byte) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256(data))
}

// PrepareMessage is what an operator signs to let recipient mint data.
func (r *Registry) PrepareMessage(recipient common.Address, data []byte) (common.Hash, error) {
	return signer.PrepareMintMessage(recipient, data)
}

// Mint creates supply units of the edition described by data for caller, once
// an operator signed (caller, data). royaltyBps of every sale go to
// royaltyRecipient.
func (r *Registry) Mint(caller common.Address, supply *big.Int, royaltyBps int64, royaltyRecipient common.Address,
	data []byte, sig types.Signature) (*big.Int, error) {
	hash, err := signer.PrepareMintMessage(caller, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare mint message")
	}
	minter, err := signer.Recover(hash, sig)
	if err != nil || !r.IsOperator(minter) {
		return nil, ErrWrongSignature
	}
	if supply == nil || supply.Sign() <= 0 {
		return nil, ErrZeroSupply
	}
	if royaltyBps < 0 || royaltyBps > maxRoyaltyBps {
		return nil, ErrRoyaltyTooHigh
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := TokenID(data)
	if r.used[id.String()] {
		return nil, ErrAlreadyMinted
	}
	r.used[id.String()] = true

	r.ledger.MintERC1155(r.address, caller, id, supply)
	if royaltyRecipient != (common.Address{}) && royaltyBps > 0 {
		r.ledger.SetRoyalty(r.address, id, royaltyRecipient, royaltyBps)
	}

	r.log.WithFields(logan.F{
		"id":      id.String(),
		"creator": caller.Hex(),
		"supply":  supply.String(),
	}).Info("edition minted")
	return id, nil
}

// SafeMintBatchForArtistsAndTransfer mints amounts[i] of ids[i] to artists[i]
// and hands one unit of each to recipient. No id of the batch may have been
// minted before; the whole batch fails otherwise.
func (r *Registry) SafeMintBatchForArtistsAndTransfer(caller common.Address, artists []common.Address,
	ids, amounts []*big.Int, recipient common.Address, _ []byte) error {
	if len(artists) != len(ids) || len(ids) != len(amounts) {
		return ErrLengthMismatch
	}
	if recipient == (common.Address{}) {
		return ErrZeroRecipient
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner && !r.operators[caller] {
		return ErrNotMinter
	}
	batch := make(map[string]bool, len(ids))
	for i, id := range ids {
		if id == nil || r.used[id.String()] || batch[id.String()] {
			return ErrAlreadyUsed
		}
		if amounts[i] == nil || amounts[i].Sign() <= 0 {
			return ErrZeroAmount
		}
		batch[id.String()] = true
	}

	// the batch is valid as a whole, nothing below can fail
	one := big.NewInt(1)
	for i, id := range ids {
		r.used[id.String()] = true
		if kept := new(big.Int).Sub(amounts[i], one); kept.Sign() > 0 {
			r.ledger.MintERC1155(r.address, artists[i], id, kept)
		}
		r.ledger.MintERC1155(r.address, recipient, id, one)
	}

	r.log.WithFields(logan.F{
		"count":     len(ids),
		"recipient": recipient.Hex(),
	}).Info("editions batch minted")
	return nil
}

func (r *Registry) BalanceOf(owner common.Address, id *big.Int) *big.Int {
	return r.ledger.ERC1155Balance(r.address, id, owner)
}

// BalanceOfBatch returns the balance of owners[i] in ids[i].
func (r *Registry) BalanceOfBatch(owners []common.Address, ids []*big.Int) ([]*big.Int, error) {
	if len(owners) != len(ids) {
		return nil, errors.From(errors.New("owners and ids length mismatch"), logan.F{
			"owners": len(owners),
			"ids":    len(ids),
		})
	}
	res := make([]*big.Int, len(ids))
	for i := range ids {
		res[i] = r.BalanceOf(owners[i], ids[i])
	}
	return res, nil
}

// IsApprovedForAll also reports the configured marketplace registry as approved.
func (r *Registry) IsApprovedForAll(owner, operator common.Address) bool {
	if r.opensea != (common.Address{}) && operator == r.opensea {
		return true
	}
	return r.ledger.IsApprovedForAll(r.address, owner, operator)
}

func (r *Registry) SetApprovalForAll(owner, operator common.Address, approved bool) {
	r.ledger.SetApprovalForAll(r.address, owner, operator, approved)
}

// RoyaltyInfo returns the royalty owed on a sale of id at salePrice.
func (r *Registry) RoyaltyInfo(id, salePrice *big.Int) (common.Address, *big.Int) {
	return r.ledger.RoyaltyInfo(r.address, id, salePrice)
}

func (r *Registry) expand(uri string) string {
	return strings.ReplaceAll(uri, "{contract}", strings.ToLower(r.address.Hex()))
}
