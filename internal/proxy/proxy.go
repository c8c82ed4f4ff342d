package proxy

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/ledger"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrNotOwner    = errors.New("Ownable: caller is not the owner")
	ErrNotOperator = errors.New("TransferProxy: caller is not an operator")
	ErrNotApproved = errors.New("TransferProxy: transfer not approved by owner")
)

// TransferProxy moves assets on behalf of owners that approved it, for callers
// holding the operator role.
type TransferProxy struct {
	mu        sync.RWMutex
	address   common.Address
	owner     common.Address
	operators map[common.Address]bool
	ledger    *ledger.Ledger
}

func New(address, owner common.Address, l *ledger.Ledger) *TransferProxy {
	return &TransferProxy{
		address:   address,
		owner:     owner,
		operators: make(map[common.Address]bool),
		ledger:    l,
	}
}

func (p *TransferProxy) Address() common.Address {
	return p.address
}

// AddOperators grants the operator role. Only the proxy owner may call it.
func (p *TransferProxy) AddOperators(caller common.Address, operators []common.Address) error {
	if caller != p.owner {
		return ErrNotOwner
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, op := range operators {
		p.operators[op] = true
	}
	return nil
}

func (p *TransferProxy) IsOperator(addr common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.operators[addr]
}

// Execute performs transfers atomically for operator. payer is the account
// that attached native currency to the call: its native transfers need no
// approval. Any other transfer needs the sender to be the operator itself or
// to have approved the proxy.
func (p *TransferProxy) Execute(operator, payer common.Address, transfers []ledger.Transfer) error {
	if !p.IsOperator(operator) {
		return errors.From(ErrNotOperator, logan.F{"operator": operator.Hex()})
	}

	for _, t := range transfers {
		if t.From == operator {
			continue
		}
		if t.Asset.TokenType == types.AssetEther && t.From == payer {
			continue
		}
		if !p.ledger.IsApprovedForAll(t.Asset.Token, t.From, p.address) {
			return errors.From(ErrNotApproved, logan.F{
				"from":  t.From.Hex(),
				"token": t.Asset.Token.Hex(),
			})
		}
	}

	return errors.Wrap(p.ledger.Apply(transfers), "failed to apply transfers")
}
