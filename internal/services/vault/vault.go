package vault

import (
	"math/big"
	"sync"

	com "github.com/bitdao/governor/internal/common"
	"github.com/bitdao/governor/internal/services/executor"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

// Vault is a minimal funds holder. Deposits are unconditional; withdrawals
// are reachable only through the executor acting for the vault's owner
// resource. Recipient credits are tracked in an internal ledger so transfers
// out remain observable.
type Vault struct {
	addr  common.Address
	owner common.Address

	mu      sync.Mutex
	balance *big.Int
	held    *big.Int
	credits map[common.Address]*big.Int
}

// New creates a vault at addr whose withdrawals may only be invoked on behalf
// of owner.
func New(addr, owner common.Address) *Vault {
	return &Vault{
		addr:    addr,
		owner:   owner,
		balance: new(big.Int),
		held:    new(big.Int),
		credits: map[common.Address]*big.Int{},
	}
}

func (v *Vault) Address() common.Address {
	return v.addr
}

// Deposit increases the vault balance. Anyone may deposit.
func (v *Vault) Deposit(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return com.ErrInvalidCalldata
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.balance.Add(v.balance, amount)

	return nil
}

func (v *Vault) Balance() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return new(big.Int).Set(v.balance)
}

// CreditOf returns the total amount transferred out to recipient.
func (v *Vault) CreditOf(recipient common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	credit, ok := v.credits[recipient]
	if !ok {
		return new(big.Int)
	}

	return new(big.Int).Set(credit)
}

// Prepare stages a single batched call against the vault. An empty payload is
// a plain deposit of the action's value; otherwise the payload must be
// withdraw calldata. A staged withdrawal places a hold on the funds so a
// batch with several withdrawals cannot overdraw.
func (v *Vault) Prepare(sender common.Address, action dao.Action) (executor.Effect, error) {
	if len(action.Payload) == 0 {
		value := action.Value
		if value == nil {
			value = new(big.Int)
		}

		return &depositEffect{v: v, amount: new(big.Int).Set(value)}, nil
	}

	if sender != v.owner {
		return nil, dao.ErrForbidden
	}

	recipient, amount, err := com.ParseWithdraw(action.Payload)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	available := new(big.Int).Sub(v.balance, v.held)
	if amount.Cmp(available) > 0 {
		return nil, dao.ErrInsufficientFunds
	}

	v.held.Add(v.held, amount)

	return &withdrawEffect{v: v, recipient: recipient, amount: amount}, nil
}

type depositEffect struct {
	v      *Vault
	amount *big.Int
}

func (e *depositEffect) Commit() []byte {
	e.v.mu.Lock()
	defer e.v.mu.Unlock()

	e.v.balance.Add(e.v.balance, e.amount)

	return nil
}

func (e *depositEffect) Abort() {}

type withdrawEffect struct {
	v         *Vault
	recipient common.Address
	amount    *big.Int
}

func (e *withdrawEffect) Commit() []byte {
	e.v.mu.Lock()
	defer e.v.mu.Unlock()

	e.v.held.Sub(e.v.held, e.amount)
	e.v.balance.Sub(e.v.balance, e.amount)

	credit, ok := e.v.credits[e.recipient]
	if !ok {
		credit = new(big.Int)
		e.v.credits[e.recipient] = credit
	}
	credit.Add(credit, e.amount)

	return nil
}

func (e *withdrawEffect) Abort() {
	e.v.mu.Lock()
	defer e.v.mu.Unlock()

	e.v.held.Sub(e.v.held, e.amount)
}
