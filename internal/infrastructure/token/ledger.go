package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrPaymentFailed is returned when a transfer cannot be honored by the
// balance/allowance model.
var ErrPaymentFailed = errors.New("payment failed")

// ErrUnknownToken is returned when a registry lookup misses.
var ErrUnknownToken = errors.New("unknown token")

// Ledger is the asset-transfer capability over a conventional
// balance/allowance model. Callers name the acting party explicitly; there
// is no ambient sender.
type Ledger interface {
	Address() common.Address
	BalanceOf(owner common.Address) *big.Int

	// Transfer moves the owner's own funds.
	Transfer(from, to common.Address, amount *big.Int) error

	// TransferFrom moves the owner's funds on behalf of an approved spender.
	TransferFrom(spender, owner, to common.Address, amount *big.Int) error

	// Approve lets spender move up to amount of owner's funds.
	Approve(owner, spender common.Address, amount *big.Int)

	// Checkpoint captures the ledger state and returns a function that
	// restores it. Settlement chains roll back through this on failure so
	// no partial transfer is ever observable.
	Checkpoint() func()
}

// AssetLedger is an in-memory Ledger for one token.
type AssetLedger struct {
	address common.Address

	mu         sync.Mutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

func NewAssetLedger(address common.Address) *AssetLedger {
	return &AssetLedger{
		address:    address,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (l *AssetLedger) Address() common.Address {
	return l.address
}

func (l *AssetLedger) BalanceOf(owner common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[owner]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

// Mint credits fresh supply to an account. Used to seed venues.
func (l *AssetLedger) Mint(to common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(to, amount)
}

func (l *AssetLedger) Transfer(from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

func (l *AssetLedger) TransferFrom(spender, owner, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowance := l.allowance(owner, spender)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: allowance %s below %s for token %s",
			ErrPaymentFailed, allowance, amount, l.address.Hex())
	}
	if err := l.move(owner, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

func (l *AssetLedger) Approve(owner, spender common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	spenders, ok := l.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*big.Int)
		l.allowances[owner] = spenders
	}
	spenders[spender] = new(big.Int).Set(amount)
}

func (l *AssetLedger) Checkpoint() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances := make(map[common.Address]*big.Int, len(l.balances))
	for owner, b := range l.balances {
		balances[owner] = new(big.Int).Set(b)
	}
	allowances := make(map[common.Address]map[common.Address]*big.Int, len(l.allowances))
	for owner, spenders := range l.allowances {
		copied := make(map[common.Address]*big.Int, len(spenders))
		for spender, a := range spenders {
			copied[spender] = new(big.Int).Set(a)
		}
		allowances[owner] = copied
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.balances = balances
		l.allowances = allowances
	}
}

// move and credit require l.mu held.

func (l *AssetLedger) move(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", ErrPaymentFailed)
	}
	balance, ok := l.balances[from]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: balance of %s below %s for token %s",
			ErrPaymentFailed, from.Hex(), amount, l.address.Hex())
	}
	balance.Sub(balance, amount)
	l.credit(to, amount)
	return nil
}

func (l *AssetLedger) credit(to common.Address, amount *big.Int) {
	if b, ok := l.balances[to]; ok {
		b.Add(b, amount)
		return
	}
	l.balances[to] = new(big.Int).Set(amount)
}

func (l *AssetLedger) allowance(owner, spender common.Address) *big.Int {
	if spenders, ok := l.allowances[owner]; ok {
		if a, ok := spenders[spender]; ok {
			return a
		}
	}
	return big.NewInt(0)
}

// Registry resolves token addresses to their ledgers.
type Registry struct {
	mu      sync.RWMutex
	ledgers map[common.Address]Ledger
}

func NewRegistry() *Registry {
	return &Registry{ledgers: make(map[common.Address]Ledger)}
}

func (r *Registry) Register(l Ledger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers[l.Address()] = l
}

// Checkpoint captures every registered ledger and returns a single restore
// function.
func (r *Registry) Checkpoint() func() {
	r.mu.RLock()
	restores := make([]func(), 0, len(r.ledgers))
	for _, l := range r.ledgers {
		restores = append(restores, l.Checkpoint())
	}
	r.mu.RUnlock()

	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}

func (r *Registry) Get(address common.Address) (Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, address.Hex())
	}
	return l, nil
}
