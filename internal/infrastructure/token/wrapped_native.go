package token

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// DepositRecord is emitted whenever native asset is wrapped.
type DepositRecord struct {
	To     common.Address
	Amount *big.Int
}

// WrappedNative is the native-asset wrapper capability: a token ledger for
// the wrapped form plus a native balance table, so wrap/unwrap flows and
// refunds are observable end to end.
type WrappedNative struct {
	*AssetLedger

	mu       sync.Mutex
	native   map[common.Address]*big.Int
	deposits []DepositRecord
}

func NewWrappedNative(address common.Address) *WrappedNative {
	return &WrappedNative{
		AssetLedger: NewAssetLedger(address),
		native:      make(map[common.Address]*big.Int),
	}
}

func (w *WrappedNative) NativeBalanceOf(owner common.Address) *big.Int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.native[owner]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

// MintNative credits native asset to an account. Used to seed venues and to
// model value attached to a call.
func (w *WrappedNative) MintNative(to common.Address, amount *big.Int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.creditNative(to, amount)
}

// TransferNative moves native asset between accounts, e.g. attaching value
// to a router call or refunding unspent value.
func (w *WrappedNative) TransferNative(from, to common.Address, amount *big.Int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.debitNative(from, amount); err != nil {
		return err
	}
	w.creditNative(to, amount)
	return nil
}

// Deposit converts exactly amount of the holder's native balance into
// wrapped form and emits a deposit record (holder, amount).
func (w *WrappedNative) Deposit(to common.Address, amount *big.Int) error {
	w.mu.Lock()
	if err := w.debitNative(to, amount); err != nil {
		w.mu.Unlock()
		return err
	}
	w.deposits = append(w.deposits, DepositRecord{To: to, Amount: new(big.Int).Set(amount)})
	w.mu.Unlock()

	w.AssetLedger.Mint(to, amount)
	return nil
}

// Withdraw converts wrapped balance back to native form.
func (w *WrappedNative) Withdraw(from common.Address, amount *big.Int) error {
	if err := w.AssetLedger.Transfer(from, burnAddress, amount); err != nil {
		return err
	}

	w.mu.Lock()
	w.creditNative(from, amount)
	w.mu.Unlock()
	return nil
}

// Deposits returns every deposit record emitted so far.
func (w *WrappedNative) Deposits() []DepositRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]DepositRecord, len(w.deposits))
	copy(out, w.deposits)
	return out
}

// Checkpoint extends the wrapped ledger's checkpoint with the native
// balance table and the deposit log.
func (w *WrappedNative) Checkpoint() func() {
	restoreLedger := w.AssetLedger.Checkpoint()

	w.mu.Lock()
	native := make(map[common.Address]*big.Int, len(w.native))
	for owner, b := range w.native {
		native[owner] = new(big.Int).Set(b)
	}
	deposits := make([]DepositRecord, len(w.deposits))
	copy(deposits, w.deposits)
	w.mu.Unlock()

	return func() {
		restoreLedger()
		w.mu.Lock()
		w.native = native
		w.deposits = deposits
		w.mu.Unlock()
	}
}

// creditNative and debitNative require w.mu held.

func (w *WrappedNative) creditNative(to common.Address, amount *big.Int) {
	if b, ok := w.native[to]; ok {
		b.Add(b, amount)
		return
	}
	w.native[to] = new(big.Int).Set(amount)
}

func (w *WrappedNative) debitNative(from common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", ErrPaymentFailed)
	}
	b, ok := w.native[from]
	if !ok || b.Cmp(amount) < 0 {
		return fmt.Errorf("%w: native balance of %s below %s", ErrPaymentFailed, from.Hex(), amount)
	}
	b.Sub(b, amount)
	return nil
}

// burnAddress absorbs wrapped supply on withdrawal.
var burnAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
