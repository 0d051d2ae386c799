package pool

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-router/internal/infrastructure/token"
)

var (
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000F0")
	tokenA      = common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenB      = common.HexToAddress("0x0000000000000000000000000000000000000002")
	trader      = common.HexToAddress("0x0000000000000000000000000000000000000077")
)

// payerCallback settles by transferring the owed amount from a funded
// account straight to the pool.
type payerCallback struct {
	tokens *token.Registry
	payer  common.Address
	pool   Pool
	err    error // returned instead of paying when set
}

func (c *payerCallback) SwapCallback(sender common.Address, amount0Delta, amount1Delta *big.Int, data []byte) error {
	if c.err != nil {
		return c.err
	}

	owedToken := c.pool.Token0()
	owed := amount0Delta
	if amount1Delta.Sign() > 0 {
		owedToken = c.pool.Token1()
		owed = amount1Delta
	}
	ledger, err := c.tokens.Get(owedToken)
	if err != nil {
		return err
	}
	return ledger.Transfer(c.payer, sender, owed)
}

func newTestVenue(t *testing.T, reserveA, reserveB int64) (*token.Registry, *Factory, *ConstantProductPool) {
	t.Helper()

	tokens := token.NewRegistry()
	ledgerA := token.NewAssetLedger(tokenA)
	ledgerB := token.NewAssetLedger(tokenB)
	tokens.Register(ledgerA)
	tokens.Register(ledgerB)

	factory := NewFactory(factoryAddr, tokens)
	p, err := factory.CreatePool(tokenA, tokenB, FeeMedium)
	if err != nil {
		t.Fatalf("CreatePool() error = %v", err)
	}

	ledgerA.Mint(p.Address(), big.NewInt(reserveA))
	ledgerB.Mint(p.Address(), big.NewInt(reserveB))
	p.Sync()

	ledgerA.Mint(trader, big.NewInt(1_000_000))
	ledgerB.Mint(trader, big.NewInt(1_000_000))

	return tokens, factory, p
}

func TestPoolAddressDeterministic(t *testing.T) {
	tokens := token.NewRegistry()
	factory := NewFactory(factoryAddr, tokens)

	addr1 := factory.PoolAddress(tokenA, tokenB, FeeMedium)
	addr2 := factory.PoolAddress(tokenB, tokenA, FeeMedium)
	if addr1 != addr2 {
		t.Errorf("address depends on token order: %s != %s", addr1.Hex(), addr2.Hex())
	}

	other := factory.PoolAddress(tokenA, tokenB, FeeLow)
	if other == addr1 {
		t.Error("different fee tiers derived the same address")
	}

	otherFactory := NewFactory(trader, tokens)
	if otherFactory.PoolAddress(tokenA, tokenB, FeeMedium) == addr1 {
		t.Error("different factories derived the same address")
	}
}

func TestFactoryCreateAndGet(t *testing.T) {
	_, factory, p := newTestVenue(t, 1000, 1000)

	got, err := factory.GetPool(tokenB, tokenA, FeeMedium)
	if err != nil {
		t.Fatalf("GetPool() error = %v", err)
	}
	if got.Address() != p.Address() {
		t.Errorf("GetPool() address = %s, want %s", got.Address().Hex(), p.Address().Hex())
	}

	if _, err := factory.GetPool(tokenA, tokenB, FeeHigh); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("GetPool(missing) error = %v, want ErrPoolNotFound", err)
	}

	if _, err := factory.CreatePool(tokenA, tokenB, FeeMedium); !errors.Is(err, ErrPoolExists) {
		t.Errorf("duplicate CreatePool() error = %v, want ErrPoolExists", err)
	}

	if _, err := factory.CreatePool(tokenA, tokenA, FeeMedium); !errors.Is(err, ErrIdenticalTokens) {
		t.Errorf("identical-token CreatePool() error = %v, want ErrIdenticalTokens", err)
	}
}

func TestAmountMath(t *testing.T) {
	reserveIn := big.NewInt(100_000)
	reserveOut := big.NewInt(100_000)

	tests := []struct {
		name     string
		amountIn int64
	}{
		{"small", 100},
		{"mid", 5_000},
		{"large", 50_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := AmountOut(big.NewInt(tt.amountIn), reserveIn, reserveOut, FeeMedium)
			if err != nil {
				t.Fatalf("AmountOut() error = %v", err)
			}
			if out.Sign() <= 0 || out.Cmp(big.NewInt(tt.amountIn)) >= 0 {
				t.Errorf("AmountOut(%d) = %s, want positive and below input for equal reserves", tt.amountIn, out)
			}

			// AmountIn is the minimal input covering out.
			in, err := AmountIn(out, reserveIn, reserveOut, FeeMedium)
			if err != nil {
				t.Fatalf("AmountIn() error = %v", err)
			}
			if in.Cmp(big.NewInt(tt.amountIn)) > 0 {
				t.Errorf("AmountIn(AmountOut(%d)) = %s, exceeds original input", tt.amountIn, in)
			}
			back, err := AmountOut(in, reserveIn, reserveOut, FeeMedium)
			if err != nil {
				t.Fatal(err)
			}
			if back.Cmp(out) < 0 {
				t.Errorf("AmountOut(AmountIn(out)) = %s, below out %s", back, out)
			}
		})
	}
}

func TestAmountMathRejects(t *testing.T) {
	if _, err := AmountOut(big.NewInt(0), big.NewInt(10), big.NewInt(10), FeeMedium); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("AmountOut(0) error = %v, want ErrZeroAmount", err)
	}
	if _, err := AmountIn(big.NewInt(10), big.NewInt(10), big.NewInt(10), FeeMedium); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Errorf("AmountIn(out == reserve) error = %v, want ErrInsufficientLiquidity", err)
	}
	if _, err := AmountOut(big.NewInt(5), big.NewInt(0), big.NewInt(10), FeeMedium); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Errorf("AmountOut(empty reserves) error = %v, want ErrInsufficientLiquidity", err)
	}
}

func TestSwapExactInput(t *testing.T) {
	tokens, _, p := newTestVenue(t, 100_000, 100_000)
	cb := &payerCallback{tokens: tokens, payer: trader, pool: p}

	amountIn := big.NewInt(1_000)
	wantOut, err := p.QuoteOut(tokenA, amountIn)
	if err != nil {
		t.Fatal(err)
	}

	amount0, amount1, err := p.Swap(context.Background(), trader, true, amountIn, nil, cb, nil)
	if err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if amount0.Cmp(amountIn) != 0 {
		t.Errorf("amount0 = %s, want %s", amount0, amountIn)
	}
	if got := new(big.Int).Neg(amount1); got.Cmp(wantOut) != 0 {
		t.Errorf("amount1 = %s, want -%s", amount1, wantOut)
	}

	ledgerB, _ := tokens.Get(tokenB)
	wantBal := new(big.Int).Add(big.NewInt(1_000_000), wantOut)
	if got := ledgerB.BalanceOf(trader); got.Cmp(wantBal) != 0 {
		t.Errorf("trader tokenB balance = %s, want %s", got, wantBal)
	}

	r0, r1 := p.Reserves()
	if r0.Cmp(big.NewInt(101_000)) != 0 {
		t.Errorf("reserve0 = %s, want 101000", r0)
	}
	if want := new(big.Int).Sub(big.NewInt(100_000), wantOut); r1.Cmp(want) != 0 {
		t.Errorf("reserve1 = %s, want %s", r1, want)
	}
}

func TestSwapExactOutput(t *testing.T) {
	tokens, _, p := newTestVenue(t, 100_000, 100_000)
	cb := &payerCallback{tokens: tokens, payer: trader, pool: p}

	amountOut := big.NewInt(1_000)
	wantIn, err := p.QuoteIn(tokenB, amountOut)
	if err != nil {
		t.Fatal(err)
	}

	amount0, amount1, err := p.Swap(context.Background(), trader, true, new(big.Int).Neg(amountOut), nil, cb, nil)
	if err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if amount0.Cmp(wantIn) != 0 {
		t.Errorf("amount0 = %s, want %s", amount0, wantIn)
	}
	if got := new(big.Int).Neg(amount1); got.Cmp(amountOut) != 0 {
		t.Errorf("received = %s, want full fill %s", got, amountOut)
	}
}

func TestSwapAbortsWithoutPayment(t *testing.T) {
	tokens, _, p := newTestVenue(t, 100_000, 100_000)

	// Callback returns without paying; the pool must not release output.
	cb := &payerCallback{tokens: tokens, payer: trader, pool: p, err: nil}
	cb.payer = common.HexToAddress("0x00000000000000000000000000000000000000ee") // unfunded

	_, _, err := p.Swap(context.Background(), trader, true, big.NewInt(1_000), nil, cb, nil)
	if err == nil {
		t.Fatal("Swap() succeeded without settlement")
	}

	ledgerB, _ := tokens.Get(tokenB)
	if got := ledgerB.BalanceOf(trader); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Errorf("trader tokenB balance = %s, want untouched 1000000", got)
	}
	r0, r1 := p.Reserves()
	if r0.Cmp(big.NewInt(100_000)) != 0 || r1.Cmp(big.NewInt(100_000)) != 0 {
		t.Errorf("reserves = %s/%s, want untouched", r0, r1)
	}
}

func TestSwapCallbackErrorPropagates(t *testing.T) {
	tokens, _, p := newTestVenue(t, 100_000, 100_000)
	boom := errors.New("settlement refused")
	cb := &payerCallback{tokens: tokens, payer: trader, pool: p, err: boom}

	_, _, err := p.Swap(context.Background(), trader, true, big.NewInt(1_000), nil, cb, nil)
	if !errors.Is(err, boom) {
		t.Errorf("Swap() error = %v, want callback error", err)
	}
}

// reentrantCallback tries to swap the same pool again from inside its own
// settlement.
type reentrantCallback struct {
	pool Pool
	err  error
}

func (c *reentrantCallback) SwapCallback(sender common.Address, amount0Delta, amount1Delta *big.Int, data []byte) error {
	_, _, c.err = c.pool.Swap(context.Background(), trader, true, big.NewInt(10), nil, c, nil)
	return c.err
}

func TestSwapRejectsReentrancy(t *testing.T) {
	_, _, p := newTestVenue(t, 100_000, 100_000)
	cb := &reentrantCallback{pool: p}

	_, _, err := p.Swap(context.Background(), trader, true, big.NewInt(1_000), nil, cb, nil)
	if err == nil || !strings.Contains(err.Error(), "reentrant") {
		t.Errorf("Swap() error = %v, want reentrant swap rejection", err)
	}
}

func TestSwapPrefundedInput(t *testing.T) {
	tokens, _, p := newTestVenue(t, 100_000, 100_000)

	// Deliver the input before the swap, the way an upstream pool routes
	// pool-to-pool; settlement then has nothing left to transfer.
	ledgerA, _ := tokens.Get(tokenA)
	amountIn := big.NewInt(1_000)
	if err := ledgerA.Transfer(trader, p.Address(), amountIn); err != nil {
		t.Fatal(err)
	}

	_, amount1, err := p.Swap(context.Background(), trader, true, amountIn, nil, noopCallback{}, nil)
	if err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if amount1.Sign() >= 0 {
		t.Errorf("amount1 = %s, want negative output", amount1)
	}
}

type noopCallback struct{}

func (noopCallback) SwapCallback(common.Address, *big.Int, *big.Int, []byte) error { return nil }
