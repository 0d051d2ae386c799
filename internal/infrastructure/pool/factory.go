package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bimakw/swap-router/internal/infrastructure/token"
)

var (
	ErrPoolExists      = errors.New("pool already exists")
	ErrPoolNotFound    = errors.New("pool does not exist")
	ErrIdenticalTokens = errors.New("identical tokens")
)

// poolInitCodeHash seeds the deterministic address derivation, standing in
// for the hash of the pool's deployment bytecode.
var poolInitCodeHash = crypto.Keccak256([]byte("swap-router/constant-product-pool/v1"))

// Factory creates pools and derives their addresses. Pool identity is a
// pure function of the unordered token pair and fee tier, so anyone holding
// the factory address can recompute it without consulting factory state.
type Factory struct {
	address common.Address
	tokens  *token.Registry

	mu    sync.RWMutex
	pools map[common.Address]Pool
}

func NewFactory(address common.Address, tokens *token.Registry) *Factory {
	return &Factory{
		address: address,
		tokens:  tokens,
		pools:   make(map[common.Address]Pool),
	}
}

func (f *Factory) Address() common.Address {
	return f.address
}

// PoolAddress derives the address for a token pair and fee tier the same
// way CREATE2 does: keccak(0xff ++ factory ++ keccak(token0,token1,fee) ++
// initCodeHash), last 20 bytes.
func (f *Factory) PoolAddress(tokenA, tokenB common.Address, fee uint32) common.Address {
	token0, token1 := sortTokens(tokenA, tokenB)

	salt := crypto.Keccak256(
		token0.Bytes(),
		token1.Bytes(),
		[]byte{byte(fee >> 16), byte(fee >> 8), byte(fee)},
	)
	digest := crypto.Keccak256(
		[]byte{0xff},
		f.address.Bytes(),
		salt,
		poolInitCodeHash,
	)
	return common.BytesToAddress(digest[12:])
}

// CreatePool registers a constant-product pool for the pair. Reserves start
// empty; seed the pool's ledger balances and call Sync.
func (f *Factory) CreatePool(tokenA, tokenB common.Address, fee uint32) (*ConstantProductPool, error) {
	if tokenA == tokenB {
		return nil, ErrIdenticalTokens
	}
	token0, token1 := sortTokens(tokenA, tokenB)

	ledger0, err := f.tokens.Get(token0)
	if err != nil {
		return nil, err
	}
	ledger1, err := f.tokens.Get(token1)
	if err != nil {
		return nil, err
	}

	address := f.PoolAddress(token0, token1, fee)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pools[address]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, address.Hex())
	}

	p := newConstantProductPool(address, ledger0, ledger1, fee)
	f.pools[address] = p
	return p, nil
}

func (f *Factory) GetPool(tokenA, tokenB common.Address, fee uint32) (Pool, error) {
	address := f.PoolAddress(tokenA, tokenB, fee)

	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.pools[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s fee %d", ErrPoolNotFound, tokenA.Hex(), tokenB.Hex(), fee)
	}
	return p, nil
}

// sortTokens sorts two addresses in ascending order.
func sortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if tokenA.Hex() < tokenB.Hex() {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}
